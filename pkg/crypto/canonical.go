// Package crypto verifies detached JWS signatures on Agent Cards against
// remotely fetched JWKS key sets.
package crypto

import (
	"encoding/json"
	"fmt"

	canonicaljson "github.com/gibson042/canonicaljson-go"

	"github.com/capiscio/cardscore/pkg/agentcard"
)

// CreateCanonicalJSON produces the canonical (JCS) byte representation of the
// Agent Card that signatures are computed over. The "signatures" field is
// removed first so the payload is stable under re-signing.
func CreateCanonicalJSON(card *agentcard.AgentCard) ([]byte, error) {
	data, err := json.Marshal(card)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal agent card: %w", err)
	}

	var rawMap map[string]interface{}
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into map: %w", err)
	}

	delete(rawMap, "signatures")

	canonical, err := canonicaljson.Marshal(rawMap)
	if err != nil {
		return nil, fmt.Errorf("failed to create canonical json: %w", err)
	}

	return canonical, nil
}
