package agentcard

import (
	"encoding/json"
	"fmt"
)

// Parse decodes a UTF-8 JSON document into an AgentCard.
// Malformed JSON is a defined failure for the caller to report; it is the only
// parse-level error this engine produces.
func Parse(data []byte) (*AgentCard, error) {
	var card AgentCard
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("failed to parse Agent Card JSON: %w", err)
	}
	return &card, nil
}
