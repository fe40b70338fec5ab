package crypto

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/go-jose/go-jose/v4"

	"github.com/capiscio/cardscore/pkg/agentcard"
)

// SkipReason records why signature verification did not run. The two reasons
// stay distinct because downstream consumers treat an unsigned card and an
// explicit opt-out differently.
type SkipReason string

const (
	SkipNone         SkipReason = ""
	SkipNoSignatures SkipReason = "no-signatures"
	SkipDisabled     SkipReason = "disabled"
)

// SignatureVerificationResult contains the result of verifying all signatures.
type SignatureVerificationResult struct {
	Valid      bool                `json:"valid"`
	Skipped    SkipReason          `json:"skipped,omitempty"`
	Signatures []SignatureResult   `json:"signatures,omitempty"`
	Summary    VerificationSummary `json:"summary"`
}

// SignatureResult is the verdict for a single detached signature.
// Verification failures are data, not errors: Valid false plus a reason.
type SignatureResult struct {
	Index     int       `json:"index"`
	Valid     bool      `json:"valid"`
	Algorithm string    `json:"algorithm,omitempty"`
	KeyID     string    `json:"keyId,omitempty"`
	JWKSUri   string    `json:"jwksUri,omitempty"`
	SignedAt  time.Time `json:"signedAt,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// VerificationSummary aggregates per-signature verdicts.
type VerificationSummary struct {
	Total  int      `json:"total"`
	Valid  int      `json:"valid"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}

// Verifier handles Agent Card signature verification.
type Verifier struct {
	jwksFetcher JWKSFetcher
}

// NewVerifier creates a new Verifier with the default JWKS fetcher.
func NewVerifier() *Verifier {
	return &Verifier{jwksFetcher: NewDefaultJWKSFetcher()}
}

// NewVerifierWithFetcher creates a new Verifier with a custom JWKS fetcher.
func NewVerifierWithFetcher(fetcher JWKSFetcher) *Verifier {
	return &Verifier{jwksFetcher: fetcher}
}

// SkippedResult builds the result recorded when verification does not run.
func SkippedResult(reason SkipReason) *SignatureVerificationResult {
	return &SignatureVerificationResult{Skipped: reason}
}

// VerifyAgentCardSignatures verifies every signature on the card. Network and
// key failures become per-signature verdicts; the only error return is a
// payload that cannot be canonicalized, which is a contract violation rather
// than an environmental condition.
func (v *Verifier) VerifyAgentCardSignatures(ctx context.Context, card *agentcard.AgentCard) (*SignatureVerificationResult, error) {
	if len(card.Signatures) == 0 {
		return SkippedResult(SkipNoSignatures), nil
	}

	payload, err := CreateCanonicalJSON(card)
	if err != nil {
		return nil, fmt.Errorf("failed to create canonical payload: %w", err)
	}

	var results []SignatureResult
	var errorMsgs []string
	validCount := 0

	for i, sig := range card.Signatures {
		res := v.verifySingleSignature(ctx, payload, sig, i)
		results = append(results, res)
		if res.Valid {
			validCount++
		} else {
			errorMsgs = append(errorMsgs, fmt.Sprintf("Signature %d: %s", i+1, res.Error))
		}
	}

	return &SignatureVerificationResult{
		Valid:      validCount > 0 && validCount == len(card.Signatures),
		Signatures: results,
		Summary: VerificationSummary{
			Total:  len(card.Signatures),
			Valid:  validCount,
			Failed: len(card.Signatures) - validCount,
			Errors: errorMsgs,
		},
	}, nil
}

type protectedHeader struct {
	Alg     string `json:"alg"`
	Kid     string `json:"kid"`
	Jku     string `json:"jku"`
	JwksURI string `json:"jwks_uri"`
	Ts      string `json:"ts"`
	Iat     int64  `json:"iat"`
}

func (v *Verifier) verifySingleSignature(ctx context.Context, payload []byte, sig agentcard.Signature, index int) SignatureResult {
	res := SignatureResult{Index: index}

	headerBytes, err := base64.RawURLEncoding.DecodeString(sig.Protected)
	if err != nil {
		res.Error = fmt.Sprintf("invalid protected header encoding: %v", err)
		return res
	}

	var header protectedHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		res.Error = fmt.Sprintf("invalid protected header json: %v", err)
		return res
	}

	res.Algorithm = header.Alg
	res.KeyID = header.Kid
	res.SignedAt = signedAt(header)

	if header.Alg == "none" || header.Alg == "" {
		res.Error = "algorithm 'none' or empty is not allowed"
		return res
	}

	jwksURL := header.Jku
	if jwksURL == "" {
		jwksURL = header.JwksURI
	}
	if jwksURL == "" {
		res.Error = "missing jku or jwks_uri in header"
		return res
	}
	res.JWKSUri = jwksURL

	u, err := url.Parse(jwksURL)
	if err != nil || u.Scheme != "https" {
		res.Error = "jwks_uri must be a valid https url"
		return res
	}

	// Reconstruct the compact JWS from the detached parts.
	payloadEncoded := base64.RawURLEncoding.EncodeToString(payload)
	compactJWS := fmt.Sprintf("%s.%s.%s", sig.Protected, payloadEncoded, sig.Signature)

	jwsObj, err := jose.ParseSigned(compactJWS, []jose.SignatureAlgorithm{jose.SignatureAlgorithm(header.Alg)})
	if err != nil {
		res.Error = fmt.Sprintf("failed to parse JWS: %v", err)
		return res
	}

	jwks, err := v.jwksFetcher.Fetch(ctx, jwksURL)
	if err != nil {
		res.Error = fmt.Sprintf("failed to fetch JWKS: %v", err)
		return res
	}
	if len(jwks.Keys) == 0 {
		res.Error = "empty JWKS"
		return res
	}

	verified := false
	for _, key := range jwks.Keys {
		if header.Kid != "" && key.KeyID != header.Kid {
			continue
		}
		if _, err := jwsObj.Verify(key); err == nil {
			verified = true
			break
		}
	}

	if !verified {
		res.Error = "signature verification failed"
		return res
	}

	res.Valid = true
	return res
}

// signedAt extracts the optional signing timestamp ("ts" RFC3339 string or
// numeric "iat") from the protected header. A zero time means unknown.
func signedAt(h protectedHeader) time.Time {
	if h.Ts != "" {
		if t, err := time.Parse(time.RFC3339, h.Ts); err == nil {
			return t
		}
	}
	if h.Iat > 0 {
		return time.Unix(h.Iat, 0).UTC()
	}
	return time.Time{}
}
