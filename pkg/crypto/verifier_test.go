package crypto

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/capiscio/cardscore/pkg/agentcard"
)

// MockJWKSFetcher is a mock implementation of JWKSFetcher
type MockJWKSFetcher struct {
	mock.Mock
}

func (m *MockJWKSFetcher) Fetch(ctx context.Context, url string) (*jose.JSONWebKeySet, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jose.JSONWebKeySet), args.Error(1)
}

// signCard signs the card's canonical payload and attaches the detached
// signature, returning the key set that verifies it.
func signCard(t *testing.T, card *agentcard.AgentCard, extraHeaders map[jose.HeaderKey]interface{}) jose.JSONWebKeySet {
	t.Helper()

	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoError(t, err)

	jwks := jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{{
			Key:       &privKey.PublicKey,
			KeyID:     "kid1",
			Algorithm: "RS256",
			Use:       "sig",
		}},
	}

	headers := map[jose.HeaderKey]interface{}{
		jose.HeaderKey("kid"): "kid1",
		jose.HeaderKey("jku"): "https://example.com/.well-known/jwks.json",
	}
	for k, v := range extraHeaders {
		headers[k] = v
	}

	canonicalJSON, err := CreateCanonicalJSON(card)
	assert.NoError(t, err)

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.RS256, Key: privKey}, &jose.SignerOptions{
		ExtraHeaders: headers,
	})
	assert.NoError(t, err)

	jws, err := signer.Sign(canonicalJSON)
	assert.NoError(t, err)

	compact, err := jws.CompactSerialize()
	assert.NoError(t, err)
	parts := strings.Split(compact, ".")
	assert.Equal(t, 3, len(parts))

	card.Signatures = append(card.Signatures, agentcard.Signature{
		Protected: parts[0],
		Signature: parts[2],
	})
	return jwks
}

func TestVerifier_VerifyAgentCardSignatures_NoSignatures(t *testing.T) {
	verifier := NewVerifier()
	card := &agentcard.AgentCard{
		Name: "Test Agent",
	}

	result, err := verifier.VerifyAgentCardSignatures(context.Background(), card)
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, SkipNoSignatures, result.Skipped)
	assert.Equal(t, 0, result.Summary.Total)
}

func TestVerifier_VerifyAgentCardSignatures_InvalidHeader(t *testing.T) {
	verifier := NewVerifier()
	card := &agentcard.AgentCard{
		Name: "Test Agent",
		Signatures: []agentcard.Signature{
			{Protected: "invalid-base64", Signature: "sig"},
		},
	}

	result, err := verifier.VerifyAgentCardSignatures(context.Background(), card)
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, 1, result.Summary.Total)
	assert.Equal(t, 1, result.Summary.Failed)
	// "invalid-base64" is valid base64url, so decoding may succeed and the
	// failure surfaces at the JSON stage instead.
	assert.True(t,
		strings.Contains(result.Signatures[0].Error, "invalid protected header encoding") ||
			strings.Contains(result.Signatures[0].Error, "invalid protected header json"),
		"Error should be about encoding or json: %s", result.Signatures[0].Error,
	)
}

func TestVerifier_VerifyAgentCardSignatures_Success(t *testing.T) {
	card := &agentcard.AgentCard{
		Name: "Test Agent",
		URL:  "https://example.com",
	}
	jwks := signCard(t, card, nil)

	mockFetcher := new(MockJWKSFetcher)
	mockFetcher.On("Fetch", mock.Anything, "https://example.com/.well-known/jwks.json").Return(&jwks, nil)

	verifier := NewVerifierWithFetcher(mockFetcher)
	result, err := verifier.VerifyAgentCardSignatures(context.Background(), card)
	assert.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, 1, result.Summary.Total)
	assert.Equal(t, 1, result.Summary.Valid)
	assert.Equal(t, 0, result.Summary.Failed)
	assert.Equal(t, "RS256", result.Signatures[0].Algorithm)
	assert.Equal(t, "kid1", result.Signatures[0].KeyID)
	assert.Equal(t, "https://example.com/.well-known/jwks.json", result.Signatures[0].JWKSUri)
}

func TestVerifier_VerifyAgentCardSignatures_TamperedPayload(t *testing.T) {
	card := &agentcard.AgentCard{
		Name: "Test Agent",
		URL:  "https://example.com",
	}
	jwks := signCard(t, card, nil)

	mockFetcher := new(MockJWKSFetcher)
	mockFetcher.On("Fetch", mock.Anything, "https://example.com/.well-known/jwks.json").Return(&jwks, nil)

	verifier := NewVerifierWithFetcher(mockFetcher)

	card.Name = "Tampered Agent"

	result, err := verifier.VerifyAgentCardSignatures(context.Background(), card)
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, 1, result.Summary.Total)
	assert.Equal(t, 1, result.Summary.Failed)
	assert.Contains(t, result.Signatures[0].Error, "signature verification failed")
}

func TestVerifier_VerifyAgentCardSignatures_SignaturesExcludedFromPayload(t *testing.T) {
	// Adding a second signature must not invalidate the first: the canonical
	// payload excludes the signatures field.
	card := &agentcard.AgentCard{
		Name: "Test Agent",
		URL:  "https://example.com",
	}
	jwks := signCard(t, card, nil)

	card.Signatures = append(card.Signatures, agentcard.Signature{
		Protected: card.Signatures[0].Protected,
		Signature: "AAAA",
	})

	mockFetcher := new(MockJWKSFetcher)
	mockFetcher.On("Fetch", mock.Anything, "https://example.com/.well-known/jwks.json").Return(&jwks, nil)

	verifier := NewVerifierWithFetcher(mockFetcher)
	result, err := verifier.VerifyAgentCardSignatures(context.Background(), card)
	assert.NoError(t, err)
	assert.False(t, result.Valid) // mixed verdicts: one valid, one failed
	assert.True(t, result.Signatures[0].Valid)
	assert.False(t, result.Signatures[1].Valid)
	assert.Equal(t, 1, result.Summary.Valid)
	assert.Equal(t, 1, result.Summary.Failed)
}

func TestVerifier_VerifyAgentCardSignatures_HTTPJWKSRejected(t *testing.T) {
	card := &agentcard.AgentCard{
		Name: "Test Agent",
		URL:  "https://example.com",
	}
	signCard(t, card, map[jose.HeaderKey]interface{}{
		jose.HeaderKey("jku"): "http://example.com/jwks.json",
	})

	mockFetcher := new(MockJWKSFetcher)
	verifier := NewVerifierWithFetcher(mockFetcher)

	result, err := verifier.VerifyAgentCardSignatures(context.Background(), card)
	assert.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Signatures[0].Error, "https")
	mockFetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestVerifier_VerifyAgentCardSignatures_FetchFailure(t *testing.T) {
	card := &agentcard.AgentCard{
		Name: "Test Agent",
		URL:  "https://example.com",
	}
	signCard(t, card, nil)

	mockFetcher := new(MockJWKSFetcher)
	mockFetcher.On("Fetch", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	verifier := NewVerifierWithFetcher(mockFetcher)
	result, err := verifier.VerifyAgentCardSignatures(context.Background(), card)
	assert.NoError(t, err, "network failure is a verdict, not an error")
	assert.False(t, result.Valid)
	assert.Contains(t, result.Signatures[0].Error, "failed to fetch JWKS")
}

func TestVerifier_SignedAtFromTSHeader(t *testing.T) {
	card := &agentcard.AgentCard{
		Name: "Test Agent",
		URL:  "https://example.com",
	}
	jwks := signCard(t, card, map[jose.HeaderKey]interface{}{
		jose.HeaderKey("ts"): "2026-08-01T12:00:00Z",
	})

	mockFetcher := new(MockJWKSFetcher)
	mockFetcher.On("Fetch", mock.Anything, mock.Anything).Return(&jwks, nil)

	verifier := NewVerifierWithFetcher(mockFetcher)
	result, err := verifier.VerifyAgentCardSignatures(context.Background(), card)
	assert.NoError(t, err)
	assert.True(t, result.Valid)
	expected := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, result.Signatures[0].SignedAt.Equal(expected))
}
