package trust

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	assert.NoError(t, err)
	return store
}

func testKey(t *testing.T, kid string) jose.JSONWebKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	assert.NoError(t, err)
	return jose.JSONWebKey{
		Key:       &priv.PublicKey,
		KeyID:     kid,
		Algorithm: "RS256",
		Use:       "sig",
	}
}

func TestFileStore_AddAndCheckIssuer(t *testing.T) {
	store := newTestStore(t)
	uri := "https://agents.example.com/.well-known/jwks.json"

	assert.False(t, store.IsTrusted(uri))
	assert.NoError(t, store.AddIssuer(uri))
	assert.True(t, store.IsTrusted(uri))

	issuers, err := store.ListIssuers()
	assert.NoError(t, err)
	assert.Equal(t, []string{uri}, issuers)
}

func TestFileStore_RemoveIssuer(t *testing.T) {
	store := newTestStore(t)
	uri := "https://agents.example.com/jwks.json"

	assert.NoError(t, store.AddIssuer(uri))
	assert.NoError(t, store.RemoveIssuer(uri))
	assert.False(t, store.IsTrusted(uri))

	assert.ErrorIs(t, store.RemoveIssuer(uri), ErrIssuerNotFound)
}

func TestFileStore_PinAndRetrieveKeys(t *testing.T) {
	store := newTestStore(t)
	uri := "https://agents.example.com/jwks.json"

	key := testKey(t, "kid1")
	assert.NoError(t, store.PinKey(uri, key))

	keys, err := store.KeysFor(uri)
	assert.NoError(t, err)
	if assert.Len(t, keys, 1) {
		assert.Equal(t, "kid1", keys[0].KeyID)
	}

	// Pinning implies trusting the issuer.
	assert.True(t, store.IsTrusted(uri))
}

func TestFileStore_PinKeyRequiresKid(t *testing.T) {
	store := newTestStore(t)
	key := testKey(t, "")
	assert.ErrorIs(t, store.PinKey("https://x.example.com/jwks.json", key), ErrInvalidKey)
}

func TestFileStore_PinKeyIdempotent(t *testing.T) {
	store := newTestStore(t)
	uri := "https://agents.example.com/jwks.json"
	key := testKey(t, "kid1")

	assert.NoError(t, store.PinKey(uri, key))
	assert.NoError(t, store.PinKey(uri, key))

	keys, err := store.KeysFor(uri)
	assert.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestFileStore_PinJWKS(t *testing.T) {
	store := newTestStore(t)
	uri := "https://agents.example.com/jwks.json"
	jwks := &jose.JSONWebKeySet{
		Keys: []jose.JSONWebKey{testKey(t, "k1"), testKey(t, "k2")},
	}

	assert.NoError(t, store.PinJWKS(uri, jwks))
	keys, err := store.KeysFor(uri)
	assert.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestFileStore_KeysForUnknownIssuer(t *testing.T) {
	store := newTestStore(t)
	_, err := store.KeysFor("https://unknown.example.com/jwks.json")
	assert.ErrorIs(t, err, ErrIssuerNotFound)
}

func TestFileStore_SanitizedKidFilenames(t *testing.T) {
	store := newTestStore(t)
	uri := "https://agents.example.com/jwks.json"
	key := testKey(t, "https://issuer/key:1")

	assert.NoError(t, store.PinKey(uri, key))
	keys, err := store.KeysFor(uri)
	assert.NoError(t, err)
	assert.Len(t, keys, 1)
}

func TestStaticList_Matching(t *testing.T) {
	list := StaticList{
		"https://agents.example.com/.well-known/jwks.json",
		"trusted.example.org",
	}

	// Exact URL match.
	assert.True(t, list.IsTrusted("https://agents.example.com/.well-known/jwks.json"))
	// Prefix match on issuer URL.
	assert.True(t, list.IsTrusted("https://agents.example.com/.well-known/jwks.json/v2"))
	// Bare hostname match.
	assert.True(t, list.IsTrusted("https://trusted.example.org/keys/jwks.json"))

	assert.False(t, list.IsTrusted("https://evil.example.com/jwks.json"))
	assert.False(t, StaticList{}.IsTrusted("https://agents.example.com/jwks.json"))
}

func TestFileStore_HostnameIssuerEntry(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.AddIssuer("agents.example.com"))
	assert.True(t, store.IsTrusted("https://agents.example.com/any/path/jwks.json"))
}
