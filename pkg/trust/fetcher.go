package trust

import (
	"context"

	"github.com/go-jose/go-jose/v4"

	"github.com/capiscio/cardscore/pkg/crypto"
)

// PinnedFetcher resolves JWKS lookups from pinned store keys before going to
// the network, so repeat validations against a pinned issuer work offline.
type PinnedFetcher struct {
	store Store
	next  crypto.JWKSFetcher
}

// NewPinnedFetcher wraps next with a pinned-key lookup against store.
func NewPinnedFetcher(store Store, next crypto.JWKSFetcher) *PinnedFetcher {
	return &PinnedFetcher{store: store, next: next}
}

// Fetch returns the pinned keys for url when the store has any, falling back
// to the wrapped fetcher otherwise.
func (f *PinnedFetcher) Fetch(ctx context.Context, url string) (*jose.JSONWebKeySet, error) {
	if f.store != nil {
		if keys, err := f.store.KeysFor(url); err == nil && len(keys) > 0 {
			return &jose.JSONWebKeySet{Keys: keys}, nil
		}
	}
	return f.next.Fetch(ctx, url)
}
