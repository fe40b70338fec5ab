package crypto

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/go-jose/go-jose/v4"

	"github.com/capiscio/cardscore/internal/httpclient"
)

// JWKSFetcher handles fetching and caching of JSON Web Key Sets.
type JWKSFetcher interface {
	Fetch(ctx context.Context, url string) (*jose.JSONWebKeySet, error)
}

type cacheEntry struct {
	jwks      *jose.JSONWebKeySet
	expiresAt time.Time
}

// DefaultJWKSFetcher fetches key sets over HTTPS and caches them for a TTL.
// Plaintext HTTP key distribution is never trusted: non-https URLs are a hard
// failure before any network activity.
type DefaultJWKSFetcher struct {
	client *httpclient.Client
	cache  map[string]cacheEntry
	mu     sync.RWMutex
	ttl    time.Duration
}

// NewDefaultJWKSFetcher creates a fetcher with a 10 second request timeout and
// 1 hour cache TTL.
func NewDefaultJWKSFetcher() *DefaultJWKSFetcher {
	return NewJWKSFetcherWithClient(httpclient.New(httpclient.WithTimeout(10 * time.Second)))
}

// NewJWKSFetcherWithClient creates a fetcher using the supplied HTTP client.
func NewJWKSFetcherWithClient(client *httpclient.Client) *DefaultJWKSFetcher {
	return &DefaultJWKSFetcher{
		client: client,
		cache:  make(map[string]cacheEntry),
		ttl:    1 * time.Hour,
	}
}

// SetTTL configures the cache time-to-live.
func (f *DefaultJWKSFetcher) SetTTL(ttl time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ttl = ttl
}

// FlushCache clears all cached JWKS entries.
func (f *DefaultJWKSFetcher) FlushCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = make(map[string]cacheEntry)
}

// Fetch retrieves the JWKS from the specified URL, using cache if available.
func (f *DefaultJWKSFetcher) Fetch(ctx context.Context, rawURL string) (*jose.JSONWebKeySet, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" {
		return nil, fmt.Errorf("jwks url must use https: %s", rawURL)
	}

	f.mu.RLock()
	entry, found := f.cache[rawURL]
	f.mu.RUnlock()

	if found && time.Now().Before(entry.expiresAt) {
		return entry.jwks, nil
	}

	resp, cerr := f.client.Get(ctx, rawURL, nil)
	if cerr != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", cerr)
	}
	if resp.Status != 200 {
		return nil, fmt.Errorf("failed to fetch JWKS: status %d", resp.Status)
	}

	var jwks jose.JSONWebKeySet
	if err := json.Unmarshal(resp.Body, &jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	f.mu.Lock()
	f.cache[rawURL] = cacheEntry{
		jwks:      &jwks,
		expiresAt: time.Now().Add(f.ttl),
	}
	f.mu.Unlock()

	return &jwks, nil
}
