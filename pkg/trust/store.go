// Package trust maintains a local store of trusted signature issuers.
// An issuer is identified by its JWKS URI; the store can also pin the
// keys fetched from that URI so repeat validations work offline.
package trust

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-jose/go-jose/v4"
)

// Common errors returned by this package.
var (
	ErrKeyNotFound    = errors.New("key not found in trust store")
	ErrIssuerNotFound = errors.New("issuer not found in trust store")
	ErrInvalidKey     = errors.New("invalid key format")
)

// Checker answers whether a JWKS URI belongs to a trusted issuer.
type Checker interface {
	IsTrusted(jwksURI string) bool
}

// StaticList is a Checker backed by an in-memory issuer list, used when
// issuers are supplied on the command line rather than from a store.
type StaticList []string

// IsTrusted reports whether uri matches any listed issuer by host or prefix.
func (l StaticList) IsTrusted(uri string) bool {
	for _, issuer := range l {
		if issuerMatches(issuer, uri) {
			return true
		}
	}
	return false
}

// issuerMatches accepts an exact prefix match on the issuer URL, or a
// bare-hostname entry matching the URI's host.
func issuerMatches(issuer, uri string) bool {
	if issuer == "" {
		return false
	}
	if strings.Contains(issuer, "://") {
		return uri == issuer || strings.HasPrefix(uri, strings.TrimSuffix(issuer, "/")+"/")
	}
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), issuer)
}

// Store is the interface for a persistent trust store.
type Store interface {
	Checker

	// AddIssuer marks an issuer JWKS URI as trusted.
	AddIssuer(jwksURI string) error

	// RemoveIssuer removes an issuer and its pinned key mappings.
	RemoveIssuer(jwksURI string) error

	// ListIssuers returns every trusted issuer URI.
	ListIssuers() ([]string, error)

	// PinKey stores a key and associates it with an issuer.
	PinKey(jwksURI string, key jose.JSONWebKey) error

	// KeysFor returns the pinned keys for an issuer.
	KeysFor(jwksURI string) ([]jose.JSONWebKey, error)
}

// FileStore implements Store using the filesystem.
// Default location: ~/.cardscore/trust/
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// DefaultTrustDir returns the default trust store directory.
func DefaultTrustDir() string {
	if envPath := os.Getenv("CARDSCORE_TRUST_PATH"); envPath != "" {
		return envPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cardscore/trust"
	}
	return filepath.Join(home, ".cardscore", "trust")
}

// NewFileStore creates a new file-based trust store.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultTrustDir()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create trust directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// issuerRecord is the on-disk shape of the issuers file: issuer URI to
// the kids of its pinned keys.
type issuerRecord map[string][]string

func (s *FileStore) issuersPath() string {
	return filepath.Join(s.dir, "issuers.json")
}

func (s *FileStore) keyPath(kid string) string {
	return filepath.Join(s.dir, sanitizeFilename(kid)+".jwk")
}

// IsTrusted reports whether jwksURI matches a stored issuer.
func (s *FileStore) IsTrusted(jwksURI string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issuers, err := s.loadIssuers()
	if err != nil {
		return false
	}
	for issuer := range issuers {
		if issuerMatches(issuer, jwksURI) {
			return true
		}
	}
	return false
}

// AddIssuer marks an issuer JWKS URI as trusted.
func (s *FileStore) AddIssuer(jwksURI string) error {
	if jwksURI == "" {
		return fmt.Errorf("issuer URI must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	issuers, err := s.loadIssuers()
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if issuers == nil {
		issuers = make(issuerRecord)
	}
	if _, ok := issuers[jwksURI]; !ok {
		issuers[jwksURI] = nil
	}
	return s.saveIssuers(issuers)
}

// RemoveIssuer removes an issuer and deletes its pinned keys.
func (s *FileStore) RemoveIssuer(jwksURI string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	issuers, err := s.loadIssuers()
	if err != nil {
		if os.IsNotExist(err) {
			return ErrIssuerNotFound
		}
		return err
	}
	kids, ok := issuers[jwksURI]
	if !ok {
		return ErrIssuerNotFound
	}
	for _, kid := range kids {
		_ = os.Remove(s.keyPath(kid))
	}
	delete(issuers, jwksURI)
	return s.saveIssuers(issuers)
}

// ListIssuers returns every trusted issuer URI.
func (s *FileStore) ListIssuers() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issuers, err := s.loadIssuers()
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(issuers))
	for issuer := range issuers {
		out = append(out, issuer)
	}
	return out, nil
}

// PinKey stores a key and associates it with an issuer. The issuer is
// added to the trusted set if it is not already present.
func (s *FileStore) PinKey(jwksURI string, key jose.JSONWebKey) error {
	if key.KeyID == "" {
		return fmt.Errorf("%w: missing kid", ErrInvalidKey)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(key, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}
	if err := os.WriteFile(s.keyPath(key.KeyID), data, 0600); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}

	issuers, err := s.loadIssuers()
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if issuers == nil {
		issuers = make(issuerRecord)
	}
	for _, kid := range issuers[jwksURI] {
		if kid == key.KeyID {
			return nil
		}
	}
	issuers[jwksURI] = append(issuers[jwksURI], key.KeyID)
	return s.saveIssuers(issuers)
}

// KeysFor returns the pinned keys for an issuer.
func (s *FileStore) KeysFor(jwksURI string) ([]jose.JSONWebKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issuers, err := s.loadIssuers()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrIssuerNotFound
		}
		return nil, err
	}
	kids, ok := issuers[jwksURI]
	if !ok {
		return nil, ErrIssuerNotFound
	}

	var keys []jose.JSONWebKey
	for _, kid := range kids {
		data, err := os.ReadFile(s.keyPath(kid))
		if err != nil {
			continue // skip missing keys
		}
		var key jose.JSONWebKey
		if err := json.Unmarshal(data, &key); err != nil {
			continue // skip invalid keys
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, ErrKeyNotFound
	}
	return keys, nil
}

// PinJWKS pins all keys from a key set under one issuer.
func (s *FileStore) PinJWKS(jwksURI string, jwks *jose.JSONWebKeySet) error {
	for _, key := range jwks.Keys {
		if err := s.PinKey(jwksURI, key); err != nil {
			return fmt.Errorf("failed to pin key %s: %w", key.KeyID, err)
		}
	}
	return nil
}

func (s *FileStore) loadIssuers() (issuerRecord, error) {
	data, err := os.ReadFile(s.issuersPath())
	if err != nil {
		return nil, err
	}
	var issuers issuerRecord
	if err := json.Unmarshal(data, &issuers); err != nil {
		return nil, fmt.Errorf("failed to parse issuers file: %w", err)
	}
	return issuers, nil
}

func (s *FileStore) saveIssuers(issuers issuerRecord) error {
	data, err := json.MarshalIndent(issuers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal issuers: %w", err)
	}
	if err := os.WriteFile(s.issuersPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write issuers file: %w", err)
	}
	return nil
}

// sanitizeFilename converts a kid to a safe filename.
func sanitizeFilename(kid string) string {
	safe := make([]byte, 0, len(kid))
	for _, c := range []byte(kid) {
		switch c {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			safe = append(safe, '_')
		default:
			safe = append(safe, c)
		}
	}
	return string(safe)
}
