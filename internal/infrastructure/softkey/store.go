package softkey

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// credential is one key pair minted by the authenticator.
type credential struct {
	ID         []byte `json:"id"`
	RPID       string `json:"rp_id"`
	UserHandle []byte `json:"user_handle"`
	UserName   string `json:"user_name,omitempty"`
	PrivateKey []byte `json:"private_key"`
	SignCount  uint32 `json:"sign_count"`
	key        *ecdsa.PrivateKey
}

func (c *credential) signer() (*ecdsa.PrivateKey, error) {
	if c.key != nil {
		return c.key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(c.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("parse credential key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("credential key is %T, want ECDSA", parsed)
	}
	c.key = key
	return key, nil
}

// Store holds credentials in memory and, when given a path, mirrors them to a JSON file.
type Store struct {
	mu    sync.Mutex
	path  string
	creds []*credential
}

// NewMemoryStore creates a Store that is never persisted.
func NewMemoryStore() *Store {
	return &Store{}
}

// OpenStore loads the credentials kept at path. A missing file is an empty store.
func OpenStore(path string) (*Store, error) {
	s := &Store{path: path}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read credential store: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.creds); err != nil {
		return nil, fmt.Errorf("decode credential store %s: %w", path, err)
	}
	return s, nil
}

// Len returns the number of stored credentials.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.creds)
}

func (s *Store) add(c *credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = append(s.creds, c)
	return s.saveLocked()
}

// find returns the first credential for rpID whose id is in allowed, or any credential
// for rpID when allowed is empty.
func (s *Store) find(rpID string, allowed [][]byte) *credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.creds {
		if c.RPID != rpID {
			continue
		}
		if len(allowed) == 0 {
			return c
		}
		for _, id := range allowed {
			if bytes.Equal(id, c.ID) {
				return c
			}
		}
	}
	return nil
}

// bump increments the signature counter of c and returns the new value.
func (s *Store) bump(c *credential) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.SignCount++
	return c.SignCount, s.saveLocked()
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
