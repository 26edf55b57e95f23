package store

import (
	"encoding/json"
	"path/filepath"
	"sync"

	"w3session/internal/domain"
)

const (
	plainFile  = "session.json"
	sealedFile = "session.enc"
)

// FileStore keeps the key/value map in a single file under dir. With a
// non-empty passphrase the map is sealed with scrypt and ChaCha20-Poly1305;
// without one it is plain JSON readable only by the owner.
type FileStore struct {
	dir        string
	passphrase string
	kdf        scryptParams
	mu         sync.Mutex
}

// NewFileStore returns a FileStore rooted at dir.
func NewFileStore(dir, passphrase string) *FileStore {
	return &FileStore{dir: dir, passphrase: passphrase, kdf: defaultScrypt}
}

func (s *FileStore) path() string {
	if s.passphrase == "" {
		return filepath.Join(s.dir, plainFile)
	}
	return filepath.Join(s.dir, sealedFile)
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

// Set stores value under key, replacing any previous value.
func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return err
	}
	m[key] = value
	return s.save(m)
}

// Delete removes key.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return s.save(m)
}

func (s *FileStore) load() (map[string]string, error) {
	m := make(map[string]string)
	if s.passphrase == "" {
		if err := readJSON(s.path(), &m); err != nil {
			return nil, err
		}
		return m, nil
	}

	b, err := readFile(s.path())
	if err != nil || b == nil {
		return m, err
	}
	raw, err := unseal(s.passphrase, b)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *FileStore) save(m map[string]string) error {
	if s.passphrase == "" {
		return writeJSON(s.path(), m, 0o600)
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	b, err := seal(s.passphrase, raw, s.kdf)
	if err != nil {
		return err
	}
	return writeFile(s.path(), b, 0o600)
}

// Compile-time assertion that FileStore implements domain.KeyValueStore.
var _ domain.KeyValueStore = (*FileStore)(nil)
