package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// documentStore persists one collection as a single JSON document on
// disk. Every mutation is a read-modify-write of the whole document
// under the store's lock, which is what keeps concurrent admin writes
// from losing updates.
type documentStore struct {
	path string
	mu   sync.RWMutex
}

func newDocumentStore(dir, name string) *documentStore {
	return &documentStore{path: filepath.Join(dir, name)}
}

// load decodes the document into v. A missing file leaves v untouched,
// so callers seed v with the collection's empty value first.
func (s *documentStore) load(v interface{}) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return nil
}

// replace writes v as the new document. The temp-file rename keeps a
// crash mid-write from truncating the collection.
func (s *documentStore) replace(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.path, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
