package blob

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

const DefaultInlineCapacityBytes int64 = 4 * 1024 * 1024 // mirrors small KV-store quotas

// InlineStore keeps every payload base64-encoded in a single JSON document
// (<root>/blobs.json) with a total capacity cap. It trades capacity for a
// one-file workspace; exceeding the cap returns ErrCapacity, which callers
// treat as a quota warning rather than a fatal error.
type InlineStore struct {
	path     string
	capacity int64
}

func NewInlineStore(workspaceDir string, capacity int64) (*InlineStore, error) {
	if capacity <= 0 {
		capacity = DefaultInlineCapacityBytes
	}
	dir := filepath.Clean(workspaceDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &InlineStore{path: filepath.Join(dir, "blobs.json"), capacity: capacity}, nil
}

func (s *InlineStore) load() (map[string]string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	out := map[string]string{}
	if err := json.Unmarshal(b, &out); err != nil {
		// A corrupted blob document loses payloads but must not take the
		// structural path down with it.
		return map[string]string{}, nil
	}
	return out, nil
}

func (s *InlineStore) save(m map[string]string) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *InlineStore) Put(id string, data []byte) error {
	m, err := s.load()
	if err != nil {
		return err
	}
	enc := base64.StdEncoding.EncodeToString(data)

	var total int64
	for k, v := range m {
		if k == id {
			continue
		}
		total += int64(len(v))
	}
	if total+int64(len(enc)) > s.capacity {
		return ErrCapacity
	}

	m[id] = enc
	return s.save(m)
}

func (s *InlineStore) Get(id string) ([]byte, error) {
	m, err := s.load()
	if err != nil {
		return nil, err
	}
	enc, ok := m[id]
	if !ok {
		return nil, ErrNotFound
	}
	b, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *InlineStore) Delete(id string) error {
	m, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := m[id]; !ok {
		return nil
	}
	delete(m, id)
	return s.save(m)
}

func (s *InlineStore) Has(id string) bool {
	m, err := s.load()
	if err != nil {
		return false
	}
	_, ok := m[id]
	return ok
}
