package blob

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const DefaultMaxBlobBytes int64 = 50 * 1024 * 1024 // 50MB per payload

// FilesystemStore keeps one file per blob under <root>/resources/blobs/<id>.
// This is the default backend: payloads never touch the structural database,
// so a huge PDF costs nothing on every document save.
type FilesystemStore struct {
	dir      string
	maxBytes int64
}

func NewFilesystemStore(workspaceDir string, maxBytes int64) (*FilesystemStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBlobBytes
	}
	dir := filepath.Join(filepath.Clean(workspaceDir), "resources", "blobs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FilesystemStore{dir: dir, maxBytes: maxBytes}, nil
}

func (s *FilesystemStore) path(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "/\\") {
		return "", fmt.Errorf("blob: invalid id %q", id)
	}
	return filepath.Join(s.dir, id), nil
}

func (s *FilesystemStore) Put(id string, data []byte) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if int64(len(data)) > s.maxBytes {
		return ErrCapacity
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func (s *FilesystemStore) Get(id string) ([]byte, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *FilesystemStore) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FilesystemStore) Has(id string) bool {
	path, err := s.path(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}
