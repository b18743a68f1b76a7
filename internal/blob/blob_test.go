package blob

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFilesystemStoreBasics(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFilesystemStore(dir, 0)
	if err != nil {
		t.Fatalf("NewFilesystemStore: %v", err)
	}

	if err := s.Put("f1", []byte("payload")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !s.Has("f1") {
		t.Fatalf("Has = false after Put")
	}
	got, err := s.Get("f1")
	if err != nil || !bytes.Equal(got, []byte("payload")) {
		t.Fatalf("Get = %q, %v", got, err)
	}
	// One file per payload, under the workspace.
	if _, err := os.Stat(filepath.Join(dir, "resources", "blobs", "f1")); err != nil {
		t.Fatalf("payload file missing: %v", err)
	}

	if err := s.Delete("f1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get("f1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}
	// Cascades may delete twice.
	if err := s.Delete("f1"); err != nil {
		t.Fatalf("double Delete: %v", err)
	}
}

func TestFilesystemStoreRejectsBadIDs(t *testing.T) {
	s, err := NewFilesystemStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewFilesystemStore: %v", err)
	}
	for _, id := range []string{"", "  ", "../escape", "a/b", `a\b`} {
		if err := s.Put(id, []byte("x")); err == nil {
			t.Fatalf("Put(%q) accepted", id)
		}
	}
}

func TestFilesystemStorePerBlobCap(t *testing.T) {
	s, err := NewFilesystemStore(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("NewFilesystemStore: %v", err)
	}
	if err := s.Put("big", make([]byte, 9)); !errors.Is(err, ErrCapacity) {
		t.Fatalf("oversized Put = %v, want ErrCapacity", err)
	}
	if err := s.Put("ok", make([]byte, 8)); err != nil {
		t.Fatalf("Put at cap: %v", err)
	}
}

func TestInlineStoreCapacityIsTotal(t *testing.T) {
	// Base64 expands 3 bytes to 4 chars; capacity counts the encoded size.
	s, err := NewInlineStore(t.TempDir(), 20)
	if err != nil {
		t.Fatalf("NewInlineStore: %v", err)
	}

	if err := s.Put("a", []byte("123456789")); err != nil { // 12 encoded
		t.Fatalf("Put a: %v", err)
	}
	if err := s.Put("b", []byte("123456789")); !errors.Is(err, ErrCapacity) {
		t.Fatalf("Put b = %v, want ErrCapacity (total cap)", err)
	}
	// Overwriting an id does not double-count its old payload.
	if err := s.Put("a", []byte("abcdefghijkl")); err != nil { // 16 encoded
		t.Fatalf("overwrite a: %v", err)
	}
	got, err := s.Get("a")
	if err != nil || string(got) != "abcdefghijkl" {
		t.Fatalf("Get a = %q, %v", got, err)
	}

	if err := s.Delete("a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Put("b", []byte("123456789")); err != nil {
		t.Fatalf("Put after delete freed capacity: %v", err)
	}
}

func TestInlineStoreToleratesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blobs.json"), []byte("{corrupt"), 0o644); err != nil {
		t.Fatalf("write corrupt: %v", err)
	}
	s, err := NewInlineStore(dir, 0)
	if err != nil {
		t.Fatalf("NewInlineStore: %v", err)
	}
	if _, err := s.Get("x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on corrupt store = %v, want ErrNotFound", err)
	}
	if err := s.Put("x", []byte("fresh")); err != nil {
		t.Fatalf("Put on corrupt store: %v", err)
	}
	got, err := s.Get("x")
	if err != nil || string(got) != "fresh" {
		t.Fatalf("Get after recovery = %q, %v", got, err)
	}
}

func TestMemoryStoreCopiesData(t *testing.T) {
	s := NewMemoryStore()
	data := []byte("abc")
	if err := s.Put("m", data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data[0] = 'X'
	got, err := s.Get("m")
	if err != nil || string(got) != "abc" {
		t.Fatalf("stored payload aliased caller slice: %q, %v", got, err)
	}
	got[0] = 'Y'
	again, _ := s.Get("m")
	if string(again) != "abc" {
		t.Fatalf("returned payload aliased store: %q", again)
	}
}

func TestNewFromConfig(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{"", "filesystem", "inline", "memory"} {
		if _, err := NewFromConfig(backend, dir); err != nil {
			t.Fatalf("NewFromConfig(%q): %v", backend, err)
		}
	}
	if _, err := NewFromConfig("bogus", dir); err == nil {
		t.Fatalf("unknown backend accepted")
	}
}
