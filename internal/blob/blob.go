// Package blob stores file payloads separately from the structural document,
// keyed by FileMeta id. Structural saves never carry binary content; blob
// failures are soft and must not block the structural path.
package blob

import "errors"

var (
	// ErrNotFound is returned by Get when no content exists for the id
	// (lost, corrupted, or never stored).
	ErrNotFound = errors.New("blob: content not found")

	// ErrCapacity is returned by Put when the store's capacity limit would
	// be exceeded. Callers surface it as a warning; the in-memory document
	// stays authoritative.
	ErrCapacity = errors.New("blob: capacity exceeded")
)

// Store is a keyed payload store. Implementations must tolerate Delete of a
// missing id (cascades may run twice).
type Store interface {
	Put(id string, data []byte) error
	Get(id string) ([]byte, error)
	Delete(id string) error
	Has(id string) bool
}
