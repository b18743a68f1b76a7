package blob

import "fmt"

// NewFromConfig creates the blob backend selected at startup.
// Recognized backends: "filesystem" (default when empty), "inline", "memory".
func NewFromConfig(backend, workspaceDir string) (Store, error) {
	switch backend {
	case "", "filesystem":
		return NewFilesystemStore(workspaceDir, 0)
	case "inline":
		return NewInlineStore(workspaceDir, 0)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob backend: %s", backend)
	}
}
