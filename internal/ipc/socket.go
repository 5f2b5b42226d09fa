package ipc

import (
	"fmt"
	"os"
	"path/filepath"
)

// NewSocketPath creates a private directory for one collector socket and
// returns the socket path together with a function removing the directory.
// Paths are kept short: unix socket names are limited to ~100 bytes.
func NewSocketPath() (string, func(), error) {
	dir, err := os.MkdirTemp("", fmt.Sprintf("kwsearch-%d-", os.Getuid()))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create socket directory: %w", err)
	}
	if err := os.Chmod(dir, 0700); err != nil {
		_ = os.RemoveAll(dir)
		return "", nil, fmt.Errorf("failed to set socket directory permissions: %w", err)
	}

	cleanup := func() { _ = os.RemoveAll(dir) }
	return filepath.Join(dir, "collector.sock"), cleanup, nil
}
