package util

import (
	"fmt"
	"os"
	"path/filepath"
)

func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// SafeJoin joins name under root, keeping nested segments but discarding any
// ".." that would escape the root.
func SafeJoin(root, name string) string {
	cleaned := filepath.Clean(string(filepath.Separator) + filepath.FromSlash(name))
	return filepath.Join(root, cleaned)
}
