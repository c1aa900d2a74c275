package filesystem

import (
	"fmt"
	"os"
	"path/filepath"

	"montage-media/domain/media"
)

// Checker implements media.FileChecker and media.DirectoryCreator using the os package
type Checker struct{}

// NewChecker creates a new filesystem checker
func NewChecker() *Checker {
	return &Checker{}
}

// Exists returns true if the path exists and is a regular file
func (c *Checker) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// EnsureParentDir creates the directory that will hold path
func (c *Checker) EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// Ensure Checker implements the media filesystem ports
var (
	_ media.FileChecker      = (*Checker)(nil)
	_ media.DirectoryCreator = (*Checker)(nil)
)
