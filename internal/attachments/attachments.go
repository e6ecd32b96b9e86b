// Package attachments manages item attachment files on local disk.
// Deletes run only after the owning record's commit succeeded.
package attachments

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Dir stores attachments as flat files under one directory.
type Dir struct {
	root string
}

func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Save writes content under a fresh name and returns the stored path,
// relative to the attachment root.
func (d *Dir) Save(name string, content []byte) (string, error) {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return "", fmt.Errorf("prepare attachment dir: %w", err)
	}
	stored := uuid.NewString()[:8] + "-" + filepath.Base(name)
	if err := os.WriteFile(filepath.Join(d.root, stored), content, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return stored, nil
}

// Remove deletes one stored attachment. Paths escaping the root are
// rejected; a missing file is not an error.
func (d *Dir) Remove(path string) error {
	clean := filepath.Clean(path)
	if strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid attachment path %q", path)
	}
	err := os.Remove(filepath.Join(d.root, clean))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
