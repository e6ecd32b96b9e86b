package attachments

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndRemove(t *testing.T) {
	d := NewDir(t.TempDir())
	stored, err := d.Save("manual.pdf", []byte("content"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if filepath.Ext(stored) != ".pdf" {
		t.Errorf("original extension lost: %q", stored)
	}
	if err := d.Remove(stored); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := d.Remove(stored); err != nil {
		t.Errorf("second remove should be a no-op: %v", err)
	}
}

func TestRemoveRejectsEscapingPaths(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(root, "..", "victim")
	if err := os.WriteFile(outside, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	d := NewDir(filepath.Join(root, "store"))
	if err := d.Remove("../victim"); err == nil {
		t.Fatal("expected rejection of .. path")
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("file outside root was touched: %v", err)
	}
}
