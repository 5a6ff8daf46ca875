package storage

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCheckStorageSpace(t *testing.T) {
	dir := t.TempDir()

	if err := CheckStorageSpace(dir, 0); err != nil {
		t.Fatalf("zero requirement must pass: %v", err)
	}
	if err := CheckStorageSpace(dir, math.MaxUint64); err == nil {
		t.Fatal("expected insufficient space error")
	}
	if err := CheckStorageSpace(filepath.Join(dir, "missing"), 0); err == nil {
		t.Fatal("expected error for nonexistent path")
	}
}

func TestHandleFileCleanup(t *testing.T) {
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "stale.thumb.jpg")
	newFile := filepath.Join(dir, "fresh.thumb.jpg")
	for _, p := range []string{oldFile, newFile} {
		if err := os.WriteFile(p, []byte("jpeg"), 0644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldFile, past, past); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	HandleFileCleanup(dir, 24*time.Hour)

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("stale file should have been removed")
	}
	if _, err := os.Stat(newFile); err != nil {
		t.Errorf("fresh file should survive cleanup: %v", err)
	}
}
