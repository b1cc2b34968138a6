package rpminfo

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadMissingFile(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "absent.rpm")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReadRejectsNonRPM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.rpm")
	if err := os.WriteFile(path, []byte("definitely not an rpm lead"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if _, err := Read(path); err == nil {
		t.Fatal("expected error for a file without an rpm header")
	}
}
