package domain

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestNewAccessionNormalizesShapes(t *testing.T) {
	acc := NewAccession("S1", nil, nil)
	if acc.Metadata == nil || len(acc.Metadata) != 0 {
		t.Fatalf("expected empty metadata map, got %#v", acc.Metadata)
	}
	if len(acc.Files) != 0 {
		t.Fatalf("expected no files, got %v", acc.Files)
	}

	acc = NewAccession("S2", []string{"b.fastq", "a.fastq", "b.fastq"}, map[string]string{"age": "23"})
	if want := []string{"a.fastq", "b.fastq"}; !reflect.DeepEqual(acc.Files, want) {
		t.Fatalf("files = %v, want %v", acc.Files, want)
	}
	if v, ok := acc.Get("age"); !ok || v != "23" {
		t.Fatalf("metadata age = %q, %v", v, ok)
	}
}

func TestAddFileChecksExistence(t *testing.T) {
	var acc Accession
	acc.Name = "S1"
	if err := acc.AddFile(filepath.Join(t.TempDir(), "missing.fastq"), false); err == nil {
		t.Fatalf("expected error for missing file")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "reads.fastq")
	if err := os.WriteFile(path, []byte("@r1\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := acc.AddFile(path, false); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	if len(acc.Files) != 1 || !filepath.IsAbs(acc.Files[0]) {
		t.Fatalf("expected one absolute path, got %v", acc.Files)
	}

	// skipCheck records the path verbatim
	if err := acc.AddFile("ssh://host/data.fastq", true); err != nil {
		t.Fatalf("AddFile skipCheck: %v", err)
	}
	if len(acc.Files) != 2 {
		t.Fatalf("expected two files, got %v", acc.Files)
	}
}

func TestAddFilesStopsAtFirstFailure(t *testing.T) {
	var acc Accession
	err := acc.AddFiles([]string{"/does/not/exist.fastq", "also_missing.fastq"}, false)
	if err == nil {
		t.Fatalf("expected failure")
	}
	if len(acc.Files) != 0 {
		t.Fatalf("no file should be recorded, got %v", acc.Files)
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{ErrNotFound, ErrUniqueness, ErrTypeMismatch, ErrStorageUnavailable}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if (i == j) != errors.Is(a, b) {
				t.Fatalf("sentinel identity broken for %v vs %v", a, b)
			}
		}
	}
}
