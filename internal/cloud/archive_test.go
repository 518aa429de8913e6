package cloud

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeTarEntry(t *testing.T, w io.Writer, name, content string) {
	t.Helper()
	tw := tar.NewWriter(w)
	if err := tw.WriteHeader(&tar.Header{
		Name: name, Typeflag: tar.TypeReg, Mode: 0o640, Size: int64(len(content)),
	}); err != nil {
		t.Fatalf("write header: %v", err)
	}
	if _, err := io.WriteString(tw, content); err != nil {
		t.Fatalf("write body: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
}

func TestTarUntarRoundTrip(t *testing.T) {
	src := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "col"), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := map[string]string{
		"db.sqlite":    "sqlite bytes",
		"col/age.json": `{"kind":"array"}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(src, name), []byte(content), 0o640); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	var buf bytes.Buffer
	if err := tarDirectory(&buf, src, "Cohort.exp1"); err != nil {
		t.Fatalf("tarDirectory: %v", err)
	}

	dest := t.TempDir()
	if err := untar(&buf, dest); err != nil {
		t.Fatalf("untar: %v", err)
	}
	for name, content := range files {
		got, err := os.ReadFile(filepath.Join(dest, "Cohort.exp1", name))
		if err != nil {
			t.Fatalf("read restored %s: %v", name, err)
		}
		if string(got) != content {
			t.Fatalf("restored %s = %q, want %q", name, got, content)
		}
	}
}

func TestUntarRejectsTraversal(t *testing.T) {
	for _, entry := range []string{"../escape", "/abs/path"} {
		var buf bytes.Buffer
		writeTarEntry(t, &buf, entry, "boom")
		if err := untar(&buf, t.TempDir()); err == nil {
			t.Fatalf("entry %q must be rejected", entry)
		}
	}
}

func TestUntarSkipsSymlinks(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "real"), []byte("x"), 0o640); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.Symlink("real", filepath.Join(src, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	var buf bytes.Buffer
	if err := tarDirectory(&buf, src, "d"); err != nil {
		t.Fatalf("tarDirectory: %v", err)
	}
	dest := t.TempDir()
	if err := untar(&buf, dest); err != nil {
		t.Fatalf("untar: %v", err)
	}
	if _, err := os.Lstat(filepath.Join(dest, "d", "link")); !os.IsNotExist(err) {
		t.Fatalf("symlink should not be materialized: %v", err)
	}
}
