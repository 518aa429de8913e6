package cohort

import (
	"context"
	"strings"
	"testing"
)

func TestNormalizeRawPathFillsAuthority(t *testing.T) {
	got, err := normalizeRawPath("/data/run1/a.fastq", RawFileOptions{
		Username: "alice", Hostname: "hpc01",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "ssh://alice@hpc01/data/run1/a.fastq" {
		t.Fatalf("normalized = %q", got)
	}
}

func TestNormalizeRawPathKeepsExplicitAuthority(t *testing.T) {
	got, err := normalizeRawPath("sftp://bob@store/data/a.fastq", RawFileOptions{
		Scheme: "sftp", Username: "alice", Hostname: "hpc01",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "sftp://bob@store/data/a.fastq" {
		t.Fatalf("normalized = %q", got)
	}
}

func TestNormalizeRawPathResolvesRelative(t *testing.T) {
	got, err := normalizeRawPath("./a.fastq", RawFileOptions{
		Username: "alice", Hostname: "hpc01",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !strings.HasPrefix(got, "ssh://alice@hpc01/") || !strings.HasSuffix(got, "/a.fastq") {
		t.Fatalf("relative path not absolutized: %q", got)
	}
}

func TestRegisterRawFile(t *testing.T) {
	ctx := context.Background()
	c := newTempCohort(t)
	opts := RawFileOptions{Username: "alice", Hostname: "hpc01"}
	if err := c.RegisterRawFile(ctx, "/data/a.fastq", opts); err != nil {
		t.Fatalf("RegisterRawFile: %v", err)
	}
	// Registration is idempotent on the normalized path.
	if err := c.RegisterRawFile(ctx, "/data/a.fastq", opts); err != nil {
		t.Fatalf("RegisterRawFile again: %v", err)
	}
	files, err := c.Files(ctx)
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	if len(files) != 1 || files[0] != "ssh://alice@hpc01/data/a.fastq" {
		t.Fatalf("files = %v", files)
	}
}
