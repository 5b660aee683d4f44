package backup

import (
	"os"
	"path/filepath"
	"testing"
)

func TestVersionedCopyMissingSource(t *testing.T) {
	dst, err := VersionedCopy(filepath.Join(t.TempDir(), "nope.db"), "42.0")
	if err != nil {
		t.Fatalf("missing source should not error: %v", err)
	}
	if dst != "" {
		t.Fatalf("missing source should produce no backup, got %q", dst)
	}
}

func TestVersionedCopy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.db")
	if err := os.WriteFile(src, []byte("payload"), 0o600); err != nil {
		t.Fatal(err)
	}

	dst, err := VersionedCopy(src, "42.0")
	if err != nil {
		t.Fatal(err)
	}
	if dst != src+".v42.0" {
		t.Fatalf("backup path = %q, want %q", dst, src+".v42.0")
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "payload" {
		t.Fatalf("backup content = %q", data)
	}
}

func TestVersionedCopyNeverClobbers(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.db")
	if err := os.WriteFile(src, []byte("first"), 0o600); err != nil {
		t.Fatal(err)
	}

	first, err := VersionedCopy(src, "42.0")
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(src, []byte("second"), 0o600); err != nil {
		t.Fatal(err)
	}
	second, err := VersionedCopy(src, "42.0")
	if err != nil {
		t.Fatal(err)
	}
	if second == first {
		t.Fatalf("second backup reused name %q", first)
	}
	if second != src+".v42.0.1" {
		t.Fatalf("second backup path = %q, want %q", second, src+".v42.0.1")
	}

	data, _ := os.ReadFile(first)
	if string(data) != "first" {
		t.Fatalf("earlier snapshot was clobbered: %q", data)
	}
}
