//nolint:gci,gofumpt
package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arumata/glacierbag/internal/adapters/filesystem"
	"github.com/arumata/glacierbag/internal/usecase"
)

func TestFingerprintDir_StableAcrossRescan(t *testing.T) {
	fs := filesystem.New(testLogger())
	root := t.TempDir()
	mtime := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	writeTestFile(t, filepath.Join(root, "a.txt"), "alpha", mtime)
	writeTestFile(t, filepath.Join(root, "sub", "b.txt"), "beta", mtime)

	first, err := usecase.FingerprintDir(context.Background(), fs, root, nil)
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	second, err := usecase.FingerprintDir(context.Background(), fs, root, nil)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}

	if first.Digest != second.Digest {
		t.Error("fingerprint must be stable when nothing changed")
	}
	if first.SizeBytes != 9 {
		t.Errorf("SizeBytes = %d, want 9", first.SizeBytes)
	}
	if len(first.Digest) != 32 {
		t.Errorf("digest length = %d, want 32 hex chars (128 bits)", len(first.Digest))
	}
}

func TestFingerprintDir_ChangesOnMtime(t *testing.T) {
	fs := filesystem.New(testLogger())
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	writeTestFile(t, path, "alpha", time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC))

	before, err := usecase.FingerprintDir(context.Background(), fs, root, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Same content, later mtime: the metadata fingerprint must move.
	later := time.Date(2026, 7, 2, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	after, err := usecase.FingerprintDir(context.Background(), fs, root, nil)
	if err != nil {
		t.Fatal(err)
	}

	if before.Digest == after.Digest {
		t.Error("fingerprint must change when a file's mtime changes")
	}
}

func TestFingerprintDir_ChangesOnNewFile(t *testing.T) {
	fs := filesystem.New(testLogger())
	root := t.TempDir()
	mtime := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	writeTestFile(t, filepath.Join(root, "a.txt"), "alpha", mtime)

	before, err := usecase.FingerprintDir(context.Background(), fs, root, nil)
	if err != nil {
		t.Fatal(err)
	}

	writeTestFile(t, filepath.Join(root, "b.txt"), "beta", mtime)
	after, err := usecase.FingerprintDir(context.Background(), fs, root, nil)
	if err != nil {
		t.Fatal(err)
	}

	if before.Digest == after.Digest {
		t.Error("fingerprint must change when the included file set changes")
	}
	if after.SizeBytes != before.SizeBytes+4 {
		t.Errorf("SizeBytes = %d, want %d", after.SizeBytes, before.SizeBytes+4)
	}
}

func TestFingerprintDir_ExcludesApply(t *testing.T) {
	fs := filesystem.New(testLogger())
	root := t.TempDir()
	mtime := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	writeTestFile(t, filepath.Join(root, "keep.txt"), "kept", mtime)
	writeTestFile(t, filepath.Join(root, ".cache", "blob"), "cached-bytes", mtime)

	withExclude, err := usecase.FingerprintDir(context.Background(), fs, root, []string{".cache"})
	if err != nil {
		t.Fatal(err)
	}
	if withExclude.SizeBytes != 4 {
		t.Errorf("excluded bytes counted: SizeBytes = %d, want 4", withExclude.SizeBytes)
	}

	// Changing excluded content must not move the fingerprint.
	writeTestFile(t, filepath.Join(root, ".cache", "blob2"), "more", mtime)
	rescan, err := usecase.FingerprintDir(context.Background(), fs, root, []string{".cache"})
	if err != nil {
		t.Fatal(err)
	}
	if rescan.Digest != withExclude.Digest {
		t.Error("changes under an excluded path must not affect the fingerprint")
	}
}

func TestFingerprintDir_MissingRootIsScanError(t *testing.T) {
	fs := filesystem.New(testLogger())
	_, err := usecase.FingerprintDir(context.Background(), fs, filepath.Join(t.TempDir(), "gone"), nil)
	if err == nil {
		t.Fatal("expected scan error for missing root")
	}
	if !errors.Is(err, usecase.ErrScan) {
		t.Errorf("expected ErrScan, got %v", err)
	}
}

func TestFingerprintFiles_OrderIndependent(t *testing.T) {
	fs := filesystem.New(testLogger())
	root := t.TempDir()
	mtime := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	writeTestFile(t, filepath.Join(root, "x"), "x-data", mtime)
	writeTestFile(t, filepath.Join(root, "y"), "y-data", mtime)

	forward, err := usecase.FingerprintFiles(context.Background(), fs, root, []string{"x", "y"})
	if err != nil {
		t.Fatal(err)
	}
	backward, err := usecase.FingerprintFiles(context.Background(), fs, root, []string{"y", "x"})
	if err != nil {
		t.Fatal(err)
	}

	if forward.Digest != backward.Digest {
		t.Error("explicit file-set fingerprint must not depend on name order")
	}
	if forward.SizeBytes != 12 {
		t.Errorf("SizeBytes = %d, want 12", forward.SizeBytes)
	}
}

func TestFingerprintFiles_IgnoresSubdirContents(t *testing.T) {
	fs := filesystem.New(testLogger())
	root := t.TempDir()
	mtime := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	writeTestFile(t, filepath.Join(root, "x"), "x-data", mtime)
	writeTestFile(t, filepath.Join(root, "sub", "deep"), "deep-data", mtime)

	before, err := usecase.FingerprintFiles(context.Background(), fs, root, []string{"x"})
	if err != nil {
		t.Fatal(err)
	}

	// Non-recursive mode: a change under a subdirectory is invisible.
	writeTestFile(t, filepath.Join(root, "sub", "deep2"), "more", mtime)
	after, err := usecase.FingerprintFiles(context.Background(), fs, root, []string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	if before.Digest != after.Digest {
		t.Error("explicit-file mode must not walk subdirectories")
	}
}
