//nolint:gci,gofumpt
package usecase_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/arumata/glacierbag/internal/adapters/filesystem"
	"github.com/arumata/glacierbag/internal/usecase"
)

func TestDiscoverLeaves_Mutable(t *testing.T) {
	fs := filesystem.New(testLogger())
	root := t.TempDir()
	mtime := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	writeTestFile(t, filepath.Join(root, "photos", "img.jpg"), "img", mtime)
	writeTestFile(t, filepath.Join(root, "videos", "clip.mp4"), "clip", mtime)
	writeTestFile(t, filepath.Join(root, "notes.txt"), "notes", mtime)

	branch := usecase.Branch{Path: root}
	leaves, err := usecase.DiscoverLeaves(context.Background(), fs, branch, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(leaves) != 3 {
		t.Fatalf("expected 3 leaves (2 subdirs + branch root), got %d", len(leaves))
	}
	if leaves[0].Key != filepath.Join(root, "photos") || leaves[1].Key != filepath.Join(root, "videos") {
		t.Errorf("subdirectory leaves wrong: %q, %q", leaves[0].Key, leaves[1].Key)
	}

	rootLeaf := leaves[2]
	if rootLeaf.Key != filepath.Join(root, usecase.BranchRootSentinel) {
		t.Errorf("branch-root key = %q", rootLeaf.Key)
	}
	if len(rootLeaf.RootFiles) != 1 || rootLeaf.RootFiles[0] != "notes.txt" {
		t.Errorf("branch-root files = %v", rootLeaf.RootFiles)
	}
}

func TestDiscoverLeaves_NoLooseFilesNoSyntheticLeaf(t *testing.T) {
	fs := filesystem.New(testLogger())
	root := t.TempDir()
	mtime := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	writeTestFile(t, filepath.Join(root, "photos", "img.jpg"), "img", mtime)

	leaves, err := usecase.DiscoverLeaves(context.Background(), fs, usecase.Branch{Path: root}, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leaves) != 1 {
		t.Fatalf("expected only the subdirectory leaf, got %d", len(leaves))
	}
	if leaves[0].RootFiles != nil {
		t.Error("subdirectory leaf must not carry root files")
	}
}

func TestDiscoverLeaves_Immutable(t *testing.T) {
	fs := filesystem.New(testLogger())
	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "sub", "file"), "data", time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC))

	leaves, err := usecase.DiscoverLeaves(context.Background(), fs, usecase.Branch{Path: root, Immutable: true}, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leaves) != 1 || leaves[0].Key != root || leaves[0].SrcDir != root {
		t.Errorf("immutable branch must be a single root leaf, got %+v", leaves)
	}
}

func TestDiscoverLeaves_BranchExcludeDropsChild(t *testing.T) {
	fs := filesystem.New(testLogger())
	root := t.TempDir()
	mtime := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	writeTestFile(t, filepath.Join(root, "keep", "f"), "k", mtime)
	writeTestFile(t, filepath.Join(root, "skipdir", "f"), "s", mtime)
	writeTestFile(t, filepath.Join(root, "skipfile"), "s", mtime)

	branch := usecase.Branch{Path: root, Excludes: []string{"skipdir", "skipfile"}}
	leaves, err := usecase.DiscoverLeaves(context.Background(), fs, branch, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leaves) != 1 || leaves[0].Key != filepath.Join(root, "keep") {
		t.Errorf("expected only the kept subdirectory, got %+v", leaves)
	}
}

func TestDiscoverLeaves_MissingRootIsScanError(t *testing.T) {
	fs := filesystem.New(testLogger())
	missing := filepath.Join(t.TempDir(), "gone")
	_, err := usecase.DiscoverLeaves(context.Background(), fs, usecase.Branch{Path: missing}, missing)
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	if !errors.Is(err, usecase.ErrScan) {
		t.Errorf("expected ErrScan, got %v", err)
	}
}
