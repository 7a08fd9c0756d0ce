package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Fingerprint is a deterministic metadata digest over (rel_path, size,
// mtime) tuples for a directory tree or an explicit file set (§4.1).
//
// mtime precision: this is frozen on whatever sub-second precision
// FileSystemPort.Stat's ModTime() yields natively — no rounding is
// applied. Filesystems that truncate mtime to whole seconds therefore
// carry a documented false-negative window: a change landing within the
// same wall-clock second as the previous scan may not register until a
// later scan observes a strictly greater mtime (DESIGN.md Open Question
// #1).
type Fingerprint struct {
	Digest    string
	SizeBytes int64
}

// FingerprintDir walks root recursively in sorted order, skipping entries
// matched by excludes (substring-of-full-path, §4.1), and returns a
// fingerprint of the observed (rel_path, size, mtime) records.
func FingerprintDir(ctx context.Context, fs FileSystemPort, root string, excludes []string) (Fingerprint, error) {
	type record struct {
		relPath string
		size    int64
		mtime   string
	}
	var records []record
	var total int64

	err := fs.Walk(ctx, root, func(path string, info FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if MatchesExclude(path, excludes) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		rel, err := fs.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativize %q: %w", path, err)
		}
		records = append(records, record{
			relPath: rel,
			size:    info.Size(),
			mtime:   info.ModTime().Format(mtimeLayout),
		})
		total += info.Size()
		return nil
	})
	if err != nil {
		return Fingerprint{}, fmt.Errorf("walk %q: %w: %w", root, err, ErrScan)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].relPath < records[j].relPath })

	h := sha256.New()
	for _, r := range records {
		fmt.Fprintf(h, "%s|%d|%s\n", r.relPath, r.size, r.mtime)
	}
	sum := h.Sum(nil)

	return Fingerprint{
		Digest:    hex.EncodeToString(sum[:16]), // truncated to 128 bits
		SizeBytes: total,
	}, nil
}

// FingerprintFiles fingerprints an explicit, non-recursive file set
// resolved relative to baseDir — used for the synthetic branch-root leaf
// (§3/§4.1).
func FingerprintFiles(ctx context.Context, fs FileSystemPort, baseDir string, names []string) (Fingerprint, error) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)

	h := sha256.New()
	var total int64
	for _, name := range sorted {
		full := fs.Join(baseDir, name)
		info, err := fs.Stat(ctx, full)
		if err != nil {
			return Fingerprint{}, fmt.Errorf("stat %q: %w: %w", full, err, ErrScan)
		}
		fmt.Fprintf(h, "%s|%d|%s\n", name, info.Size(), info.ModTime().Format(mtimeLayout))
		total += info.Size()
	}
	sum := h.Sum(nil)
	return Fingerprint{Digest: hex.EncodeToString(sum[:16]), SizeBytes: total}, nil
}

const mtimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// LeafID returns the first 8 hex digits of SHA-256(leaf key) used to name
// the leaf's intermediate artifact inside a bag (§4.3).
func LeafID(leafKey string) string {
	sum := sha256.Sum256([]byte(leafKey))
	return hex.EncodeToString(sum[:])[:8]
}

// IsBranchRootLeaf reports whether key names the synthetic branch-root
// leaf produced for loose files at a MUTABLE branch's root (§3).
func IsBranchRootLeaf(key string) bool {
	return strings.HasSuffix(key, BranchRootSentinel)
}
