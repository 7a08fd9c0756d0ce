package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
)

// Restore target resolution (§6 CLI surface). The restore pipeline
// itself — thawing Deep Archive objects, downloading and unpacking
// them — is a boundary concern; the engine's obligation is resolving a
// requested target (a filename, a bag, a branch, or the whole tree) to
// the set of object keys that must be retrieved, plus initiating the
// cold-tier thaw through the store port.

// RestoreKeysForTree returns every committed object key in the catalog.
func RestoreKeysForTree(cat *Catalog) []string {
	set := map[string]bool{}
	for _, entry := range cat.Branches {
		for _, leaf := range entry.Leaves {
			if leaf.ObjectKey != "" {
				set[leaf.ObjectKey] = true
			}
		}
	}
	return sortedKeys(set)
}

// RestoreKeysForBranch returns every committed object key belonging to
// branchKey.
func RestoreKeysForBranch(cat *Catalog, branchKey string) ([]string, error) {
	entry, ok := cat.Branches[branchKey]
	if !ok {
		return nil, fmt.Errorf("branch %q not in catalog: %w", branchKey, ErrUsage)
	}
	set := map[string]bool{}
	for _, leaf := range entry.Leaves {
		if leaf.ObjectKey != "" {
			set[leaf.ObjectKey] = true
		}
	}
	return sortedKeys(set), nil
}

// RestoreKeysForBag returns the object key of one bag within branchKey.
func RestoreKeysForBag(cat *Catalog, branchKey string, bagID int) ([]string, error) {
	entry, ok := cat.Branches[branchKey]
	if !ok {
		return nil, fmt.Errorf("branch %q not in catalog: %w", branchKey, ErrUsage)
	}
	set := map[string]bool{}
	for _, leaf := range entry.Leaves {
		if leaf.BagID == bagID && leaf.ObjectKey != "" {
			set[leaf.ObjectKey] = true
		}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("no committed object for %s in branch %q: %w", BagName(bagID), branchKey, ErrUsage)
	}
	return sortedKeys(set), nil
}

// RestoreKeysForFile locates filename by manifest lookup: every live-run
// manifest under manifestDir is scanned for a line containing filename,
// and each hit's (branch, bag) header is resolved to its object key via
// the catalog. Returns ErrUsage when no manifest mentions the file.
func RestoreKeysForFile(ctx context.Context, fs FileSystemPort, manifestDir string, cat *Catalog, filename string) ([]string, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("empty restore filename: %w", ErrUsage)
	}
	manifests, err := fs.Glob(ctx, fs.Join(manifestDir, "*_liverun.txt"))
	if err != nil {
		return nil, fmt.Errorf("list manifests in %q: %w: %w", manifestDir, err, ErrCritical)
	}

	set := map[string]bool{}
	for _, path := range manifests {
		data, err := fs.ReadFile(ctx, path)
		if err != nil {
			continue
		}
		branchKey, bagID, ok := matchManifest(string(data), filename)
		if !ok {
			continue
		}
		keys, err := RestoreKeysForBag(cat, branchKey, bagID)
		if err != nil {
			continue // manifest outlived its catalog entry (deleted branch)
		}
		for _, k := range keys {
			set[k] = true
		}
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("file %q not found in any live-run manifest under %q: %w", filename, manifestDir, ErrUsage)
	}
	return sortedKeys(set), nil
}

// matchManifest reports whether any item line of manifest content
// mentions filename, returning the header's (branch, bag id) when so.
func matchManifest(content, filename string) (string, int, bool) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 {
		return "", 0, false
	}
	branchKey, bagID, ok := parseManifestHeader(lines[0])
	if !ok {
		return "", 0, false
	}
	for _, line := range lines[1:] {
		if line != "" && strings.Contains(line, filename) {
			return branchKey, bagID, true
		}
	}
	return "", 0, false
}

// parseManifestHeader splits the "<branch> bag_NNNNN" first line.
func parseManifestHeader(line string) (string, int, bool) {
	idx := strings.LastIndex(line, " bag_")
	if idx < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(line[idx+1:], "bag_"))
	if err != nil {
		return "", 0, false
	}
	return line[:idx], n, true
}

// RequestRestore initiates a cold-tier thaw for every key, keeping each
// thawed copy available for days days. Failures are reported per key
// and the first one is returned after all keys have been attempted.
func RequestRestore(ctx context.Context, store ObjectStorePort, logger *slog.Logger, keys []string, days int) error {
	var firstErr error
	for _, key := range keys {
		if err := store.RestoreObject(ctx, key, days); err != nil {
			logger.WarnContext(ctx, "restore request failed", "key", key, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("restore %q: %w: %w", key, err, ErrCritical)
			}
			continue
		}
		logger.InfoContext(ctx, "restore requested", "key", key, "days", days)
	}
	return firstErr
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
