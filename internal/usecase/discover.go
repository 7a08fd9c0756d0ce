package usecase

import (
	"context"
	"fmt"
	"sort"
)

// LeafSpec is one leaf candidate surfaced by a branch scan, before
// fingerprinting (§3: IMMUTABLE branches are a single leaf; MUTABLE
// branches expose one leaf per immediate subdirectory plus a synthetic
// branch-root leaf for loose files).
type LeafSpec struct {
	Key       string
	SrcDir    string   // directory to walk for Plain/Compress/Encrypt packing
	RootFiles []string // non-nil only for the synthetic branch-root leaf
}

// DiscoverLeaves lists the leaf candidates for branch, rooted at
// localRoot (the branch path itself for local branches, or the
// FUSE-style mount point under the configured remote-mount base for
// remote ones — §4.2). Branch-line EXCLUDE tags drop matching
// immediate-child names from MUTABLE scanning entirely; they are a
// different mechanism from the global exclude-file substring patterns
// consumed by the fingerprinter (§3/§4.1).
func DiscoverLeaves(ctx context.Context, fs FileSystemPort, branch Branch, localRoot string) ([]LeafSpec, error) {
	if branch.Immutable {
		return []LeafSpec{{Key: localRoot, SrcDir: localRoot}}, nil
	}

	entries, err := fs.ReadDir(ctx, localRoot)
	if err != nil {
		return nil, fmt.Errorf("read branch root %q: %w: %w", localRoot, err, ErrScan)
	}

	excluded := make(map[string]bool, len(branch.Excludes))
	for _, name := range branch.Excludes {
		excluded[name] = true
	}

	var leaves []LeafSpec
	var rootFiles []string
	for _, entry := range entries {
		if excluded[entry.Name()] {
			continue
		}
		if entry.IsDir() {
			leaves = append(leaves, LeafSpec{
				Key:    fs.Join(localRoot, entry.Name()),
				SrcDir: fs.Join(localRoot, entry.Name()),
			})
			continue
		}
		rootFiles = append(rootFiles, entry.Name())
	}

	sort.Slice(leaves, func(i, j int) bool { return leaves[i].Key < leaves[j].Key })

	if len(rootFiles) > 0 {
		sort.Strings(rootFiles)
		leaves = append(leaves, LeafSpec{
			Key:       fs.Join(localRoot, BranchRootSentinel),
			SrcDir:    localRoot,
			RootFiles: rootFiles,
		})
	}

	return leaves, nil
}
