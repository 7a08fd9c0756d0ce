package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// RunResult summarizes the outcome of one engine invocation (§2 control
// flow), across every branch it touched.
type RunResult struct {
	BranchesScanned int
	BagsUploaded    int
	BytesUploaded   int64
	Plans           []BranchPlan // populated on dry runs (cfg.Run == false)
	Errors          []BranchError
}

// BranchError records a recoverable per-branch failure (scan error,
// guard denial) that does not abort the whole run (§7 propagation
// policy) when mirroring a tree of branches.
type BranchError struct {
	Branch string
	Err    error
}

// ValidateEncryptionConfig fails fast if any branch carries ENCRYPT but
// the configured key material is missing or empty (§4.3: validated
// before any work begins).
func ValidateEncryptionConfig(ctx context.Context, branches []Branch, cfg *Config, fs FileSystemPort) error {
	needsEncryption := false
	for _, b := range branches {
		if b.Encrypt {
			needsEncryption = true
			break
		}
	}
	if !needsEncryption {
		return nil
	}
	material, err := loadEncryptionKeyMaterial(ctx, cfg, fs)
	if err != nil {
		return err
	}
	if len(material) == 0 {
		return fmt.Errorf("encryption key material is empty: %w", ErrEncryptionConfig)
	}
	return nil
}

func loadEncryptionKeyMaterial(ctx context.Context, cfg *Config, fs FileSystemPort) ([]byte, error) {
	path := cfg.Encryption.PassphraseFilePath
	if cfg.Encryption.Method == EncryptAsymmetric {
		path = cfg.Encryption.RecipientKeyPath
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("no key material path configured: %w", ErrEncryptionConfig)
	}
	data, err := fs.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("read key material %q: %w: %w", path, err, ErrEncryptionConfig)
	}
	return data, nil
}

// MirrorTree mirrors each branch of the tree file in turn (§2).
// ripeOnly applies the smart-cron selection (C8/§4.8) so only branches
// whose last scan is older than the configured interval are touched;
// the interactive mirror-tree entry point passes false and sweeps them
// all. Recoverable per-branch failures (scan errors, guard denials) are
// collected into the result rather than aborting the run;
// remote-stage/pipeline/upload failures remain fatal (§7).
func MirrorTree(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	logger *slog.Logger,
	branches []Branch,
	cat *Catalog,
	now time.Time,
	ripeOnly bool,
) (*RunResult, error) {
	if err := ValidateEncryptionConfig(ctx, branches, cfg, deps.FileSystem); err != nil {
		return nil, err
	}

	selected := branches
	if ripeOnly {
		selected = RipeBranches(branches, cat, cfg.ScanInterval, now)
	}
	result := &RunResult{}

	for _, branch := range selected {
		branchResult, err := mirrorOneBranch(ctx, cfg, deps, logger, branch, cat, ActionMirror, false, 0)
		if err != nil {
			if isRecoverable(err) {
				logger.WarnContext(ctx, "branch mirror failed, continuing", "branch", branch.Path, "error", err)
				result.Errors = append(result.Errors, BranchError{Branch: branch.Path, Err: err})
				continue
			}
			return result, err
		}
		mergeResult(result, branchResult)
	}
	return result, nil
}

// MirrorBranch mirrors a single branch regardless of ripeness (the
// --mirror-branch / FORCE entry point, §6 CLI surface). repack requests
// the REPACK action (§4.4).
func MirrorBranch(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	logger *slog.Logger,
	branch Branch,
	cat *Catalog,
	repack bool,
) (*RunResult, error) {
	if branch.Encrypt {
		if err := ValidateEncryptionConfig(ctx, []Branch{branch}, cfg, deps.FileSystem); err != nil {
			return nil, err
		}
	}
	action := ActionForce
	if repack {
		action = ActionRepack
	}
	return mirrorOneBranch(ctx, cfg, deps, logger, branch, cat, action, repack, 0)
}

// MirrorBag re-uploads a single already-assigned bag, forcing its
// member leaves' needs_upload regardless of fingerprint state (the
// --mirror-bag entry point).
func MirrorBag(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	logger *slog.Logger,
	branch Branch,
	cat *Catalog,
	bagID int,
) (*RunResult, error) {
	if branch.Encrypt {
		if err := ValidateEncryptionConfig(ctx, []Branch{branch}, cfg, deps.FileSystem); err != nil {
			return nil, err
		}
	}
	return mirrorOneBranch(ctx, cfg, deps, logger, branch, cat, ActionForce, false, bagID)
}

func isRecoverable(err error) bool {
	return errors.Is(err, ErrScan) || errors.Is(err, ErrGuardDenied)
}

func mergeResult(into, from *RunResult) {
	into.BranchesScanned += from.BranchesScanned
	into.BagsUploaded += from.BagsUploaded
	into.BytesUploaded += from.BytesUploaded
	into.Plans = append(into.Plans, from.Plans...)
	into.Errors = append(into.Errors, from.Errors...)
}

// mirrorOneBranch is the core per-branch control flow (§2): guard,
// scan/fingerprint, (dry-run plan, or) pack, and for each bag
// stage/pipeline/assemble/upload/commit in order.
func mirrorOneBranch(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	logger *slog.Logger,
	branch Branch,
	cat *Catalog,
	action Action,
	repack bool,
	onlyBagID int,
) (*RunResult, error) {
	if err := CheckGuard(branch, action); err != nil {
		return nil, err
	}

	branchKey := BranchKey(branch)
	entry := cat.BranchEntryFor(branchKey)
	localRoot := branch.LocalRoot(cfg.RemoteMountBase)

	excludes, err := loadGlobalExcludes(ctx, deps.FileSystem, cfg.ExcludeFile)
	if err != nil {
		return nil, err
	}

	specs, err := DiscoverLeaves(ctx, deps.FileSystem, branch, localRoot)
	if err != nil {
		return nil, err
	}

	fresh, err := fingerprintLeaves(ctx, deps.FileSystem, specs, excludes)
	if err != nil {
		return nil, err
	}

	if !cfg.Run {
		plan := PlanRun(branch, entry, fresh)
		return &RunResult{BranchesScanned: 1, Plans: []BranchPlan{plan}}, nil
	}

	lockPath := cfg.CatalogPath
	if err := acquireRunLock(ctx, deps, lockPath); err != nil {
		return nil, err
	}
	defer releaseRunLock(ctx, deps, lockPath)

	sweepStagingDir(ctx, deps.FileSystem, cfg.StagingDir)

	applyFreshFingerprints(entry, fresh)
	entry.LastScan = time.Now().UTC()

	specByKey := make(map[string]LeafSpec, len(specs))
	for _, s := range specs {
		specByKey[s.Key] = s
	}

	leavesToPack := selectLeavesToPack(entry, repack, onlyBagID)
	bags := PackBags(entry, leavesToPack, cat, cfg.TargetBagSizeBytes, repack)
	ExpandBagsToFullMembership(entry, bags)
	if err := SaveCatalog(ctx, deps.FileSystem, cfg.CatalogPath, cat); err != nil {
		return nil, err
	}

	result := &RunResult{BranchesScanned: 1}
	bagIDs := make([]int, 0, len(bags))
	for id := range bags {
		bagIDs = append(bagIDs, id)
	}
	sort.Ints(bagIDs)

	for _, bagID := range bagIDs {
		uploaded, bytesUploaded, err := processBag(ctx, cfg, deps, logger, branch, cat, entry, specByKey, bagID, bags[bagID])
		if err != nil {
			return result, err
		}
		if uploaded {
			result.BagsUploaded++
			result.BytesUploaded += bytesUploaded
		}
	}

	if repack {
		if err := cleanupOrphanTailBags(ctx, cfg, deps, logger, branch, cat); err != nil {
			logger.WarnContext(ctx, "orphan tail cleanup failed", "branch", branch.Path, "error", err)
		}
	}

	return result, nil
}

// sweepStagingDir removes per-run artifact residue a crashed prior run
// may have left behind (§5 shared resources: the staging directory is
// single-writer, so anything matching these patterns at the start of a
// live run is orphaned).
func sweepStagingDir(ctx context.Context, fs FileSystemPort, stagingDir string) {
	if strings.TrimSpace(stagingDir) == "" {
		return
	}
	for _, pattern := range []string{"comp_*", "stage_*", "enc_*", "bundle_*", "bag_*", "*.tar"} {
		matches, err := fs.Glob(ctx, fs.Join(stagingDir, pattern))
		if err != nil {
			continue
		}
		for _, match := range matches {
			_ = fs.RemoveAll(ctx, match)
		}
	}
}

func loadGlobalExcludes(ctx context.Context, fs FileSystemPort, path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := fs.ReadFile(ctx, path)
	if err != nil {
		if fs.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read exclude file %q: %w: %w", path, err, ErrUsage)
	}
	return ParseExcludeFile(string(data)), nil
}

func fingerprintLeaves(ctx context.Context, fs FileSystemPort, specs []LeafSpec, excludes []string) (map[string]Fingerprint, error) {
	fresh := make(map[string]Fingerprint, len(specs))
	for _, spec := range specs {
		var fp Fingerprint
		var err error
		if spec.RootFiles != nil {
			fp, err = FingerprintFiles(ctx, fs, spec.SrcDir, spec.RootFiles)
		} else {
			fp, err = FingerprintDir(ctx, fs, spec.SrcDir, excludes)
		}
		if err != nil {
			return nil, err
		}
		fresh[spec.Key] = fp
	}
	return fresh, nil
}

func applyFreshFingerprints(entry *BranchEntry, fresh map[string]Fingerprint) {
	for key, fp := range fresh {
		existing, known := entry.Leaves[key]
		if !known {
			entry.Leaves[key] = &Leaf{Key: key, SizeBytes: fp.SizeBytes, Fingerprint: fp.Digest, NeedsUpload: true}
			continue
		}
		if existing.Fingerprint != fp.Digest {
			existing.MarkDirty(fp.Digest, fp.SizeBytes)
		}
	}
}

func selectLeavesToPack(entry *BranchEntry, repack bool, onlyBagID int) []*Leaf {
	if repack {
		all := make([]*Leaf, 0, len(entry.Leaves))
		for _, l := range entry.Leaves {
			all = append(all, l)
		}
		return all
	}
	if onlyBagID != 0 {
		var forced []*Leaf
		for _, l := range entry.Leaves {
			if l.BagID == onlyBagID {
				l.NeedsUpload = true
				forced = append(forced, l)
			}
		}
		return forced
	}
	return DirtyLeaves(entry)
}
