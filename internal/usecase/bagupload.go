package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// processBag runs the per-bag portion of §2's control flow: stage
// (remote branches only) → per-leaf pipeline → single-pass bag
// assembly → manifest → upload → catalog commit (§5 ordering
// guarantee). It returns whether a bag was actually uploaded (false
// only when leaves is empty, in which case nothing is packed or
// uploaded) and the uploaded byte count.
func processBag(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	logger *slog.Logger,
	branch Branch,
	cat *Catalog,
	entry *BranchEntry,
	specByKey map[string]LeafSpec,
	bagID int,
	leaves []*Leaf,
) (bool, int64, error) {
	if len(leaves) == 0 {
		return false, 0, nil
	}
	sortLeavesForPacking(leaves)

	scratchDir, err := deps.FileSystem.TempDir(ctx, cfg.StagingDir, BagName(bagID)+"_")
	if err != nil {
		return false, 0, fmt.Errorf("create bag scratch dir: %w: %w", err, ErrCritical)
	}
	defer func() { _ = deps.FileSystem.RemoveAll(ctx, scratchDir) }()

	variant := VariantFor(branch)
	var keyMaterial []byte
	if variant == VariantEncrypt || variant == VariantCompressEncrypt {
		keyMaterial, err = loadEncryptionKeyMaterial(ctx, cfg, deps.FileSystem)
		if err != nil {
			return false, 0, err
		}
	}

	localRoot := branch.LocalRoot(cfg.RemoteMountBase)
	excludes, err := loadGlobalExcludes(ctx, deps.FileSystem, cfg.ExcludeFile)
	if err != nil {
		return false, 0, err
	}

	items := make([]BagItem, 0, len(leaves))
	for _, leaf := range leaves {
		item, err := buildBagItem(ctx, cfg, deps, branch, localRoot, excludes, scratchDir, variant, keyMaterial, specByKey, leaf)
		if err != nil {
			return false, 0, err
		}
		items = append(items, item)
		leaf.Compressed = variant == VariantCompress || variant == VariantCompressEncrypt
		leaf.Encrypted = variant == VariantEncrypt || variant == VariantCompressEncrypt
	}

	bagPath := deps.FileSystem.Join(scratchDir, BagName(bagID)+".tar")
	if err := AssembleBag(ctx, deps.Archive, bagPath, items); err != nil {
		return false, 0, fmt.Errorf("assemble bag %s: %w: %w", BagName(bagID), err, ErrPipeline)
	}

	now := time.Now().UTC()
	host := BranchHost(branch, cfg.HostID)
	branchShort := BranchShortName(branch)
	objectKey := ObjectKeyFor(now.Year(), host, branchShort, bagID)

	if err := uploadManifest(ctx, cfg, deps, logger, branch, bagID, items, now, host, branchShort); err != nil {
		logger.WarnContext(ctx, "manifest upload failed", "bag", BagName(bagID), "error", err)
	}

	info, err := deps.FileSystem.Stat(ctx, bagPath)
	if err != nil {
		return false, 0, fmt.Errorf("stat assembled bag: %w: %w", err, ErrUpload)
	}
	reader, err := openForUpload(deps, bagPath)
	if err != nil {
		return false, 0, fmt.Errorf("open assembled bag: %w: %w", err, ErrUpload)
	}
	defer reader.Close()

	verifier, err := UploadBag(ctx, deps.ObjectStore, objectKey, reader, info.Size(), StorageClassDeepArchive, cfg.BandwidthCapBytesPerSec, cfg.AllowUnverifiedCommit)
	if err != nil {
		return false, 0, err
	}

	for _, leaf := range leaves {
		leaf.MarkCommitted(objectKey, verifier, now)
		auditEntry := NewAuditEntry(AuditParams{
			Action:       "UPLOAD",
			Branch:       BranchKey(branch),
			LeafKey:      leaf.Key,
			BagID:        bagID,
			ObjectKey:    objectKey,
			SizeBytes:    leaf.SizeBytes,
			AmazonSize:   info.Size(),
			Verifier:     verifier,
			StorageClass: string(StorageClassDeepArchive),
			Encrypted:    leaf.Encrypted,
			Compressed:   leaf.Compressed,
			Region:       cfg.Region,
		})
		if err := AppendAuditLog(ctx, deps.FileSystem, cfg.AuditLogPath, auditEntry); err != nil {
			logger.WarnContext(ctx, "audit log append failed", "leaf", leaf.Key, "error", err)
		}
	}

	if err := SaveCatalog(ctx, deps.FileSystem, cfg.CatalogPath, cat); err != nil {
		return false, 0, err
	}
	_ = BackupCatalog(ctx, deps.FileSystem, cfg.CatalogPath, cfg.CatalogBackupDir, now)

	return true, info.Size(), nil
}

func buildBagItem(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	branch Branch,
	localRoot string,
	excludes []string,
	scratchDir string,
	variant PipelineVariant,
	keyMaterial []byte,
	specByKey map[string]LeafSpec,
	leaf *Leaf,
) (BagItem, error) {
	spec, ok := specByKey[leaf.Key]
	if !ok {
		return BagItem{}, fmt.Errorf("leaf %q has no discovered spec this run: %w", leaf.Key, ErrScan)
	}

	packSrcDir := spec.SrcDir
	isBranchRoot := spec.RootFiles != nil
	relPrefix := ""
	if !isBranchRoot {
		rel, err := deps.FileSystem.Rel(localRoot, spec.SrcDir)
		if err != nil {
			return BagItem{}, fmt.Errorf("relativize leaf %q: %w: %w", leaf.Key, err, ErrPipeline)
		}
		if rel == "." {
			// IMMUTABLE branch: the leaf is the branch root itself, so its
			// contents sit at the container's top level.
			rel = ""
		}
		relPrefix = rel
	}

	if branch.IsRemote() {
		staged, err := stageRemoteLeafToScratch(ctx, cfg, deps, branch, localRoot, excludes, scratchDir, leaf, spec)
		if err != nil {
			return BagItem{}, err
		}
		packSrcDir = staged
	}

	if variant == VariantPlain {
		if isBranchRoot {
			return BagItem{LeafKey: leaf.Key, PlainDir: packSrcDir, PlainRootFiles: spec.RootFiles}, nil
		}
		return BagItem{LeafKey: leaf.Key, PlainDir: packSrcDir, InnerPrefix: relPrefix}, nil
	}

	artifactPath := deps.FileSystem.Join(scratchDir, InnerFilename(leaf.Key, variant))
	var rootFiles []string
	if isBranchRoot {
		rootFiles = spec.RootFiles
	}
	if err := RunLeafPipeline(ctx, deps.Archive, deps.Encrypt, scratchDir, packSrcDir, rootFiles, leaf.Key, variant, cfg.Encryption.Method, keyMaterial, artifactPath); err != nil {
		return BagItem{}, err
	}

	artifactBase := relPrefix
	if artifactBase == "" && !isBranchRoot {
		artifactBase = deps.FileSystem.Base(localRoot)
	}
	innerName := LogicalInnerName(artifactBase, isBranchRoot, variant)
	return BagItem{LeafKey: leaf.Key, ArtifactPath: artifactPath, InnerName: innerName}, nil
}

func stageRemoteLeafToScratch(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	branch Branch,
	localRoot string,
	excludes []string,
	scratchDir string,
	leaf *Leaf,
	spec LeafSpec,
) (string, error) {
	leafScratch := deps.FileSystem.Join(scratchDir, "stage_"+LeafID(leaf.Key))
	if err := deps.FileSystem.CreateDir(ctx, leafScratch, 0o750); err != nil {
		return "", fmt.Errorf("create leaf scratch dir: %w: %w", err, ErrCritical)
	}
	remoteBase := branch.RemotePath()
	if err := StageRemoteLeaf(ctx, deps.RemoteSync, *branch.Remote, remoteBase, localRoot, spec.SrcDir, leafScratch, excludes, deps.Progress); err != nil {
		return "", err
	}
	return leafScratch, nil
}

func uploadManifest(
	ctx context.Context,
	cfg *Config,
	deps *Dependencies,
	logger *slog.Logger,
	branch Branch,
	bagID int,
	items []BagItem,
	now time.Time,
	host, branchShort string,
) error {
	text := BuildManifest(BranchKey(branch), bagID, items)
	timestamp := now.Format("20060102T150405Z")
	filename := ManifestFilename(bagID, timestamp, cfg.Run)
	localPath := deps.FileSystem.Join(cfg.ManifestDir, filename)
	if err := deps.FileSystem.CreateDir(ctx, cfg.ManifestDir, 0o750); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	if err := deps.FileSystem.WriteFile(ctx, localPath, []byte(text), 0o640); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if !cfg.Run {
		return nil
	}
	key := ManifestKeyFor(now.Year(), timestamp, host, branchShort, bagID, cfg.Run)
	reader, err := openForUpload(deps, localPath)
	if err != nil {
		return fmt.Errorf("open manifest: %w", err)
	}
	defer reader.Close()
	info, err := deps.FileSystem.Stat(ctx, localPath)
	if err != nil {
		return fmt.Errorf("stat manifest: %w", err)
	}
	return deps.ObjectStore.PutObject(ctx, key, reader, info.Size(), string(StorageClassStandard), 0)
}
