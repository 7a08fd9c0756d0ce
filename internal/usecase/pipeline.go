package usecase

import (
	"context"
	"fmt"
	"os"
)

// PipelineVariant is one of the four mutually exclusive per-leaf
// transforms (§4.3).
type PipelineVariant int

const (
	VariantPlain PipelineVariant = iota
	VariantCompress
	VariantEncrypt
	VariantCompressEncrypt
)

// VariantFor derives the pipeline variant from a branch's tags.
func VariantFor(branch Branch) PipelineVariant {
	switch {
	case branch.Compress && branch.Encrypt:
		return VariantCompressEncrypt
	case branch.Compress:
		return VariantCompress
	case branch.Encrypt:
		return VariantEncrypt
	default:
		return VariantPlain
	}
}

// LogicalInnerName returns the bag table-of-contents path for a leaf's
// artifact (§6 per-bag archive layout): "__BRANCH_ROOT__" or "<rel>"
// with the variant's extension appended.
func LogicalInnerName(relPath string, isBranchRoot bool, variant PipelineVariant) string {
	base := relPath
	if isBranchRoot {
		base = BranchRootSentinel
	}
	switch variant {
	case VariantCompress:
		return base + ".tar.gz"
	case VariantEncrypt:
		return base + ".gpg"
	case VariantCompressEncrypt:
		return base + ".gz.gpg"
	default:
		return base
	}
}

// InnerFilename returns the deterministic staging filename for a leaf's
// finished artifact (§4.3): "comp_<leaf-id>.tar.gz" for COMPRESS,
// "enc_<leaf-id>[.gz].gpg" for the ENCRYPT variants. The prefixes are
// what the staging-dir crash sweep (§5) keys on.
func InnerFilename(leafKey string, variant PipelineVariant) string {
	id := LeafID(leafKey)
	switch variant {
	case VariantCompress:
		return "comp_" + id + ".tar.gz"
	case VariantEncrypt:
		return "enc_" + id + ".gpg"
	case VariantCompressEncrypt:
		return "enc_" + id + ".gz.gpg"
	default:
		return "bundle_" + id + ".tar"
	}
}

// RunLeafPipeline packs srcDir (or, for the synthetic branch-root leaf,
// rootFiles under srcDir) into destPath, applying the variant's
// compress/encrypt steps in order (§4.3). scratchDir holds the
// intermediate artifacts, cleaned up by the caller's scope guard.
func RunLeafPipeline(
	ctx context.Context,
	archive ArchivePort,
	encrypt EncryptPort,
	scratchDir, srcDir string,
	rootFiles []string,
	leafKey string,
	variant PipelineVariant,
	encMethod EncryptMethod,
	keyMaterial []byte,
	destPath string,
) error {
	tarPath := scratchDir + "/bundle_" + LeafID(leafKey) + ".tar"

	var err error
	if rootFiles != nil {
		err = archive.PackFiles(ctx, srcDir, rootFiles, tarPath)
	} else {
		err = archive.PackDir(ctx, srcDir, tarPath)
	}
	if err != nil {
		return fmt.Errorf("pack leaf %q: %w: %w", leafKey, err, ErrPipeline)
	}

	current := tarPath
	if variant == VariantCompress || variant == VariantCompressEncrypt {
		gzPath := tarPath + ".gz"
		if err := archive.Gzip(ctx, current, gzPath); err != nil {
			return fmt.Errorf("compress leaf %q: %w: %w", leafKey, err, ErrPipeline)
		}
		current = gzPath
	}

	if variant == VariantEncrypt || variant == VariantCompressEncrypt {
		if len(keyMaterial) == 0 {
			return fmt.Errorf("leaf %q requires encryption but key material is empty: %w", leafKey, ErrEncryptionConfig)
		}
		encPath := current + ".gpg"
		if err := encrypt.Encrypt(ctx, current, encPath, encMethod, keyMaterial); err != nil {
			return fmt.Errorf("encrypt leaf %q: %w: %w", leafKey, err, ErrPipeline)
		}
		current = encPath
	}

	if current != destPath {
		// Archive/encrypt temporaries are CPU-bound local scratch files
		// handled directly with os.Rename rather than through
		// FileSystemPort, mirroring the teacher's git adapter bypassing
		// FileSystemPort for local process-local work.
		if err := os.Rename(current, destPath); err != nil {
			return fmt.Errorf("finalize leaf artifact %q: %w: %w", leafKey, err, ErrPipeline)
		}
	}
	return nil
}
