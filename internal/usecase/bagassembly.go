package usecase

import "context"

// BagItem is one leaf's contribution to a bag container's single
// assembly pass (§4.3): either a staged pipeline artifact (Compress/
// Encrypt/CompressEncrypt) inserted under its deterministic inner
// name, or a direct filesystem entry (Plain) inserted under the
// leaf's branch-relative path.
type BagItem struct {
	LeafKey string

	// ArtifactPath/InnerName are set for COMPRESS/ENCRYPT/ both
	// variants: the single staged file at ArtifactPath is inserted
	// under InnerName.
	ArtifactPath string
	InnerName    string

	// For the Plain variant: PlainDir's contents are inserted under
	// InnerPrefix, recursively. PlainDir is empty for artifact items.
	PlainDir    string
	InnerPrefix string

	// PlainRootFiles is set only for a Plain-variant synthetic
	// branch-root leaf: each name is resolved under PlainDir and
	// inserted at the bag's top level (§6: reserved name
	// "__BRANCH_ROOT__" replaces "<rel>" for synthetic leaves, but the
	// files themselves sit at the container root).
	PlainRootFiles []string
}

// AssembleBag performs the bag-assembly pass (§4.3/§5 ordering
// guarantee: all leaf artifacts are ready before this runs, and the
// bag completes before the upload starts).
func AssembleBag(ctx context.Context, archive ArchivePort, destPath string, items []BagItem) error {
	bag, err := archive.OpenBag(ctx, destPath)
	if err != nil {
		return err
	}
	defer func() { _ = bag.Close() }()

	for _, item := range items {
		switch {
		case item.ArtifactPath != "":
			if err := bag.AddFile(ctx, item.InnerName, item.ArtifactPath); err != nil {
				return err
			}
		case item.PlainRootFiles != nil:
			for _, name := range item.PlainRootFiles {
				if err := bag.AddFile(ctx, name, joinPath(item.PlainDir, name)); err != nil {
					return err
				}
			}
		default:
			if err := bag.AddDir(ctx, item.InnerPrefix, item.PlainDir); err != nil {
				return err
			}
		}
	}

	return bag.Close()
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
