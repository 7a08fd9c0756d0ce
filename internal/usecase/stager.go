package usecase

import (
	"context"
	"fmt"
	"strings"
)

// StageRemoteLeaf mirrors a single leaf subtree of a remote branch into a
// local scratch directory via the Remote Stager's transport (§4.2).
//
// leafObservedPath is the leaf's path as seen during a prior local mount
// walk (if any) or its catalog key; localBranchRoot is where the remote
// branch is mounted locally (RemoteMountBase/<branch>); remoteBase is the
// branch's remote root. Path reconstruction relativizes the observed leaf
// path against localBranchRoot and joins it to remoteBase.
func StageRemoteLeaf(
	ctx context.Context,
	sync RemoteSyncPort,
	target RemoteTarget,
	remoteBase, localBranchRoot, leafObservedPath, scratchDir string,
	branchExcludes []string,
	progress ProgressSink,
) error {
	leafSubpath := relativizeLeafPath(leafObservedPath, localBranchRoot)
	remoteLeafPath := joinRemotePath(remoteBase, leafSubpath)
	excludes := RewriteExcludesForLeaf(branchExcludes, leafSubpath)

	if err := sync.MirrorLeaf(ctx, target, remoteLeafPath, scratchDir, excludes, progress); err != nil {
		return fmt.Errorf("stage remote leaf %q: %w: %w", remoteLeafPath, err, ErrRemoteStage)
	}
	return nil
}

func relativizeLeafPath(leafPath, branchRoot string) string {
	rel := strings.TrimPrefix(leafPath, branchRoot)
	return strings.TrimPrefix(rel, "/")
}

func joinRemotePath(base, subpath string) string {
	base = strings.TrimSuffix(base, "/")
	if subpath == "" {
		return base
	}
	return base + "/" + subpath
}
