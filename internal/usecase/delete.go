package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// DeleteBranch removes every leaf belonging to branch from the catalog
// and purges their objects from the store, refusing any object younger
// than the configured minimum-retention window (§12 supplemented
// feature: Deep Archive bills for the full minimum period regardless of
// early deletion, so this is an economics guard distinct from the
// Guard's tag-based policy, §4.7).
func DeleteBranch(ctx context.Context, cfg *Config, deps *Dependencies, logger *slog.Logger, branch Branch, cat *Catalog, now time.Time) error {
	if err := CheckGuard(branch, ActionDelete); err != nil {
		return err
	}
	branchKey := BranchKey(branch)
	entry, ok := cat.Branches[branchKey]
	if !ok {
		return nil
	}
	for key, leaf := range entry.Leaves {
		if err := checkMinRetention(leaf, cfg.Pricing, now); err != nil {
			return fmt.Errorf("leaf %q: %w", key, err)
		}
	}

	if err := acquireRunLock(ctx, deps, cfg.CatalogPath); err != nil {
		return err
	}
	defer releaseRunLock(ctx, deps, cfg.CatalogPath)

	for key, leaf := range entry.Leaves {
		if leaf.ObjectKey == "" {
			continue
		}
		if err := deleteObjectIfOrphaned(ctx, deps, cat, leaf.ObjectKey, branchKey, key); err != nil {
			logger.WarnContext(ctx, "delete object failed", "leaf", key, "object_key", leaf.ObjectKey, "error", err)
		}
	}

	delete(cat.Branches, branchKey)
	return SaveCatalog(ctx, deps.FileSystem, cfg.CatalogPath, cat)
}

// DeleteLeaf removes a single leaf (e.g. a subdirectory that no longer
// exists) from a branch's catalog entry.
func DeleteLeaf(ctx context.Context, cfg *Config, deps *Dependencies, logger *slog.Logger, branch Branch, leafKey string, cat *Catalog, now time.Time) error {
	if err := CheckGuard(branch, ActionDelete); err != nil {
		return err
	}
	branchKey := BranchKey(branch)
	entry, ok := cat.Branches[branchKey]
	if !ok {
		return fmt.Errorf("branch %q not in catalog: %w", branchKey, ErrUsage)
	}
	leaf, ok := entry.Leaves[leafKey]
	if !ok {
		return fmt.Errorf("leaf %q not in catalog: %w", leafKey, ErrUsage)
	}
	if err := checkMinRetention(leaf, cfg.Pricing, now); err != nil {
		return err
	}

	if err := acquireRunLock(ctx, deps, cfg.CatalogPath); err != nil {
		return err
	}
	defer releaseRunLock(ctx, deps, cfg.CatalogPath)

	if leaf.ObjectKey != "" {
		if err := deleteObjectIfOrphaned(ctx, deps, cat, leaf.ObjectKey, branchKey, leafKey); err != nil {
			logger.WarnContext(ctx, "delete object failed", "leaf", leafKey, "object_key", leaf.ObjectKey, "error", err)
		}
	}
	delete(entry.Leaves, leafKey)
	return SaveCatalog(ctx, deps.FileSystem, cfg.CatalogPath, cat)
}

// checkMinRetention refuses deletion of an object younger than the
// configured minimum-retention window, comparing whole calendar days
// (DESIGN.md Open Question #3) since the object's last upload.
func checkMinRetention(leaf *Leaf, pricing PricingConfig, now time.Time) error {
	if leaf.ObjectKey == "" || leaf.LastUpload.IsZero() || pricing.MinRetentionDays <= 0 {
		return nil
	}
	ageDays := calendarDays(leaf.LastUpload.UTC(), now.UTC())
	if ageDays < pricing.MinRetentionDays {
		return fmt.Errorf("object %q uploaded %d day(s) ago, below the %d-day minimum retention: %w",
			leaf.ObjectKey, ageDays, pricing.MinRetentionDays, ErrMinRetention)
	}
	return nil
}

func calendarDays(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}

// deleteObjectIfOrphaned removes objectKey from the store only if no
// other leaf anywhere in the catalog still references it (§3: exactly
// one live object per object_key; a bag can hold several leaves).
func deleteObjectIfOrphaned(ctx context.Context, deps *Dependencies, cat *Catalog, objectKey, skipBranch, skipLeaf string) error {
	for bKey, entry := range cat.Branches {
		for lKey, leaf := range entry.Leaves {
			if bKey == skipBranch && lKey == skipLeaf {
				continue
			}
			if leaf.ObjectKey == objectKey {
				return nil // still referenced elsewhere
			}
		}
	}
	return deps.ObjectStore.DeleteObject(ctx, objectKey)
}

// cleanupOrphanTailBags deletes remote bag objects for branch whose
// numeric suffix exceeds the branch's new post-repack maximum bag id
// (§3/§4.4 "orphan tail").
func cleanupOrphanTailBags(ctx context.Context, cfg *Config, deps *Dependencies, logger *slog.Logger, branch Branch, cat *Catalog) error {
	entry, ok := cat.Branches[BranchKey(branch)]
	if !ok {
		return nil
	}
	maxBag := 0
	for _, leaf := range entry.Leaves {
		if leaf.BagID > maxBag {
			maxBag = leaf.BagID
		}
	}

	now := time.Now().UTC()
	host := BranchHost(branch, cfg.HostID)
	branchShort := BranchShortName(branch)
	prefix := fmt.Sprintf("%d-backup/%s_%s_bag_", now.Year(), host, branchShort)

	objects, err := deps.ObjectStore.ListKeys(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list bag objects for orphan-tail cleanup: %w", err)
	}
	for _, obj := range objects {
		bagNum, ok := parseBagNumberFromKey(obj.Key, prefix)
		if !ok || bagNum <= maxBag {
			continue
		}
		if err := deps.ObjectStore.DeleteObject(ctx, obj.Key); err != nil {
			logger.WarnContext(ctx, "orphan tail delete failed", "key", obj.Key, "error", err)
			continue
		}
		logger.InfoContext(ctx, "deleted orphan tail bag", "key", obj.Key)
	}
	return nil
}

func parseBagNumberFromKey(key, prefix string) (int, bool) {
	if !strings.HasPrefix(key, prefix) {
		return 0, false
	}
	rest := strings.TrimPrefix(key, prefix)
	rest = strings.TrimSuffix(rest, ".tar")
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}
