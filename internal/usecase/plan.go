package usecase

// PlanEntry describes one leaf's prospective change under a dry run
// (§12).
type PlanEntry struct {
	Branch    string
	LeafKey   string
	New       bool
	Dirty     bool
	BagID     int
	SizeBytes int64
}

// BranchPlan summarizes the prospective changes for one branch.
type BranchPlan struct {
	Branch      string
	NewLeaves   int
	DirtyLeaves int
	BagsTouched map[int]bool
	Entries     []PlanEntry
}

// PlanRun computes what a MIRROR of the given branches would change,
// without mutating the catalog or touching the filesystem beyond the
// fingerprint scan the caller already performed (§12). freshFingerprints
// maps leaf key -> freshly computed fingerprint for every leaf currently
// present on disk for the branch.
func PlanRun(branch Branch, entry *BranchEntry, freshFingerprints map[string]Fingerprint) BranchPlan {
	plan := BranchPlan{
		Branch:      BranchKey(branch),
		BagsTouched: map[int]bool{},
	}

	for key, fp := range freshFingerprints {
		existing, known := entry.Leaves[key]
		switch {
		case !known:
			plan.NewLeaves++
			plan.Entries = append(plan.Entries, PlanEntry{
				Branch: plan.Branch, LeafKey: key, New: true, SizeBytes: fp.SizeBytes,
			})
		case existing.Fingerprint != fp.Digest:
			plan.DirtyLeaves++
			plan.BagsTouched[existing.BagID] = true
			plan.Entries = append(plan.Entries, PlanEntry{
				Branch: plan.Branch, LeafKey: key, Dirty: true, BagID: existing.BagID, SizeBytes: fp.SizeBytes,
			})
		}
	}

	return plan
}
