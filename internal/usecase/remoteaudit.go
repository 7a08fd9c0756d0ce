package usecase

import (
	"context"
	"sort"
)

// AuditFinding is one catalog-vs-remote discrepancy surfaced by
// AuditRemote.
type AuditFinding struct {
	Branch    string
	LeafKey   string
	ObjectKey string
	Problem   string // "missing" | "verifier mismatch"
	Expected  string
	Actual    string
}

// AuditRemote checks the committed catalog against the object store:
// every leaf with needs_upload=false must have its object present, and
// where a verifier is recorded it must match the store's (§8 invariant).
// Read-only; the caller decides what to do about findings.
func AuditRemote(ctx context.Context, store ObjectStorePort, cat *Catalog) ([]AuditFinding, error) {
	var findings []AuditFinding

	// One head per distinct object key, not per leaf — a bag holds many.
	type objectRef struct {
		branch, leaf, verifier string
	}
	refs := map[string]objectRef{}
	for branchKey, entry := range cat.Branches {
		for leafKey, leaf := range entry.Leaves {
			if leaf.NeedsUpload || leaf.ObjectKey == "" {
				continue
			}
			if _, seen := refs[leaf.ObjectKey]; !seen {
				refs[leaf.ObjectKey] = objectRef{branch: branchKey, leaf: leafKey, verifier: leaf.Verifier}
			}
		}
	}

	keys := make([]string, 0, len(refs))
	for key := range refs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		ref := refs[key]
		verifier, exists, err := store.HeadObject(ctx, key)
		if err != nil {
			return findings, err
		}
		switch {
		case !exists:
			findings = append(findings, AuditFinding{
				Branch: ref.branch, LeafKey: ref.leaf, ObjectKey: key,
				Problem: "missing", Expected: ref.verifier,
			})
		case ref.verifier != "" && verifier != ref.verifier:
			findings = append(findings, AuditFinding{
				Branch: ref.branch, LeafKey: ref.leaf, ObjectKey: key,
				Problem: "verifier mismatch", Expected: ref.verifier, Actual: verifier,
			})
		}
	}
	return findings, nil
}
