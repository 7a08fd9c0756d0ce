package usecase

import (
	"testing"
)

const testTargetBagSize = int64(40)

func packerEntry(leaves ...*Leaf) *BranchEntry {
	entry := &BranchEntry{Leaves: map[string]*Leaf{}}
	for _, l := range leaves {
		entry.Leaves[l.Key] = l
	}
	return entry
}

func catalogWith(entries map[string]*BranchEntry) *Catalog {
	cat := NewCatalog()
	for k, e := range entries {
		cat.Branches[k] = e
	}
	return cat
}

func leavesOf(entry *BranchEntry) []*Leaf {
	var out []*Leaf
	for _, l := range entry.Leaves {
		out = append(out, l)
	}
	return out
}

func TestBagName(t *testing.T) {
	if got := BagName(1); got != "bag_00001" {
		t.Errorf("BagName(1) = %q", got)
	}
	if got := BagName(12345); got != "bag_12345" {
		t.Errorf("BagName(12345) = %q", got)
	}
}

// Fresh branch, empty catalog: subdirectory leaves fill bags first-fit in
// key order and the synthetic branch-root leaf packs last.
func TestPackBags_FreshBranch(t *testing.T) {
	a := &Leaf{Key: "/data/alpha/a", SizeBytes: 10, NeedsUpload: true}
	b := &Leaf{Key: "/data/alpha/b", SizeBytes: 20, NeedsUpload: true}
	c := &Leaf{Key: "/data/alpha/c", SizeBytes: 15, NeedsUpload: true}
	root := &Leaf{Key: "/data/alpha/" + BranchRootSentinel, SizeBytes: 2, NeedsUpload: true}
	entry := packerEntry(a, b, c, root)
	cat := catalogWith(map[string]*BranchEntry{"/data/alpha": entry})

	bags := PackBags(entry, leavesOf(entry), cat, testTargetBagSize, false)

	if a.BagID != 1 || b.BagID != 1 {
		t.Errorf("expected a and b in bag 1, got %d and %d", a.BagID, b.BagID)
	}
	if c.BagID != 2 || root.BagID != 2 {
		t.Errorf("expected c and branch-root in bag 2, got %d and %d", c.BagID, root.BagID)
	}
	if len(bags) != 2 {
		t.Errorf("expected 2 bags, got %d", len(bags))
	}
}

// Unchanged leaves keep their seats and trigger no packing at all.
func TestPackBags_UnchangedBranchIsStable(t *testing.T) {
	a := &Leaf{Key: "/data/alpha/a", SizeBytes: 10, BagID: 1}
	b := &Leaf{Key: "/data/alpha/b", SizeBytes: 20, BagID: 1}
	entry := packerEntry(a, b)
	cat := catalogWith(map[string]*BranchEntry{"/data/alpha": entry})

	bags := PackBags(entry, leavesOf(entry), cat, testTargetBagSize, false)

	if len(bags) != 0 {
		t.Errorf("expected no bags for clean branch, got %v", bags)
	}
	if a.BagID != 1 || b.BagID != 1 {
		t.Error("bag ids must not change for unchanged leaves")
	}
}

// A dirty leaf with an existing assignment is a reserved seat: its bag is
// queued for re-upload but the leaf is not re-packed.
func TestPackBags_ReservedSeat(t *testing.T) {
	a := &Leaf{Key: "/data/alpha/a", SizeBytes: 10, BagID: 1}
	b := &Leaf{Key: "/data/alpha/b", SizeBytes: 20, BagID: 1, NeedsUpload: true}
	c := &Leaf{Key: "/data/alpha/c", SizeBytes: 15, BagID: 2}
	entry := packerEntry(a, b, c)
	cat := catalogWith(map[string]*BranchEntry{"/data/alpha": entry})

	bags := PackBags(entry, leavesOf(entry), cat, testTargetBagSize, false)

	if b.BagID != 1 {
		t.Errorf("reserved seat must keep bag 1, got %d", b.BagID)
	}
	if len(bags) != 1 || len(bags[1]) != 1 {
		t.Errorf("expected only bag 1 queued, got %v", bags)
	}
}

// A branch with existing bags continues filling its own tail bag, with
// the tail's current fill counted against the target.
func TestPackBags_ContinuesTailBag(t *testing.T) {
	existing := &Leaf{Key: "/data/alpha/a", SizeBytes: 15, BagID: 7}
	fresh := &Leaf{Key: "/data/alpha/b", SizeBytes: 10, NeedsUpload: true}
	overflow := &Leaf{Key: "/data/alpha/c", SizeBytes: 30, NeedsUpload: true}
	entry := packerEntry(existing, fresh, overflow)
	cat := catalogWith(map[string]*BranchEntry{"/data/alpha": entry})

	PackBags(entry, leavesOf(entry), cat, testTargetBagSize, false)

	if fresh.BagID != 7 {
		t.Errorf("expected new leaf to join tail bag 7, got %d", fresh.BagID)
	}
	// 15 (existing) + 10 (fresh) + 30 would exceed 40, so the next leaf
	// gets a freshly minted id above the global maximum.
	if overflow.BagID != 8 {
		t.Errorf("expected overflow leaf in bag 8, got %d", overflow.BagID)
	}
}

// A new branch's first bag id is strictly greater than every bag id
// anywhere in the catalog.
func TestPackBags_GlobalMonotonicNamespace(t *testing.T) {
	otherEntry := packerEntry(&Leaf{Key: "/data/beta/x", SizeBytes: 5, BagID: 12})
	newLeaf := &Leaf{Key: "/data/alpha/a", SizeBytes: 10, NeedsUpload: true}
	entry := packerEntry(newLeaf)
	cat := catalogWith(map[string]*BranchEntry{
		"/data/beta":  otherEntry,
		"/data/alpha": entry,
	})

	PackBags(entry, leavesOf(entry), cat, testTargetBagSize, false)

	if newLeaf.BagID != 13 {
		t.Errorf("expected bag 13 (global max 12 + 1), got %d", newLeaf.BagID)
	}
}

// A single leaf larger than the target occupies its own bag; no
// splitting occurs.
func TestPackBags_OversizeLeafGetsOwnBag(t *testing.T) {
	huge := &Leaf{Key: "/data/alpha/huge", SizeBytes: 100, NeedsUpload: true}
	next := &Leaf{Key: "/data/alpha/small", SizeBytes: 5, NeedsUpload: true}
	entry := packerEntry(huge, next)
	cat := catalogWith(map[string]*BranchEntry{"/data/alpha": entry})

	PackBags(entry, leavesOf(entry), cat, testTargetBagSize, false)

	if huge.BagID != 1 {
		t.Errorf("oversize leaf should open bag 1, got %d", huge.BagID)
	}
	if next.BagID != 2 {
		t.Errorf("leaf after oversize should open bag 2, got %d", next.BagID)
	}
}

// A leaf that lands exactly on the target boundary fits without opening
// a new bag.
func TestPackBags_ExactFitStaysInBag(t *testing.T) {
	first := &Leaf{Key: "/data/alpha/a", SizeBytes: 25, NeedsUpload: true}
	exact := &Leaf{Key: "/data/alpha/b", SizeBytes: 15, NeedsUpload: true}
	entry := packerEntry(first, exact)
	cat := catalogWith(map[string]*BranchEntry{"/data/alpha": entry})

	PackBags(entry, leavesOf(entry), cat, testTargetBagSize, false)

	if first.BagID != 1 || exact.BagID != 1 {
		t.Errorf("expected both leaves in bag 1, got %d and %d", first.BagID, exact.BagID)
	}
}

// Repack ignores all reservations and restarts numbering from 1.
func TestPackBags_Repack(t *testing.T) {
	a := &Leaf{Key: "/data/alpha/a", SizeBytes: 10, BagID: 5}
	b := &Leaf{Key: "/data/alpha/b", SizeBytes: 20, BagID: 6}
	c := &Leaf{Key: "/data/alpha/c", SizeBytes: 15, BagID: 9}
	entry := packerEntry(a, b, c)
	cat := catalogWith(map[string]*BranchEntry{"/data/alpha": entry})

	PackBags(entry, leavesOf(entry), cat, testTargetBagSize, true)

	if a.BagID != 1 || b.BagID != 1 {
		t.Errorf("expected a and b repacked into bag 1, got %d and %d", a.BagID, b.BagID)
	}
	if c.BagID != 2 {
		t.Errorf("expected c repacked into bag 2, got %d", c.BagID)
	}
	for _, l := range []*Leaf{a, b, c} {
		if !l.NeedsUpload {
			t.Errorf("repacked leaf %q must need upload", l.Key)
		}
	}
}

// Bag count never exceeds ceil(V/T)+1 for unassigned volume V.
func TestPackBags_BagCountBound(t *testing.T) {
	var leaves []*Leaf
	entry := &BranchEntry{Leaves: map[string]*Leaf{}}
	var volume int64
	sizes := []int64{13, 27, 8, 39, 2, 21, 34, 5, 17, 30}
	for i, size := range sizes {
		l := &Leaf{Key: string(rune('a'+i)) + "-leaf", SizeBytes: size, NeedsUpload: true}
		leaves = append(leaves, l)
		entry.Leaves[l.Key] = l
		volume += size
	}
	cat := catalogWith(map[string]*BranchEntry{"/data/alpha": entry})

	bags := PackBags(entry, leaves, cat, testTargetBagSize, false)

	bound := int((volume+testTargetBagSize-1)/testTargetBagSize) + 1
	if len(bags) > bound {
		t.Errorf("packed %d bags for volume %d, bound is %d", len(bags), volume, bound)
	}
}

// Widening a queued bag pulls in its committed co-residents so the
// replacement object keeps their content.
func TestExpandBagsToFullMembership(t *testing.T) {
	dirty := &Leaf{Key: "/data/alpha/b", SizeBytes: 20, BagID: 1, NeedsUpload: true}
	clean := &Leaf{Key: "/data/alpha/a", SizeBytes: 10, BagID: 1}
	other := &Leaf{Key: "/data/alpha/c", SizeBytes: 15, BagID: 2}
	entry := packerEntry(dirty, clean, other)

	bags := map[int][]*Leaf{1: {dirty}}
	ExpandBagsToFullMembership(entry, bags)

	if len(bags[1]) != 2 {
		t.Fatalf("expected bag 1 widened to 2 members, got %d", len(bags[1]))
	}
	if !clean.NeedsUpload {
		t.Error("widened member must be flagged needs_upload")
	}
	if other.NeedsUpload {
		t.Error("leaf in an untouched bag must not be flagged")
	}
}

func TestSortLeavesForPacking_BranchRootLast(t *testing.T) {
	root := &Leaf{Key: "/data/alpha/" + BranchRootSentinel}
	a := &Leaf{Key: "/data/alpha/a"}
	z := &Leaf{Key: "/data/alpha/z"}
	leaves := []*Leaf{root, z, a}

	sortLeavesForPacking(leaves)

	if leaves[0] != a || leaves[1] != z || leaves[2] != root {
		t.Errorf("unexpected order: %q, %q, %q", leaves[0].Key, leaves[1].Key, leaves[2].Key)
	}
}
