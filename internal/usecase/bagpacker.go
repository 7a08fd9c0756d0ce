package usecase

import (
	"fmt"
	"sort"
)

// BagName renders a bag id as the "bag_NNNNN" identifier (§3).
func BagName(bagID int) string {
	return fmt.Sprintf("bag_%05d", bagID)
}

// PackBags assigns the leaves needing upload to numbered bags, honoring:
//   - stability: a leaf with an existing, still-valid BagID ("reserved
//     seat") keeps it;
//   - global uniqueness: any newly minted bag id is strictly greater than
//     every bag id anywhere in the catalog;
//   - tail continuation: a branch that already contains bags keeps
//     filling its own highest-numbered bag before minting a new one, with
//     the tail's current fill counted against the target size;
//   - target size: a bag accumulates leaves until adding the next one
//     would exceed targetBagSize, then the packer advances.
//
// entry is the owning branch's full catalog entry (needed for the tail
// bag's number and fill). repack ignores all existing reservations and
// restarts numbering from 1 (§4.4).
//
// Leaves are assigned in sorted-key order, except the synthetic
// branch-root leaf, which always packs after the subdirectory leaves.
func PackBags(entry *BranchEntry, leaves []*Leaf, cat *Catalog, targetBagSize int64, repack bool) map[int][]*Leaf {
	sortLeavesForPacking(leaves)

	bags := map[int][]*Leaf{}

	nextFresh := cat.MaxBagID() + 1
	var currentBag int
	var currentSize int64

	if repack {
		for _, l := range leaves {
			l.ResetForRepack()
		}
		nextFresh = 1
	} else if branchMax := entry.MaxBagID(); branchMax > 0 {
		currentBag = branchMax
		for _, l := range entry.Leaves {
			if l.BagID == currentBag {
				currentSize += l.SizeBytes
			}
		}
	}

	advance := func() {
		currentBag = nextFresh
		nextFresh++
		currentSize = 0
	}

	for _, leaf := range leaves {
		if !leaf.NeedsUpload {
			continue
		}
		if leaf.BagID != 0 && !repack {
			// Reserved seat: the leaf's content changed but its bag
			// assignment is stable. Its bag gets re-uploaded, but the leaf
			// consumes no capacity in the packing below.
			bags[leaf.BagID] = append(bags[leaf.BagID], leaf)
			continue
		}
		if currentBag == 0 {
			advance()
		}
		if currentSize > 0 && currentSize+leaf.SizeBytes > targetBagSize {
			advance()
		}
		leaf.BagID = currentBag
		currentSize += leaf.SizeBytes
		bags[currentBag] = append(bags[currentBag], leaf)
	}

	return bags
}

// MaxBagID returns the highest bag id assigned within this branch entry.
func (e *BranchEntry) MaxBagID() int {
	max := 0
	for _, leaf := range e.Leaves {
		if leaf.BagID > max {
			max = leaf.BagID
		}
	}
	return max
}

// ExpandBagsToFullMembership widens each packed bag to every leaf the
// branch has assigned to that bag id. A bag is one object on the store:
// re-uploading it because one member went dirty must also re-pack the
// members that did not change, or their content would vanish from the
// replacement object. Widened members are flagged needs_upload so a
// crash before commit re-attempts the whole bag.
func ExpandBagsToFullMembership(entry *BranchEntry, bags map[int][]*Leaf) {
	for bagID, members := range bags {
		present := make(map[string]bool, len(members))
		for _, l := range members {
			present[l.Key] = true
		}
		for _, l := range entry.Leaves {
			if l.BagID == bagID && !present[l.Key] {
				l.NeedsUpload = true
				bags[bagID] = append(bags[bagID], l)
			}
		}
	}
}

// DirtyLeaves returns the leaves within entry that need upload.
func DirtyLeaves(entry *BranchEntry) []*Leaf {
	var dirty []*Leaf
	for _, leaf := range entry.Leaves {
		if leaf.NeedsUpload {
			dirty = append(dirty, leaf)
		}
	}
	return dirty
}

// sortLeavesForPacking orders leaves by key with the synthetic
// branch-root leaf last, matching the iteration order the packer and
// the bag-assembly step both rely on.
func sortLeavesForPacking(leaves []*Leaf) {
	sort.Slice(leaves, func(i, j int) bool {
		iRoot, jRoot := IsBranchRootLeaf(leaves[i].Key), IsBranchRootLeaf(leaves[j].Key)
		if iRoot != jRoot {
			return jRoot
		}
		return leaves[i].Key < leaves[j].Key
	})
}
