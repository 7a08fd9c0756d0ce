package usecase

import "time"

// LeafState is the state machine a leaf moves through (§4.9).
type LeafState string

const (
	LeafPristine  LeafState = "PRISTINE"
	LeafDirty     LeafState = "DIRTY"
	LeafQueued    LeafState = "QUEUED"
	LeafCommitted LeafState = "COMMITTED"
)

// Leaf is the atomic unit of change tracking and upload eligibility (§3).
type Leaf struct {
	Key         string
	SizeBytes   int64
	Fingerprint string
	BagID       int
	ObjectKey   string
	NeedsUpload bool
	LastUpload  time.Time
	Verifier    string
	Encrypted   bool
	Compressed  bool
}

// State derives the leaf's logical state from its fields (§4.9). This is
// computed, never stored, so the catalog's on-disk shape stays flat.
func (l Leaf) State() LeafState {
	switch {
	case l.Fingerprint == "":
		return LeafPristine
	case l.NeedsUpload && l.BagID != 0:
		return LeafQueued
	case l.NeedsUpload:
		return LeafDirty
	default:
		return LeafCommitted
	}
}

// MarkDirty clears upload state when a leaf's fingerprint changes,
// preserving its bag_id per the stability invariant (§3) — the packer
// clears BagID itself only on an explicit REPACK.
func (l *Leaf) MarkDirty(newFingerprint string, newSize int64) {
	l.Fingerprint = newFingerprint
	l.SizeBytes = newSize
	l.NeedsUpload = true
}

// MarkCommitted records a successful upload (§3 invariant: after commit,
// needs_upload=false and object_key/verifier reflect the uploaded object).
func (l *Leaf) MarkCommitted(objectKey, verifier string, when time.Time) {
	l.ObjectKey = objectKey
	l.Verifier = verifier
	l.LastUpload = when
	l.NeedsUpload = false
}

// ResetForRepack clears bag assignment and forces re-upload, used by the
// REPACK operation (§4.4/§12).
func (l *Leaf) ResetForRepack() {
	l.BagID = 0
	l.NeedsUpload = true
}
