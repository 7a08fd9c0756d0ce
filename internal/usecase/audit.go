package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

const systemName = "glacierbag"

// AuditEntry is one newline-delimited JSON audit log record (§4.6/§6).
// Timestamps are normalized to UTC at write time (DESIGN.md Open
// Question #3).
type AuditEntry struct {
	RequestID    string    `json:"request_id"`
	Timestamp    time.Time `json:"timestamp_utc"`
	Action       string    `json:"action"`
	Branch       string    `json:"branch"`
	LeafKey      string    `json:"leaf_key"`
	BagID        int       `json:"bag_id"`
	ObjectKey    string    `json:"object_key"`
	SizeBytes    int64     `json:"size_bytes"`
	AmazonSize   int64     `json:"amazon_size"`
	Verifier     string    `json:"verifier"`
	StorageClass string    `json:"storage_class"`
	Encrypted    bool      `json:"encryption"`
	Compressed   bool      `json:"compressed"`
	Region       string    `json:"region"`
	LocalHost    string    `json:"local_host"`
	System       string    `json:"system"`
	Version      string    `json:"version"`
	Code         int       `json:"code"`
}

// AuditParams carries the per-transaction fields of an audit entry; the
// ambient fields (request id, timestamp, local host, system name) are
// filled in by NewAuditEntry.
type AuditParams struct {
	Action       string
	Branch       string
	LeafKey      string
	BagID        int
	ObjectKey    string
	SizeBytes    int64
	AmazonSize   int64
	Verifier     string
	StorageClass string
	Encrypted    bool
	Compressed   bool
	Region       string
	Version      string
	Code         int
}

// NewAuditEntry builds an audit entry with a fresh request id and a
// UTC-normalized timestamp.
func NewAuditEntry(p AuditParams) AuditEntry {
	hostname, _ := os.Hostname()
	return AuditEntry{
		RequestID:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Action:       p.Action,
		Branch:       p.Branch,
		LeafKey:      p.LeafKey,
		BagID:        p.BagID,
		ObjectKey:    p.ObjectKey,
		SizeBytes:    p.SizeBytes,
		AmazonSize:   p.AmazonSize,
		Verifier:     p.Verifier,
		StorageClass: p.StorageClass,
		Encrypted:    p.Encrypted,
		Compressed:   p.Compressed,
		Region:       p.Region,
		LocalHost:    hostname,
		System:       systemName,
		Version:      p.Version,
		Code:         p.Code,
	}
}

// AppendAuditLog appends entry to the NDJSON audit log at path. Audit
// logging is best-effort: a failure here is logged by the caller but must
// never abort the upload loop (§4.6).
func AppendAuditLog(ctx context.Context, fs FileSystemPort, path string, entry AuditEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	line = append(line, '\n')

	existing, err := fs.ReadFile(ctx, path)
	if err != nil && !fs.IsNotExist(err) {
		return fmt.Errorf("read audit log %q: %w", path, err)
	}
	return fs.WriteFile(ctx, path, append(existing, line...), 0o600)
}
