package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// BranchEntry is the catalog's per-branch state (§3).
type BranchEntry struct {
	Leaves   map[string]*Leaf `json:"leaves"`
	LastScan time.Time        `json:"last_scan"`
}

// Catalog is the durable JSON state of branches -> leaves (§3/§4.6).
// encoding/json is used deliberately (see DESIGN.md): no ecosystem JSON
// library improves on a flat, single-writer local document, and the wire
// format (§6) is plain JSON, not a binary encoding.
type Catalog struct {
	Branches map[string]*BranchEntry `json:"branches"`
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{Branches: map[string]*BranchEntry{}}
}

// BranchEntryFor returns (creating if absent) the entry for branchKey.
func (c *Catalog) BranchEntryFor(branchKey string) *BranchEntry {
	if c.Branches == nil {
		c.Branches = map[string]*BranchEntry{}
	}
	entry, ok := c.Branches[branchKey]
	if !ok {
		entry = &BranchEntry{Leaves: map[string]*Leaf{}}
		c.Branches[branchKey] = entry
	}
	if entry.Leaves == nil {
		entry.Leaves = map[string]*Leaf{}
	}
	return entry
}

// MaxBagID returns the highest bag_id assigned anywhere in the catalog,
// enforcing the global-monotonic namespace invariant (§3).
func (c *Catalog) MaxBagID() int {
	max := 0
	for _, entry := range c.Branches {
		for _, leaf := range entry.Leaves {
			if leaf.BagID > max {
				max = leaf.BagID
			}
		}
	}
	return max
}

// LoadCatalog reads and parses the catalog at path. A missing file
// returns an empty catalog; a malformed file is fatal — per §3/§4.6 the
// engine must never overwrite a catalog it cannot parse, so the operator
// can restore from a catalog_backup_dir copy instead.
func LoadCatalog(ctx context.Context, fs FileSystemPort, path string) (*Catalog, error) {
	data, err := fs.ReadFile(ctx, path)
	if err != nil {
		if fs.IsNotExist(err) {
			return NewCatalog(), nil
		}
		return nil, fmt.Errorf("read catalog %q: %w: %w", path, err, ErrCritical)
	}
	if len(data) == 0 {
		return NewCatalog(), nil
	}
	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog %q: %w: %w", path, err, ErrCatalogParse)
	}
	if cat.Branches == nil {
		cat.Branches = map[string]*BranchEntry{}
	}
	return &cat, nil
}

// SaveCatalog writes the catalog atomically (write-temp-then-rename),
// mirroring the teacher's own durable-write pattern for its config/state
// files (§4.6).
func SaveCatalog(ctx context.Context, fs FileSystemPort, path string, cat *Catalog) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w: %w", err, ErrCritical)
	}
	tmpPath := path + ".tmp"
	if err := fs.WriteFile(ctx, tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write catalog temp file: %w: %w", err, ErrCritical)
	}
	if err := fs.Move(ctx, tmpPath, path); err != nil {
		return fmt.Errorf("rename catalog temp file: %w: %w", err, ErrCritical)
	}
	return nil
}

// BackupCatalog copies the current catalog into backupDir, named with the
// current day, for opportunistic daily restore points (§6).
func BackupCatalog(ctx context.Context, fs FileSystemPort, catalogPath, backupDir string, now time.Time) error {
	if backupDir == "" {
		return nil
	}
	if err := fs.CreateDir(ctx, backupDir, 0o750); err != nil {
		return fmt.Errorf("create catalog backup dir: %w: %w", err, ErrCritical)
	}
	name := "catalog-" + now.UTC().Format("2006-01-02") + ".json"
	dest := fs.Join(backupDir, name)
	if _, err := fs.Stat(ctx, dest); err == nil {
		return nil // today's backup already exists
	}
	return fs.Copy(ctx, catalogPath, dest)
}
