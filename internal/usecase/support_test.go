//nolint:gci,gofumpt
package usecase_test

import (
	"bytes"
	"context"
	"crypto/md5" // #nosec G501 -- mirrors S3's ETag convention, not used for security
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/arumata/glacierbag/internal/adapters/archive"
	"github.com/arumata/glacierbag/internal/adapters/filesystem"
	"github.com/arumata/glacierbag/internal/adapters/lock"
	"github.com/arumata/glacierbag/internal/adapters/process"
	"github.com/arumata/glacierbag/internal/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeObjectStore is an in-memory ObjectStorePort: uploads land in a
// map, ETags follow S3's md5-hex convention, and every mutation is
// counted so tests can assert exactly which objects were re-uploaded.
type fakeObjectStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	putCounts map[string]int
	restored  map[string]int
	headFails bool
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects:   map[string][]byte{},
		putCounts: map[string]int{},
		restored:  map[string]int{},
	}
}

func (f *fakeObjectStore) PutObject(ctx context.Context, key string, body io.Reader, size int64, storageClass string, bandwidthBytesPerSec int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.putCounts[key]++
	return nil
}

func (f *fakeObjectStore) HeadObject(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headFails {
		return "", false, nil
	}
	data, ok := f.objects[key]
	if !ok {
		return "", false, nil
	}
	sum := md5.Sum(data) // #nosec G401
	return hex.EncodeToString(sum[:]), true, nil
}

func (f *fakeObjectStore) ListKeys(ctx context.Context, prefix string) ([]usecase.ObjectSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []usecase.ObjectSummary
	for key, data := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, usecase.ObjectSummary{Key: key, Size: int64(len(data))})
		}
	}
	return out, nil
}

func (f *fakeObjectStore) DeleteObject(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStore) RestoreObject(ctx context.Context, key string, days int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restored[key]++
	return nil
}

func (f *fakeObjectStore) putCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.putCounts[key]
}

func (f *fakeObjectStore) object(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, ok
}

// fakeEncrypt marks the payload rather than encrypting it, keeping
// pipeline tests independent of key material. The real OpenPGP adapter
// has its own round-trip test.
type fakeEncrypt struct{}

func (fakeEncrypt) Encrypt(ctx context.Context, srcPath, destPath string, method usecase.EncryptMethod, keyMaterial []byte) error {
	data, err := os.ReadFile(srcPath) // #nosec G304
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString("PGP\n")
	buf.Write(data)
	return os.WriteFile(destPath, buf.Bytes(), 0o600)
}

// nullProgress drops every sample.
type nullProgress struct{}

func (nullProgress) Publish(usecase.ProgressEvent) {}

// testEnv bundles the wired fakes and scratch paths one engine test
// needs.
type testEnv struct {
	cfg   *usecase.Config
	deps  *usecase.Dependencies
	store *fakeObjectStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := testLogger()
	stateDir := t.TempDir()

	store := newFakeObjectStore()
	deps := &usecase.Dependencies{
		FileSystem:  filesystem.New(logger),
		Lock:        lock.New(logger),
		Process:     process.New(logger),
		ObjectStore: store,
		Archive:     archive.New(logger),
		Encrypt:     fakeEncrypt{},
		Progress:    nullProgress{},
	}
	cfg := &usecase.Config{
		Run:                true,
		StagingDir:         filepath.Join(stateDir, "staging"),
		ManifestDir:        filepath.Join(stateDir, "manifests"),
		CatalogPath:        filepath.Join(stateDir, "catalog.json"),
		AuditLogPath:       filepath.Join(stateDir, "audit.ndjson"),
		HostID:             "testhost",
		TargetBagSizeBytes: 30,
		ScanInterval:       190 * 24 * time.Hour,
		Pricing:            usecase.PricingConfig{PricePerGBMonth: 0.00099, MinRetentionDays: 180},
	}
	if err := os.MkdirAll(cfg.StagingDir, 0o750); err != nil {
		t.Fatal(err)
	}
	return &testEnv{cfg: cfg, deps: deps, store: store}
}

// writeTestFile creates path with content and a fixed mtime so
// fingerprints stay deterministic across the test's re-scans.
func writeTestFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

// scenarioBranch lays out the §8 scenario-1 tree: subdirs a (10 bytes),
// b (20 bytes), c (15 bytes) and loose root files x, y (2 bytes total),
// against a 30-byte bag target.
func scenarioBranch(t *testing.T) (usecase.Branch, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "alpha")
	base := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	writeTestFile(t, filepath.Join(root, "a", "file"), "aaaaaaaaaa", base)           // 10
	writeTestFile(t, filepath.Join(root, "b", "file"), "bbbbbbbbbbbbbbbbbbbb", base) // 20
	writeTestFile(t, filepath.Join(root, "c", "file"), "ccccccccccccccc", base)      // 15
	writeTestFile(t, filepath.Join(root, "x"), "x", base)
	writeTestFile(t, filepath.Join(root, "y"), "y", base)

	return usecase.Branch{Path: root}, root
}

func loadCatalogForTest(t *testing.T, env *testEnv) *usecase.Catalog {
	t.Helper()
	cat, err := usecase.LoadCatalog(context.Background(), env.deps.FileSystem, env.cfg.CatalogPath)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return cat
}
