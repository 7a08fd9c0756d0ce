//nolint:gci,gofumpt
package sshmirror

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/arumata/glacierbag/internal/usecase"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRemoteFS serves an in-memory tree through the same kr/fs surface
// the SFTP client exposes, with injectable per-directory ReadDir
// failures standing in for files vanishing mid-walk.
type fakeRemoteFS struct {
	dirs       map[string][]os.FileInfo
	files      map[string]string
	readDirErr map[string]error
}

func (f *fakeRemoteFS) ReadDir(name string) ([]os.FileInfo, error) {
	if err := f.readDirErr[name]; err != nil {
		return nil, err
	}
	return f.dirs[name], nil
}

func (f *fakeRemoteFS) Lstat(name string) (os.FileInfo, error) {
	if content, ok := f.files[name]; ok {
		return fakeInfo{name: path.Base(name), size: int64(len(content))}, nil
	}
	if _, ok := f.dirs[name]; ok {
		return fakeInfo{name: path.Base(name), dir: true}, nil
	}
	if _, ok := f.readDirErr[name]; ok {
		return fakeInfo{name: path.Base(name), dir: true}, nil
	}
	return nil, os.ErrNotExist
}

func (f *fakeRemoteFS) Join(elem ...string) string {
	return path.Join(elem...)
}

func (f *fakeRemoteFS) Open(name string) (io.ReadCloser, error) {
	content, ok := f.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(strings.NewReader(content)), nil
}

type fakeInfo struct {
	name string
	size int64
	dir  bool
}

func (i fakeInfo) Name() string       { return i.name }
func (i fakeInfo) Size() int64        { return i.size }
func (i fakeInfo) ModTime() time.Time { return time.Time{} }
func (i fakeInfo) IsDir() bool        { return i.dir }
func (i fakeInfo) Sys() interface{}   { return nil }
func (i fakeInfo) Mode() os.FileMode {
	if i.dir {
		return os.ModeDir | 0o755
	}
	return 0o644
}

func TestMirror_CopiesTree(t *testing.T) {
	adapter := New(testLogger(), "")
	remote := &fakeRemoteFS{
		dirs: map[string][]os.FileInfo{
			"/vol/leaf": {
				fakeInfo{name: "a.txt", size: 9},
				fakeInfo{name: "skip.log", size: 4},
				fakeInfo{name: "sub", dir: true},
			},
			"/vol/leaf/sub": {
				fakeInfo{name: "b.txt", size: 6},
			},
		},
		files: map[string]string{
			"/vol/leaf/a.txt":     "a content",
			"/vol/leaf/skip.log":  "logs",
			"/vol/leaf/sub/b.txt": "b data",
		},
	}
	scratch := t.TempDir()

	err := adapter.mirror(context.Background(), remote, "/vol/leaf", scratch, []string{"skip.log"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(scratch, "a.txt")) // #nosec G304
	if err != nil || string(data) != "a content" {
		t.Errorf("a.txt not mirrored: %q, %v", data, err)
	}
	data, err = os.ReadFile(filepath.Join(scratch, "sub", "b.txt")) // #nosec G304
	if err != nil || string(data) != "b data" {
		t.Errorf("sub/b.txt not mirrored: %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(scratch, "skip.log")); !os.IsNotExist(err) {
		t.Error("excluded file must not be mirrored")
	}
}

// A per-entry walk failure is tolerated for the rest of the walk but
// must still fail the stage — a partial scratch dir must never look
// like a successful mirror.
func TestMirror_WalkErrorFailsStage(t *testing.T) {
	adapter := New(testLogger(), "")
	remote := &fakeRemoteFS{
		dirs: map[string][]os.FileInfo{
			"/vol/leaf": {
				fakeInfo{name: "bad", dir: true},
				fakeInfo{name: "good.txt", size: 9},
			},
		},
		files: map[string]string{
			"/vol/leaf/good.txt": "good data",
		},
		readDirErr: map[string]error{
			"/vol/leaf/bad": errors.New("file vanished during transfer"),
		},
	}
	scratch := t.TempDir()

	err := adapter.mirror(context.Background(), remote, "/vol/leaf", scratch, nil, nil)
	if err == nil {
		t.Fatal("expected the stage to fail on a walk error")
	}
	if !errors.Is(err, usecase.ErrRemoteStage) {
		t.Errorf("expected ErrRemoteStage, got %v", err)
	}

	// The walk continued past the failure: the healthy sibling was
	// still copied before the stage reported failure.
	data, readErr := os.ReadFile(filepath.Join(scratch, "good.txt")) // #nosec G304
	if readErr != nil || string(data) != "good data" {
		t.Errorf("healthy sibling not mirrored: %q, %v", data, readErr)
	}
}

func TestExcluded(t *testing.T) {
	excludes := []string{"/raw", ".DS_Store"}
	tests := []struct {
		path string
		want bool
	}{
		{"/volume1/photos/2019/raw/img.cr2", true},
		{"/volume1/photos/2019/.DS_Store", true},
		{"/volume1/photos/2019/edited/img.jpg", false},
	}
	for _, tt := range tests {
		if got := excluded(tt.path, excludes); got != tt.want {
			t.Errorf("excluded(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
	if excluded("/anything", []string{""}) {
		t.Error("empty pattern must not match")
	}
}

func TestFilepathRel(t *testing.T) {
	tests := []struct {
		base   string
		target string
		want   string
	}{
		{"/volume1/photos", "/volume1/photos/2019/img.jpg", "2019/img.jpg"},
		{"/volume1/photos/", "/volume1/photos/2019", "2019"},
		{"/volume1/photos", "/volume1/photos", ""},
	}
	for _, tt := range tests {
		got, err := filepathRel(tt.base, tt.target)
		if err != nil {
			t.Errorf("filepathRel(%q, %q): %v", tt.base, tt.target, err)
			continue
		}
		if got != tt.want {
			t.Errorf("filepathRel(%q, %q) = %q, want %q", tt.base, tt.target, got, tt.want)
		}
	}
}
