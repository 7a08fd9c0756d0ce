//nolint:gci,gofumpt
package app

import (
	"context"
	"log/slog"
	"testing"

	"github.com/arumata/glacierbag/internal/adapters/archive"
	"github.com/arumata/glacierbag/internal/adapters/config"
	"github.com/arumata/glacierbag/internal/adapters/filesystem"
	"github.com/arumata/glacierbag/internal/adapters/gpgcrypt"
	"github.com/arumata/glacierbag/internal/adapters/lock"
	"github.com/arumata/glacierbag/internal/adapters/process"
	"github.com/arumata/glacierbag/internal/adapters/sshmirror"
	"github.com/arumata/glacierbag/internal/usecase"
)

func TestNewDefaultDependencies(t *testing.T) {
	cfg := &usecase.Config{
		Bucket:            "glacier-test-bucket",
		Region:            "us-east-1",
		SSHPrivateKeyPath: "/nonexistent/id_ed25519",
	}

	deps, err := NewDefaultDependencies(context.Background(), slog.Default(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deps == nil {
		t.Fatal("Expected Dependencies to be created, got nil")
	}

	if deps.FileSystem == nil {
		t.Error("Expected FileSystem adapter to be set")
	}
	if deps.Config == nil {
		t.Error("Expected Config adapter to be set")
	}
	if deps.Lock == nil {
		t.Error("Expected Lock adapter to be set")
	}
	if deps.Process == nil {
		t.Error("Expected Process adapter to be set")
	}
	if deps.ObjectStore == nil {
		t.Error("Expected ObjectStore adapter to be set")
	}
	if deps.RemoteSync == nil {
		t.Error("Expected RemoteSync adapter to be set")
	}
	if deps.Archive == nil {
		t.Error("Expected Archive adapter to be set")
	}
	if deps.Encrypt == nil {
		t.Error("Expected Encrypt adapter to be set")
	}
	if deps.Progress == nil {
		t.Error("Expected Progress adapter to be set")
	}

	// Verify actual adapter types.
	if _, ok := deps.FileSystem.(*filesystem.Adapter); !ok {
		t.Error("Expected FileSystem to be filesystem.Adapter")
	}
	if _, ok := deps.Config.(*config.Adapter); !ok {
		t.Error("Expected Config to be config.Adapter")
	}
	if _, ok := deps.Lock.(*lock.Adapter); !ok {
		t.Error("Expected Lock to be lock.Adapter")
	}
	if _, ok := deps.Process.(*process.Adapter); !ok {
		t.Error("Expected Process to be process.Adapter")
	}
	if _, ok := deps.RemoteSync.(*sshmirror.Adapter); !ok {
		t.Error("Expected RemoteSync to be sshmirror.Adapter")
	}
	if _, ok := deps.Archive.(*archive.Adapter); !ok {
		t.Error("Expected Archive to be archive.Adapter")
	}
	if _, ok := deps.Encrypt.(*gpgcrypt.Adapter); !ok {
		t.Error("Expected Encrypt to be gpgcrypt.Adapter")
	}
}
