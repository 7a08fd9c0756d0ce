package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arumata/glacierbag/internal/adapters/archive"
	"github.com/arumata/glacierbag/internal/adapters/config"
	"github.com/arumata/glacierbag/internal/adapters/filesystem"
	"github.com/arumata/glacierbag/internal/adapters/gpgcrypt"
	"github.com/arumata/glacierbag/internal/adapters/lock"
	"github.com/arumata/glacierbag/internal/adapters/process"
	"github.com/arumata/glacierbag/internal/adapters/progress"
	"github.com/arumata/glacierbag/internal/adapters/s3store"
	"github.com/arumata/glacierbag/internal/adapters/sshmirror"
	"github.com/arumata/glacierbag/internal/usecase"
)

// NewDefaultDependencies wires every usecase port to its real adapter.
// cfg must already be the resolved runtime Config (§6 ConfigFile →
// Config) since the object store and remote stager need the bucket,
// region and SSH key path to construct their clients up front.
func NewDefaultDependencies(ctx context.Context, logger *slog.Logger, cfg *usecase.Config) (*usecase.Dependencies, error) {
	if logger == nil {
		panic("default dependencies require logger")
	}

	objectStore, err := s3store.New(ctx, logger, cfg.Bucket, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("build s3 object store adapter: %w", err)
	}

	return &usecase.Dependencies{
		FileSystem:  filesystem.New(logger),
		Config:      config.New(logger),
		Lock:        lock.New(logger),
		Process:     process.New(logger),
		ObjectStore: objectStore,
		RemoteSync:  sshmirror.New(logger, cfg.SSHPrivateKeyPath),
		Archive:     archive.New(logger),
		Encrypt:     gpgcrypt.New(logger),
		Progress:    progress.New(logger, cfg.Verbose),
	}, nil
}
