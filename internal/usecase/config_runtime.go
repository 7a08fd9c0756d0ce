package usecase

import (
	"fmt"
	"strings"
	"time"
)

// Config is the runtime configuration the engine actually operates on,
// derived from ConfigFile plus CLI flags (the TOML/CLI split mirrors
// the ConfigFile/Config split the ambient config stack uses
// throughout).
type Config struct {
	Verbose bool
	Run     bool // --run; absence means dry-run everywhere

	StagingDir       string
	ManifestDir      string
	CatalogPath      string
	CatalogBackupDir string
	AuditLogPath     string
	ExcludeFile      string
	RemoteMountBase  string
	SSHPrivateKeyPath string
	TreeFilePath      string

	Bucket string
	Region string
	HostID string

	TargetBagSizeBytes     int64
	BandwidthCapBytesPerSec int64
	AllowUnverifiedCommit  bool

	Encryption EncryptionRuntime
	Pricing    PricingConfig

	ScanInterval time.Duration
}

// EncryptionRuntime resolves the configured ENCRYPT method and where
// to load its key material from.
type EncryptionRuntime struct {
	Method             EncryptMethod
	PassphraseFilePath string
	RecipientKeyPath   string
}

const gib = int64(1) << 30

// RuntimeConfigFromFile converts TOML config into the runtime config
// the engine operates on.
func RuntimeConfigFromFile(cfg ConfigFile, homeDir string) (*Config, error) {
	cleanHome := strings.TrimSpace(homeDir)
	if cleanHome == "" {
		return nil, fmt.Errorf("home directory is empty: %w", ErrCritical)
	}

	bagSize := int64(cfg.Storage.TargetBagSizeGiB)
	if bagSize <= 0 {
		bagSize = 40
	}

	method := EncryptSymmetric
	if strings.EqualFold(strings.TrimSpace(cfg.Encryption.Method), "key") {
		method = EncryptAsymmetric
	}

	interval := cfg.Schedule.ScanIntervalDays
	if interval <= 0 {
		interval = defaultScanIntervalDays
	}

	return &Config{
		StagingDir:              expandHomeDir(cfg.Storage.StagingDir, cleanHome),
		ManifestDir:             expandHomeDir(cfg.Storage.ManifestDir, cleanHome),
		CatalogPath:             expandHomeDir(cfg.Storage.CatalogPath, cleanHome),
		CatalogBackupDir:        expandHomeDir(cfg.Storage.CatalogBackupDir, cleanHome),
		AuditLogPath:            expandHomeDir(cfg.Storage.AuditLogPath, cleanHome),
		TreeFilePath:            expandHomeDir(cfg.Storage.TreeFilePath, cleanHome),
		ExcludeFile:             expandHomeDir(cfg.Storage.ExcludeFile, cleanHome),
		RemoteMountBase:         expandHomeDir(cfg.Storage.RemoteMountBase, cleanHome),
		SSHPrivateKeyPath:       expandHomeDir(cfg.Storage.SSHPrivateKeyPath, cleanHome),
		Bucket:                  cfg.Storage.Bucket,
		Region:                  cfg.Storage.Region,
		HostID:                  cfg.Storage.HostID,
		TargetBagSizeBytes:      bagSize * gib,
		BandwidthCapBytesPerSec: int64(cfg.Storage.BandwidthCapMBps) * (1 << 20),
		AllowUnverifiedCommit:   cfg.Storage.AllowUnverified,
		Encryption: EncryptionRuntime{
			Method:             method,
			PassphraseFilePath: expandHomeDir(cfg.Encryption.PassphraseFilePath, cleanHome),
			RecipientKeyPath:   expandHomeDir(cfg.Encryption.RecipientKeyPath, cleanHome),
		},
		Pricing:      cfg.Pricing,
		ScanInterval: time.Duration(interval) * 24 * time.Hour,
	}, nil
}

// expandHomeDir expands a leading ~, $HOME, or ${HOME} token. Paths
// without any of those tokens are returned unchanged.
func expandHomeDir(path, home string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	switch {
	case trimmed == "~":
		return home
	case strings.HasPrefix(trimmed, "~/"):
		return home + trimmed[1:]
	case strings.HasPrefix(trimmed, "${HOME}"):
		return home + strings.TrimPrefix(trimmed, "${HOME}")
	case strings.HasPrefix(trimmed, "$HOME"):
		return home + strings.TrimPrefix(trimmed, "$HOME")
	default:
		return trimmed
	}
}

// ExpandHomeDirPublic exposes expandHomeDir to the cmd layer (log
// directory resolution happens before the engine's Config is built).
func ExpandHomeDirPublic(path, home string) string {
	return expandHomeDir(path, home)
}
