package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/arumata/glacierbag/internal/usecase"
)

// Adapter implements ConfigPort using TOML files on disk.
type Adapter struct {
	logger *slog.Logger
}

// New creates a new config adapter.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		panic("config adapter requires logger")
	}
	return &Adapter{logger: logger}
}

// Load reads config from path or returns defaults when file is missing.
func (a *Adapter) Load(ctx context.Context, path string) (usecase.ConfigFile, error) {
	_ = ctx
	if strings.TrimSpace(path) == "" {
		return usecase.ConfigFile{}, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path) // #nosec G304 - path is controlled by usecase
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return usecase.DefaultConfigFile(), nil
		}
		return usecase.ConfigFile{}, err
	}

	cfg := usecase.DefaultConfigFile()
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return usecase.ConfigFile{}, fmt.Errorf("parse config toml: %w", err)
	}

	return cfg, nil
}

// Save writes config to path in TOML format with inline documentation.
func (a *Adapter) Save(ctx context.Context, path string, cfg usecase.ConfigFile) error {
	_ = ctx
	if strings.TrimSpace(path) == "" {
		return errors.New("config path is empty")
	}

	content := renderCommentedTOML(cfg)

	// #nosec G306 G304 - config is not secret, path is controlled by usecase.
	return os.WriteFile(path, []byte(content), 0o644)
}

//nolint:lll // template readability is more important than line length.
func renderCommentedTOML(cfg usecase.ConfigFile) string {
	return fmt.Sprintf(`# glacierbag configuration
# https://github.com/arumata/glacierbag#configuration

# ── Storage ───────────────────────────────────────────────────────
[storage]

# Scratch directory for per-leaf staging artifacts. Single-writer;
# swept of orphaned comp_/stage_/enc_/bundle_ entries at startup.
staging_dir = %[1]q

# Directory bag manifests are written to before upload.
manifest_dir = %[2]q

# Path to the JSON catalog. A parse error here is fatal — restore
# from catalog_backup_dir rather than letting the engine overwrite it.
catalog_path = %[3]q

# Opportunistic daily backup copies of the catalog.
catalog_backup_dir = %[4]q

# Newline-delimited JSON audit log of every committed upload.
audit_log_path = %[5]q

# Declarative branch-tree file: one root per line, ::TAG tokens (§3).
tree_file_path = %[26]q

# Substring exclude patterns, one per line, shared by the
# fingerprinter and the remote stager (rewritten per leaf).
exclude_file = %[6]q

# Local mount point base for FUSE-style remote branch roots.
remote_mount_base = %[7]q

# Destination S3 bucket for bags, manifests and system artifacts.
bucket = %[8]q
region = %[9]q

# Identifies this host in object keys and audit log entries.
host_id = %[10]q

# Target size of one bag, in GiB.
target_bag_size_gib = %[11]d

# Upload bandwidth cap in MB/s. 0 = unlimited.
bandwidth_cap_mbps = %[12]d

# When true, a bag whose PUT succeeded but whose HeadObject verification
# failed is committed without a verifier. Leave false (recommended) to
# treat that case as a fatal upload error.
allow_unverified_commit = %[13]t

# Private key used to authenticate to remote branches' SSH endpoints.
ssh_private_key_path = %[25]q

# ── Pricing (cost reporting only — never gates actions) ────────────
[pricing]
price_per_gb_month = %[14]v
min_retention_days = %[15]d
put_request_price = %[16]v
retrieval_per_gb = %[17]v
egress_per_gb = %[18]v

# ── Encryption ───────────────────────────────────────────────────
[encryption]
# "password" (AES-256 symmetric) or "key" (public-key recipient).
method = %[19]q
passphrase_file = %[20]q
recipient_key_path = %[21]q

# ── Logging ──────────────────────────────────────────────────────
[logging]
dir = %[22]q
level = %[23]q

# ── Schedule ("smart cron") ───────────────────────────────────────
[schedule]
# Branches older than this are "ripe" for the next cron sweep.
scan_interval_days = %[24]d
`,
		cfg.Storage.StagingDir,
		cfg.Storage.ManifestDir,
		cfg.Storage.CatalogPath,
		cfg.Storage.CatalogBackupDir,
		cfg.Storage.AuditLogPath,
		cfg.Storage.ExcludeFile,
		cfg.Storage.RemoteMountBase,
		cfg.Storage.Bucket,
		cfg.Storage.Region,
		cfg.Storage.HostID,
		cfg.Storage.TargetBagSizeGiB,
		cfg.Storage.BandwidthCapMBps,
		cfg.Storage.AllowUnverified,
		cfg.Pricing.PricePerGBMonth,
		cfg.Pricing.MinRetentionDays,
		cfg.Pricing.PutRequestPrice,
		cfg.Pricing.RetrievalPerGB,
		cfg.Pricing.EgressPerGB,
		cfg.Encryption.Method,
		cfg.Encryption.PassphraseFilePath,
		cfg.Encryption.RecipientKeyPath,
		cfg.Logging.Dir,
		cfg.Logging.Level,
		cfg.Schedule.ScanIntervalDays,
		cfg.Storage.SSHPrivateKeyPath,
		cfg.Storage.TreeFilePath,
	)
}
