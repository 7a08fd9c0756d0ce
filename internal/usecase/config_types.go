package usecase

// ConfigFile describes the on-disk TOML configuration structure (§6).
type ConfigFile struct {
	Storage    StorageConfig    `toml:"storage"`
	Pricing    PricingConfig    `toml:"pricing"`
	Encryption EncryptionConfig `toml:"encryption"`
	Logging    LoggingConfig    `toml:"logging"`
	Schedule   ScheduleConfig   `toml:"schedule"`
}

// StorageConfig holds the required staging/catalog/bucket settings.
type StorageConfig struct {
	StagingDir        string `toml:"staging_dir"`
	ManifestDir       string `toml:"manifest_dir"`
	CatalogPath       string `toml:"catalog_path"`
	CatalogBackupDir  string `toml:"catalog_backup_dir"`
	RemoteMountBase   string `toml:"remote_mount_base"`
	ExcludeFile       string `toml:"exclude_file"`
	AuditLogPath      string `toml:"audit_log_path"`
	TreeFilePath      string `toml:"tree_file_path"`
	Bucket            string `toml:"bucket"`
	Region            string `toml:"region"`
	TargetBagSizeGiB  int    `toml:"target_bag_size_gib"`
	BandwidthCapMBps  int    `toml:"bandwidth_cap_mbps"`
	HostID            string `toml:"host_id"`
	AllowUnverified   bool   `toml:"allow_unverified_commit"`
	SSHPrivateKeyPath string `toml:"ssh_private_key_path"`
}

// PricingConfig is used for cost reporting only (§6, §12) — it never
// gates MIRROR/FORCE/DELETE/REPACK decisions.
type PricingConfig struct {
	PricePerGBMonth   float64 `toml:"price_per_gb_month"`
	MinRetentionDays  int     `toml:"min_retention_days"`
	PutRequestPrice   float64 `toml:"put_request_price"`
	RetrievalPerGB    float64 `toml:"retrieval_per_gb"`
	EgressPerGB       float64 `toml:"egress_per_gb"`
}

// EncryptionConfig selects the ENCRYPT method and where its key
// material lives.
type EncryptionConfig struct {
	Method             string `toml:"method"` // "password" | "key"
	PassphraseFilePath string `toml:"passphrase_file"`
	RecipientKeyPath   string `toml:"recipient_key_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Dir   string `toml:"dir"`
	Level string `toml:"level"`
}

// ScheduleConfig holds smart-cron settings (C8).
type ScheduleConfig struct {
	ScanIntervalDays int `toml:"scan_interval_days"`
}

const defaultScanIntervalDays = 190

// DefaultConfigFile returns the default TOML configuration.
func DefaultConfigFile() ConfigFile {
	return ConfigFile{
		Storage: StorageConfig{
			StagingDir:       "~/.local/state/glacierbag/staging",
			ManifestDir:      "~/.local/state/glacierbag/manifests",
			CatalogPath:      "~/.local/state/glacierbag/catalog.json",
			CatalogBackupDir: "~/.local/state/glacierbag/catalog-backups",
			AuditLogPath:      "~/.local/state/glacierbag/audit.ndjson",
			TreeFilePath:      "~/.config/glacierbag/tree.txt",
			TargetBagSizeGiB:  40,
			SSHPrivateKeyPath: "~/.ssh/id_ed25519",
		},
		Pricing: PricingConfig{
			PricePerGBMonth:  0.00099,
			MinRetentionDays: 180,
		},
		Encryption: EncryptionConfig{
			Method: "password",
		},
		Logging: LoggingConfig{
			Dir:   "~/.local/state/glacierbag/logs",
			Level: "info",
		},
		Schedule: ScheduleConfig{
			ScanIntervalDays: defaultScanIntervalDays,
		},
	}
}
