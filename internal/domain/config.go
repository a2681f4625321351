package domain

// RemoteConfig holds settings for the remote document store.
type RemoteConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	APIKey           string `mapstructure:"api_key"`
	MinServerVersion string `mapstructure:"min_server_version"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
}

// DatabaseConfig holds settings for the local durable store.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CacheConfig holds settings for the in-process cache.
type CacheConfig struct {
	TTLMinutes           int `mapstructure:"ttl_minutes"`
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds"`
}

// RetryConfig holds settings for remote retry behavior.
type RetryConfig struct {
	MaxAttempts     int `mapstructure:"max_attempts"`
	BaseDelayMillis int `mapstructure:"base_delay_millis"`
}

// SyncConfig holds settings for the scheduled full synchronization job.
type SyncConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
	UserID   string `mapstructure:"user_id"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Path           string `mapstructure:"path"`
	Level          string `mapstructure:"level"`
	MaxFileSize    int    `mapstructure:"max_file_size"`
	MaxBackupCount int    `mapstructure:"max_backup_count"`
}

// Config holds the application's configuration, mapped from config.toml.
type Config struct {
	Version    string // not from config file
	ConfigPath string // internal use

	Remote   RemoteConfig   `mapstructure:"remote"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}
