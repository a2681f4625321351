package config

import (
	"bytes"
	"log"
	"os"
	"path"
	"path/filepath"
	"sync"
	"text/template"

	"github.com/fitsyncd/fitsync/internal/domain"
	"github.com/fitsyncd/fitsync/internal/logger"
	"github.com/fitsyncd/fitsync/pkg/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var configTemplate = `# config.toml

[remote]
  # Base URL of the remote document store.
  # Default: "{{ .remoteURL }}"
  base_url = "{{ .remoteURL }}"

  # API key sent with every remote request.
  # Optional.
  # Default: ""
  api_key = ""

  # Minimum server version this client is compatible with.
  # The connectivity probe marks the remote unreachable below this.
  # Default: "1.0.0"
  min_server_version = "1.0.0"

  # HTTP timeout per remote request, in seconds.
  # Default: 15
  timeout_seconds = 15

[database]
  # Path of the local sqlite database file. Created on first run.
  # Default: "fitsync.db" inside the config directory
  path = "fitsync.db"

[cache]
  # Time-to-live for cache entries, in minutes.
  # Default: 30
  ttl_minutes = 30

  # Interval between background sweeps of expired entries, in seconds.
  # Default: 60
  sweep_interval_seconds = 60

[retry]
  # Maximum attempts for a remote operation before giving up.
  # Default: 3
  max_attempts = 3

  # Base delay for exponential backoff, in milliseconds.
  # Default: 200
  base_delay_millis = 200

[sync]
  # Enable the scheduled full synchronization job.
  # Default: true
  enabled = true

  # Cron schedule for the job.
  # Default: "@every 15m"
  schedule = "@every 15m"

  # User whose data the scheduled job reconciles.
  # Default: ""
  user_id = ""

[logging]
  # Log file path.
  # If empty or not set, logs will be written to standard output (stdout).
  # Optional.
  # Default: ""
  path = "log/"

  # Log level.
  # Options: "ERROR", "WARN", "INFO", "DEBUG", "TRACE"
  # Default: "DEBUG"
  level = "DEBUG"

  # Maximum size of a log file in megabytes (MB) before it is rotated.
  # Default: 50
  max_file_size = 50

  # Maximum number of old log files to keep.
  # Default: 3
  max_backup_count = 3
`

func writeConfig(configPath string, configFile string) error {
	cfgPath := filepath.Join(configPath, configFile)

	// check if configPath exists, if not create it
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		err := os.MkdirAll(configPath, os.ModePerm)
		if err != nil {
			log.Println(err)
			return err
		}
	}

	// check if config exists, if not create it
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		f, createErr := os.Create(cfgPath)
		if createErr != nil {
			log.Printf("error creating file: %q", createErr)
			return createErr
		}
		defer func(f *os.File) {
			errClose := f.Close()
			if errClose != nil {
				log.Printf("error closing file: %q", errClose)
			}
		}(f)

		tmpl, tmplErr := template.New("config").Parse(configTemplate)
		if tmplErr != nil {
			return errors.Wrap(tmplErr, "could not create config template")
		}

		tmplVars := map[string]string{
			"remoteURL": "http://localhost:8282",
		}

		var buffer bytes.Buffer
		if execErr := tmpl.Execute(&buffer, &tmplVars); execErr != nil {
			return errors.Wrap(execErr, "could not write config template output")
		}

		if _, writeErr := f.WriteString(buffer.String()); writeErr != nil {
			log.Printf("error writing contents to file: %v %q", configPath, writeErr)
			return writeErr
		}

		return f.Sync()
	}

	return nil
}

type Config interface {
	DynamicReload(log logger.Logger)
}

type AppConfig struct {
	Config *domain.Config
	m      sync.Mutex
}

func New(configPath string, version string) *AppConfig {
	c := &AppConfig{}
	c.defaults()
	c.Config.Version = version
	c.Config.ConfigPath = configPath

	c.load(configPath)

	return c
}

func (c *AppConfig) defaults() {
	c.Config = &domain.Config{
		Version:    "dev", // Internal, not from toml
		ConfigPath: "",    // Internal, not from toml
		Remote: domain.RemoteConfig{
			BaseURL:          "http://localhost:8282",
			APIKey:           "",
			MinServerVersion: "1.0.0",
			TimeoutSeconds:   15,
		},
		Database: domain.DatabaseConfig{
			Path: "fitsync.db",
		},
		Cache: domain.CacheConfig{
			TTLMinutes:           30,
			SweepIntervalSeconds: 60,
		},
		Retry: domain.RetryConfig{
			MaxAttempts:     3,
			BaseDelayMillis: 200,
		},
		Sync: domain.SyncConfig{
			Enabled:  true,
			Schedule: "@every 15m",
			UserID:   "",
		},
		Logging: domain.LoggingConfig{
			Path:           "",
			Level:          "DEBUG",
			MaxFileSize:    50,
			MaxBackupCount: 3,
		},
	}
}

func (c *AppConfig) load(configPath string) {
	viper.SetConfigType("toml")
	configPath = path.Clean(configPath)

	if configPath != "" {
		if err := writeConfig(configPath, "config.toml"); err != nil {
			log.Printf("writeConfig error during load: %q", err)
			// Continue to attempt reading, defaults might be used or file might exist partially
		}
		viper.SetConfigFile(path.Join(configPath, "config.toml"))
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/fitsync")
		viper.AddConfigPath("$HOME/.fitsync")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Config file not found, using defaults: %s", viper.ConfigFileUsed())
		} else {
			log.Printf("Config read error: %q. Using defaults.", err)
		}
	}

	// Unmarshal the entire config structure
	if err := viper.Unmarshal(&c.Config); err != nil {
		log.Fatalf("Could not unmarshal config file into struct: %v. Config file used: %s", err, viper.ConfigFileUsed())
	}
}

func (c *AppConfig) DynamicReload(log logger.Logger) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		c.m.Lock()
		defer c.m.Unlock()

		log.Info().Msgf("Config file changed: %s. Reloading configuration.", e.Name)

		if err := viper.ReadInConfig(); err != nil {
			log.Error().Err(err).Msg("Error reading config file during dynamic reload")
			return
		}

		var newConfig domain.Config
		// Preserve version and configPath as they are not from the file
		newConfig.Version = c.Config.Version
		newConfig.ConfigPath = c.Config.ConfigPath

		if err := viper.Unmarshal(&newConfig); err != nil {
			log.Error().Err(err).Msg("Error unmarshalling config during dynamic reload")
			return
		}

		c.Config = &newConfig

		// Update logger level if it changed
		log.SetLogLevel(c.Config.Logging.Level)

		log.Debug().Msg("Configuration reloaded successfully!")
	})
	viper.WatchConfig()
}
