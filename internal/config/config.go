package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Config struct for environment variables. Defaults match the constants the
// jailer fix shipped with on webOS devices.
type Config struct {
	OSInfoPath  string `envconfig:"OS_INFO_PATH" default:"/var/run/nyx/os_info.json"`
	HomeDir     string `envconfig:"HOME_DIR" default:"/media/developer"`
	URLTemplate string `envconfig:"DOWNLOAD_URL_TEMPLATE" default:"https://developer.lge.com/common/file/DownloadFile.dev?sdkVersion=%s&fileType=%s"`

	// The shipped fix checked for jail_app.conf and its signature but wrote the
	// downloads to scratch paths instead. Leaving these empty preserves that
	// behavior; set them to the real conf/sig paths to override.
	ConfTargetPath string `envconfig:"CONF_TARGET_PATH"`
	SigTargetPath  string `envconfig:"SIG_TARGET_PATH"`

	// SkipIfPresent short-circuits the downloads when both local files already
	// exist. The shipped fix detected this case but downloaded anyway, so the
	// default stays false until the intent is confirmed.
	SkipIfPresent bool `envconfig:"SKIP_IF_PRESENT" default:"false"`

	NotifyQueueSize int    `envconfig:"NOTIFY_QUEUE_SIZE" default:"16"`
	WebhookURL      string `envconfig:"WEBHOOK_URL"`
	HistoryDBPath   string `envconfig:"HISTORY_DB_PATH"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"INFO"`
}

// LoadConfig reads environment variables and populates the Config struct.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	if cfg.ConfTargetPath == "" {
		cfg.ConfTargetPath = filepath.Join(cfg.HomeDir, "temp", "test.1")
	}

	if cfg.SigTargetPath == "" {
		cfg.SigTargetPath = filepath.Join(cfg.HomeDir, "temp", "test.2")
	}

	return &cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
