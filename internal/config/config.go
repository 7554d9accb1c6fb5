package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Tools    ToolsConfig    `yaml:"tools"`
	Comments CommentsConfig `yaml:"comments"`
	Retry    RetryConfig    `yaml:"retry"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Sync     SyncConfig     `yaml:"sync"`
	LogLevel string         `yaml:"log_level"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ToolsConfig struct {
	YtdlpPath      string        `yaml:"ytdlp_path"`
	DownloaderPath string        `yaml:"downloader_path"`
	Timeout        time.Duration `yaml:"-"`
}

// UnmarshalYAML accepts human-readable durations ("30s", "10m");
// yaml.v3 cannot decode those into time.Duration on its own.
func (t *ToolsConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		YtdlpPath      string `yaml:"ytdlp_path"`
		DownloaderPath string `yaml:"downloader_path"`
		Timeout        string `yaml:"timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	t.YtdlpPath = raw.YtdlpPath
	t.DownloaderPath = raw.DownloaderPath
	return parseDuration(raw.Timeout, "tools.timeout", &t.Timeout)
}

type CommentsConfig struct {
	// SortOrder selects the source's ranking: 0 is "best first",
	// 1 is newest first.
	SortOrder int `yaml:"sort_order"`
	// MaxPerVideo caps how many comments are pulled per video.
	// 0 disables the cap.
	MaxPerVideo int `yaml:"max_per_video"`
	// LegacyCompletenessCheck treats any existing comment row as proof
	// that the video is fully synced, instead of consulting the
	// per-video sync status. Matches the historical behavior where an
	// interrupted fetch was silently considered done.
	LegacyCompletenessCheck bool `yaml:"legacy_completeness_check"`
}

type RetryConfig struct {
	Interval    time.Duration `yaml:"-"`
	MaxAttempts int           `yaml:"max_attempts"`
}

func (r *RetryConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Interval    string `yaml:"interval"`
		MaxAttempts int    `yaml:"max_attempts"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	r.MaxAttempts = raw.MaxAttempts
	return parseDuration(raw.Interval, "retry.interval", &r.Interval)
}

// RabbitMQConfig is optional; an empty URL disables publishing.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

type SyncConfig struct {
	RunTimeout time.Duration `yaml:"-"`
}

func (s *SyncConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		RunTimeout string `yaml:"run_timeout"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	return parseDuration(raw.RunTimeout, "sync.run_timeout", &s.RunTimeout)
}

func parseDuration(raw, field string, dst *time.Duration) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", field, err)
	}
	*dst = d
	return nil
}

// Load reads the YAML config at path, expanding ${ENV} references.
// An empty path yields the built-in defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "yt_data.db"
	}
	if c.Tools.YtdlpPath == "" {
		c.Tools.YtdlpPath = "yt-dlp"
	}
	if c.Tools.DownloaderPath == "" {
		c.Tools.DownloaderPath = "youtube-comment-downloader"
	}
	if c.Tools.Timeout == 0 {
		c.Tools.Timeout = 10 * time.Minute
	}
	if c.Retry.Interval == 0 {
		c.Retry.Interval = 100 * time.Millisecond
	}
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 50
	}
	if c.Sync.RunTimeout == 0 {
		c.Sync.RunTimeout = 30 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
