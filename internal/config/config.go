package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// BackupConfig controls periodic copies of the journal database.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	StoragePath   string `yaml:"storage_path"`
	RetentionDays int    `yaml:"retention_days"`
}

type Config struct {
	Server struct {
		Port                int `yaml:"port"`
		ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`

	Store struct {
		Path                  string `yaml:"path"`
		ReloadIntervalSeconds int    `yaml:"reload_interval_seconds"`
	} `yaml:"store"`

	Refresh struct {
		HoursIntervalSeconds  int `yaml:"hours_interval_seconds"`
		SeasonIntervalSeconds int `yaml:"season_interval_seconds"`
	} `yaml:"refresh"`

	Database struct {
		Path                 string `yaml:"path"`
		JournalRetentionDays int    `yaml:"journal_retention_days"`
	} `yaml:"database"`

	Backup BackupConfig `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	API struct {
		RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
		RateLimitBurst     int     `yaml:"rate_limit_burst"`
	} `yaml:"api"`

	Telegram struct {
		Enabled           bool   `yaml:"enabled"`
		BotToken          string `yaml:"bot_token"`
		ChatID            int64  `yaml:"chat_id"`
		MessagesPerMinute int    `yaml:"messages_per_minute"`
	} `yaml:"telegram"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
		GRPCHealthPort    int  `yaml:"grpc_health_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Store.Path == "" {
		c.Store.Path = "configs/store.yaml"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/storefront.db"
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "data/backups"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "storefront"
	}
	if c.API.RateLimitPerSecond <= 0 {
		c.API.RateLimitPerSecond = 10
	}
	if c.API.RateLimitBurst <= 0 {
		c.API.RateLimitBurst = 20
	}
	if c.Telegram.MessagesPerMinute <= 0 {
		c.Telegram.MessagesPerMinute = 20
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 8090
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}

func (c *Config) HoursRefreshInterval() time.Duration {
	if c.Refresh.HoursIntervalSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.Refresh.HoursIntervalSeconds) * time.Second
}

func (c *Config) SeasonRefreshInterval() time.Duration {
	if c.Refresh.SeasonIntervalSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(c.Refresh.SeasonIntervalSeconds) * time.Second
}

func (c *Config) StoreReloadInterval() time.Duration {
	if c.Store.ReloadIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Store.ReloadIntervalSeconds) * time.Second
}

func (c *Config) JournalRetention() time.Duration {
	if c.Database.JournalRetentionDays <= 0 {
		return 90 * 24 * time.Hour
	}
	return time.Duration(c.Database.JournalRetentionDays) * 24 * time.Hour
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}
