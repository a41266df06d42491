package main

import (
	"fmt"
	"os"
	"time"

	"scoreboard/internal/common/cache"
	"scoreboard/internal/common/db"
	"scoreboard/internal/common/mq"
	"scoreboard/internal/common/storage"
	"scoreboard/internal/scoreboard/middleware"
	"scoreboard/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// RateLimitConfig bounds the secret endpoints per client.
type RateLimitConfig struct {
	Window time.Duration `yaml:"window"`
	IPMax  int           `yaml:"ipMax"`
}

// RevealConfig signs presenter sessions.
type RevealConfig struct {
	JWTSecret  string        `yaml:"jwtSecret"`
	Issuer     string        `yaml:"issuer"`
	SessionTTL time.Duration `yaml:"sessionTTL"`
}

// ScoreboardConfig holds scoreboard settings shared by every contest.
type ScoreboardConfig struct {
	APIKey          string                `yaml:"apiKey"`
	RefreshInterval time.Duration         `yaml:"refreshInterval"`
	FetchTimeout    time.Duration         `yaml:"fetchTimeout"`
	SinkTimeout     time.Duration         `yaml:"sinkTimeout"`
	SnapshotTTL     time.Duration         `yaml:"snapshotTTL"`
	LocalCacheSize  int                   `yaml:"localCacheSize"`
	PanelSize       int                   `yaml:"panelSize"`
	RunTopic        string                `yaml:"runTopic"`
	RateLimit       RateLimitConfig       `yaml:"rateLimit"`
	Reveal          RevealConfig          `yaml:"reveal"`
	CORS            middleware.CORSConfig `yaml:"cors"`
}

// ContestConfig describes one served contest. Source is an http(s) URL,
// a minio://bucket/key object or a local path. Contests without a source
// are fed through PUT /state.
type ContestConfig struct {
	Name    string `yaml:"name"`
	Source  string `yaml:"source"`
	Sites   string `yaml:"sites"`
	Secrets string `yaml:"secrets"`
}

// AppConfig holds scoreboard-server configuration. Redis, MySQL, Kafka and
// MinIO are optional; a section without an address is skipped.
type AppConfig struct {
	Server     ServerConfig        `yaml:"server"`
	Logger     logger.Config       `yaml:"logger"`
	Redis      cache.RedisConfig   `yaml:"redis"`
	Database   db.MySQLConfig      `yaml:"database"`
	Kafka      mq.KafkaConfig      `yaml:"kafka"`
	MinIO      storage.MinIOConfig `yaml:"minio"`
	Scoreboard ScoreboardConfig    `yaml:"scoreboard"`
	Contests   []ContestConfig     `yaml:"contests"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}

	sb := &cfg.Scoreboard
	if sb.RefreshInterval == 0 {
		sb.RefreshInterval = time.Second
	}
	if sb.FetchTimeout == 0 {
		sb.FetchTimeout = 10 * time.Second
	}
	if sb.SinkTimeout == 0 {
		sb.SinkTimeout = 5 * time.Second
	}
	if sb.SnapshotTTL == 0 {
		sb.SnapshotTTL = 30 * time.Second
	}
	if sb.LocalCacheSize == 0 {
		sb.LocalCacheSize = 256
	}
	if sb.RunTopic == "" {
		sb.RunTopic = "scoreboard.runs"
	}
	if sb.RateLimit.Window == 0 {
		sb.RateLimit.Window = time.Minute
	}
	if sb.RateLimit.IPMax == 0 {
		sb.RateLimit.IPMax = 30
	}
	if sb.Reveal.Issuer == "" {
		sb.Reveal.Issuer = "scoreboard"
	}
	if sb.Reveal.SessionTTL == 0 {
		sb.Reveal.SessionTTL = 6 * time.Hour
	}

	seen := make(map[string]bool, len(cfg.Contests))
	for _, contest := range cfg.Contests {
		if contest.Name == "" {
			return nil, fmt.Errorf("contest name is required")
		}
		if seen[contest.Name] {
			return nil, fmt.Errorf("duplicate contest %s", contest.Name)
		}
		seen[contest.Name] = true
	}
	return &cfg, nil
}
