package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL          = "http://127.0.0.1:8080"
	DefaultTimeout          = 10 * time.Second
	DefaultSessionStatePath = "configs/reveal_session.json"
	DefaultPrompt           = "reveal> "
)

// Config holds reveal-cli configuration.
type Config struct {
	BaseURL          string        `yaml:"baseURL"`
	Timeout          time.Duration `yaml:"timeout"`
	Source           string        `yaml:"source"`
	Sites            string        `yaml:"sites"`
	SessionStatePath string        `yaml:"sessionStatePath"`
	HistoryFile      string        `yaml:"historyFile"`
	Prompt           string        `yaml:"prompt"`
}

func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file failed: %w", err)
	}
	applyDefaults(&cfg)
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.SessionStatePath == "" {
		cfg.SessionStatePath = DefaultSessionStatePath
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
}
