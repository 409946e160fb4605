// Package config loads the client configuration from a YAML file,
// falling back to built-in defaults for anything not set.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	API      APIConfig      `yaml:"api"`
	Realtime RealtimeConfig `yaml:"realtime"`
	State    StateConfig    `yaml:"state"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type RealtimeConfig struct {
	// BaseURL of the realtime endpoint. Left empty, it is derived from
	// the API base URL.
	BaseURL     string        `yaml:"base_url"`
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxAttempts int           `yaml:"max_attempts"`
}

type StateConfig struct {
	// Dir overrides the XDG state directory.
	Dir string `yaml:"dir"`
}

func defaults() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://127.0.0.1:8000/api",
			Timeout: 10 * time.Second,
		},
		Realtime: RealtimeConfig{
			BaseDelay:   time.Second,
			MaxAttempts: 5,
		},
	}
}

// Load reads the config file at path. A missing file yields the defaults;
// an unreadable or malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.fill()
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.fill()
	return cfg, nil
}

func (c *Config) fill() {
	if c.Realtime.BaseURL == "" {
		c.Realtime.BaseURL = deriveWSBase(c.API.BaseURL)
	}
}

// deriveWSBase converts http://host/api → ws://host/api/ws.
func deriveWSBase(apiBase string) string {
	u, err := url.Parse(apiBase)
	if err != nil {
		return "ws://127.0.0.1:8000/api/ws"
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	path := strings.TrimRight(u.Path, "/")
	return fmt.Sprintf("%s://%s%s/ws", scheme, u.Host, path)
}
