package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML config file's shape: a default esi_prefix
// (same null/string/absent encoding as esi.Options.EsiPrefix), default
// request headers merged into every stream's request, and a timeout
// applied to the Fetcher's context per esi:include request.
type Config struct {
	EsiPrefix      *string           `yaml:"esi_prefix"`
	Headers        map[string]string `yaml:"headers"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
}

const defaultFetchTimeout = 10 * time.Second

// loadConfig reads and parses path. An empty path is not an error: it
// yields an empty Config so callers fall back to esi.Options' own
// defaults.
func loadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) header() http.Header {
	h := make(http.Header, len(c.Headers))
	for k, v := range c.Headers {
		h.Set(k, v)
	}
	return h
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultFetchTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
