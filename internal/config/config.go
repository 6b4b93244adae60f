// Package config handles loading and resolving kitadash configuration.
// Resolution order (first non-empty value wins):
//  1. CLI flags (--endpoint, --db, --timeout, --rate, --format)
//  2. Environment variables KITADASH_ENDPOINTS and KITADASH_DB_PATH
//  3. config.json in the current working directory
//  4. Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/derickschaefer/kitadash/internal/model"
)

const (
	DefaultConfigFile = "config.json"
	DefaultFormat     = "table"
	DefaultTimeout    = 5 * time.Second
	DefaultRate       = 10.0
	DefaultMode       = model.ModeLive
	DefaultUserAgent  = "kitadash/1.0"
	EnvEndpoints      = "KITADASH_ENDPOINTS"
	EnvDBPath         = "KITADASH_DB_PATH"
)

// DefaultEndpoints is the candidate list in preference order. The first
// entry is the production analytics host; the rest are historical names the
// backend has been deployed under.
var DefaultEndpoints = []string{
	"https://kitakitachatbot.onrender.com",
	"https://kitakits-chatbot.onrender.com",
	"https://kitakitschatbot.onrender.com",
	"https://kitakits.onrender.com",
	"https://kitakit-chatbot.onrender.com",
	"https://kitakits-analytics.onrender.com",
}

// File is the on-disk representation of config.json.
type File struct {
	Endpoints     []string `json:"endpoints,omitempty"`
	Timeout       string   `json:"timeout"`
	Rate          float64  `json:"rate"`
	DefaultFormat string   `json:"default_format"`
	DefaultMode   string   `json:"default_mode"`
	DBPath        string   `json:"db_path"`
	UserAgent     string   `json:"user_agent,omitempty"`
}

// Config is the fully-resolved runtime configuration.
// All callers use this struct; the File is only read during loading.
type Config struct {
	Endpoints   []string
	Timeout     time.Duration
	Rate        float64
	Format      string
	DefaultMode model.DisplayMode
	DBPath      string
	UserAgent   string
	ConfigPath  string // path of the config.json that was loaded (empty if none found)

	// Runtime overrides set from CLI flags after Load()
	Quiet   bool
	Verbose bool
	Debug   bool
}

// Load resolves configuration from config.json, the environment and the
// built-in defaults. CLI flag overrides are applied by the caller.
func Load() (*Config, error) {
	cfg := &Config{
		Endpoints:   append([]string(nil), DefaultEndpoints...),
		Timeout:     DefaultTimeout,
		Rate:        DefaultRate,
		Format:      DefaultFormat,
		DefaultMode: DefaultMode,
		UserAgent:   DefaultUserAgent,
	}

	// Layer 1: config.json (lowest priority)
	f, path, err := loadFile()
	switch {
	case err == nil:
		if err := applyFile(cfg, f, path); err != nil {
			return nil, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	// Layer 2: environment variables
	if v := os.Getenv(EnvEndpoints); v != "" {
		cfg.Endpoints = SplitEndpoints(v)
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.DBPath = v
	}

	// Set default DB path if still unset
	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.DBPath = filepath.Join(home, ".kitadash", "kitadash.db")
		}
	}

	return cfg, nil
}

// Validate returns an error if the configuration cannot drive a resolver.
func (c *Config) Validate() error {
	if len(c.Endpoints) == 0 {
		return errors.New("no candidate endpoints configured (set endpoints in config.json, " + EnvEndpoints + ", or --endpoint)")
	}
	for _, e := range c.Endpoints {
		u, err := url.Parse(e)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid endpoint %q: expected an http(s) base URL", e)
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.Rate <= 0 {
		return fmt.Errorf("rate must be positive, got %g", c.Rate)
	}
	if _, err := model.ParseMode(string(c.DefaultMode)); err != nil {
		return fmt.Errorf("default_mode: %w", err)
	}
	if c.DBPath == "" {
		return errors.New("db_path is empty and no home directory is available")
	}
	return nil
}

// SplitEndpoints splits a comma-separated endpoint list, trimming spaces and
// trailing slashes and dropping empties. Order is preserved.
func SplitEndpoints(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimRight(strings.TrimSpace(part), "/")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadFile attempts to read config.json from the current working directory.
// A missing file is reported with an error wrapping os.ErrNotExist.
func loadFile() (*File, string, error) {
	path, err := filepath.Abs(DefaultConfigFile)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("config.json not found at %s: %w", path, os.ErrNotExist)
		}
		return nil, "", fmt.Errorf("reading config.json: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing config.json: %w", err)
	}
	return &f, path, nil
}

// applyFile copies values from a parsed File into cfg,
// skipping any fields that are zero/empty.
func applyFile(cfg *Config, f *File, path string) error {
	cfg.ConfigPath = path
	if len(f.Endpoints) > 0 {
		cfg.Endpoints = SplitEndpoints(strings.Join(f.Endpoints, ","))
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return fmt.Errorf("config.json timeout %q: %w", f.Timeout, err)
		}
		cfg.Timeout = d
	}
	if f.Rate > 0 {
		cfg.Rate = f.Rate
	}
	if f.DefaultFormat != "" {
		cfg.Format = f.DefaultFormat
	}
	if f.DefaultMode != "" {
		m, err := model.ParseMode(f.DefaultMode)
		if err != nil {
			return fmt.Errorf("config.json default_mode: %w", err)
		}
		cfg.DefaultMode = m
	}
	if f.DBPath != "" {
		cfg.DBPath = f.DBPath
	}
	if f.UserAgent != "" {
		cfg.UserAgent = f.UserAgent
	}
	return nil
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config.json via `kitadash config init`.
func Template() File {
	return File{
		Endpoints:     append([]string(nil), DefaultEndpoints...),
		Timeout:       DefaultTimeout.String(),
		Rate:          DefaultRate,
		DefaultFormat: DefaultFormat,
		DefaultMode:   string(DefaultMode),
	}
}

// ReadFile parses a config.json at path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &f, nil
}

// WriteFile serialises a File to the given path.
func WriteFile(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}
