// Package config handles loading and persisting user configuration
// for chatme. Configuration is stored in ~/.chatme/config.json, with
// overrides from a local .env file and CHATME_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const (
	dirName  = ".chatme"
	fileName = "config.json"

	DefaultEndpoint    = "http://127.0.0.1:8000"
	DefaultRevealDelay = 30 * time.Millisecond

	envKeyEndpoint = "CHATME_ENDPOINT"
	envKeySession  = "CHATME_SESSION_ID"
	envKeyDelay    = "CHATME_REVEAL_DELAY"
	envKeyMode     = "CHATME_MODE"
	envKeyTimeout  = "CHATME_TIMEOUT"
)

// Response modes.
const (
	ModeStream   = "stream"   // Reveal the reply token by token.
	ModeBuffered = "buffered" // Expect a single JSON {"message": ...} body.
)

// Config holds the user's configuration.
type Config struct {
	Endpoint    string   `json:"endpoint"`
	SessionID   string   `json:"session_id,omitempty"`
	RevealDelay Duration `json:"reveal_delay"`
	Mode        string   `json:"mode"`
	// Timeout bounds a whole request including the streamed body. Zero disables it.
	Timeout Duration `json:"timeout,omitempty"`
}

// Duration is a time.Duration that reads and writes as "30ms" in JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func defaults() *Config {
	return &Config{
		Endpoint:    DefaultEndpoint,
		RevealDelay: Duration(DefaultRevealDelay),
		Mode:        ModeStream,
	}
}

// Dir returns the configuration directory path.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, dirName)
}

func configPath() string {
	return filepath.Join(Dir(), fileName)
}

// readFile merges the on-disk config into cfg. A missing or malformed file
// leaves cfg untouched.
func readFile(cfg *Config) {
	data, err := os.ReadFile(configPath())
	if err != nil {
		return
	}
	merged := *cfg
	if err := json.Unmarshal(data, &merged); err != nil {
		return
	}
	*cfg = merged
}

// Load reads the configuration from disk, .env and environment variables.
// It never fails on missing or malformed input; bad values fall back to defaults.
func Load() (*Config, error) {
	// A missing .env is the common case.
	_ = godotenv.Load()

	cfg := defaults()
	readFile(cfg)

	if endpoint := os.Getenv(envKeyEndpoint); endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if session := os.Getenv(envKeySession); session != "" {
		cfg.SessionID = session
	}
	if v := os.Getenv(envKeyDelay); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.RevealDelay = Duration(d)
		}
	}
	if mode := os.Getenv(envKeyMode); mode != "" {
		cfg.Mode = strings.ToLower(mode)
	}
	if v := os.Getenv(envKeyTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			cfg.Timeout = Duration(d)
		}
	}

	if cfg.Mode != ModeStream && cfg.Mode != ModeBuffered {
		cfg.Mode = ModeStream
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")

	return cfg, nil
}

// Validate reports configuration values that would make every request fail.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid endpoint %q: expected something like %s", c.Endpoint, DefaultEndpoint)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid endpoint %q: scheme must be http or https", c.Endpoint)
	}
	if c.Mode != ModeStream && c.Mode != ModeBuffered {
		return fmt.Errorf("invalid mode %q: use %q or %q", c.Mode, ModeStream, ModeBuffered)
	}
	if c.RevealDelay < 0 {
		return fmt.Errorf("reveal delay must not be negative")
	}
	return nil
}

// EnsureSession returns the configured session id, generating and
// persisting a new one when none is set.
func EnsureSession(cfg *Config) (string, error) {
	if cfg.SessionID != "" {
		return cfg.SessionID, nil
	}
	id := uuid.NewString()
	if err := update(func(c *Config) { c.SessionID = id }); err != nil {
		return "", err
	}
	cfg.SessionID = id
	return id, nil
}

// save persists the config to disk.
func save(cfg *Config) error {
	if err := os.MkdirAll(Dir(), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath(), data, 0o600)
}

// update applies fn to the on-disk config only, so environment overrides
// are never written back.
func update(fn func(*Config)) error {
	cfg := defaults()
	readFile(cfg)
	fn(cfg)
	return save(cfg)
}

// SetEndpoint saves the chat endpoint base URL.
func SetEndpoint(endpoint string) error {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	probe := &Config{Endpoint: endpoint, Mode: ModeStream}
	if err := probe.Validate(); err != nil {
		return err
	}
	return update(func(c *Config) { c.Endpoint = endpoint })
}

// SetRevealDelay saves the per-token reveal delay.
func SetRevealDelay(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("reveal delay must not be negative")
	}
	return update(func(c *Config) { c.RevealDelay = Duration(d) })
}

// SetMode saves the response mode.
func SetMode(mode string) error {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode != ModeStream && mode != ModeBuffered {
		return fmt.Errorf("invalid mode %q: use %q or %q", mode, ModeStream, ModeBuffered)
	}
	return update(func(c *Config) { c.Mode = mode })
}

// SetSessionID saves the session id sent with every message.
func SetSessionID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("session id must not be empty")
	}
	return update(func(c *Config) { c.SessionID = id })
}
