// Package config loads and validates the agent configuration.
//
// Settings come from three layers, later layers winning: built-in defaults,
// an optional YAML file, and ATTSYNC_* environment variables. A .env file in
// the working directory is folded into the environment before the overlay,
// which keeps site deployments to a single dropped-in file.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Device configures the terminal connection.
type Device struct {
	Host             string `yaml:"host" json:"host"`
	Port             int    `yaml:"port" json:"port"`
	TimeoutSeconds   int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	FetchRetries     int    `yaml:"fetch_retries" json:"fetch_retries"`
	ReconnectDelayMS int    `yaml:"reconnect_delay_ms" json:"reconnect_delay_ms"`
}

// Store configures the local database.
type Store struct {
	Path string `yaml:"path" json:"path"`
}

// Remote configures delivery to the central service.
type Remote struct {
	URL            string `yaml:"url" json:"url"`
	Secret         string `yaml:"secret" json:"secret"`
	TimeoutSeconds int    `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxAttempts    int    `yaml:"max_attempts" json:"max_attempts"`
}

// Sync configures the run loop.
type Sync struct {
	BatchLimit     int  `yaml:"batch_limit" json:"batch_limit"`
	RecordDelayMS  int  `yaml:"record_delay_ms" json:"record_delay_ms"`
	ClearDeviceLog bool `yaml:"clear_device_log" json:"clear_device_log"`
}

// Config is the full agent configuration.
type Config struct {
	Device   Device `yaml:"device" json:"device"`
	Store    Store  `yaml:"store" json:"store"`
	Remote   Remote `yaml:"remote" json:"remote"`
	Sync     Sync   `yaml:"sync" json:"sync"`
	Timezone string `yaml:"timezone" json:"timezone"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Device: Device{
			Port:             4370,
			TimeoutSeconds:   12,
			FetchRetries:     3,
			ReconnectDelayMS: 1200,
		},
		Store: Store{
			Path: "attendance.db",
		},
		Remote: Remote{
			TimeoutSeconds: 15,
			MaxAttempts:    3,
		},
		Sync: Sync{
			BatchLimit: 500,
		},
		Timezone: "Asia/Tehran",
	}
}

// Load builds the configuration for one run. path may be empty, in which
// case only defaults and the environment apply. A named file that does not
// exist is an error; a missing .env is not.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays ATTSYNC_* variables onto the configuration.
func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	setString("ATTSYNC_DEVICE_HOST", &cfg.Device.Host)
	setString("ATTSYNC_DB_PATH", &cfg.Store.Path)
	setString("ATTSYNC_REMOTE_URL", &cfg.Remote.URL)
	setString("ATTSYNC_REMOTE_SECRET", &cfg.Remote.Secret)
	setString("ATTSYNC_TIMEZONE", &cfg.Timezone)

	if err := setInt("ATTSYNC_DEVICE_PORT", &cfg.Device.Port); err != nil {
		return err
	}
	if err := setInt("ATTSYNC_BATCH_LIMIT", &cfg.Sync.BatchLimit); err != nil {
		return err
	}
	return nil
}

// Validate checks the configuration against the embedded schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("config schema missing #Config: %w", err)
	}

	unified := def.Unify(ctx.Encode(cfg))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Timeout is the per-session terminal deadline.
func (d Device) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// ReconnectDelay is the pause between terminal fetch passes.
func (d Device) ReconnectDelay() time.Duration {
	return time.Duration(d.ReconnectDelayMS) * time.Millisecond
}

// Timeout is the per-attempt delivery deadline.
func (r Remote) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// RecordDelay is the pause between successive record deliveries.
func (s Sync) RecordDelay() time.Duration {
	return time.Duration(s.RecordDelayMS) * time.Millisecond
}
