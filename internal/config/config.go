package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported config format")
	ErrInvalid           = errors.New("invalid config")
)

type Config struct {
	Interface string         `koanf:"interface"`
	Vendor    string         `koanf:"vendor"`
	Stable    StableConfig   `koanf:"stable"`
	Verify    VerifyConfig   `koanf:"verify"`
	Windows   WindowsConfig  `koanf:"windows"`
	Announce  AnnounceConfig `koanf:"announce"`
	Log       LogConfig      `koanf:"log"`
	TUI       TUIConfig      `koanf:"tui"`

	// Set from flags only.
	MAC     string `koanf:"-"`
	Random  bool   `koanf:"-"`
	List    bool   `koanf:"-"`
	Restore bool   `koanf:"-"`
	Verbose bool   `koanf:"-"`
}

type StableConfig struct {
	Secret string `koanf:"secret"`
	Label  string `koanf:"label"`
}

type VerifyConfig struct {
	Attempts uint          `koanf:"attempts"`
	Delay    time.Duration `koanf:"delay"`
}

type WindowsConfig struct {
	Settle time.Duration `koanf:"settle"`
}

type AnnounceConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Count    int           `koanf:"count"`
	Interval time.Duration `koanf:"interval"`
}

type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

type TUIConfig struct {
	PollInterval time.Duration `koanf:"poll_interval"`
}

func DefaultConfig() *Config {
	return &Config{
		Verify: VerifyConfig{
			Attempts: 5,
			Delay:    500 * time.Millisecond,
		},
		Windows: WindowsConfig{
			Settle: 3 * time.Second,
		},
		Announce: AnnounceConfig{
			Count:    3,
			Interval: 200 * time.Millisecond,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		TUI: TUIConfig{
			PollInterval: time.Second,
		},
	}
}

// Load reads a YAML or JSON file onto cfg. Keys missing from the file
// keep their current values.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	return LoadBytes(data, filepath.Ext(path), cfg)
}

// LoadBytes parses data in the format named by ext (".yaml", ".yml" or
// ".json") onto cfg.
func LoadBytes(data []byte, ext string, cfg *Config) error {
	var parser koanf.Parser
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	return cfg.Validate()
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q", c.Log.Format))
	}
	if c.Announce.Count < 0 {
		errs = append(errs, fmt.Errorf("announce.count %d", c.Announce.Count))
	}
	if c.Verify.Delay < 0 || c.Windows.Settle < 0 || c.Announce.Interval < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.TUI.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("tui.poll_interval %s", c.TUI.PollInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}
