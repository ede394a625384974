// Package config loads fiszki settings from flags, environment and an
// optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment overrides, e.g. FISZKI_LOG_LEVEL.
const EnvPrefix = "FISZKI_"

// DefaultFile is read when --config is not given and the file exists.
const DefaultFile = "fiszki.yaml"

// Config holds every runtime setting.
type Config struct {
	Backend    string        `koanf:"backend" validate:"oneof=json sqlite"`
	Store      string        `koanf:"store" validate:"required"`
	Addr       string        `koanf:"addr" validate:"required"`
	User       string        `koanf:"user"`
	LogLevel   string        `koanf:"log-level" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat  string        `koanf:"log-format" validate:"oneof=text json"`
	ReposDir   string        `koanf:"repos-dir" validate:"required"`
	SessionTTL time.Duration `koanf:"session-ttl" validate:"gt=0"`
}

// Defaults mirror the flag defaults registered by RegisterFlags.
func Defaults() Config {
	return Config{
		Backend:    "json",
		Store:      "flashcards.json",
		Addr:       ":8080",
		LogLevel:   "info",
		LogFormat:  "text",
		ReposDir:   "repos",
		SessionTTL: 12 * time.Hour,
	}
}

// RegisterFlags adds the configuration flags to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Defaults()
	flags.String("config", "", "Path to a YAML config file (default: ./"+DefaultFile+" if present)")
	flags.String("backend", d.Backend, "Storage backend: json or sqlite")
	flags.String("store", d.Store, "Path to the flashcard store")
	flags.String("addr", d.Addr, "HTTP listen address for serve")
	flags.StringP("user", "u", d.User, "Your nickname")
	flags.String("log-level", d.LogLevel, "Log level: debug, info, warn, error")
	flags.String("log-format", d.LogFormat, "Log format: text or json")
	flags.String("repos-dir", d.ReposDir, "Where git deck sources are cloned")
	flags.Duration("session-ttl", d.SessionTTL, "Idle time after which a web visitor is forgotten")
}

// Load merges, lowest priority first: flag defaults, the YAML file,
// FISZKI_* environment variables, and flags set on the command line.
func Load(flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, _ := flags.GetString("config")
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil || explicit || !errors.Is(err, fs.ErrNotExist) {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("error reading environment: %w", err)
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, fmt.Errorf("error reading flags: %w", err)
	}

	cfg := Defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
