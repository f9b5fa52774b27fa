// Package config loads knoldeck's settings. Sources are layered, later ones
// winning: built-in defaults, an optional YAML file, KNOLDECK_* environment
// variables and command-line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/conorfennell/knoldeck/internal/srs"
	"github.com/conorfennell/knoldeck/internal/validate"
)

// EnvPrefix prefixes every environment variable. A double underscore
// separates nesting levels: KNOLDECK_STORE__DRIVER sets store.driver.
const EnvPrefix = "KNOLDECK_"

type Config struct {
	Store     StoreConfig  `koanf:"store"`
	Server    ServerConfig `koanf:"server"`
	Log       LogConfig    `koanf:"log"`
	Engine    EngineConfig `koanf:"engine"`
	Import    ImportConfig `koanf:"import"`
	Scheduler srs.Params   `koanf:"scheduler"`
}

type StoreConfig struct {
	Driver string `koanf:"driver" validate:"oneof=memory sqlite"`
	Path   string `koanf:"path" validate:"required_if=Driver sqlite"`
	// Seed loads the sample decks and cards into an empty store.
	Seed bool `koanf:"seed"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=auto text json"`
}

type EngineConfig struct {
	DeletePolicy  string        `koanf:"delete_policy" validate:"oneof=forbid cascade reparent"`
	RetryAttempts int           `koanf:"retry_attempts" validate:"min=1,max=20"`
	RetryBackoff  time.Duration `koanf:"retry_backoff" validate:"min=0"`
}

type ImportConfig struct {
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

// Defaults returns the built-in configuration.
func Defaults() map[string]any {
	p := srs.DefaultParams()
	return map[string]any{
		"store.driver":                "memory",
		"store.path":                  "knoldeck.db",
		"store.seed":                  false,
		"server.addr":                 ":8080",
		"server.cors_origins":         []string{"http://localhost:5173"},
		"server.shutdown_timeout":     "10s",
		"log.level":                   "info",
		"log.format":                  "auto",
		"engine.delete_policy":        "reparent",
		"engine.retry_attempts":       5,
		"engine.retry_backoff":        "20ms",
		"import.repos_dir":            "repos",
		"scheduler.relearn_days":      p.RelearnDays,
		"scheduler.hard_factor":       p.HardFactor,
		"scheduler.initial_intervals": p.InitialIntervals,
		"scheduler.default_ease":      p.DefaultEase,
		"scheduler.min_ease":          p.MinEase,
		"scheduler.easy_bonus":        p.EasyBonus,
		"scheduler.perfect_bonus":     p.PerfectBonus,
		"scheduler.max_interval_days": p.MaxIntervalDays,
	}
}

// FlagKeys maps command-line flag names to configuration keys. Flags not
// listed here are not configuration.
var FlagKeys = map[string]string{
	"store":     "store.driver",
	"db":        "store.path",
	"seed":      "store.seed",
	"log-level": "log.level",
	"addr":      "server.addr",
}

// Load builds the configuration. path may be empty, in which case no file is
// read; a named file that cannot be read is an error. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagKey(flags)), nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section, including the scheduler parameters.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Scheduler.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// listKeys are the keys whose environment values are comma separated lists.
var listKeys = map[string]bool{
	"server.cors_origins":         true,
	"scheduler.initial_intervals": true,
}

func envValue(name, value string) (string, any) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if listKeys[key] {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return key, parts
	}
	return key, value
}

func flagKey(fs *pflag.FlagSet) func(f *pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		key, ok := FlagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	}
}
