// Package config loads settings for the workqueue command from defaults,
// an optional YAML file, WORKQUEUE_* environment variables and flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/randomizedcoder/workqueue/internal/logging"
)

// EnvPrefix is prepended to environment overrides, e.g.
// WORKQUEUE_LOG_LEVEL for log.level.
const EnvPrefix = "WORKQUEUE"

// Config is the complete command configuration
type Config struct {
	// Producers is the number of goroutines pushing tasks
	Producers int `mapstructure:"producers"`
	// Consumers is the number of blocking pool workers (0 = pollers only)
	Consumers int `mapstructure:"consumers"`
	// Pollers is the number of real-time TryPop consumers
	Pollers int `mapstructure:"pollers"`
	// Tasks is the total number of tasks pushed across all producers
	Tasks int `mapstructure:"tasks"`
	// TryPush makes producers use TryPush with yield-and-retry
	TryPush bool `mapstructure:"try_push"`
	// PollReport is how often pollers log their counters (0 disables)
	PollReport time.Duration `mapstructure:"poll_report"`

	Log    LogConfig    `mapstructure:"log"`
	Module ModuleConfig `mapstructure:"module"`
}

// LogConfig controls logger construction
type LogConfig struct {
	// Level is DEBUG, INFO, WARN or ERROR
	Level string `mapstructure:"level"`
	// Format is "text" or "json"
	Format string `mapstructure:"format"`
}

// ModuleConfig names an external module supplying the task body
type ModuleConfig struct {
	// Path to the module; empty means tasks run a built-in no-op body
	Path string `mapstructure:"path"`
	// Symbol is the exported task function
	Symbol string `mapstructure:"symbol"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Producers:  4,
		Consumers:  4,
		Pollers:    0,
		Tasks:      1_000_000,
		TryPush:    false,
		PollReport: time.Second,
		Log: LogConfig{
			Level:  logging.LevelInfo,
			Format: logging.FormatText,
		},
		Module: ModuleConfig{
			Symbol: "Task",
		},
	}
}

// New returns a viper instance with defaults and environment overrides
// registered.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// SetDefaults registers default values with v
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("producers", d.Producers)
	v.SetDefault("consumers", d.Consumers)
	v.SetDefault("pollers", d.Pollers)
	v.SetDefault("tasks", d.Tasks)
	v.SetDefault("try_push", d.TryPush)
	v.SetDefault("poll_report", d.PollReport)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("module.path", d.Module.Path)
	v.SetDefault("module.symbol", d.Module.Symbol)
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"producers":     "producers",
	"consumers":     "consumers",
	"pollers":       "pollers",
	"tasks":         "tasks",
	"try-push":      "try_push",
	"poll-report":   "poll_report",
	"module":        "module.path",
	"module-symbol": "module.symbol",
}

// AddFlags registers the run flags on fs and binds them to v.
func AddFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	d := Default()

	fs.IntP("producers", "p", d.Producers, "number of producer goroutines")
	fs.IntP("consumers", "c", d.Consumers, "number of blocking consumers (0 = pollers only)")
	fs.Int("pollers", d.Pollers, "number of real-time TryPop consumers")
	fs.IntP("tasks", "n", d.Tasks, "total number of tasks")
	fs.Bool("try-push", d.TryPush, "producers use TryPush with yield-and-retry")
	fs.Duration("poll-report", d.PollReport, "poller stats interval (0 disables)")
	fs.String("module", d.Module.Path, "external module supplying the task body")
	fs.String("module-symbol", d.Module.Symbol, "exported task function in --module")

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("config: bind --%s: %w", flag, err)
		}
	}
	return nil
}

// ReadFile merges a YAML config file into v.
func ReadFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	return nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Validate checks the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c.Producers < 1 {
		return fmt.Errorf("%w: producers must be >= 1", ErrInvalid)
	}
	if c.Consumers < 0 {
		return fmt.Errorf("%w: consumers must be >= 0", ErrInvalid)
	}
	if c.Pollers < 0 {
		return fmt.Errorf("%w: pollers must be >= 0", ErrInvalid)
	}
	if c.Consumers+c.Pollers < 1 {
		return fmt.Errorf("%w: need at least one consumer or poller", ErrInvalid)
	}
	if c.Tasks < 0 {
		return fmt.Errorf("%w: tasks must be >= 0", ErrInvalid)
	}
	if c.PollReport < 0 {
		return fmt.Errorf("%w: poll_report must be >= 0", ErrInvalid)
	}
	if !logging.IsValidLevel(c.Log.Level) {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Log.Level)
	}
	if c.Module.Path != "" && c.Module.Symbol == "" {
		return fmt.Errorf("%w: module.symbol is required with module.path", ErrInvalid)
	}
	return nil
}
