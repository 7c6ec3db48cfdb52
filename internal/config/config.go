// Package config loads salesq settings.
//
// Precedence, highest first: command-line flags, SALESQ_* environment
// variables, GEMINI_API_KEY, the YAML file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SALESQ_"

// DateLayout is the format of reference_date.
const DateLayout = "2006-01-02"

// Defaults
const (
	DefaultDataPath       = "data/sales.csv"
	DefaultProvider       = "gemini"
	DefaultModel          = "gemini-2.5-flash-lite"
	DefaultEndpoint       = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultTimeout        = 20 * time.Second
	DefaultRatePerMinute  = 30
	DefaultBreakerFailure = 3
	DefaultCurrency       = "₹"
	DefaultAddr           = ":8080"
	DefaultSessionTTL     = 30 * time.Minute
)

// Config is the full runtime configuration.
type Config struct {
	Data          DataConfig      `koanf:"data"`
	Reasoning     ReasoningConfig `koanf:"reasoning"`
	ReferenceDate string          `koanf:"reference_date" validate:"omitempty,datetime=2006-01-02"`
	Currency      string          `koanf:"currency"`
	Log           LogConfig       `koanf:"log"`
	Server        ServerConfig    `koanf:"server"`
}

// DataConfig locates the transaction table.
type DataConfig struct {
	Path   string `koanf:"path" validate:"required"`
	Format string `koanf:"format" validate:"omitempty,oneof=csv sqlite"`
	Table  string `koanf:"table"`
}

// ReasoningConfig selects and tunes the extraction provider.
type ReasoningConfig struct {
	Provider        string        `koanf:"provider" validate:"oneof=gemini local"`
	Model           string        `koanf:"model"`
	Endpoint        string        `koanf:"endpoint" validate:"omitempty,url"`
	APIKey          string        `koanf:"api_key"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	RatePerMinute   int           `koanf:"rate_per_minute" validate:"gte=0"`
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
}

// LogConfig configures internal/logging.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr       string        `koanf:"addr" validate:"required"`
	SessionTTL time.Duration `koanf:"session_ttl" validate:"gte=0"`
}

// ReferenceTime parses ReferenceDate. The zero time means "today".
func (c *Config) ReferenceTime() (time.Time, error) {
	if c.ReferenceDate == "" {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, c.ReferenceDate)
}

func defaults() map[string]any {
	return map[string]any{
		"data.path":                  DefaultDataPath,
		"data.table":                 "sales",
		"reasoning.provider":         DefaultProvider,
		"reasoning.model":            DefaultModel,
		"reasoning.endpoint":         DefaultEndpoint,
		"reasoning.timeout":          DefaultTimeout.String(),
		"reasoning.rate_per_minute":  DefaultRatePerMinute,
		"reasoning.breaker_failures": DefaultBreakerFailure,
		"currency":                   DefaultCurrency,
		"log.level":                  "info",
		"log.format":                 "console",
		"server.addr":                DefaultAddr,
		"server.session_ttl":         DefaultSessionTTL.String(),
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"data":           "data.path",
	"data-format":    "data.format",
	"table":          "data.table",
	"provider":       "reasoning.provider",
	"model":          "reasoning.model",
	"timeout":        "reasoning.timeout",
	"reference-date": "reference_date",
	"currency":       "currency",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"addr":           "server.addr",
	"session-ttl":    "server.session_ttl",
}

// sections are the nested key groups; SALESQ_LOG_LEVEL → log.level.
var sections = []string{"data", "reasoning", "log", "server"}

// envKey maps SALESQ_REASONING_RATE_PER_MINUTE to reasoning.rate_per_minute.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, sec := range sections {
		if strings.HasPrefix(key, sec+"_") {
			return sec + "." + strings.TrimPrefix(key, sec+"_")
		}
	}
	return key
}

// FindFile returns explicit, or salesq.yaml / salesq.yml in the working
// directory, or "".
func FindFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"salesq.yaml", "salesq.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load reads configuration. flags may be nil; only flags set on the
// command line override other sources.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := FindFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		if err := k.Load(confmap.Provider(map[string]any{"reasoning.api_key": key}, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load GEMINI_API_KEY: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validate checks value ranges and enums.
func (c *Config) Validate() error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	err := validate.Struct(c)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
	}
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
