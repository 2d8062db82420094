// Package config loads biotrack settings from a YAML file, then the
// environment. Command-line flags are applied by the caller last.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/erazemk/biotrack/internal/logging"
	"github.com/erazemk/biotrack/internal/resilience"
)

// Environment variables overriding the file.
const (
	EnvAPIURL   = "BIOTRACK_API_URL"
	EnvToken    = "BIOTRACK_TOKEN"
	EnvTimeout  = "BIOTRACK_TIMEOUT"
	EnvCacheDB  = "BIOTRACK_CACHE_DB"
	EnvLogLevel = "BIOTRACK_LOG_LEVEL"
)

// Config holds client settings.
type Config struct {
	APIURL   string        `yaml:"api_url" validate:"required,url"`
	Token    string        `yaml:"token"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
	CacheDB  string        `yaml:"cache_db"`
	LogLevel string        `yaml:"log_level" validate:"loglevel"`

	Breaker resilience.Config `yaml:"breaker"`
}

// Default returns the settings used when nothing else is given.
func Default() *Config {
	return &Config{
		APIURL:   "http://localhost:8080",
		Timeout:  30 * time.Second,
		LogLevel: "info",
		Breaker:  *resilience.DefaultConfig("shipment-api"),
	}
}

// Load reads path, if not empty, over the defaults and applies the environment.
// The result is not validated, so flags can still be applied.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIURL); ok {
		c.APIURL = v
	}
	if v, ok := lookup(EnvToken); ok {
		c.Token = v
	}
	if v, ok := lookup(EnvCacheDB); ok {
		c.CacheDB = v
	}
	if v, ok := lookup(EnvLogLevel); ok {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvTimeout); ok {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		c.Timeout = d
	}
	return nil
}

// parseDuration accepts Go durations and plain seconds.
func parseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(secs) * time.Second, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("loglevel", func(fl validator.FieldLevel) bool {
		return logging.ValidLevel(fl.Field().String())
	})
	return v
}

// Validate checks the final settings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q", f.Namespace(), f.Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
