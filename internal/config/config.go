// Package config provides configuration types, defaults and loading for the
// formsync command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. FORMSYNC_ENDPOINT_TIMEOUT.
const EnvPrefix = "FORMSYNC"

// LocalFile is looked up in the working directory before the user config.
const LocalFile = ".formsync.yaml"

// Config holds all configuration options for formsync.
type Config struct {
	Schema    string         `mapstructure:"schema"`    // OpenAPI document path or URL
	Operation string         `mapstructure:"operation"` // operation id whose request body is rendered
	Rules     []string       `mapstructure:"rules"`     // rule document files
	Presets   []string       `mapstructure:"presets"`   // bundled rule documents
	Debug     bool           `mapstructure:"debug"`
	Endpoint  EndpointConfig `mapstructure:"endpoint"`
	Watch     WatchConfig    `mapstructure:"watch"`
	Fill      FillConfig     `mapstructure:"fill"`
}

// EndpointConfig tunes remote lookups for schemas and autocomplete options.
type EndpointConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// WatchConfig tunes render --watch.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// FillConfig tunes the interactive fill command.
type FillConfig struct {
	Format     string `mapstructure:"format"` // json, form or pretty
	EmptyLabel string `mapstructure:"empty_label"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		Endpoint: EndpointConfig{
			Timeout:  10 * time.Second,
			CacheTTL: 30 * time.Second,
		},
		Watch: WatchConfig{Debounce: 200 * time.Millisecond},
		Fill:  FillConfig{Format: "json", EmptyLabel: "---------"},
	}
}

// SetDefaults registers Defaults on v.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("endpoint.timeout", d.Endpoint.Timeout)
	v.SetDefault("endpoint.cache_ttl", d.Endpoint.CacheTTL)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("fill.format", d.Fill.Format)
	v.SetDefault("fill.empty_label", d.Fill.EmptyLabel)
}

// Load reads the config file into v and decodes it. An explicit path must
// exist; otherwise .formsync.yaml and ~/.config/formsync/config.yaml are
// tried and a missing file leaves the defaults in place.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else if _, err := os.Stat(LocalFile); err == nil {
		v.SetConfigFile(LocalFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "formsync"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unusable values.
func (c Config) Validate() error {
	var errs []error
	if c.Endpoint.Timeout < 0 {
		errs = append(errs, errors.New("config: endpoint.timeout must not be negative"))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, errors.New("config: watch.debounce must not be negative"))
	}
	switch c.Fill.Format {
	case "", "json", "form", "pretty":
	default:
		errs = append(errs, fmt.Errorf("config: fill.format %q is not one of json, form, pretty", c.Fill.Format))
	}
	return errors.Join(errs...)
}
