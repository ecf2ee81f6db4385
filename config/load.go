package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. MORTAR_LIMIT.
const EnvPrefix = "MORTAR"

type loadOptions struct {
	configFile string
	dotenv     []string
}

type Option func(*loadOptions)

// WithConfigFile reads settings from path instead of searching for mortar.yaml.
// A missing explicit file is an error.
func WithConfigFile(path string) Option {
	return func(o *loadOptions) {
		o.configFile = path
	}
}

// WithDotenv loads the given files into the process environment before
// reading variables. Missing files are ignored.
func WithDotenv(files ...string) Option {
	return func(o *loadOptions) {
		o.dotenv = files
	}
}

// Load reads Settings from the environment and optional config files.
// Environment variables take precedence over config file values.
func Load(opts ...Option) (*Settings, error) {
	o := loadOptions{dotenv: []string{".env"}}
	for _, opt := range opts {
		opt(&o)
	}

	for _, f := range o.dotenv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	v := viper.New()

	def := Default()
	v.SetDefault("limit", def.Limit)
	v.SetDefault("offset", def.Offset)
	v.SetDefault("addr", def.Addr)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("shutdown_timeout", def.ShutdownTimeout)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", o.configFile, err)
		}
	} else {
		v.SetConfigName("mortar")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

var validate = validator.New()

// Validate checks the settings' constraints.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("settings validation failed: %w", err)
	}
	return nil
}
