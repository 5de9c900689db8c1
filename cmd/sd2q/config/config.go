// Package config loads the sd2q settings from a .env file, SD2Q_ environment
// variables and command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "SD2Q"

type Config struct {
	ProfileBaseURL    string        `mapstructure:"PROFILE_BASE_URL" validate:"required,profile_template"`
	HTTPTimeout       time.Duration `mapstructure:"HTTP_TIMEOUT" validate:"gt=0"`
	HTTPRetryMax      int           `mapstructure:"HTTP_RETRY_MAX" validate:"gte=0,lte=10"`
	MaxDepth          int           `mapstructure:"MAX_DEPTH" validate:"gte=1,lte=64"`
	ProfilesDir       string        `mapstructure:"PROFILES_DIR"`
	OutputDir         string        `mapstructure:"OUTPUT_DIR" validate:"required"`
	LogLevel          string        `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	NoColor           bool          `mapstructure:"NO_COLOR"`
	ExpandChoiceTypes bool          `mapstructure:"EXPAND_CHOICE_TYPES"`
	CheckExpressions  bool          `mapstructure:"CHECK_EXPRESSIONS"`
}

// Flag names bound to configuration keys.
var flagKeys = map[string]string{
	"base-url":            "PROFILE_BASE_URL",
	"timeout":             "HTTP_TIMEOUT",
	"max-depth":           "MAX_DEPTH",
	"profiles-dir":        "PROFILES_DIR",
	"output":              "OUTPUT_DIR",
	"log-level":           "LOG_LEVEL",
	"no-color":            "NO_COLOR",
	"expand-choice-types": "EXPAND_CHOICE_TYPES",
	"check-expressions":   "CHECK_EXPRESSIONS",
}

var defaults = map[string]any{
	"PROFILE_BASE_URL":    "https://build.fhir.org/ig/hl7au/au-fhir-base/StructureDefinition-%s.json",
	"HTTP_TIMEOUT":        10 * time.Second,
	"HTTP_RETRY_MAX":      3,
	"MAX_DEPTH":           8,
	"PROFILES_DIR":        "",
	"OUTPUT_DIR":          "output",
	"LOG_LEVEL":           "info",
	"NO_COLOR":            runtime.GOOS == "windows",
	"EXPAND_CHOICE_TYPES": false,
	"CHECK_EXPRESSIONS":   true,
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("profile_template", validateProfileTemplate); err != nil {
		panic(fmt.Sprintf("failed to register profile_template validation: %v", err))
	}
}

// validateProfileTemplate requires exactly one %s for the profile name.
func validateProfileTemplate(fl validator.FieldLevel) bool {
	template := fl.Field().String()
	return strings.Count(template, "%s") == 1 && strings.Count(template, "%") == 1
}

// Load reads the configuration. A missing env file is not an error; flags may be nil.
func Load(envFile string, flags *pflag.FlagSet) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
		// Bind env vars explicitly so Unmarshal picks them up
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Level returns the zerolog level for LogLevel.
func (c *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
