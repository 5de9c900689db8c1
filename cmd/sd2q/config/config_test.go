package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), ".env"), nil)
	require.NoError(t, err)

	assert.Equal(t, "https://build.fhir.org/ig/hl7au/au-fhir-base/StructureDefinition-%s.json", cfg.ProfileBaseURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.HTTPRetryMax)
	assert.Equal(t, 8, cfg.MaxDepth)
	assert.Equal(t, "output", cfg.OutputDir)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
	assert.False(t, cfg.ExpandChoiceTypes)
	assert.True(t, cfg.CheckExpressions)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SD2Q_MAX_DEPTH", "4")
	t.Setenv("SD2Q_HTTP_TIMEOUT", "3s")
	t.Setenv("SD2Q_LOG_LEVEL", "DEBUG")
	t.Setenv("SD2Q_EXPAND_CHOICE_TYPES", "true")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.MaxDepth)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.True(t, cfg.ExpandChoiceTypes)
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SD2Q_PROFILES_DIR=profiles\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SD2Q_PROFILES_DIR") })

	cfg, err := Load(envFile, nil)
	require.NoError(t, err)
	assert.Equal(t, "profiles", cfg.ProfilesDir)
}

func TestLoad_Flags(t *testing.T) {
	t.Setenv("SD2Q_OUTPUT_DIR", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("output", "output", "")
	flags.Int("max-depth", 8, "")
	require.NoError(t, flags.Parse([]string{"--output", "from-flag"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.OutputDir)
	assert.Equal(t, 8, cfg.MaxDepth)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"SD2Q_MAX_DEPTH":        "0",
		"SD2Q_LOG_LEVEL":        "verbose",
		"SD2Q_PROFILE_BASE_URL": "https://example.org/profiles/",
		"SD2Q_HTTP_RETRY_MAX":   "-1",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("", nil)
			assert.Error(t, err)
		})
	}
}

func TestProfileTemplateValidation(t *testing.T) {
	tests := map[string]bool{
		"https://example.org/StructureDefinition-%s.json": true,
		"https://example.org/StructureDefinition.json":    false,
		"https://example.org/%s/%s.json":                  false,
		"https://example.org/%d.json":                     false,
	}
	for template, valid := range tests {
		t.Run(template, func(t *testing.T) {
			err := validate.Var(template, "profile_template")
			if valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
