// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/preroll/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAreValid(t *testing.T) {
	cfg, err := NewLoader("", "v-test").Load()
	require.NoError(t, err)

	want := Defaults()
	want.Version = "v-test"
	assert.Equal(t, want, cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	cfg, err := NewLoader(filepath.Join("testdata", "valid.yaml"), "v").Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9100", cfg.API.ListenAddr)
	assert.Equal(t, 120, cfg.API.RateLimitRPM)
	assert.Equal(t, "https://ads.example", cfg.AdSource.BaseURL)
	assert.Equal(t, "ios", cfg.AdSource.Platform)
	assert.Equal(t, 45*time.Second, cfg.AdSource.BreakerReset)
	assert.Equal(t, 64, cfg.Analytics.QueueSize)
	assert.Equal(t, 50*time.Millisecond, cfg.Playback.TickInterval)

	// untouched keys keep defaults
	assert.Equal(t, Defaults().AdSource.BreakerThreshold, cfg.AdSource.BreakerThreshold)
	assert.Equal(t, Defaults().API.ReadTimeout, cfg.API.ReadTimeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("PREROLL_LISTEN_ADDR", ":9200")
	t.Setenv("PREROLL_AD_PLATFORM", "android")
	t.Setenv("PREROLL_ANALYTICS_RATE", "12.5")
	t.Setenv("PREROLL_TRACING_ENABLED", "yes")
	t.Setenv("PREROLL_TICK_INTERVAL", "250ms")

	loader := NewLoader(filepath.Join("testdata", "valid.yaml"), "v")
	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9200", cfg.API.ListenAddr)
	assert.Equal(t, "android", cfg.AdSource.Platform)
	assert.InDelta(t, 12.5, cfg.Analytics.RatePerSecond, 1e-9)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 250*time.Millisecond, cfg.Playback.TickInterval)
	assert.Equal(t, "https://ads.example", cfg.AdSource.BaseURL, "file value survives when env is unset")

	assert.Contains(t, loader.ConsumedEnvKeys, "PREROLL_LISTEN_ADDR")
	assert.Contains(t, loader.ConsumedEnvKeys, "PREROLL_TRACING_SAMPLING_RATE")
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	t.Setenv("PREROLL_ANALYTICS_QUEUE_SIZE", "lots")
	t.Setenv("PREROLL_AD_SOURCE_TIMEOUT", "soon")

	cfg, err := NewLoader("", "v").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults().Analytics.QueueSize, cfg.Analytics.QueueSize)
	assert.Equal(t, Defaults().AdSource.Timeout, cfg.AdSource.Timeout)
}

func TestLoad_UnknownKeyFails(t *testing.T) {
	_, err := NewLoader(filepath.Join("testdata", "unknown-key.yaml"), "v").Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownConfigField), "got %v", err)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	_, err := NewLoader(path, "v").Load()
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad_MultipleDocumentsFail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: info\n---\nlogLevel: debug\n"), 0o600))

	_, err := NewLoader(path, "v").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple documents")
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader(filepath.Join("testdata", "empty.yaml"), "v").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults().API, cfg.API)
}

func TestLoad_ValidationAggregatesErrors(t *testing.T) {
	_, err := NewLoader(filepath.Join("testdata", "invalid.yaml"), "v").Load()
	require.Error(t, err)

	var verr validate.ValidationError
	require.True(t, errors.As(err, &verr))
	fields := map[string]bool{}
	for _, e := range verr.Errors() {
		fields[e.Field] = true
	}
	assert.True(t, fields["API.ListenAddr"])
	assert.True(t, fields["Analytics.QueueSize"])
	assert.True(t, fields["Playback.TickInterval"])
}

func TestValidate_TelemetryOnlyCheckedWhenEnabled(t *testing.T) {
	cfg := Defaults()
	cfg.Telemetry.Exporter = "zipkin"
	assert.NoError(t, Validate(cfg))

	cfg.Telemetry.Enabled = true
	assert.Error(t, Validate(cfg))
}

func TestParseHelpers(t *testing.T) {
	t.Setenv("PREROLL_TEST_BOOL", "No")
	t.Setenv("PREROLL_TEST_BOOL_BAD", "maybe")
	t.Setenv("PREROLL_TEST_EMPTY", "")
	t.Setenv("PREROLL_TEST_INT", "42")
	t.Setenv("PREROLL_TEST_TOKEN", "s3cret")

	assert.False(t, ParseBool("PREROLL_TEST_BOOL", true))
	assert.True(t, ParseBool("PREROLL_TEST_BOOL_BAD", true))
	assert.Equal(t, "fallback", ParseString("PREROLL_TEST_EMPTY", "fallback"))
	assert.Equal(t, 42, ParseInt("PREROLL_TEST_INT", 1))
	assert.Equal(t, "s3cret", ParseString("PREROLL_TEST_TOKEN", ""))
	assert.Equal(t, 7, ParseInt("PREROLL_TEST_UNSET", 7))
}
