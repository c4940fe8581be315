// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader resolves configuration with precedence ENV > File > Defaults.
type Loader struct {
	configPath string
	version    string

	// ConsumedEnvKeys lists every environment key the last Load consulted.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader. An empty configPath skips the file layer.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, def string) string {
	l.ConsumedEnvKeys[EnvPrefix+key] = struct{}{}
	return ParseString(EnvPrefix+key, def)
}

func (l *Loader) envInt(key string, def int) int {
	l.ConsumedEnvKeys[EnvPrefix+key] = struct{}{}
	return ParseInt(EnvPrefix+key, def)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	l.ConsumedEnvKeys[EnvPrefix+key] = struct{}{}
	return ParseFloat(EnvPrefix+key, def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	l.ConsumedEnvKeys[EnvPrefix+key] = struct{}{}
	return ParseDuration(EnvPrefix+key, def)
}

func (l *Loader) envBool(key string, def bool) bool {
	l.ConsumedEnvKeys[EnvPrefix+key] = struct{}{}
	return ParseBool(EnvPrefix+key, def)
}

// Load applies defaults, the YAML file, then the environment, and validates
// the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnv(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// loadFile decodes the file over cfg; keys absent from the file keep their
// current values.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "not found in type") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) mergeEnv(cfg *AppConfig) {
	cfg.LogLevel = l.envString("LOG_LEVEL", cfg.LogLevel)

	cfg.API.ListenAddr = l.envString("LISTEN_ADDR", cfg.API.ListenAddr)
	cfg.API.ReadTimeout = l.envDuration("API_READ_TIMEOUT", cfg.API.ReadTimeout)
	cfg.API.WriteTimeout = l.envDuration("API_WRITE_TIMEOUT", cfg.API.WriteTimeout)
	cfg.API.ShutdownTimeout = l.envDuration("API_SHUTDOWN_TIMEOUT", cfg.API.ShutdownTimeout)
	cfg.API.RateLimitRPM = l.envInt("API_RATE_LIMIT_RPM", cfg.API.RateLimitRPM)
	cfg.API.MaxSurfaces = l.envInt("API_MAX_SURFACES", cfg.API.MaxSurfaces)
	cfg.API.SurfaceIdleTTL = l.envDuration("API_SURFACE_IDLE_TTL", cfg.API.SurfaceIdleTTL)

	cfg.AdSource.BaseURL = l.envString("AD_SOURCE_URL", cfg.AdSource.BaseURL)
	cfg.AdSource.Platform = l.envString("AD_PLATFORM", cfg.AdSource.Platform)
	cfg.AdSource.Timeout = l.envDuration("AD_SOURCE_TIMEOUT", cfg.AdSource.Timeout)
	cfg.AdSource.BreakerThreshold = l.envInt("AD_SOURCE_BREAKER_THRESHOLD", cfg.AdSource.BreakerThreshold)
	cfg.AdSource.BreakerReset = l.envDuration("AD_SOURCE_BREAKER_RESET", cfg.AdSource.BreakerReset)

	cfg.Analytics.BaseURL = l.envString("ANALYTICS_URL", cfg.Analytics.BaseURL)
	cfg.Analytics.Timeout = l.envDuration("ANALYTICS_TIMEOUT", cfg.Analytics.Timeout)
	cfg.Analytics.QueueSize = l.envInt("ANALYTICS_QUEUE_SIZE", cfg.Analytics.QueueSize)
	cfg.Analytics.RatePerSecond = l.envFloat("ANALYTICS_RATE", cfg.Analytics.RatePerSecond)
	cfg.Analytics.Burst = l.envInt("ANALYTICS_BURST", cfg.Analytics.Burst)
	cfg.Analytics.DrainTimeout = l.envDuration("ANALYTICS_DRAIN_TIMEOUT", cfg.Analytics.DrainTimeout)

	cfg.Playback.TickInterval = l.envDuration("TICK_INTERVAL", cfg.Playback.TickInterval)

	cfg.Telemetry.Enabled = l.envBool("TRACING_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("TRACING_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("TRACING_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("TRACING_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
	cfg.Telemetry.Environment = l.envString("TRACING_ENVIRONMENT", cfg.Telemetry.Environment)
}
