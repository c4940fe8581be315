// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"time"

	"github.com/ManuGH/preroll/internal/validate"
)

var logLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}

// Validate checks every section and reports all failures at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.OneOf("LogLevel", cfg.LogLevel, logLevels)

	v.ListenAddr("API.ListenAddr", cfg.API.ListenAddr)
	v.DurationRange("API.ReadTimeout", cfg.API.ReadTimeout, time.Second, 5*time.Minute)
	v.DurationRange("API.WriteTimeout", cfg.API.WriteTimeout, time.Second, 5*time.Minute)
	v.DurationRange("API.ShutdownTimeout", cfg.API.ShutdownTimeout, 0, time.Minute)
	v.Range("API.RateLimitRPM", cfg.API.RateLimitRPM, 0, 1_000_000)
	v.Range("API.MaxSurfaces", cfg.API.MaxSurfaces, 1, 1_000_000)
	v.DurationRange("API.SurfaceIdleTTL", cfg.API.SurfaceIdleTTL, time.Minute, 24*time.Hour)

	v.URL("AdSource.BaseURL", cfg.AdSource.BaseURL, []string{"http", "https"})
	v.NotEmpty("AdSource.Platform", cfg.AdSource.Platform)
	v.DurationRange("AdSource.Timeout", cfg.AdSource.Timeout, 100*time.Millisecond, time.Minute)
	v.Range("AdSource.BreakerThreshold", cfg.AdSource.BreakerThreshold, 1, 100)
	v.DurationRange("AdSource.BreakerReset", cfg.AdSource.BreakerReset, time.Second, time.Hour)

	v.URL("Analytics.BaseURL", cfg.Analytics.BaseURL, []string{"http", "https"})
	v.DurationRange("Analytics.Timeout", cfg.Analytics.Timeout, 100*time.Millisecond, time.Minute)
	v.Range("Analytics.QueueSize", cfg.Analytics.QueueSize, 1, 65536)
	v.FloatRange("Analytics.RatePerSecond", cfg.Analytics.RatePerSecond, 0, 10_000)
	v.Range("Analytics.Burst", cfg.Analytics.Burst, 0, 10_000)
	v.DurationRange("Analytics.DrainTimeout", cfg.Analytics.DrainTimeout, 0, time.Minute)

	v.DurationRange("Playback.TickInterval", cfg.Playback.TickInterval, 10*time.Millisecond, time.Second)

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("Telemetry.SamplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	return v.Err()
}
