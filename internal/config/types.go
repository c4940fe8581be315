// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// AppConfig is the fully resolved daemon configuration.
type AppConfig struct {
	Version  string `yaml:"-"`
	LogLevel string `yaml:"logLevel"`

	API       APIConfig       `yaml:"api"`
	AdSource  AdSourceConfig  `yaml:"adSource"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// APIConfig configures the control surface HTTP server.
type APIConfig struct {
	ListenAddr      string        `yaml:"listenAddr"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// RateLimitRPM is the per-client request budget per minute; zero disables it.
	RateLimitRPM int `yaml:"rateLimitRPM"`
	// MaxSurfaces caps concurrently hosted controllers.
	MaxSurfaces int `yaml:"maxSurfaces"`
	// SurfaceIdleTTL evicts idle surfaces untouched for this long.
	SurfaceIdleTTL time.Duration `yaml:"surfaceIdleTTL"`
}

// AdSourceConfig configures creative selection.
type AdSourceConfig struct {
	BaseURL          string        `yaml:"baseURL"`
	Platform         string        `yaml:"platform"`
	Timeout          time.Duration `yaml:"timeout"`
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerReset     time.Duration `yaml:"breakerReset"`
}

// AnalyticsConfig configures engagement dispatch.
type AnalyticsConfig struct {
	BaseURL       string        `yaml:"baseURL"`
	Timeout       time.Duration `yaml:"timeout"`
	QueueSize     int           `yaml:"queueSize"`
	RatePerSecond float64       `yaml:"ratePerSecond"`
	Burst         int           `yaml:"burst"`
	DrainTimeout  time.Duration `yaml:"drainTimeout"`
}

// PlaybackConfig configures the ad clock.
type PlaybackConfig struct {
	TickInterval time.Duration `yaml:"tickInterval"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel: "info",
		API: APIConfig{
			ListenAddr:      ":8088",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitRPM:    600,
			MaxSurfaces:     1024,
			SurfaceIdleTTL:  10 * time.Minute,
		},
		AdSource: AdSourceConfig{
			BaseURL:          "http://localhost:8090",
			Platform:         "web",
			Timeout:          3 * time.Second,
			BreakerThreshold: 3,
			BreakerReset:     30 * time.Second,
		},
		Analytics: AnalyticsConfig{
			BaseURL:       "http://localhost:8090",
			Timeout:       3 * time.Second,
			QueueSize:     256,
			RatePerSecond: 50,
			Burst:         10,
			DrainTimeout:  5 * time.Second,
		},
		Playback: PlaybackConfig{
			TickInterval: 100 * time.Millisecond,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}
