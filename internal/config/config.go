// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config provides configuration management for ffgate.
//
// Values are resolved with the precedence ENV > YAML file > defaults.
package config

import (
	"time"
)

// EnvPrefix is prepended to every environment variable ffgate reads.
const EnvPrefix = "FFGATE_"

// AppConfig is the complete runtime configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	Server    ServerConfig    `yaml:"server"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Auth      AuthConfig      `yaml:"auth"`
	FFmpeg    FFmpegConfig    `yaml:"ffmpeg"`
	Jobs      JobsConfig      `yaml:"jobs"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       LogConfig       `yaml:"log"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	TLSCert         string        `yaml:"tls_cert"`
	TLSKey          string        `yaml:"tls_key"`
}

// MetricsConfig controls the separate Prometheus listener.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// AuthConfig holds the optional shared secret.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
	Header string `yaml:"header"`
}

// Enabled reports whether requests must carry the shared secret.
func (a AuthConfig) Enabled() bool {
	return a.APIKey != ""
}

// FFmpegConfig locates the external binaries.
type FFmpegConfig struct {
	Bin        string        `yaml:"bin"`
	FFprobeBin string        `yaml:"ffprobe_bin"`
	KillGrace  time.Duration `yaml:"kill_grace"`
}

// JobsConfig bounds external process execution.
type JobsConfig struct {
	MaxConcurrent int           `yaml:"max_concurrent"`
	QueueTimeout  time.Duration `yaml:"queue_timeout"`
	Timeout       time.Duration `yaml:"timeout"`
}

// WorkspaceConfig locates the temp directories and drives the sweeper.
type WorkspaceConfig struct {
	Dir           string        `yaml:"dir"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	MaxAge        time.Duration `yaml:"max_age"`
}

// RateLimitConfig configures both HTTP and job admission limits.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerMinute int     `yaml:"requests_per_minute"`
	JobsPerSecond     float64 `yaml:"jobs_per_second"`
	JobsBurst         int     `yaml:"jobs_burst"`
}

// LogConfig configures the global zerolog logger.
type LogConfig struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
	Environment  string  `yaml:"environment"`
}

// Redacted returns a copy safe for printing.
func (c AppConfig) Redacted() AppConfig {
	out := c
	if out.Auth.APIKey != "" {
		out.Auth.APIKey = maskedValue
	}
	return out
}
