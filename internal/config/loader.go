// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

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

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path the loader reads (may be empty).
func (l *Loader) Path() string {
	return l.configPath
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envInt64(key string, defaultVal int64) int64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt64(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// The result is validated before it is returned.
func (l *Loader) Load() (AppConfig, error) {
	// 1. Defaults
	cfg := Defaults()
	cfg.Version = l.version

	// 2. File (strict: unknown keys are errors)
	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	// 3. Environment (highest priority)
	l.mergeEnvConfig(&cfg)

	cfg.FFmpeg.FFprobeBin = ResolveFFprobeBin(cfg.FFmpeg.FFprobeBin, cfg.FFmpeg.Bin)

	if abs, err := filepath.Abs(cfg.Workspace.Dir); err == nil {
		cfg.Workspace.Dir = abs
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadFile decodes the YAML file at path over cfg.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalidConfigFile, err)
	}
	return nil
}

// mergeEnvConfig overrides cfg with FFGATE_* environment variables.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	// Server
	cfg.Server.ListenAddr = l.envString(EnvPrefix+"LISTEN", cfg.Server.ListenAddr)
	cfg.Server.ReadTimeout = l.envDuration(EnvPrefix+"READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = l.envDuration(EnvPrefix+"WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = l.envDuration(EnvPrefix+"IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.ShutdownTimeout = l.envDuration(EnvPrefix+"SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)
	cfg.Server.MaxUploadBytes = l.envInt64(EnvPrefix+"MAX_UPLOAD_BYTES", cfg.Server.MaxUploadBytes)
	cfg.Server.TLSCert = l.envString(EnvPrefix+"TLS_CERT", cfg.Server.TLSCert)
	cfg.Server.TLSKey = l.envString(EnvPrefix+"TLS_KEY", cfg.Server.TLSKey)

	// Metrics
	cfg.Metrics.Enabled = l.envBool(EnvPrefix+"METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.ListenAddr = l.envString(EnvPrefix+"METRICS_LISTEN", cfg.Metrics.ListenAddr)

	// Auth
	cfg.Auth.APIKey = strings.TrimSpace(l.envString(EnvPrefix+"API_KEY", cfg.Auth.APIKey))
	cfg.Auth.Header = l.envString(EnvPrefix+"API_KEY_HEADER", cfg.Auth.Header)

	// FFmpeg
	cfg.FFmpeg.Bin = l.envString(EnvPrefix+"FFMPEG_BIN", cfg.FFmpeg.Bin)
	cfg.FFmpeg.FFprobeBin = l.envString(EnvPrefix+"FFPROBE_BIN", cfg.FFmpeg.FFprobeBin)
	cfg.FFmpeg.KillGrace = l.envDuration(EnvPrefix+"FFMPEG_KILL_GRACE", cfg.FFmpeg.KillGrace)

	// Jobs
	cfg.Jobs.MaxConcurrent = l.envInt(EnvPrefix+"MAX_CONCURRENT_JOBS", cfg.Jobs.MaxConcurrent)
	cfg.Jobs.QueueTimeout = l.envDuration(EnvPrefix+"QUEUE_TIMEOUT", cfg.Jobs.QueueTimeout)
	cfg.Jobs.Timeout = l.envDuration(EnvPrefix+"JOB_TIMEOUT", cfg.Jobs.Timeout)

	// Workspace
	cfg.Workspace.Dir = l.envString(EnvPrefix+"WORK_DIR", cfg.Workspace.Dir)
	cfg.Workspace.SweepInterval = l.envDuration(EnvPrefix+"SWEEP_INTERVAL", cfg.Workspace.SweepInterval)
	cfg.Workspace.MaxAge = l.envDuration(EnvPrefix+"SWEEP_MAX_AGE", cfg.Workspace.MaxAge)

	// Rate limiting
	cfg.RateLimit.Enabled = l.envBool(EnvPrefix+"RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerMinute = l.envInt(EnvPrefix+"RATE_LIMIT_REQUESTS_PER_MINUTE", cfg.RateLimit.RequestsPerMinute)
	cfg.RateLimit.JobsPerSecond = l.envFloat(EnvPrefix+"RATE_LIMIT_JOBS_PER_SECOND", cfg.RateLimit.JobsPerSecond)
	cfg.RateLimit.JobsBurst = l.envInt(EnvPrefix+"RATE_LIMIT_JOBS_BURST", cfg.RateLimit.JobsBurst)

	// Logging
	cfg.Log.Level = l.envString(EnvPrefix+"LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Service = l.envString(EnvPrefix+"LOG_SERVICE", cfg.Log.Service)

	// Tracing
	cfg.Tracing.Enabled = l.envBool(EnvPrefix+"TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = l.envString(EnvPrefix+"TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = l.envString(EnvPrefix+"TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = l.envFloat(EnvPrefix+"TRACING_SAMPLING_RATE", cfg.Tracing.SamplingRate)
	cfg.Tracing.Environment = l.envString(EnvPrefix+"TRACING_ENVIRONMENT", cfg.Tracing.Environment)
}
