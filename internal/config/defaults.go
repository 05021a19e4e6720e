// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

const (
	defaultListenAddr     = ":8080"
	defaultMetricsAddr    = ":9090"
	defaultAuthHeader     = "X-API-Key"
	defaultMaxUploadBytes = int64(2 << 30) // 2 GiB
)

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			ListenAddr:      defaultListenAddr,
			ReadTimeout:     5 * time.Minute,
			WriteTimeout:    60 * time.Minute,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			MaxHeaderBytes:  1 << 20,
			MaxUploadBytes:  defaultMaxUploadBytes,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: defaultMetricsAddr,
		},
		Auth: AuthConfig{
			Header: defaultAuthHeader,
		},
		FFmpeg: FFmpegConfig{
			Bin:       "ffmpeg",
			KillGrace: 5 * time.Second,
		},
		Jobs: JobsConfig{
			MaxConcurrent: runtime.NumCPU(),
			QueueTimeout:  30 * time.Second,
			Timeout:       30 * time.Minute,
		},
		Workspace: WorkspaceConfig{
			Dir:           filepath.Join(os.TempDir(), "ffgate"),
			SweepInterval: time.Hour,
			MaxAge:        time.Hour,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			JobsPerSecond:     2,
			JobsBurst:         4,
		},
		Log: LogConfig{
			Level:   "info",
			Service: "ffgate",
		},
		Tracing: TracingConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}
