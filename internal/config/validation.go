// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/ffgate/internal/validate"
	"github.com/rs/zerolog"
)

// Validate validates an AppConfig using the centralized validation package.
func Validate(cfg AppConfig) error {
	v := validate.New()

	// Server
	v.NotEmpty("server.listen_addr", cfg.Server.ListenAddr)
	v.PositiveDuration("server.read_timeout", cfg.Server.ReadTimeout)
	v.PositiveDuration("server.write_timeout", cfg.Server.WriteTimeout)
	v.PositiveDuration("server.idle_timeout", cfg.Server.IdleTimeout)
	v.PositiveDuration("server.shutdown_timeout", cfg.Server.ShutdownTimeout)
	v.Positive("server.max_upload_bytes", cfg.Server.MaxUploadBytes)
	if (cfg.Server.TLSCert == "") != (cfg.Server.TLSKey == "") {
		v.AddError("server.tls_cert", "tls_cert and tls_key must be set together", cfg.Server.TLSCert)
	}

	if cfg.Metrics.Enabled {
		v.NotEmpty("metrics.listen_addr", cfg.Metrics.ListenAddr)
	}

	// Auth header must be a usable header name even when auth is off,
	// so enabling it via reload cannot produce an unusable state.
	v.NotEmpty("auth.header", cfg.Auth.Header)
	v.Custom("auth.header", cfg.Auth.Header, func(val any) error {
		if strings.ContainsAny(val.(string), " :\t\r\n") {
			return errors.New("must be a valid HTTP header name")
		}
		return nil
	})

	v.NotEmpty("ffmpeg.bin", cfg.FFmpeg.Bin)
	v.NotEmpty("ffmpeg.ffprobe_bin", cfg.FFmpeg.FFprobeBin)
	v.PositiveDuration("ffmpeg.kill_grace", cfg.FFmpeg.KillGrace)

	v.Range("jobs.max_concurrent", cfg.Jobs.MaxConcurrent, 1, 1024)
	v.PositiveDuration("jobs.queue_timeout", cfg.Jobs.QueueTimeout)
	v.PositiveDuration("jobs.timeout", cfg.Jobs.Timeout)

	v.Directory("workspace.dir", cfg.Workspace.Dir, false)
	v.PositiveDuration("workspace.sweep_interval", cfg.Workspace.SweepInterval)
	v.PositiveDuration("workspace.max_age", cfg.Workspace.MaxAge)

	if cfg.RateLimit.Enabled {
		v.Positive("rate_limit.requests_per_minute", int64(cfg.RateLimit.RequestsPerMinute))
		if cfg.RateLimit.JobsPerSecond <= 0 {
			v.AddError("rate_limit.jobs_per_second", fmt.Sprintf("value must be positive, got %g", cfg.RateLimit.JobsPerSecond), cfg.RateLimit.JobsPerSecond)
		}
		v.Positive("rate_limit.jobs_burst", int64(cfg.RateLimit.JobsBurst))
	}

	v.Custom("log.level", cfg.Log.Level, func(val any) error {
		if _, err := zerolog.ParseLevel(val.(string)); err != nil || val == "" {
			return errors.New("invalid log level (must be: trace, debug, info, warn, error)")
		}
		return nil
	})

	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("tracing.endpoint", cfg.Tracing.Endpoint)
		v.FloatRange("tracing.sampling_rate", cfg.Tracing.SamplingRate, 0, 1)
	}

	return v.Err()
}
