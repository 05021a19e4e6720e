// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validBase(t *testing.T) AppConfig {
	t.Helper()
	cfg := Defaults()
	cfg.Workspace.Dir = t.TempDir()
	cfg.FFmpeg.FFprobeBin = "ffprobe"
	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	require.NoError(t, Validate(validBase(t)))
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"empty listen", func(c *AppConfig) { c.Server.ListenAddr = "" }, "server.listen_addr"},
		{"zero upload cap", func(c *AppConfig) { c.Server.MaxUploadBytes = 0 }, "server.max_upload_bytes"},
		{"tls half configured", func(c *AppConfig) { c.Server.TLSCert = "cert.pem" }, "server.tls_cert"},
		{"bad header", func(c *AppConfig) { c.Auth.Header = "X API Key" }, "auth.header"},
		{"no concurrency", func(c *AppConfig) { c.Jobs.MaxConcurrent = 0 }, "jobs.max_concurrent"},
		{"negative queue timeout", func(c *AppConfig) { c.Jobs.QueueTimeout = -time.Second }, "jobs.queue_timeout"},
		{"zero sweep interval", func(c *AppConfig) { c.Workspace.SweepInterval = 0 }, "workspace.sweep_interval"},
		{"zero max age", func(c *AppConfig) { c.Workspace.MaxAge = 0 }, "workspace.max_age"},
		{"bad log level", func(c *AppConfig) { c.Log.Level = "loud" }, "log.level"},
		{"empty log level", func(c *AppConfig) { c.Log.Level = "" }, "log.level"},
		{"rate limit zero rpm", func(c *AppConfig) { c.RateLimit.RequestsPerMinute = 0 }, "rate_limit.requests_per_minute"},
		{"rate limit zero jobs", func(c *AppConfig) { c.RateLimit.JobsPerSecond = 0 }, "rate_limit.jobs_per_second"},
		{"tracing bad exporter", func(c *AppConfig) {
			c.Tracing.Enabled = true
			c.Tracing.Exporter = "zipkin"
		}, "tracing.exporter"},
		{"tracing bad sampling", func(c *AppConfig) {
			c.Tracing.Enabled = true
			c.Tracing.SamplingRate = 2
		}, "tracing.sampling_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase(t)
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_RateLimitDisabledSkipsChecks(t *testing.T) {
	cfg := validBase(t)
	cfg.RateLimit.Enabled = false
	cfg.RateLimit.RequestsPerMinute = 0
	cfg.RateLimit.JobsPerSecond = 0
	assert.NoError(t, Validate(cfg))
}
