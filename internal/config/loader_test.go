// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoader_DefaultsOnly(t *testing.T) {
	t.Setenv(EnvPrefix+"WORK_DIR", t.TempDir())

	cfg, err := NewLoader("", "v1.2.3").Load()
	require.NoError(t, err)

	assert.Equal(t, "v1.2.3", cfg.Version)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, int64(2<<30), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "X-API-Key", cfg.Auth.Header)
	assert.False(t, cfg.Auth.Enabled())
	assert.Equal(t, "ffmpeg", cfg.FFmpeg.Bin)
	assert.Equal(t, "ffprobe", cfg.FFmpeg.FFprobeBin)
	assert.Equal(t, time.Hour, cfg.Workspace.SweepInterval)
	assert.Equal(t, time.Hour, cfg.Workspace.MaxAge)
	assert.GreaterOrEqual(t, cfg.Jobs.MaxConcurrent, 1)
}

func TestLoader_FileOverridesDefaults(t *testing.T) {
	work := t.TempDir()
	path := writeConfig(t, `
server:
  listen_addr: ":9999"
  max_upload_bytes: 1048576
auth:
  api_key: "file-secret"
workspace:
  dir: "`+work+`"
  max_age: 15m
jobs:
  max_concurrent: 3
`)

	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.ListenAddr)
	assert.Equal(t, int64(1048576), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "file-secret", cfg.Auth.APIKey)
	assert.True(t, cfg.Auth.Enabled())
	assert.Equal(t, 15*time.Minute, cfg.Workspace.MaxAge)
	assert.Equal(t, 3, cfg.Jobs.MaxConcurrent)
	// untouched keys keep defaults
	assert.Equal(t, 30*time.Second, cfg.Jobs.QueueTimeout)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	work := t.TempDir()
	path := writeConfig(t, `
server:
  listen_addr: ":9999"
auth:
  api_key: "file-secret"
workspace:
  dir: "`+work+`"
`)
	t.Setenv(EnvPrefix+"LISTEN", ":7000")
	t.Setenv(EnvPrefix+"API_KEY", "  env-secret  ")
	t.Setenv(EnvPrefix+"SWEEP_INTERVAL", "10m")

	l := NewLoader(path, "")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.ListenAddr)
	assert.Equal(t, "env-secret", cfg.Auth.APIKey)
	assert.Equal(t, 10*time.Minute, cfg.Workspace.SweepInterval)
	assert.Contains(t, l.ConsumedEnvKeys, EnvPrefix+"LISTEN")
}

func TestLoader_UnknownKeyRejected(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_adress: ":9999"
`)
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfigFile))
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml"), "").Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigFileNotFound))
}

func TestLoader_EmptyFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvPrefix+"WORK_DIR", t.TempDir())
	path := writeConfig(t, "\n")
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
}

func TestLoader_InvalidValueFailsValidation(t *testing.T) {
	t.Setenv(EnvPrefix+"WORK_DIR", t.TempDir())
	t.Setenv(EnvPrefix+"MAX_CONCURRENT_JOBS", "0")
	_, err := NewLoader("", "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jobs.max_concurrent")
}

func TestAppConfig_Redacted(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.APIKey = "hunter2"
	red := cfg.Redacted()
	assert.Equal(t, "***", red.Auth.APIKey)
	assert.Equal(t, "hunter2", cfg.Auth.APIKey, "original must be unchanged")

	cfg.Auth.APIKey = ""
	assert.Empty(t, cfg.Redacted().Auth.APIKey)
}
