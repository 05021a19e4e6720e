// SPDX-License-Identifier: MIT

package validate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Empty(t *testing.T) {
	v := New()
	assert.True(t, v.IsValid())
	assert.NoError(t, v.Err())
}

func TestValidator_Accumulates(t *testing.T) {
	v := New()
	v.Range("Port", 70000, 1, 65535)
	v.Positive("MaxUploadBytes", 0)
	v.PositiveDuration("Timeout", -time.Second)
	v.OneOf("Exporter", "zipkin", []string{"grpc", "http"})
	v.NotEmpty("Header", "  ")
	v.FloatRange("SamplingRate", 1.5, 0, 1)

	require.False(t, v.IsValid())
	assert.Len(t, v.Errors(), 6)

	err := v.Err()
	require.Error(t, err)

	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors(), 6)
	assert.Contains(t, err.Error(), "Port")
	assert.Contains(t, err.Error(), "; ")
}

func TestValidator_SingleErrorMessage(t *testing.T) {
	v := New()
	v.Range("Channels", 9, 1, 8)
	assert.Equal(t, "validation failed for Channels: value must be between 1 and 8, got 9", v.Err().Error())
}

func TestValidator_Directory(t *testing.T) {
	root := t.TempDir()

	t.Run("creates missing directory", func(t *testing.T) {
		v := New()
		dir := filepath.Join(root, "work")
		v.Directory("WorkDir", dir, false)
		assert.True(t, v.IsValid())
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("must exist", func(t *testing.T) {
		v := New()
		v.Directory("WorkDir", filepath.Join(root, "missing"), true)
		assert.False(t, v.IsValid())
	})

	t.Run("rejects traversal", func(t *testing.T) {
		v := New()
		v.Directory("WorkDir", root+"/../etc", false)
		assert.False(t, v.IsValid())
	})

	t.Run("rejects file", func(t *testing.T) {
		f := filepath.Join(root, "file")
		require.NoError(t, os.WriteFile(f, []byte("x"), 0o600))
		v := New()
		v.Directory("WorkDir", f, true)
		assert.False(t, v.IsValid())
	})
}
