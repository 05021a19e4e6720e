// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func touch(t *testing.T, path string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestSweepOnce_RemovesOnlyStaleEntries(t *testing.T) {
	ws := newTestWorkspace(t)
	s := NewSweeper(ws, time.Hour, time.Hour)

	staleUpload := filepath.Join(ws.UploadsDir(), "stale.mp4")
	freshUpload := filepath.Join(ws.UploadsDir(), "fresh.mp4")
	staleOutput := filepath.Join(ws.OutputsDir(), "stale.mp3")
	touch(t, staleUpload, 2*time.Hour)
	touch(t, freshUpload, time.Minute)
	touch(t, staleOutput, 90*time.Minute)

	staleDir := filepath.Join(ws.OutputsDir(), "segments")
	require.NoError(t, os.Mkdir(staleDir, 0o750))
	touch(t, filepath.Join(staleDir, "segment_000.mp4"), 3*time.Hour)
	old := time.Now().Add(-3 * time.Hour)
	require.NoError(t, os.Chtimes(staleDir, old, old))

	removed, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	for _, p := range []string{staleUpload, staleOutput, staleDir} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "%s should be swept", p)
	}
	_, err = os.Stat(freshUpload)
	assert.NoError(t, err, "in-flight file must survive")
}

func TestSweepOnce_HonoursMaxAgeUpdate(t *testing.T) {
	ws := newTestWorkspace(t)
	s := NewSweeper(ws, time.Hour, time.Hour)

	p := filepath.Join(ws.UploadsDir(), "a.wav")
	touch(t, p, 10*time.Minute)

	removed, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, removed)

	s.SetMaxAge(5 * time.Minute)
	assert.Equal(t, 5*time.Minute, s.MaxAge())

	removed, err = s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestSweepOnce_MissingDirIsReported(t *testing.T) {
	ws := newTestWorkspace(t)
	require.NoError(t, os.RemoveAll(ws.OutputsDir()))

	_, err := NewSweeper(ws, time.Hour, time.Hour).SweepOnce(context.Background())
	assert.Error(t, err)
}

func TestNewSweeper_Defaults(t *testing.T) {
	s := NewSweeper(newTestWorkspace(t), 0, -1)
	assert.Equal(t, time.Hour, s.interval)
	assert.Equal(t, time.Hour, s.MaxAge())
}

func TestSweeperRun_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ws := newTestWorkspace(t)
	stale := filepath.Join(ws.UploadsDir(), "stale.mp4")
	touch(t, stale, 2*time.Hour)

	s := NewSweeper(ws, 10*time.Millisecond, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := os.Stat(stale)
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
