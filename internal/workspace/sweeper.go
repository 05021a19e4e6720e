// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/ManuGH/ffgate/internal/log"
	"github.com/ManuGH/ffgate/internal/metrics"
	"github.com/rs/zerolog"
)

// Sweeper periodically deletes workspace entries whose modification time
// is older than the configured max age. It is the backstop for request
// cleanup that failed or never ran (crash, killed client).
type Sweeper struct {
	ws       *Workspace
	interval time.Duration
	maxAge   atomic.Int64 // nanoseconds
	busy     atomic.Bool
	logger   zerolog.Logger

	now func() time.Time
}

// NewSweeper creates a sweeper for ws. Non-positive values fall back to one hour.
func NewSweeper(ws *Workspace, interval, maxAge time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	s := &Sweeper{
		ws:       ws,
		interval: interval,
		logger:   log.WithComponent("sweeper"),
		now:      time.Now,
	}
	s.SetMaxAge(maxAge)
	return s
}

// SetMaxAge changes the age threshold; it applies from the next pass on.
func (s *Sweeper) SetMaxAge(d time.Duration) {
	if d <= 0 {
		d = time.Hour
	}
	s.maxAge.Store(int64(d))
}

// MaxAge returns the current age threshold.
func (s *Sweeper) MaxAge() time.Duration {
	return time.Duration(s.maxAge.Load())
}

// Run sweeps once immediately, then on every tick until ctx is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().
		Str(log.FieldEvent, "sweep.started").
		Dur("interval", s.interval).
		Dur("max_age", s.MaxAge()).
		Msg("workspace sweeper started")

	s.tryRun(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Str(log.FieldEvent, "sweep.stopped").Msg("workspace sweeper stopped")
			return
		case <-ticker.C:
			s.tryRun(ctx)
		}
	}
}

func (s *Sweeper) tryRun(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		return
	}
	defer s.busy.Store(false)
	_, _ = s.SweepOnce(ctx)
}

// SweepOnce removes every entry in the uploads and outputs directories
// older than MaxAge and returns how many were removed. Younger entries
// belong to requests that may still be in flight and are left alone.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.MaxAge())
	removed := 0
	var errs []error

	for _, dir := range s.ws.Dirs() {
		entries, err := os.ReadDir(dir)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", dir, err))
			continue
		}
		for _, e := range entries {
			if ctx.Err() != nil {
				errs = append(errs, ctx.Err())
				break
			}
			info, err := e.Info()
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					errs = append(errs, err)
				}
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if err := os.RemoveAll(path); err != nil {
				errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
				continue
			}
			removed++
			s.logger.Debug().
				Str(log.FieldEvent, "sweep.removed").
				Str(log.FieldPath, path).
				Time("mtime", info.ModTime()).
				Msg("removed stale temp entry")
		}
	}

	err := errors.Join(errs...)
	metrics.RecordSweep(removed, err)

	evt := s.logger.Info()
	if err != nil {
		evt = s.logger.Warn().Err(err)
	} else if removed == 0 {
		evt = s.logger.Debug()
	}
	evt.Str(log.FieldEvent, "sweep.completed").
		Int("removed", removed).
		Dur("max_age", s.MaxAge()).
		Msg("workspace sweep completed")
	return removed, err
}
