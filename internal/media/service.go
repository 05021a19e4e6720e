// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package media runs the gateway's operations: it validates what to do,
// waits for a job slot, runs ffmpeg or ffprobe and hands back the result
// file. It never inspects media bytes itself.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/ManuGH/ffgate/internal/infra/ffmpeg"
	"github.com/ManuGH/ffgate/internal/log"
	"github.com/ManuGH/ffgate/internal/metrics"
	"github.com/ManuGH/ffgate/internal/telemetry"
	"github.com/ManuGH/ffgate/internal/workspace"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

// Operation names used in metrics, spans and logs.
const (
	OpCompress       = "compress"
	OpCompressCustom = "compress_custom"
	OpConvert        = "convert"
	OpExtractAudio   = "extract_audio"
	OpSplit          = "split"
	OpTrim           = "trim"
	OpMetadata       = "metadata"
)

const tracerName = "github.com/ManuGH/ffgate/internal/media"

// Config bounds job execution.
type Config struct {
	// MaxConcurrent is the number of tool processes allowed at once.
	MaxConcurrent int
	// QueueTimeout is how long a job may wait for a slot before ErrBusy.
	QueueTimeout time.Duration
	// JobTimeout caps a single tool run.
	JobTimeout time.Duration
}

// Input is an upload already committed to the workspace.
type Input struct {
	Path string
	// Name is the client's original filename.
	Name string
	Size int64
}

// Output is a finished result file. The caller owns Path and must remove it.
type Output struct {
	Path        string
	Ext         string
	ContentType string
	Size        int64
}

// Service executes media operations against the workspace.
type Service struct {
	cfg    Config
	ws     *workspace.Workspace
	runner ffmpeg.Runner
	prober ffmpeg.Prober
	sem    *semaphore.Weighted
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewService wires the service. Non-positive limits fall back to NumCPU
// slots, a 30s queue timeout and a 30m job timeout.
func NewService(cfg Config, ws *workspace.Workspace, runner ffmpeg.Runner, prober ffmpeg.Prober) *Service {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = runtime.NumCPU()
	}
	if cfg.QueueTimeout <= 0 {
		cfg.QueueTimeout = 30 * time.Second
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Minute
	}
	return &Service{
		cfg:    cfg,
		ws:     ws,
		runner: runner,
		prober: prober,
		sem:    semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		tracer: telemetry.Tracer(tracerName),
		logger: log.WithComponent("media"),
	}
}

// job describes one admitted tool run.
type job struct {
	op     string
	format string
	input  Input
}

// invalid records a request rejected before any process was considered.
func (s *Service) invalid(op string, err error) error {
	metrics.RecordJob(op, metrics.OutcomeInvalid, 0)
	return err
}

// execute waits for a slot, then calls fn under the job timeout. The
// returned error is fn's error, ErrBusy, or the caller's context error.
func (s *Service) execute(ctx context.Context, j job, fn func(ctx context.Context) error) error {
	jobID := uuid.NewString()
	ctx = log.ContextWithJobID(ctx, jobID)
	ctx, span := s.tracer.Start(ctx, "media."+j.op,
		trace.WithAttributes(telemetry.JobAttributes(j.op, j.format, j.input.Size)...))
	defer span.End()

	logger := log.WithContext(ctx, s.logger)

	waitStart := time.Now()
	if err := s.acquire(ctx); err != nil {
		span.SetAttributes(telemetry.ErrorAttributes("admission", err)...)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, ErrBusy) {
			metrics.IncJobRejected("busy")
			logger.Warn().
				Str(log.FieldEvent, "job.rejected").
				Str(log.FieldOperation, j.op).
				Dur("queue_timeout", s.cfg.QueueTimeout).
				Msg("no job slot available")
		}
		return err
	}
	defer s.sem.Release(1)

	wait := time.Since(waitStart)
	metrics.ObserveQueueWait(wait)
	span.SetAttributes(attribute.Int64(telemetry.JobQueueWaitMS, wait.Milliseconds()))

	metrics.IncJobsInFlight()
	defer metrics.DecJobsInFlight()

	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()

	logger.Info().
		Str(log.FieldEvent, "job.start").
		Str(log.FieldOperation, j.op).
		Str(log.FieldFormat, j.format).
		Int64("input_bytes", j.input.Size).
		Dur("queue_wait", wait).
		Msg("job started")

	start := time.Now()
	err := fn(jobCtx)
	elapsed := time.Since(start)

	outcome := classify(err)
	metrics.RecordJob(j.op, outcome, elapsed)

	var xe *ffmpeg.ExitError
	if errors.As(err, &xe) {
		span.SetAttributes(telemetry.ProcessAttributes(xe.Tool, xe.ExitCode)...)
	}

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(telemetry.ErrorAttributes(outcome, err)...)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "job.failed").
			Str(log.FieldOperation, j.op).
			Str("outcome", outcome).
			Dur(log.FieldDuration, elapsed).
			Msg("job failed")
		return err
	}

	span.SetStatus(codes.Ok, "")
	logger.Info().
		Str(log.FieldEvent, "job.finished").
		Str(log.FieldOperation, j.op).
		Dur(log.FieldDuration, elapsed).
		Msg("job finished")
	return nil
}

// acquire takes a job slot, giving up after QueueTimeout.
func (s *Service) acquire(ctx context.Context) error {
	if s.sem.TryAcquire(1) {
		return nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.QueueTimeout)
	defer cancel()
	if err := s.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("wait for job slot: %w", ctx.Err())
		}
		return ErrBusy
	}
	return nil
}

func classify(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeFailed
	}
}

// transcode runs args (built to write outPath) and returns the result as
// an Output. A failed or empty result is removed.
func (s *Service) transcode(ctx context.Context, j job, f ffmpeg.Format, outPath string, args []string) (*Output, error) {
	err := s.execute(ctx, j, func(ctx context.Context) error {
		return s.runner.Run(ctx, args)
	})
	if err != nil {
		s.ws.Remove(ctx, outPath)
		return nil, err
	}
	return s.finalize(ctx, outPath, f.Ext, f.MIME)
}

func (s *Service) finalize(ctx context.Context, path, ext, contentType string) (*Output, error) {
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		s.ws.Remove(ctx, path)
		return nil, fmt.Errorf("%w: %s", ErrNoOutput, ext)
	}
	return &Output{
		Path:        path,
		Ext:         ext,
		ContentType: contentType,
		Size:        info.Size(),
	}, nil
}
