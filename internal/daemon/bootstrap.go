// SPDX-License-Identifier: MIT

// Package daemon provides the core daemon bootstrapping and lifecycle management.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/ffgate/internal/api"
	"github.com/ManuGH/ffgate/internal/config"
	"github.com/ManuGH/ffgate/internal/health"
	"github.com/ManuGH/ffgate/internal/infra/ffmpeg"
	"github.com/ManuGH/ffgate/internal/log"
	"github.com/ManuGH/ffgate/internal/media"
	"github.com/ManuGH/ffgate/internal/ratelimit"
	"github.com/ManuGH/ffgate/internal/telemetry"
	"github.com/ManuGH/ffgate/internal/workspace"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Options tweak Bootstrap for tests.
type Options struct {
	// SkipStartupChecks bypasses binary and listen-address preflight.
	SkipStartupChecks bool
	// Runner and Prober replace the ffmpeg/ffprobe executors when set.
	Runner ffmpeg.Runner
	Prober ffmpeg.Prober
}

// configFunc adapts a function to ConfigApplier.
type configFunc func(config.AppConfig)

func (f configFunc) ApplyConfig(cfg config.AppConfig) { f(cfg) }

// Bootstrap assembles the gateway from a loaded configuration: workspace,
// tool executors, media service, health checks, API server, sweeper and
// the server manager.
func Bootstrap(ctx context.Context, cfg config.AppConfig, holder *config.Holder, opts Options) (*App, error) {
	logger := log.WithComponent("daemon")

	logger.Info().
		Str("version", cfg.Version).
		Str("listen", cfg.Server.ListenAddr).
		Msg("Starting ffgate daemon")

	ws, err := workspace.New(cfg.Workspace.Dir)
	if err != nil {
		return nil, fmt.Errorf("workspace: %w", err)
	}

	if !opts.SkipStartupChecks {
		if err := health.PerformStartupChecks(ctx, cfg, ws.Dirs()...); err != nil {
			return nil, err
		}
	}

	tp, err := initTelemetry(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry initialization failed, continuing without tracing")
	}

	runner := opts.Runner
	if runner == nil {
		runner = ffmpeg.NewExecutor("ffmpeg", cfg.FFmpeg.Bin, cfg.FFmpeg.KillGrace, log.WithComponent("ffmpeg"))
	}
	prober := opts.Prober
	if prober == nil {
		probeExec := ffmpeg.NewExecutor("ffprobe", cfg.FFmpeg.FFprobeBin, cfg.FFmpeg.KillGrace, log.WithComponent("ffprobe"))
		prober = ffmpeg.NewProber(probeExec)
	}

	svc := media.NewService(media.Config{
		MaxConcurrent: cfg.Jobs.MaxConcurrent,
		QueueTimeout:  cfg.Jobs.QueueTimeout,
		JobTimeout:    cfg.Jobs.Timeout,
	}, ws, runner, prober)

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewBinaryChecker("ffmpeg", cfg.FFmpeg.Bin))
	hm.RegisterChecker(health.NewBinaryChecker("ffprobe", cfg.FFmpeg.FFprobeBin))
	hm.RegisterChecker(health.NewDirChecker("uploads_dir", ws.UploadsDir()))
	hm.RegisterChecker(health.NewDirChecker("outputs_dir", ws.OutputsDir()))

	srv := api.New(cfg, api.Deps{
		Media:      svc,
		Workspace:  ws,
		Health:     hm,
		JobLimiter: jobLimiter(cfg.RateLimit),
	})

	deps := Deps{
		Logger:     logger,
		Config:     cfg,
		APIHandler: srv.Handler(),
	}
	if cfg.Metrics.Enabled {
		deps.MetricsHandler = promhttp.Handler()
		deps.MetricsAddr = cfg.Metrics.ListenAddr
	}

	mgr, err := NewManager(cfg.Server, deps)
	if err != nil {
		return nil, err
	}
	if tp != nil {
		mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	}

	sweeper := workspace.NewSweeper(ws, cfg.Workspace.SweepInterval, cfg.Workspace.MaxAge)

	app := NewApp(logger, mgr, holder)
	app.OnReload(srv, configFunc(func(c config.AppConfig) {
		sweeper.SetMaxAge(c.Workspace.MaxAge)
	}))
	app.Go(sweeper)
	return app, nil
}

// jobLimiter builds the token buckets for process-spawning routes. The
// per-IP bucket follows the configuration; global and per-class buckets
// keep their defaults.
func jobLimiter(cfg config.RateLimitConfig) *ratelimit.Limiter {
	if !cfg.Enabled || cfg.JobsPerSecond <= 0 {
		return nil
	}
	rc := ratelimit.DefaultConfig()
	rc.PerIPRate = rate.Limit(cfg.JobsPerSecond)
	rc.PerIPBurst = cfg.JobsBurst
	return ratelimit.New(rc)
}

// initTelemetry initializes OpenTelemetry tracing.
func initTelemetry(ctx context.Context, cfg config.AppConfig) (*telemetry.Provider, error) {
	if !cfg.Tracing.Enabled {
		return nil, nil
	}

	service := cfg.Log.Service
	if service == "" {
		service = "ffgate"
	}
	telCfg := telemetry.Config{
		Enabled:        true,
		ServiceName:    service,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Tracing.Environment,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	}

	provider, err := telemetry.NewProvider(ctx, telCfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}

	logger := log.WithComponent("daemon")
	logger.Info().
		Str("service", telCfg.ServiceName).
		Str("endpoint", telCfg.Endpoint).
		Float64("sampling_rate", telCfg.SamplingRate).
		Msg("Telemetry initialized")

	return provider, nil
}

// WaitForShutdown returns a context cancelled on interrupt/termination
// signals, and the function that releases the signal handler.
func WaitForShutdown() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
