// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ManuGH/ffgate/internal/config"
	"github.com/ManuGH/ffgate/internal/daemon"
	fflog "github.com/ManuGH/ffgate/internal/log"
	"github.com/ManuGH/ffgate/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		}
	}

	// Handle command-line flags
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	os.Exit(run(strings.TrimSpace(*configPath)))
}

func run(configPath string) int {
	// Configure logger with safe defaults until config is loaded
	fflog.Configure(fflog.Config{
		Level:   "info",
		Service: "ffgate",
		Version: version.Version,
	})
	logger := fflog.WithComponent("daemon")

	ctx, stop := daemon.WaitForShutdown()
	defer stop()

	// Load configuration with precedence: ENV > File > Defaults
	loader := config.NewLoader(configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		logger.Error().
			Err(err).
			Str(fflog.FieldEvent, "config.load_failed").
			Str("config_path", configPath).
			Msg("failed to load configuration")
		return 1
	}

	// Re-configure logger with loaded configuration
	fflog.Configure(fflog.Config{
		Level:   cfg.Log.Level,
		Service: cfg.Log.Service,
		Version: cfg.Version,
	})
	logger = fflog.WithComponent("daemon")

	if configPath != "" {
		logger.Info().
			Str(fflog.FieldEvent, "config.loaded").
			Str("source", "file").
			Str("path", configPath).
			Msg("loaded configuration from file")
	} else {
		logger.Info().
			Str(fflog.FieldEvent, "config.loaded").
			Str("source", "env+defaults").
			Msg("loaded configuration from environment and defaults")
	}
	logger.Debug().Interface("config", cfg.Redacted()).Msg("effective configuration")

	holder := config.NewHolder(cfg, loader)

	app, err := daemon.Bootstrap(ctx, cfg, holder, daemon.Options{})
	if err != nil {
		logger.Error().
			Err(err).
			Str(fflog.FieldEvent, "startup.check_failed").
			Msg("Startup failed. Please verify configuration and permissions.")
		return 1
	}

	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("daemon exited with error")
		return 1
	}
	logger.Info().Msg("daemon stopped")
	return 0
}
