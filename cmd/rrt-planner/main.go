// Package main is the rrt-planner command: run a single plan or serve the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"rrt-planner/internal/config"
	"rrt-planner/internal/logging"
	"rrt-planner/internal/render"
	"rrt-planner/internal/server"
)

const (
	// Flags.
	flagConfig   = "config"
	flagSeed     = "seed"
	flagLogLevel = "log-level"
	flagImage    = "image"
	flagGeoJSON  = "geojson"
	flagAddr     = "addr"
)

var errNoPath = errors.New("no path found within the sample budget")

func main() {
	_ = godotenv.Load()

	var (
		cfg    *config.AppConfig
		logger *zap.SugaredLogger
	)

	app := &cli.App{
		Name:  "rrt-planner",
		Usage: "grow a rapidly-exploring random tree from start to goal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Value:   "config.yaml",
				EnvVars: []string{"RRT_CONFIG"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.Int64Flag{
				Name:    flagSeed,
				EnvVars: []string{"RRT_SEED"},
				Usage:   "random seed, 0 draws one from the clock",
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				EnvVars: []string{"RRT_LOG_LEVEL"},
				Usage:   "debug, info, warn or error",
			},
		},
		Before: func(c *cli.Context) error {
			var err error
			cfg, err = config.Load(c.String(flagConfig))
			if err != nil {
				return err
			}
			if c.IsSet(flagSeed) {
				cfg.Seed = c.Int64(flagSeed)
			}
			if c.IsSet(flagLogLevel) {
				cfg.LogLevel = c.String(flagLogLevel)
			}
			logger, err = logging.New("rrt", cfg.LogLevel)
			return err
		},
		After: func(c *cli.Context) error {
			if logger != nil {
				_ = logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "plan",
				Usage: "run one search and write the configured outputs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagImage, Usage: "write a PNG of the tree to `FILE`"},
					&cli.StringFlag{Name: flagGeoJSON, Usage: "write the run as GeoJSON to `FILE`"},
				},
				Action: func(c *cli.Context) error {
					if c.IsSet(flagImage) {
						cfg.Output.Image = c.String(flagImage)
					}
					if c.IsSet(flagGeoJSON) {
						cfg.Output.GeoJSON = c.String(flagGeoJSON)
					}
					return plan(c.Context, cfg, logger)
				},
			},
			{
				Name:  "serve",
				Usage: "serve the planning HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagAddr, Usage: "listen address, overrides the config"},
				},
				Action: func(c *cli.Context) error {
					if c.IsSet(flagAddr) {
						cfg.Server.Addr = c.String(flagAddr)
					}
					ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
					defer stop()
					return server.New(cfg.Server, logger).ListenAndServe(ctx)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func plan(ctx context.Context, cfg *config.AppConfig, logger *zap.SugaredLogger) error {
	logger.Info("========================================")
	logger.Info("🌲 RRT planning run")
	logger.Info("========================================")

	run, err := cfg.Build(logger)
	if err != nil {
		return err
	}
	logger.Infof("   Dimensions: %d", run.Space.Dimensions())
	logger.Infof("   Obstacles:  %d", len(run.Space.Obstacles()))
	logger.Infof("   Start: %v", run.Start)
	logger.Infof("   Goal:  %v", run.Goal)
	logger.Infof("   Seed:  %d", run.Seed)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	res, err := run.Planner.Run(ctx)
	if err != nil {
		return err
	}

	scene := render.NewScene(run.Space, run.Planner.Tree(), res.Path, run.Start, run.Goal)
	if cfg.Output.Image != "" {
		if err := render.SavePNG(cfg.Output.Image, scene, cfg.Output.Width); err != nil {
			logger.Warnf("⚠️  Failed to write image: %v", err)
		} else {
			logger.Infof("🖼️  Image written to %s", cfg.Output.Image)
		}
	}
	if cfg.Output.GeoJSON != "" {
		if err := writeGeoJSON(cfg.Output.GeoJSON, scene); err != nil {
			logger.Warnf("⚠️  Failed to write GeoJSON: %v", err)
		} else {
			logger.Infof("🗺️  GeoJSON written to %s", cfg.Output.GeoJSON)
		}
	}

	if !res.Found {
		logger.Infof("❌ No path found after %d samples", res.Samples)
		return errNoPath
	}
	logger.Infof("✅ Path found with %d waypoints", len(res.Path))
	for i, p := range res.Path {
		logger.Debugf("      %d: %v", i, p)
	}
	return nil
}

func writeGeoJSON(path string, scene render.Scene) error {
	data, err := render.GeoJSON(scene)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
