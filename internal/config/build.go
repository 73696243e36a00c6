package config

import (
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"rrt-planner/internal/geometry"
	"rrt-planner/internal/obstacles"
	"rrt-planner/internal/planner"
	"rrt-planner/internal/space"
)

// Run is a configuration resolved into a space and a planner ready to search.
type Run struct {
	Space   *space.Space
	Planner *planner.Planner
	Start   geometry.Point
	Goal    geometry.Point
	Seed    int64
}

// Build gathers the obstacles (inline, from file, then random), builds the
// space and seeds the planner. One generator is shared by the obstacle
// generator, the space and the planner, so a fixed seed replays the run.
// A zero seed draws one from the clock.
func (c *AppConfig) Build(logger *zap.SugaredLogger) (*Run, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	start, goal := geometry.Point(c.Start).Clone(), geometry.Point(c.Goal).Clone()

	boxes, err := c.Obstacles()
	if err != nil {
		return nil, err
	}
	if c.Space.ObstaclesFile != "" {
		loaded, err := obstacles.Load(c.Space.ObstaclesFile, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "obstacles file %s", c.Space.ObstaclesFile)
		}
		kept := obstacles.RemoveContained(loaded)
		if dropped := len(loaded) - len(kept); dropped > 0 {
			logger.Infof("   Obstacles after removing contained: %d (removed %d)", len(kept), dropped)
		}
		boxes = append(boxes, kept...)
	}
	if n := c.Space.RandomObstacles; n > 0 {
		generated := obstacles.Generate(c.Space.Bounds, start, goal, n, rng)
		logger.Debugf("placed %d of %d random obstacles", len(generated), n)
		boxes = append(boxes, generated...)
	}

	s, err := space.New(c.Space.Bounds, boxes,
		space.WithRand(rng),
		space.WithMaxSampleAttempts(c.Planner.MaxSampleAttempts))
	if err != nil {
		return nil, err
	}

	opts := append(c.PlannerOptions(), planner.WithRand(rng), planner.WithLogger(logger))
	pl, err := planner.New(s, start, goal, opts...)
	if err != nil {
		return nil, err
	}
	return &Run{Space: s, Planner: pl, Start: start, Goal: goal, Seed: seed}, nil
}
