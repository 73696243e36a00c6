// Package server exposes the planner over HTTP. Every request builds its own
// space and planner, so requests share no state.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"rrt-planner/internal/config"
	"rrt-planner/internal/geometry"
	"rrt-planner/internal/planner"
	"rrt-planner/internal/render"
	"rrt-planner/internal/space"
)

const separator = "========================================"

// PlanRequest is the body of POST /plan. Zero tuning fields fall back to the
// planner defaults.
type PlanRequest struct {
	Bounds          []space.Interval    `json:"bounds"`
	Obstacles       [][]float64         `json:"obstacles,omitempty"`
	RandomObstacles int                 `json:"randomObstacles,omitempty"`
	Start           []float64           `json:"start"`
	Goal            []float64           `json:"goal"`
	MaxSamples      int                 `json:"maxSamples,omitempty"`
	Resolution      float64             `json:"resolution,omitempty"`
	GoalProbability *float64            `json:"goalProbability,omitempty"`
	Schedule        []planner.Extension `json:"schedule,omitempty"`
	Seed            int64               `json:"seed,omitempty"`
	IncludeGeoJSON  bool                `json:"includeGeoJSON,omitempty"`
}

// PlanResponse is the body returned by POST /plan.
type PlanResponse struct {
	Path     []geometry.Point `json:"path"`
	Success  bool             `json:"success"`
	Message  string           `json:"message,omitempty"`
	Samples  int              `json:"samples"`
	Vertices int              `json:"vertices"`
	Length   float64          `json:"length,omitempty"`
	Seed     int64            `json:"seed"`
	GeoJSON  json.RawMessage  `json:"geojson,omitempty"`
}

// Server answers planning requests.
type Server struct {
	cfg     config.ServerConfig
	logger  *zap.SugaredLogger
	planned atomic.Int64
}

// New returns a server configured by cfg.
func New(cfg config.ServerConfig, logger *zap.SugaredLogger) *Server {
	return &Server{cfg: cfg, logger: logger}
}

// Handler routes /plan and /health behind a permissive CORS policy.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/plan", s.planHandler)
	mux.HandleFunc("/health", s.healthHandler)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info(separator)
	s.logger.Info("🚀 RRT Planner Server")
	s.logger.Info(separator)
	s.logger.Infof("Server starting on %s", s.cfg.Addr)
	s.logger.Info("Endpoints:")
	s.logger.Info("  POST /plan    - Grow a tree from start and return a path to goal")
	s.logger.Info("  GET  /health  - Check server status")
	s.logger.Info("CORS enabled for all origins")
	s.logger.Info(separator)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// toConfig lays a request over the default configuration.
func (req *PlanRequest) toConfig() *config.AppConfig {
	cfg := config.Default()
	cfg.Space = config.SpaceConfig{
		Bounds:          req.Bounds,
		Obstacles:       req.Obstacles,
		RandomObstacles: req.RandomObstacles,
	}
	cfg.Start = req.Start
	cfg.Goal = req.Goal
	cfg.Seed = req.Seed
	if req.MaxSamples != 0 {
		cfg.Planner.MaxSamples = req.MaxSamples
	}
	if req.Resolution != 0 {
		cfg.Planner.Resolution = req.Resolution
	}
	if req.GoalProbability != nil {
		cfg.Planner.GoalProbability = *req.GoalProbability
	}
	if len(req.Schedule) > 0 {
		cfg.Planner.Schedule = req.Schedule
	}
	return cfg
}

func (s *Server) planHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Info(separator)
	s.logger.Info("📍 Plan request received")
	defer s.logger.Info(separator)

	if r.Method != http.MethodPost {
		s.logger.Warnf("❌ Method not allowed: %s", r.Method)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warnf("❌ Invalid request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.logger.Infof("   Start: %v", req.Start)
	s.logger.Infof("   Goal:  %v", req.Goal)
	s.logger.Infof("   Obstacles: %d explicit, %d random", len(req.Obstacles), req.RandomObstacles)

	run, err := req.toConfig().Build(s.logger)
	if err != nil {
		s.logger.Warnf("❌ Invalid planning request: %v", err)
		s.writeJSON(w, http.StatusUnprocessableEntity, PlanResponse{Message: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.cfg.TimeoutSecs)*time.Second)
	defer cancel()

	s.logger.Info("🔍 Growing tree...")
	res, err := run.Planner.Run(ctx)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		s.logger.Errorf("❌ Planning failed: %v", err)
		s.writeJSON(w, status, PlanResponse{Message: err.Error(), Seed: run.Seed})
		return
	}
	s.planned.Add(1)

	resp := PlanResponse{
		Path:     res.Path,
		Success:  res.Found,
		Samples:  res.Samples,
		Vertices: res.Vertices,
		Seed:     run.Seed,
	}
	if res.Found {
		resp.Length = geometry.PathLength(res.Path)
		s.logger.Infof("✅ Path found with %d waypoints", len(res.Path))
		s.logger.Infof("   Length: %.2f", resp.Length)
	} else {
		resp.Message = "No path found within the sample budget"
		s.logger.Info("❌ No path found within the sample budget")
	}
	s.logger.Infof("   Samples: %d, vertices: %d", res.Samples, res.Vertices)

	if req.IncludeGeoJSON {
		scene := render.NewScene(run.Space, run.Planner.Tree(), res.Path, run.Start, run.Goal)
		data, err := render.GeoJSON(scene)
		if err != nil {
			s.logger.Warnf("⚠️  Failed to encode GeoJSON: %v", err)
		} else {
			resp.GeoJSON = data
		}
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ready",
		"planned": s.planned.Load(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debugf("failed to write response: %v", err)
	}
}
