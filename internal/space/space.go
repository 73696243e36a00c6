// Package space implements the configuration space: a bounded box of free
// configurations with axis-aligned hyperrectangle obstacles carved out of it.
package space

import (
	"math"
	"math/rand"
	"time"

	"github.com/dhconnelly/rtreego"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"rrt-planner/internal/geometry"
)

// R-tree fan-out, same for obstacles and vertices.
const (
	MinChildren = 25
	MaxChildren = 50
)

// DefaultMaxSampleAttempts caps rejection sampling in SampleFree.
const DefaultMaxSampleAttempts = 10000

// pointTolerance is the half-width of the query box used for point lookups.
const pointTolerance = 1e-9

var (
	ErrTooFewDimensions  = errors.New("must have at least 2 dimensions")
	ErrInvalidBounds     = errors.New("bound min must be less than bound max")
	ErrObstacleDimension = errors.New("obstacle has incorrect dimension definition")
	ErrInvalidObstacle   = errors.New("obstacle min must be less than obstacle max")
	ErrNoFreeSpace       = errors.New("no free configuration found")
)

// Interval is the [Min, Max] range of one axis.
type Interval struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Bounds is one Interval per dimension.
type Bounds []Interval

// Obstacle is a box stored in the obstacle index under a unique identifier.
type Obstacle struct {
	ID  uuid.UUID
	Box geometry.Box
}

// obstacleEntry wraps an obstacle for R-tree storage
type obstacleEntry struct {
	Obstacle
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *obstacleEntry) Bounds() rtreego.Rect {
	return e.rect
}

// Space answers validity queries against a fixed set of obstacles.
// It is immutable after New and safe to share read-only.
type Space struct {
	bounds      Bounds
	obstacles   []Obstacle
	index       *rtreego.Rtree
	rng         *rand.Rand
	maxAttempts int
}

// Option configures a Space.
type Option func(*Space)

// WithRand sets the random source used for sampling.
func WithRand(rng *rand.Rand) Option {
	return func(s *Space) {
		s.rng = rng
	}
}

// WithMaxSampleAttempts caps how many uniform draws SampleFree makes before giving up.
func WithMaxSampleAttempts(n int) Option {
	return func(s *Space) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// New validates bounds and obstacles and bulk-loads the obstacle index.
func New(bounds Bounds, obstacles []geometry.Box, opts ...Option) (*Space, error) {
	if len(bounds) < 2 {
		return nil, errors.Wrapf(ErrTooFewDimensions, "got %d", len(bounds))
	}
	for i, iv := range bounds {
		if iv.Min >= iv.Max {
			return nil, errors.Wrapf(ErrInvalidBounds, "axis %d: [%v, %v]", i, iv.Min, iv.Max)
		}
	}

	var err error
	for i, box := range obstacles {
		err = multierr.Append(err, validateObstacle(i, box, len(bounds)))
	}
	if err != nil {
		return nil, err
	}

	s := &Space{
		bounds:      append(Bounds(nil), bounds...),
		obstacles:   make([]Obstacle, 0, len(obstacles)),
		maxAttempts: DefaultMaxSampleAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	entries := make([]rtreego.Spatial, 0, len(obstacles))
	for _, box := range obstacles {
		rect, err := rtreego.NewRect(rtreego.Point(box.Min), box.Lengths())
		if err != nil {
			return nil, errors.Wrap(err, "failed to index obstacle")
		}
		o := Obstacle{ID: uuid.New(), Box: geometry.Box{Min: box.Min.Clone(), Max: box.Max.Clone()}}
		s.obstacles = append(s.obstacles, o)
		entries = append(entries, &obstacleEntry{Obstacle: o, rect: rect})
	}
	s.index = rtreego.NewTree(len(bounds), MinChildren, MaxChildren, entries...)

	return s, nil
}

func validateObstacle(i int, box geometry.Box, dim int) error {
	if box.Dim() != dim {
		return errors.Wrapf(ErrObstacleDimension, "obstacle %d has %d/%d coordinates, space has %d",
			i, len(box.Min), len(box.Max), dim)
	}
	for axis := 0; axis < dim; axis++ {
		if box.Min[axis] >= box.Max[axis] {
			return errors.Wrapf(ErrInvalidObstacle, "obstacle %d axis %d: [%v, %v]",
				i, axis, box.Min[axis], box.Max[axis])
		}
	}
	return nil
}

// Dimensions returns the number of axes.
func (s *Space) Dimensions() int {
	return len(s.bounds)
}

// Bounds returns a copy of the sampling domain.
func (s *Space) Bounds() Bounds {
	return append(Bounds(nil), s.bounds...)
}

// Obstacles returns the obstacles in insertion order.
func (s *Space) Obstacles() []Obstacle {
	return append([]Obstacle(nil), s.obstacles...)
}

// Contains reports whether p has the right dimensionality and lies inside the bounds.
func (s *Space) Contains(p geometry.Point) bool {
	if len(p) != len(s.bounds) {
		return false
	}
	for i, iv := range s.bounds {
		if p[i] < iv.Min || p[i] > iv.Max {
			return false
		}
	}
	return true
}

// Intersecting returns the obstacles whose closed box contains p.
func (s *Space) Intersecting(p geometry.Point) []Obstacle {
	results := s.index.SearchIntersect(rtreego.Point(p).ToRect(pointTolerance))
	hits := make([]Obstacle, 0, len(results))
	for _, item := range results {
		entry := item.(*obstacleEntry)
		if entry.Box.Contains(p) {
			hits = append(hits, entry.Obstacle)
		}
	}
	return hits
}

// IsFree reports whether p lies outside every obstacle.
func (s *Space) IsFree(p geometry.Point) bool {
	return len(s.Intersecting(p)) == 0
}

// SampleUniform draws every coordinate uniformly from its interval.
func (s *Space) SampleUniform() geometry.Point {
	p := make(geometry.Point, len(s.bounds))
	for i, iv := range s.bounds {
		p[i] = iv.Min + s.rng.Float64()*(iv.Max-iv.Min)
	}
	return p
}

// SampleFree draws uniform samples until one is free, giving up after the
// configured number of attempts.
func (s *Space) SampleFree() (geometry.Point, error) {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		p := s.SampleUniform()
		if s.IsFree(p) {
			return p, nil
		}
	}
	return nil, errors.Wrapf(ErrNoFreeSpace, "after %d attempts", s.maxAttempts)
}

// SegmentPoints discretizes a->b into ceil(|b-a|/resolution) evenly spaced
// points, endpoints included. Segments that yield one point or fewer produce
// no points at all.
func SegmentPoints(a, b geometry.Point, resolution float64) []geometry.Point {
	dist := a.Distance(b)
	n := int(math.Ceil(dist / resolution))
	if n <= 1 {
		return nil
	}
	step := dist / float64(n-1)
	points := make([]geometry.Point, n)
	for i := range points {
		points[i] = geometry.Steer(a, b, float64(i)*step)
	}
	return points
}

// SegmentFree reports whether every discretized point of a->b is free.
// Segments shorter than one resolution unit are not checked and report true,
// so an obstacle thinner than resolution can be crossed.
func (s *Space) SegmentFree(a, b geometry.Point, resolution float64) bool {
	for _, p := range SegmentPoints(a, b, resolution) {
		if !s.IsFree(p) {
			return false
		}
	}
	return true
}

// Clamp projects p componentwise into the bounds.
func (s *Space) Clamp(p geometry.Point) geometry.Point {
	out := make(geometry.Point, len(p))
	for i := range p {
		out[i] = math.Min(math.Max(p[i], s.bounds[i].Min), s.bounds[i].Max)
	}
	return out
}
