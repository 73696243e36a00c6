// Package planner grows a Rapidly-exploring Random Tree through a
// configuration space until the goal can be connected or the sample budget
// runs out.
package planner

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"rrt-planner/internal/geometry"
	"rrt-planner/internal/space"
	"rrt-planner/internal/tree"
)

// Result is the outcome of a run. Found is false when the budget ran out
// without a goal connection; Path is nil in that case.
type Result struct {
	Path     []geometry.Point `json:"path"`
	Found    bool             `json:"found"`
	Samples  int              `json:"samples"`
	Vertices int              `json:"vertices"`
}

// Planner drives a single tree. It is not safe for concurrent use.
type Planner struct {
	space   *space.Space
	tree    *tree.Tree
	start   geometry.Point
	goal    geometry.Point
	root    tree.VertexID
	samples int
	opts    options
	rng     *rand.Rand
}

// New validates the request and seeds the tree with start as its root.
func New(s *space.Space, start, goal geometry.Point, opts ...Option) (*Planner, error) {
	for _, c := range []struct {
		name  string
		point geometry.Point
	}{{"start", start}, {"goal", goal}} {
		if len(c.point) != s.Dimensions() {
			return nil, errors.Wrapf(ErrDimensionMismatch, "%s has %d coordinates, space has %d",
				c.name, len(c.point), s.Dimensions())
		}
		if !s.Contains(c.point) {
			return nil, errors.Wrapf(ErrOutOfBounds, "%s %v", c.name, c.point)
		}
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	pl := &Planner{
		space: s,
		tree:  tree.New(s.Dimensions()),
		start: start.Clone(),
		goal:  goal.Clone(),
		opts:  o,
		rng:   o.rng,
	}
	if pl.rng == nil {
		pl.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	pl.root = pl.addVertex(pl.start)
	if err := pl.tree.AddEdge(pl.root, tree.None); err != nil {
		return nil, err
	}
	return pl, nil
}

// Tree exposes the tree for read-only consumers such as renderers.
func (p *Planner) Tree() *tree.Tree {
	return p.tree
}

// Samples returns how many samples have been counted so far.
func (p *Planner) Samples() int {
	return p.samples
}

func (p *Planner) addVertex(pt geometry.Point) tree.VertexID {
	p.samples++
	return p.tree.AddVertex(pt)
}

// Clamp keeps a steered point inside the space bounds.
func (p *Planner) Clamp(pt geometry.Point) geometry.Point {
	return p.space.Clamp(pt)
}

// ExtendOnce grows the tree by at most one vertex. It reports whether a
// candidate was accepted for a connection attempt; rejected candidates leave
// the planner untouched.
func (p *Planner) ExtendOnce(step float64) (bool, error) {
	sample, err := p.space.SampleFree()
	if err != nil {
		return false, err
	}
	nearestID, nearest, err := p.tree.NearestVertex(sample)
	if err != nil {
		return false, err
	}

	candidate := p.Clamp(geometry.Steer(nearest, sample, step))
	if _, dup := p.tree.Contains(candidate); dup || !p.space.IsFree(candidate) {
		return false, nil
	}
	p.samples++
	p.connect(nearestID, candidate)
	return true, nil
}

// Connect commits b with parent a when a is a vertex, b is not, and the
// segment between them is free.
func (p *Planner) Connect(a, b geometry.Point) bool {
	aID, ok := p.tree.Contains(a)
	if !ok {
		return false
	}
	return p.connect(aID, b)
}

func (p *Planner) connect(aID tree.VertexID, b geometry.Point) bool {
	if _, dup := p.tree.Contains(b); dup {
		return false
	}
	if !p.space.SegmentFree(p.tree.Point(aID), b, p.opts.resolution) {
		return false
	}
	bID := p.addVertex(b)
	if err := p.tree.AddEdge(bID, aID); err != nil {
		p.opts.logger.Errorw("failed to record edge", "child", bID, "parent", aID, "error", err)
		return false
	}
	return true
}

// CanReachGoal reports whether the goal is already in the tree or the
// segment from its nearest vertex to it is free.
func (p *Planner) CanReachGoal() (bool, error) {
	if _, ok := p.tree.Contains(p.goal); ok {
		return true, nil
	}
	_, nearest, err := p.tree.NearestVertex(p.goal)
	if err != nil {
		return false, err
	}
	return p.space.SegmentFree(nearest, p.goal, p.opts.resolution), nil
}

// ExtractPath returns the path from start to goal, attaching the goal to its
// nearest vertex when it is not yet part of the tree.
func (p *Planner) ExtractPath() ([]geometry.Point, error) {
	if p.start.Equal(p.goal) {
		return []geometry.Point{p.start.Clone()}, nil
	}

	ok, err := p.CanReachGoal()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrGoalUnreachable
	}

	goalID, found := p.tree.Contains(p.goal)
	if !found {
		nearestID, _, err := p.tree.NearestVertex(p.goal)
		if err != nil {
			return nil, err
		}
		goalID = p.tree.AddVertex(p.goal)
		if err := p.tree.AddEdge(goalID, nearestID); err != nil {
			return nil, err
		}
	}
	return p.walk(goalID)
}

// walk follows parent links from id to the root. The number of steps is
// bounded by the vertex count.
func (p *Planner) walk(id tree.VertexID) ([]geometry.Point, error) {
	path := []geometry.Point{p.tree.Point(id).Clone()}
	current := id
	for steps := 0; ; steps++ {
		if steps > p.tree.Len() {
			return nil, errors.Wrapf(ErrBrokenParentChain, "no root after %d steps", steps)
		}
		parent, ok := p.tree.Parent(current)
		if !ok || parent == tree.None {
			return nil, errors.Wrapf(ErrBrokenParentChain, "vertex %d has no path to the root", current)
		}
		if parent == p.root {
			break
		}
		path = append(path, p.tree.Point(parent).Clone())
		current = parent
	}
	path = append(path, p.start.Clone())

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// CheckTermination tries a goal connection with the configured probability
// and forces a final attempt once the sample budget is spent. done without a
// path means the budget ran out.
func (p *Planner) CheckTermination() (done bool, path []geometry.Point, err error) {
	if p.opts.goalProbability > 0 && p.rng.Float64() < p.opts.goalProbability {
		p.opts.logger.Debugf("checking for a solution after %d samples", p.samples)
		path, err := p.ExtractPath()
		switch {
		case err == nil:
			return true, path, nil
		case !errors.Is(err, ErrGoalUnreachable):
			return true, nil, err
		}
	}

	if p.samples >= p.opts.maxSamples {
		p.opts.logger.Debugf("sample budget of %d spent, forcing a final goal check", p.opts.maxSamples)
		path, err := p.ExtractPath()
		if errors.Is(err, ErrGoalUnreachable) {
			return true, nil, nil
		}
		return true, path, err
	}
	return false, nil, nil
}

// Run cycles through the extension schedule until CheckTermination reports
// done. The context is checked between iterations.
func (p *Planner) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	for {
		for _, ext := range p.opts.schedule {
			for i := 0; i < ext.Repeat; i++ {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				accepted, err := p.ExtendOnce(ext.Step)
				if err != nil {
					return nil, err
				}
				if !accepted {
					continue
				}

				done, path, err := p.CheckTermination()
				if err != nil {
					return nil, err
				}
				if done {
					res := &Result{
						Path:     path,
						Found:    path != nil,
						Samples:  p.samples,
						Vertices: p.tree.Len(),
					}
					if res.Found {
						p.opts.logger.Infow("path found",
							"waypoints", len(path), "length", geometry.PathLength(path),
							"samples", res.Samples, "vertices", res.Vertices, "elapsed", time.Since(start))
					} else {
						p.opts.logger.Infow("no path found within sample budget",
							"samples", res.Samples, "vertices", res.Vertices, "elapsed", time.Since(start))
					}
					return res, nil
				}
			}
		}
	}
}
