// Package tree stores the vertices and parent links grown by the planner.
package tree

import (
	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"

	"rrt-planner/internal/geometry"
)

// VertexID identifies a committed vertex. Ids are dense and start at 0.
type VertexID int

// None is the parent of the root.
const None VertexID = -1

// half-width of the box a vertex occupies in the index
const vertexTolerance = 1e-9

const (
	minChildren = 25
	maxChildren = 50
)

var (
	ErrEmptyTree     = errors.New("tree has no vertices")
	ErrUnknownVertex = errors.New("vertex was never added to the tree")
)

type vertex struct {
	id    VertexID
	point geometry.Point
	rect  rtreego.Rect
}

func (v *vertex) Bounds() rtreego.Rect {
	return v.rect
}

// Edge is a parent link expressed in points, for consumers that render the tree.
type Edge struct {
	Child     geometry.Point
	Parent    geometry.Point
	HasParent bool
}

// Tree owns a vertex index and a parent map keyed by VertexID.
type Tree struct {
	index    *rtreego.Rtree
	vertices []*vertex
	parents  map[VertexID]VertexID
}

// New creates an empty tree for dim-dimensional points.
func New(dim int) *Tree {
	return &Tree{
		index:   rtreego.NewTree(dim, minChildren, maxChildren),
		parents: make(map[VertexID]VertexID),
	}
}

// AddVertex inserts p and returns its id. It does not check for duplicates;
// callers use Contains first.
func (t *Tree) AddVertex(p geometry.Point) VertexID {
	v := &vertex{
		id:    VertexID(len(t.vertices)),
		point: p.Clone(),
		rect:  rtreego.Point(p).ToRect(vertexTolerance),
	}
	t.vertices = append(t.vertices, v)
	t.index.Insert(v)
	return v.id
}

// AddEdge records parent as the parent of child, replacing any earlier parent.
func (t *Tree) AddEdge(child, parent VertexID) error {
	if !t.valid(child) {
		return errors.Wrapf(ErrUnknownVertex, "child %d", child)
	}
	if parent != None && !t.valid(parent) {
		return errors.Wrapf(ErrUnknownVertex, "parent %d", parent)
	}
	t.parents[child] = parent
	return nil
}

func (t *Tree) valid(id VertexID) bool {
	return id >= 0 && int(id) < len(t.vertices)
}

// NearestVertex returns the committed vertex closest to p.
func (t *Tree) NearestVertex(p geometry.Point) (VertexID, geometry.Point, error) {
	if len(t.vertices) == 0 {
		return None, nil, ErrEmptyTree
	}
	v := t.index.NearestNeighbor(rtreego.Point(p)).(*vertex)
	return v.id, v.point, nil
}

// Contains looks p up by exact coordinates.
func (t *Tree) Contains(p geometry.Point) (VertexID, bool) {
	for _, item := range t.index.SearchIntersect(rtreego.Point(p).ToRect(vertexTolerance)) {
		v := item.(*vertex)
		if v.point.Equal(p) {
			return v.id, true
		}
	}
	return None, false
}

// Parent returns the recorded parent of id. The second result is false when
// no edge was recorded.
func (t *Tree) Parent(id VertexID) (VertexID, bool) {
	parent, ok := t.parents[id]
	return parent, ok
}

// Point returns the coordinates of id.
func (t *Tree) Point(id VertexID) geometry.Point {
	return t.vertices[id].point
}

// Len is the number of committed vertices.
func (t *Tree) Len() int {
	return len(t.vertices)
}

// Root returns the first vertex whose parent is None.
func (t *Tree) Root() (VertexID, bool) {
	for _, v := range t.vertices {
		if parent, ok := t.parents[v.id]; ok && parent == None {
			return v.id, true
		}
	}
	return None, false
}

// Edges lists every recorded parent link in vertex order.
func (t *Tree) Edges() []Edge {
	edges := make([]Edge, 0, len(t.parents))
	for _, v := range t.vertices {
		parent, ok := t.parents[v.id]
		if !ok {
			continue
		}
		e := Edge{Child: v.point}
		if parent != None {
			e.Parent = t.vertices[parent].point
			e.HasParent = true
		}
		edges = append(edges, e)
	}
	return edges
}
