// Package render turns a finished run into an image or a GeoJSON document.
// Both read the run without modifying it. Only the first two axes are drawn.
package render

import (
	"io"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"

	"rrt-planner/internal/geometry"
	"rrt-planner/internal/obstacles"
	"rrt-planner/internal/space"
	"rrt-planner/internal/tree"
)

// Scene is everything a renderer needs from a run.
type Scene struct {
	Bounds    space.Bounds
	Obstacles []geometry.Box
	Edges     []tree.Edge
	Path      []geometry.Point
	Start     geometry.Point
	Goal      geometry.Point
}

// NewScene collects what the renderers need from a space, a tree and a path.
func NewScene(s *space.Space, t *tree.Tree, path []geometry.Point, start, goal geometry.Point) Scene {
	scene := Scene{
		Bounds: s.Bounds(),
		Path:   path,
		Start:  start,
		Goal:   goal,
	}
	for _, o := range s.Obstacles() {
		scene.Obstacles = append(scene.Obstacles, o.Box)
	}
	if t != nil {
		scene.Edges = t.Edges()
	}
	return scene
}

type projection struct {
	minX, minY     float64
	scaleX, scaleY float64
	height         float64
}

func newProjection(b space.Bounds, width int) (projection, int) {
	spanX := b[0].Max - b[0].Min
	spanY := b[1].Max - b[1].Min
	height := int(float64(width) * spanY / spanX)
	if height < 1 {
		height = 1
	}
	return projection{
		minX:   b[0].Min,
		minY:   b[1].Min,
		scaleX: float64(width) / spanX,
		scaleY: float64(height) / spanY,
		height: float64(height),
	}, height
}

// px maps a configuration to image coordinates, y growing upwards.
func (p projection) px(pt geometry.Point) (float64, float64) {
	return (pt[0] - p.minX) * p.scaleX, p.height - (pt[1]-p.minY)*p.scaleY
}

// PNG draws the scene as a width pixel wide image.
func PNG(w io.Writer, scene Scene, width int) error {
	if len(scene.Bounds) < 2 {
		return errors.Wrapf(space.ErrTooFewDimensions, "cannot draw %d bounds", len(scene.Bounds))
	}
	if width <= 0 {
		return errors.Errorf("image width must be positive, got %d", width)
	}
	proj, height := newProjection(scene.Bounds, width)

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGBA(0, 0, 0, 0.6)
	for _, o := range scene.Obstacles {
		x0, y0 := proj.px(geometry.Point{o.Min[0], o.Max[1]})
		x1, y1 := proj.px(geometry.Point{o.Max[0], o.Min[1]})
		dc.DrawRectangle(x0, y0, x1-x0, y1-y0)
		dc.Fill()
	}

	dc.SetHexColor("#00008b")
	dc.SetLineWidth(1)
	for _, e := range scene.Edges {
		if !e.HasParent {
			continue
		}
		x0, y0 := proj.px(e.Parent)
		x1, y1 := proj.px(e.Child)
		dc.DrawLine(x0, y0, x1, y1)
		dc.Stroke()
	}

	if len(scene.Path) > 1 {
		dc.SetRGB(1, 0, 0)
		dc.SetLineWidth(5)
		x, y := proj.px(scene.Path[0])
		dc.MoveTo(x, y)
		for _, pt := range scene.Path[1:] {
			x, y = proj.px(pt)
			dc.LineTo(x, y)
		}
		dc.Stroke()
	}

	for _, m := range []struct {
		point geometry.Point
		color string
	}{{scene.Start, "#ffa500"}, {scene.Goal, "#008000"}} {
		if len(m.point) < 2 {
			continue
		}
		x, y := proj.px(m.point)
		dc.SetHexColor(m.color)
		dc.DrawCircle(x, y, 6)
		dc.Fill()
	}

	return dc.EncodePNG(w)
}

// SavePNG writes the image to path, creating parent directories.
func SavePNG(path string, scene Scene, width int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create image")
	}
	if err := PNG(f, scene, width); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func toOrb(pt geometry.Point) orb.Point {
	return orb.Point{pt[0], pt[1]}
}

// GeoJSON encodes the scene as a FeatureCollection. Every feature carries a
// "kind" property: obstacle, edge, path, start or goal.
func GeoJSON(scene Scene) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	for i, o := range scene.Obstacles {
		f := geojson.NewFeature(obstacles.ToBound(o).ToPolygon())
		f.Properties["kind"] = "obstacle"
		f.Properties["index"] = i
		fc.Append(f)
	}
	for _, e := range scene.Edges {
		if !e.HasParent {
			continue
		}
		f := geojson.NewFeature(orb.LineString{toOrb(e.Parent), toOrb(e.Child)})
		f.Properties["kind"] = "edge"
		fc.Append(f)
	}
	if len(scene.Path) > 0 {
		line := make(orb.LineString, 0, len(scene.Path))
		for _, pt := range scene.Path {
			line = append(line, toOrb(pt))
		}
		f := geojson.NewFeature(line)
		f.Properties["kind"] = "path"
		f.Properties["length"] = geometry.PathLength(scene.Path)
		fc.Append(f)
	}
	for _, m := range []struct {
		kind  string
		point geometry.Point
	}{{"start", scene.Start}, {"goal", scene.Goal}} {
		if len(m.point) < 2 {
			continue
		}
		f := geojson.NewFeature(toOrb(m.point))
		f.Properties["kind"] = m.kind
		fc.Append(f)
	}

	return fc.MarshalJSON()
}
