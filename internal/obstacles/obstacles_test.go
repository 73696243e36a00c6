package obstacles

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"
	"go.viam.com/test"

	"rrt-planner/internal/geometry"
	"rrt-planner/internal/space"
)

func TestGenerate(t *testing.T) {
	bounds := space.Bounds{{Min: 0, Max: 100}, {Min: 0, Max: 100}}
	start, goal := geometry.Point{0, 0}, geometry.Point{90, 80}

	boxes := Generate(bounds, start, goal, 50, rand.New(rand.NewSource(4)))
	test.That(t, len(boxes), test.ShouldBeGreaterThan, 0)
	test.That(t, len(boxes), test.ShouldBeLessThanOrEqualTo, 50)

	s, err := space.New(bounds, boxes)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.IsFree(start), test.ShouldBeTrue)
	test.That(t, s.IsFree(goal), test.ShouldBeTrue)

	for i, a := range boxes {
		test.That(t, s.Contains(a.Min), test.ShouldBeTrue)
		test.That(t, s.Contains(a.Max), test.ShouldBeTrue)
		for axis, l := range a.Lengths() {
			span := bounds[axis].Max - bounds[axis].Min
			test.That(t, l, test.ShouldBeGreaterThanOrEqualTo, span/50-1e-9)
			test.That(t, l, test.ShouldBeLessThanOrEqualTo, span/5+1e-9)
		}
		for _, b := range boxes[i+1:] {
			test.That(t, overlaps(a, b), test.ShouldBeFalse)
		}
	}
}

func TestGenerateNothing(t *testing.T) {
	bounds := space.Bounds{{Min: 0, Max: 10}, {Min: 0, Max: 10}}
	rng := rand.New(rand.NewSource(1))
	test.That(t, Generate(bounds, geometry.Point{0, 0}, geometry.Point{9, 9}, 0, rng), test.ShouldBeNil)
	test.That(t, Generate(bounds, geometry.Point{0, 0}, geometry.Point{9, 9}, -3, rng), test.ShouldBeNil)
}

func overlaps(a, b geometry.Box) bool {
	for i := range a.Min {
		if a.Max[i] <= b.Min[i] || b.Max[i] <= a.Min[i] {
			return false
		}
	}
	return true
}

func TestGenerateIsReproducible(t *testing.T) {
	bounds := space.Bounds{{Min: 0, Max: 10}, {Min: 0, Max: 10}, {Min: 0, Max: 10}}
	a := Generate(bounds, geometry.Point{0, 0, 0}, geometry.Point{9, 9, 9}, 20, rand.New(rand.NewSource(8)))
	b := Generate(bounds, geometry.Point{0, 0, 0}, geometry.Point{9, 9, 9}, 20, rand.New(rand.NewSource(8)))
	test.That(t, a, test.ShouldResemble, b)
}

const featureCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "zone a"},
     "geometry": {"type": "Polygon", "coordinates": [[[1, 1], [4, 1], [4, 3], [1, 3], [1, 1]]]}},
    {"type": "Feature", "properties": {},
     "geometry": {"type": "MultiPolygon", "coordinates": [
       [[[10, 10], [12, 10], [11, 14], [10, 10]]],
       [[[20, 20], [21, 20], [21, 21], [20, 21], [20, 20]]]
     ]}},
    {"type": "Feature", "properties": {},
     "geometry": {"type": "LineString", "coordinates": [[0, 0], [5, 5]]}}
  ]
}`

func TestDecode(t *testing.T) {
	boxes, err := Decode([]byte(featureCollection), zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, boxes, test.ShouldResemble, []geometry.Box{
		{Min: geometry.Point{1, 1}, Max: geometry.Point{4, 3}},
		{Min: geometry.Point{10, 10}, Max: geometry.Point{12, 14}},
		{Min: geometry.Point{20, 20}, Max: geometry.Point{21, 21}},
	})

	_, err = Decode([]byte("not json"), zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestEncodeDecode(t *testing.T) {
	boxes := []geometry.Box{
		{Min: geometry.Point{1, 2}, Max: geometry.Point{3, 4}},
		{Min: geometry.Point{-5, -5}, Max: geometry.Point{0, 1}},
	}
	data, err := Encode(boxes)
	test.That(t, err, test.ShouldBeNil)

	decoded, err := Decode(data, zaptest.NewLogger(t).Sugar())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded, test.ShouldResemble, boxes)
}

func TestLoadDirectory(t *testing.T) {
	logger := zaptest.NewLogger(t).Sugar()
	dir := t.TempDir()
	test.That(t, os.WriteFile(filepath.Join(dir, "a.geojson"), []byte(featureCollection), 0o644), test.ShouldBeNil)
	test.That(t, os.WriteFile(filepath.Join(dir, "broken.geojson"), []byte("{"), 0o644), test.ShouldBeNil)
	test.That(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("{"), 0o644), test.ShouldBeNil)

	boxes, err := Load(dir, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, boxes, test.ShouldHaveLength, 3)

	boxes, err = Load(filepath.Join(dir, "a.geojson"), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, boxes, test.ShouldHaveLength, 3)

	_, err = Load(filepath.Join(dir, "missing.geojson"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRemoveContained(t *testing.T) {
	outer := geometry.Box{Min: geometry.Point{0, 0}, Max: geometry.Point{10, 10}}
	inner := geometry.Box{Min: geometry.Point{2, 2}, Max: geometry.Point{4, 4}}
	edge := geometry.Box{Min: geometry.Point{0, 0}, Max: geometry.Point{10, 5}}
	apart := geometry.Box{Min: geometry.Point{20, 20}, Max: geometry.Point{30, 30}}
	crossing := geometry.Box{Min: geometry.Point{8, 8}, Max: geometry.Point{12, 12}}

	kept := RemoveContained([]geometry.Box{inner, outer, edge, apart, crossing})
	test.That(t, kept, test.ShouldResemble, []geometry.Box{outer, apart, crossing})

	kept = RemoveContained([]geometry.Box{outer, outer})
	test.That(t, kept, test.ShouldResemble, []geometry.Box{outer})

	test.That(t, RemoveContained(nil), test.ShouldBeNil)
}
