package space

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"rrt-planner/internal/geometry"
)

func square(size float64) Bounds {
	return Bounds{{Min: 0, Max: size}, {Min: 0, Max: size}}
}

func box(minX, minY, maxX, maxY float64) geometry.Box {
	return geometry.Box{Min: geometry.Point{minX, minY}, Max: geometry.Point{maxX, maxY}}
}

func TestNewValidation(t *testing.T) {
	_, err := New(Bounds{{Min: 0, Max: 1}}, nil)
	test.That(t, errors.Is(err, ErrTooFewDimensions), test.ShouldBeTrue)

	_, err = New(Bounds{{Min: 0, Max: 1}, {Min: 3, Max: 3}}, nil)
	test.That(t, errors.Is(err, ErrInvalidBounds), test.ShouldBeTrue)

	_, err = New(square(10), []geometry.Box{{Min: geometry.Point{1, 1, 1}, Max: geometry.Point{2, 2, 2}}})
	test.That(t, errors.Is(err, ErrObstacleDimension), test.ShouldBeTrue)

	_, err = New(square(10), []geometry.Box{box(1, 1, 2, 2), box(5, 5, 4, 6)})
	test.That(t, errors.Is(err, ErrInvalidObstacle), test.ShouldBeTrue)

	t.Run("all obstacle failures are reported", func(t *testing.T) {
		_, err := New(square(10), []geometry.Box{
			box(5, 5, 4, 6),
			{Min: geometry.Point{1}, Max: geometry.Point{2}},
		})
		test.That(t, errors.Is(err, ErrInvalidObstacle), test.ShouldBeTrue)
		test.That(t, errors.Is(err, ErrObstacleDimension), test.ShouldBeTrue)
	})

	s, err := New(square(10), nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Dimensions(), test.ShouldEqual, 2)
	test.That(t, s.Obstacles(), test.ShouldBeEmpty)
}

func TestObstaclesGetUniqueIDs(t *testing.T) {
	s, err := New(square(10), []geometry.Box{box(1, 1, 2, 2), box(5, 5, 6, 6)})
	test.That(t, err, test.ShouldBeNil)
	obs := s.Obstacles()
	test.That(t, obs, test.ShouldHaveLength, 2)
	test.That(t, obs[0].ID, test.ShouldNotEqual, obs[1].ID)
}

func TestIsFree(t *testing.T) {
	s, err := New(square(10), []geometry.Box{box(2, 2, 4, 4)})
	test.That(t, err, test.ShouldBeNil)

	test.That(t, s.IsFree(geometry.Point{3, 3}), test.ShouldBeFalse)
	test.That(t, s.IsFree(geometry.Point{2, 3}), test.ShouldBeFalse)
	test.That(t, s.IsFree(geometry.Point{4, 4}), test.ShouldBeFalse)
	test.That(t, s.IsFree(geometry.Point{1.99, 3}), test.ShouldBeTrue)
	test.That(t, s.IsFree(geometry.Point{8, 8}), test.ShouldBeTrue)
	test.That(t, s.Intersecting(geometry.Point{3, 3}), test.ShouldHaveLength, 1)
}

func TestSampleUniformWithinBounds(t *testing.T) {
	bounds := Bounds{{Min: -5, Max: 5}, {Min: 10, Max: 10.5}, {Min: 0, Max: 1000}}
	s, err := New(bounds, nil, WithRand(rand.New(rand.NewSource(1))))
	test.That(t, err, test.ShouldBeNil)

	for i := 0; i < 5000; i++ {
		p := s.SampleUniform()
		test.That(t, p, test.ShouldHaveLength, 3)
		for axis, iv := range bounds {
			test.That(t, p[axis], test.ShouldBeGreaterThanOrEqualTo, iv.Min)
			test.That(t, p[axis], test.ShouldBeLessThanOrEqualTo, iv.Max)
		}
	}
}

func TestSampleFreeAvoidsObstacles(t *testing.T) {
	obstacles := []geometry.Box{box(0, 0, 5, 5), box(5, 5, 10, 10), box(2, 6, 4, 9)}
	for _, obs := range [][]geometry.Box{nil, obstacles} {
		s, err := New(square(10), obs, WithRand(rand.New(rand.NewSource(3))))
		test.That(t, err, test.ShouldBeNil)
		for i := 0; i < 2000; i++ {
			p, err := s.SampleFree()
			test.That(t, err, test.ShouldBeNil)
			for _, o := range obs {
				test.That(t, o.Contains(p), test.ShouldBeFalse)
			}
		}
	}
}

func TestSampleFreeGivesUp(t *testing.T) {
	s, err := New(square(10), []geometry.Box{box(-1, -1, 11, 11)},
		WithRand(rand.New(rand.NewSource(3))), WithMaxSampleAttempts(50))
	test.That(t, err, test.ShouldBeNil)

	_, err = s.SampleFree()
	test.That(t, errors.Is(err, ErrNoFreeSpace), test.ShouldBeTrue)
}

func TestSegmentPointsCount(t *testing.T) {
	a, b := geometry.Point{0, 0}, geometry.Point{10, 0}
	points := SegmentPoints(a, b, 3)
	test.That(t, points, test.ShouldHaveLength, int(math.Ceil(10.0/3)))
	test.That(t, geometry.AlmostEqual(points[0], a, 1e-12), test.ShouldBeTrue)
	test.That(t, geometry.AlmostEqual(points[len(points)-1], b, 1e-9), test.ShouldBeTrue)

	points = SegmentPoints(geometry.Point{0, 0}, geometry.Point{3, 4}, 1)
	test.That(t, points, test.ShouldHaveLength, 5)
	for i := 1; i < len(points); i++ {
		test.That(t, points[i-1].Distance(points[i]), test.ShouldAlmostEqual, 1.25, 1e-9)
	}
}

func TestSegmentPointsShortSegment(t *testing.T) {
	test.That(t, SegmentPoints(geometry.Point{0, 0}, geometry.Point{0.5, 0}, 1), test.ShouldBeEmpty)
	test.That(t, SegmentPoints(geometry.Point{0, 0}, geometry.Point{1, 0}, 1), test.ShouldBeEmpty)
	test.That(t, SegmentPoints(geometry.Point{2, 2}, geometry.Point{2, 2}, 1), test.ShouldBeEmpty)
}

func TestSegmentFree(t *testing.T) {
	s, err := New(square(10), []geometry.Box{box(4, -1, 6, 11)})
	test.That(t, err, test.ShouldBeNil)

	test.That(t, s.SegmentFree(geometry.Point{0, 5}, geometry.Point{10, 5}, 1), test.ShouldBeFalse)
	test.That(t, s.SegmentFree(geometry.Point{0, 5}, geometry.Point{3, 9}, 1), test.ShouldBeTrue)

	// a sub-resolution segment ending inside the wall is never checked
	test.That(t, s.IsFree(geometry.Point{4.5, 5}), test.ShouldBeFalse)
	test.That(t, s.SegmentFree(geometry.Point{3.8, 5}, geometry.Point{4.5, 5}, 1), test.ShouldBeTrue)
}

func TestClamp(t *testing.T) {
	s, err := New(square(10), nil)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, s.Clamp(geometry.Point{-3, 12}), test.ShouldResemble, geometry.Point{0, 10})
	test.That(t, s.Clamp(geometry.Point{4, 5}), test.ShouldResemble, geometry.Point{4, 5})
	test.That(t, s.Contains(geometry.Point{4, 5}), test.ShouldBeTrue)
	test.That(t, s.Contains(geometry.Point{4, 15}), test.ShouldBeFalse)
	test.That(t, s.Contains(geometry.Point{4}), test.ShouldBeFalse)
}
