// Package obstacles supplies obstacle sets for the configuration space:
// random boxes for experiments and boxes read from GeoJSON files.
package obstacles

import (
	"math"
	"math/rand"

	"github.com/dhconnelly/rtreego"

	"rrt-planner/internal/geometry"
	"rrt-planner/internal/space"
)

type boxEntry struct {
	rect rtreego.Rect
}

func (e *boxEntry) Bounds() rtreego.Rect {
	return e.rect
}

// Generate makes n attempts at placing a random box inside bounds. Each box
// has a half edge between 1% and 10% of the axis span. Boxes that would cover
// start or goal, or overlap a box placed earlier, are dropped, so fewer than n
// boxes may be returned.
func Generate(bounds space.Bounds, start, goal geometry.Point, n int, rng *rand.Rand) []geometry.Box {
	if n <= 0 {
		return nil
	}
	dim := len(bounds)
	placed := rtreego.NewTree(dim, space.MinChildren, space.MaxChildren)
	boxes := make([]geometry.Box, 0, min(n, 1024))

	for i := 0; i < n; i++ {
		box := geometry.Box{Min: make(geometry.Point, dim), Max: make(geometry.Point, dim)}
		coversStart, coversGoal := true, true

		for j, iv := range bounds {
			span := iv.Max - iv.Min
			half := span/100 + rng.Float64()*(span/10-span/100)
			center := iv.Min + half + rng.Float64()*(span-2*half)
			box.Min[j] = center - half
			box.Max[j] = center + half

			if math.Abs(start[j]-center) > half {
				coversStart = false
			}
			if math.Abs(goal[j]-center) > half {
				coversGoal = false
			}
		}
		if coversStart || coversGoal {
			continue
		}

		rect, err := rtreego.NewRect(rtreego.Point(box.Min), box.Lengths())
		if err != nil {
			continue
		}
		if len(placed.SearchIntersect(rect)) > 0 {
			continue
		}
		placed.Insert(&boxEntry{rect: rect})
		boxes = append(boxes, box)
	}
	return boxes
}
