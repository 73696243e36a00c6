package obstacles

import (
	"github.com/dhconnelly/rtreego"

	"rrt-planner/internal/geometry"
	"rrt-planner/internal/space"
)

type indexedBox struct {
	boxEntry
	i int
}

// RemoveContained drops every box that lies fully inside another box. Of two
// identical boxes the later one is kept. Order is otherwise preserved.
func RemoveContained(boxes []geometry.Box) []geometry.Box {
	if len(boxes) <= 1 {
		return boxes
	}

	entries := make([]rtreego.Spatial, 0, len(boxes))
	for i, b := range boxes {
		rect, err := rtreego.NewRect(rtreego.Point(b.Min), b.Lengths())
		if err != nil {
			continue
		}
		entries = append(entries, &indexedBox{boxEntry: boxEntry{rect: rect}, i: i})
	}
	index := rtreego.NewTree(boxes[0].Dim(), space.MinChildren, space.MaxChildren, entries...)

	contained := make([]bool, len(boxes))
	for _, e := range entries {
		i := e.(*indexedBox).i
		for _, other := range index.SearchIntersect(e.Bounds()) {
			j := other.(*indexedBox).i
			if i == j || contained[j] {
				continue
			}
			if boxes[j].Contains(boxes[i].Min) && boxes[j].Contains(boxes[i].Max) {
				contained[i] = true
				break
			}
		}
	}

	result := make([]geometry.Box, 0, len(boxes))
	for i, b := range boxes {
		if !contained[i] {
			result = append(result, b)
		}
	}
	return result
}
