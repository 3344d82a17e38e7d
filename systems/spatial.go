// Package systems implements the per-tick gameplay systems that drive
// ironmarch's simulation: command dispatch, steering, movement, spatial
// indexing, local avoidance, and combat. Each system is its own type with
// a constructor and a Tick method (the spatial index is rebuilt by the
// plain function Rebuild), run in the fixed order spec.md 2 describes;
// there is no scheduler abstraction because a single-threaded tick loop
// doesn't need one. The systems share no common interface, unlike
// original_source/Engine/include/ECS/SystemFormat.h's IGameplaySystem,
// since nothing here holds them polymorphically.
package systems

import (
	"github.com/ironmarch/engine/components"
	"github.com/ironmarch/engine/ecs"
)

// SpatialIndex is a 2D hash grid over entity positions, rebuilt every
// tick, used to answer "who is near (x, z)" queries in O(1) expected time
// per neighboring cell rather than scanning every entity. Grounded on
// original_source's SpatialIndexSystem.h.
type SpatialIndex struct {
	cellSize float32
	cells    map[[2]int32][]ecs.Entity
}

// NewSpatialIndex returns an empty index with the given cell size.
func NewSpatialIndex(cellSize float32) *SpatialIndex {
	return &SpatialIndex{cellSize: cellSize, cells: make(map[[2]int32][]ecs.Entity)}
}

func (s *SpatialIndex) cellOf(x, z float32) [2]int32 {
	return [2]int32{int32(x / s.cellSize), int32(z / s.cellSize)}
}

// Rebuild clears and repopulates the index from every entity carrying
// both Position and NavAgent; entities without NavAgent (static
// obstacles) are skipped to keep cells small.
func Rebuild(w *ecs.World, idx *SpatialIndex) {
	for k := range idx.cells {
		delete(idx.cells, k)
	}
	q := ecs.NewQuery()
	node := q.And(components.PositionC, components.NavAgentC)
	cur := w.NewCursor(node)
	for cur.Next() {
		pos := components.PositionC.GetFromCursor(cur)
		e := cur.CurrentEntity()
		key := idx.cellOf(pos.X, pos.Z)
		idx.cells[key] = append(idx.cells[key], e)
	}
}

// Neighbors returns every entity in the 3x3 block of cells centered on
// (x, z), including the queried cell itself.
func (idx *SpatialIndex) Neighbors(x, z float32) []ecs.Entity {
	center := idx.cellOf(x, z)
	var out []ecs.Entity
	for dz := int32(-1); dz <= 1; dz++ {
		for dx := int32(-1); dx <= 1; dx++ {
			key := [2]int32{center[0] + dx, center[1] + dz}
			out = append(out, idx.cells[key]...)
		}
	}
	return out
}
