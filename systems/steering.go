package systems

import (
	"github.com/ironmarch/engine/components"
	"github.com/ironmarch/engine/ecs"
	"github.com/ironmarch/engine/nav"
)

// Steering turns freshly issued MoveOrders into a Path by invoking the
// pathfinder once per order, then hands the entity off to Movement by
// marking it dirty in movementTracker. Planning only runs for orders with
// Issued set and Formed unset, so a unit that already has a path in
// progress isn't replanned every tick - grounded on
// original_source/Sample/systems/SteeringSystem.h's "formed" guard.
type Steering struct {
	grid            *nav.Grid
	movementTracker *ecs.DirtyTracker
}

// NewSteering returns a Steering system that paths against grid and
// activates movementTracker for any entity it plans a path for.
func NewSteering(grid *nav.Grid, movementTracker *ecs.DirtyTracker) *Steering {
	return &Steering{grid: grid, movementTracker: movementTracker}
}

// Tick plans a Path for every entity carrying an unformed, issued
// MoveOrder. A target inside impassable terrain is silently substituted
// with the nearest walkable cell by nav.FindPath; when no walkable cell is
// found within the spiral search radius, or the start lies outside the
// grid (TargetUnreachableError), Issued is cleared without forming a path,
// leaving the entity stationary. A walkable but enclosed target yields a
// partial path to the closest reachable cell, which is followed.
func (s *Steering) Tick(w *ecs.World) {
	q := ecs.NewQuery()
	node := q.And(components.MoveOrderC, components.PositionC, components.PathC, components.NavAgentC)
	cur := w.NewCursor(node)
	for cur.Next() {
		order := components.MoveOrderC.GetFromCursor(cur)
		if !order.Issued || order.Formed {
			continue
		}
		pos := components.PositionC.GetFromCursor(cur)
		sx, sz := s.grid.WorldToCell(pos.X, pos.Z)
		gx, gz := s.grid.WorldToCell(order.X, order.Z)

		path, err := nav.FindPath(s.grid, sx, sz, gx, gz)
		if err != nil {
			if _, unreachable := err.(nav.TargetUnreachableError); unreachable {
				order.Issued = false
				continue
			}
			// PathfindingExhaustedError still carries a usable closest-seen
			// partial path; fall through and follow it.
		}
		if len(path) == 0 {
			// nav.FindPath returns an empty path when the target is
			// directly visible from the start cell; steer straight at the
			// order's exact target instead of the nearest cell center.
			path = []components.Waypoint{{X: order.X, Z: order.Z}}
		}

		pc := components.PathC.GetFromCursor(cur)
		pc.Waypoints = path
		pc.Next = 0
		order.Formed = true
		order.Issued = false

		s.movementTracker.MarkDirty(cur.CurrentStore(), cur.CurrentRow())
	}
}
