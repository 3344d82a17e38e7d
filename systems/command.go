package systems

import (
	"math"

	"github.com/ironmarch/engine/components"
	"github.com/ironmarch/engine/ecs"
	"github.com/ironmarch/engine/nav"
)

// Command turns a single pending player move order into per-unit
// MoveOrders for every Selected-tagged unit, arranged in a square
// formation around the target. Grounded on
// original_source/Sample/systems/CommandSystem.h's SetGlobalMoveTarget/
// update pair, with one deliberate departure: the original groups
// selected units per archetype store (a C++ storage-layout quirk of how
// its ECS batches SetGlobalMoveTarget calls), while this port forms one
// combined square across every Selected unit regardless of which store
// backs it, matching spec.md 4.9's literal "arranges all units with the
// Selected tag into a square grid around the target".
type Command struct {
	pending            bool
	pendingX, pendingZ float32
	minX, minZ         float32
	maxX, maxZ         float32
}

// formationSpacing is the fixed gap (meters) between adjacent slots in
// the selection's square grid.
const formationSpacing = 0.5

// NewCommand returns a Command system that clamps every dispatched order
// to grid's world extent.
func NewCommand(grid *nav.Grid) *Command {
	return &Command{
		minX: grid.OriginX,
		minZ: grid.OriginZ,
		maxX: grid.OriginX + float32(grid.Width)*grid.CellSize,
		maxZ: grid.OriginZ + float32(grid.Height)*grid.CellSize,
	}
}

// SetPendingMove records a group move order to be dispatched on the next
// Tick. A second call before Tick runs simply overwrites the pending
// target; there is only ever one outstanding global move order.
func (c *Command) SetPendingMove(x, z float32) {
	c.pending = true
	c.pendingX, c.pendingZ = x, z
}

// Tick dispatches the pending move order, if any, to every entity
// carrying Selected, arranging them into a single square grid (side
// ceil(sqrt(n)), formationSpacing apart) centered on the order's target,
// clamping each unit's resulting target to the navigation grid's world
// bounds, and clears the pending order once dispatched.
func (c *Command) Tick(w *ecs.World) {
	if !c.pending {
		return
	}
	c.pending = false

	q := ecs.NewQuery()
	node := q.And(components.SelectedC, components.MoveOrderC, components.NavAgentC)
	cur := w.NewCursor(node)
	n := cur.TotalMatched()
	if n == 0 {
		return
	}

	side := int(math.Ceil(math.Sqrt(float64(n))))
	half := (float32(side) - 1) * 0.5

	i := 0
	for cur.Next() {
		col := i % side
		row := i / side
		i++

		offX := (float32(col) - half) * formationSpacing
		offZ := (float32(row) - half) * formationSpacing

		order := components.MoveOrderC.GetFromCursor(cur)
		order.X = clampf(c.pendingX+offX, c.minX, c.maxX)
		order.Z = clampf(c.pendingZ+offZ, c.minZ, c.maxZ)
		order.OffsetX = offX
		order.OffsetZ = offZ
		order.Issued = true
		order.Formed = false
	}
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
