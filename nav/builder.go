package nav

import (
	"math"

	"github.com/ironmarch/engine/components"
	"github.com/ironmarch/engine/ecs"
)

// BuildFromObstacles rebuilds grid's walkability from scratch, marking
// blocked every cell whose center falls within an Obstacle entity's
// Radius. This is the Go shape of NavGridBuilderSystem.h, which reruns
// the full rebuild every tick rather than patching incrementally, since
// obstacle placement in this sample is static after scenario load and the
// grid is small enough that a full pass is cheap.
func BuildFromObstacles(w *ecs.World, grid *Grid) {
	grid.ClearAll()

	q := ecs.NewQuery()
	node := q.And(components.ObstacleC, components.PositionC, components.RadiusC)
	cur := w.NewCursor(node)
	for cur.Next() {
		pos := components.PositionC.GetFromCursor(cur)
		rad := components.RadiusC.GetFromCursor(cur)
		markCircleBlocked(grid, pos.X, pos.Z, rad.R)
	}
}

func markCircleBlocked(grid *Grid, worldX, worldZ, radius float32) {
	minX, minZ := grid.WorldToCell(worldX-radius, worldZ-radius)
	maxX, maxZ := grid.WorldToCell(worldX+radius, worldZ+radius)
	r2 := radius * radius
	for z := minZ; z <= maxZ; z++ {
		for x := minX; x <= maxX; x++ {
			if !grid.InBounds(x, z) {
				continue
			}
			cx, cz := grid.CellToWorld(x, z)
			dx := cx - worldX
			dz := cz - worldZ
			if float64(dx*dx+dz*dz) <= float64(r2) {
				grid.SetBlocked(x, z, true)
			}
		}
	}
}

// nearestWalkable finds the closest walkable cell to (x, z) using an
// expanding ring search, the spiral search original_source's
// PathfindingSystem.h falls back to when a requested target cell is
// blocked.
func nearestWalkable(grid *Grid, x, z int, maxRadius int) (int, int, bool) {
	if !grid.Blocked(x, z) {
		return x, z, true
	}
	for r := 1; r <= maxRadius; r++ {
		best := [2]int{}
		bestDist := math.MaxFloat64
		found := false
		for dz := -r; dz <= r; dz++ {
			for dx := -r; dx <= r; dx++ {
				if maxAbs(dx, dz) != r {
					continue // only the ring at exactly radius r
				}
				cx, cz := x+dx, z+dz
				if grid.Blocked(cx, cz) {
					continue
				}
				d := float64(dx*dx + dz*dz)
				if d < bestDist {
					bestDist = d
					best = [2]int{cx, cz}
					found = true
				}
			}
		}
		if found {
			return best[0], best[1], true
		}
	}
	return x, z, false
}

func maxAbs(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a > b {
		return a
	}
	return b
}
