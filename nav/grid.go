// Package nav provides the navigation grid and A* pathfinding used by the
// command/steering/movement systems, ported from original_source's
// Sample/systems/NavGrid.h, NavGridBuilderSystem.h, and
// PathfindingSystem.h.
package nav

import "fmt"

// Grid is a uniform walkability grid in world (x, z) space. Cell (0,0) is
// the grid's origin corner; CellSize converts between world meters and
// cell coordinates.
type Grid struct {
	Width, Height int
	CellSize      float32
	OriginX       float32
	OriginZ       float32

	blocked []bool // len Width*Height, true = impassable

	// touched/gScore/cameFrom/closed implement the original's
	// generation-stamped reuse of per-search scratch buffers: instead of
	// zeroing the whole grid before every A* call, each cell records the
	// search generation it was last touched in, and a cell is
	// "unvisited this search" iff its stamp doesn't match the current
	// generation. This turns an O(width*height) clear into an O(1) bump
	// per call.
	touched    []uint32
	gScore     []float32
	cameFrom   []int32
	closed     []bool
	generation uint32
}

// NewGrid returns a grid of the given cell dimensions with every cell
// walkable.
func NewGrid(width, height int, cellSize, originX, originZ float32) *Grid {
	n := width * height
	return &Grid{
		Width:    width,
		Height:   height,
		CellSize: cellSize,
		OriginX:  originX,
		OriginZ:  originZ,
		blocked:  make([]bool, n),
		touched:  make([]uint32, n),
		gScore:   make([]float32, n),
		cameFrom: make([]int32, n),
		closed:   make([]bool, n),
	}
}

func (g *Grid) index(x, z int) int { return z*g.Width + x }

// InBounds reports whether (x, z) is a valid cell coordinate.
func (g *Grid) InBounds(x, z int) bool {
	return x >= 0 && x < g.Width && z >= 0 && z < g.Height
}

// Blocked reports whether (x, z) is impassable. Out-of-bounds cells are
// always blocked.
func (g *Grid) Blocked(x, z int) bool {
	if !g.InBounds(x, z) {
		return true
	}
	return g.blocked[g.index(x, z)]
}

// SetBlocked marks (x, z) impassable or clears it.
func (g *Grid) SetBlocked(x, z int, blocked bool) {
	if !g.InBounds(x, z) {
		return
	}
	g.blocked[g.index(x, z)] = blocked
}

// ClearAll marks every cell walkable, used by the builder system at the
// start of each rebuild pass.
func (g *Grid) ClearAll() {
	for i := range g.blocked {
		g.blocked[i] = false
	}
}

// WorldToCell converts a world-space (x, z) position to the cell it falls
// in.
func (g *Grid) WorldToCell(x, z float32) (int, int) {
	cx := int((x - g.OriginX) / g.CellSize)
	cz := int((z - g.OriginZ) / g.CellSize)
	return cx, cz
}

// CellToWorld returns the world-space center of cell (x, z).
func (g *Grid) CellToWorld(x, z int) (float32, float32) {
	wx := g.OriginX + (float32(x)+0.5)*g.CellSize
	wz := g.OriginZ + (float32(z)+0.5)*g.CellSize
	return wx, wz
}

// beginSearch bumps the generation counter, invalidating every cell's
// scratch state from the previous search without touching the backing
// arrays.
func (g *Grid) beginSearch() uint32 {
	g.generation++
	if g.generation == 0 {
		// Wrapped after 2^32 searches: force a real clear once.
		for i := range g.touched {
			g.touched[i] = 0
		}
		g.generation = 1
	}
	return g.generation
}

// touch lazily initializes cell i's scratch state for the current search
// generation and reports whether it was already initialized.
func (g *Grid) touch(i int) (alreadyTouched bool) {
	if g.touched[i] == g.generation {
		return true
	}
	g.touched[i] = g.generation
	g.gScore[i] = 0
	g.cameFrom[i] = -1
	g.closed[i] = false
	return false
}

func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d @ %.2fm)", g.Width, g.Height, g.CellSize)
}
