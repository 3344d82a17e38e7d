package nav

import (
	"container/heap"
	"math"

	"github.com/ironmarch/engine/components"
)

// Tunables matching original_source/Sample/systems/PathfindingSystem.h's
// compile-time constants; exposed as package variables (not consts) so
// they can be overridden at runtime. They are not fields of config.Config,
// and cmd/ironmarch does not set them.
var (
	// Epsilon inflates the heuristic for weighted A*, trading optimality
	// for fewer node expansions.
	Epsilon float32 = 1.2
	// MaxExpansions caps how many nodes a single search will pop before
	// giving up and returning the closest node seen so far.
	MaxExpansions = 4000
	// MaxLookahead bounds how many waypoints ahead string-pulling will
	// attempt to skip to in one step.
	MaxLookahead = 16
	// SpiralSearchRadius bounds how far nearestWalkable will search for a
	// walkable substitute when a requested endpoint is blocked.
	SpiralSearchRadius = 10
)

var neighborOffsets = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

func octile(dx, dz int) float32 {
	fx, fz := math.Abs(float64(dx)), math.Abs(float64(dz))
	lo, hi := math.Min(fx, fz), math.Max(fx, fz)
	return float32(hi-lo) + float32(math.Sqrt2)*float32(lo)
}

type openItem struct {
	cell int
	f    float32
}

type openHeap []openItem

func (h openHeap) Len() int            { return len(h) }
func (h openHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h openHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *openHeap) Push(x interface{}) { *h = append(*h, x.(openItem)) }
func (h *openHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// FindPath runs weighted A* (octile heuristic, epsilon-inflated) from
// (startX, startZ) to (goalX, goalZ), both in grid cell coordinates, and
// returns a string-pulled sequence of world-space waypoints. If the goal
// cell is blocked, the nearest walkable cell within SpiralSearchRadius is
// substituted. If the start can already see the goal in a straight line,
// an empty path is returned (count == 0 means "target is directly
// visible, steer straight", per the caller's contract) without running
// A* at all. If the search exhausts MaxExpansions or empties its open set
// without reaching the goal, the path to the closest node seen is
// returned together with a PathfindingExhaustedError, so the caller can
// decide whether to accept the partial path.
func FindPath(grid *Grid, startX, startZ, goalX, goalZ int) ([]components.Waypoint, error) {
	if !grid.InBounds(startX, startZ) {
		return nil, TargetUnreachableError{StartX: startX, StartZ: startZ, GoalX: goalX, GoalZ: goalZ}
	}
	gx, gz, ok := nearestWalkable(grid, goalX, goalZ, SpiralSearchRadius)
	if !ok {
		return nil, TargetUnreachableError{StartX: startX, StartZ: startZ, GoalX: goalX, GoalZ: goalZ}
	}

	if hasLineOfSight(grid, startX, startZ, gx, gz) {
		return nil, nil
	}

	grid.beginSearch()
	startIdx := grid.index(startX, startZ)
	goalIdx := grid.index(gx, gz)
	grid.touch(startIdx)
	grid.gScore[startIdx] = 0

	open := &openHeap{{cell: startIdx, f: Epsilon * octile(gx-startX, gz-startZ)}}
	heap.Init(open)

	expansions := 0
	closestIdx := startIdx
	closestH := octile(gx-startX, gz-startZ)

	for open.Len() > 0 && expansions < MaxExpansions {
		cur := heap.Pop(open).(openItem)
		curIdx := cur.cell
		if grid.closed[curIdx] {
			continue
		}
		grid.closed[curIdx] = true
		expansions++

		cx, cz := curIdx%grid.Width, curIdx/grid.Width
		h := octile(gx-cx, gz-cz)
		if h < closestH {
			closestH = h
			closestIdx = curIdx
		}
		if curIdx == goalIdx {
			return buildPath(grid, startIdx, goalIdx)
		}

		for _, off := range neighborOffsets {
			nx, nz := cx+off[0], cz+off[1]
			if !grid.InBounds(nx, nz) || grid.Blocked(nx, nz) {
				continue
			}
			// No corner squeezing: a diagonal move is only legal if
			// both orthogonal cells adjacent to it are walkable.
			if off[0] != 0 && off[1] != 0 {
				if grid.Blocked(cx+off[0], cz) || grid.Blocked(cx, cz+off[1]) {
					continue
				}
			}
			nIdx := grid.index(nx, nz)
			if grid.touched[nIdx] == grid.generation && grid.closed[nIdx] {
				continue
			}
			step := float32(1.0)
			if off[0] != 0 && off[1] != 0 {
				step = float32(math.Sqrt2)
			}
			wasTouched := grid.touch(nIdx)
			tentative := grid.gScore[curIdx] + step
			if !wasTouched || tentative < grid.gScore[nIdx] {
				grid.gScore[nIdx] = tentative
				grid.cameFrom[nIdx] = int32(curIdx)
				f := tentative + Epsilon*octile(gx-nx, gz-nz)
				heap.Push(open, openItem{cell: nIdx, f: f})
			}
		}
	}

	path, err := buildPath(grid, startIdx, closestIdx)
	if err != nil {
		return nil, err
	}
	return path, PathfindingExhaustedError{Expansions: expansions, ClosestDist: closestH}
}

func buildPath(grid *Grid, startIdx, goalIdx int) ([]components.Waypoint, error) {
	cells := []int{goalIdx}
	cur := goalIdx
	for cur != startIdx {
		prev := grid.cameFrom[cur]
		if prev < 0 {
			return nil, TargetUnreachableError{}
		}
		cur = int(prev)
		cells = append(cells, cur)
	}
	// cells is goal->start; reverse to start->goal.
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}
	return stringPull(grid, cells), nil
}

// stringPull collapses a cell-by-cell path into the fewest waypoints that
// preserve line of sight, capped by MaxLookahead cells per step, following
// original_source's bounded string-pulling pass.
func stringPull(grid *Grid, cells []int) []components.Waypoint {
	if len(cells) == 0 {
		return nil
	}
	out := make([]components.Waypoint, 0, len(cells))
	i := 0
	for i < len(cells) {
		cx, cz := cells[i]%grid.Width, cells[i]/grid.Width
		wx, wz := grid.CellToWorld(cx, cz)
		out = append(out, components.Waypoint{X: wx, Z: wz})

		next := i + 1
		limit := i + MaxLookahead
		if limit > len(cells)-1 {
			limit = len(cells) - 1
		}
		for j := limit; j > i+1; j-- {
			ax, az := cells[i]%grid.Width, cells[i]/grid.Width
			bx, bz := cells[j]%grid.Width, cells[j]/grid.Width
			if hasLineOfSight(grid, ax, az, bx, bz) {
				next = j
				break
			}
		}
		i = next
	}
	return out
}

// hasLineOfSight walks a grid-space Bresenham line between two cells and
// reports whether every cell it passes through is walkable.
func hasLineOfSight(grid *Grid, x0, z0, x1, z1 int) bool {
	dx := abs(x1 - x0)
	dz := -abs(z1 - z0)
	sx := sign(x1 - x0)
	sz := sign(z1 - z0)
	err := dx + dz
	x, z := x0, z0
	for {
		if grid.Blocked(x, z) {
			return false
		}
		if x == x1 && z == z1 {
			return true
		}
		e2 := 2 * err
		if e2 >= dz {
			err += dz
			x += sx
		}
		if e2 <= dx {
			err += dx
			z += sz
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
