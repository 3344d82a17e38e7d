package nav

import "fmt"

// PathfindingExhaustedError is returned when A* expands MaxExpansions
// nodes, or empties its open set, without reaching the goal (the latter
// is what happens when the goal sits in a fully enclosed pocket);
// FindPath falls back to the closest
// node seen so far rather than failing outright, but callers that need to
// know a search was truncated can check for this via errors.As on the
// returned diagnostic.
type PathfindingExhaustedError struct {
	Expansions int
	ClosestDist float32
}

func (e PathfindingExhaustedError) Error() string {
	return fmt.Sprintf("pathfinding exhausted after %d expansions, closest approach %.2f cells", e.Expansions, e.ClosestDist)
}

// TargetUnreachableError is returned when the start cell lies outside the
// grid, or when the goal cell is blocked and no walkable substitute exists
// within the spiral search radius. A goal that is walkable but enclosed
// yields PathfindingExhaustedError instead.
type TargetUnreachableError struct {
	StartX, StartZ int
	GoalX, GoalZ   int
}

func (e TargetUnreachableError) Error() string {
	return fmt.Sprintf("no path from (%d,%d) to (%d,%d)", e.StartX, e.StartZ, e.GoalX, e.GoalZ)
}
