package systems

import (
	"testing"

	"github.com/ironmarch/engine/components"
	"github.com/ironmarch/engine/config"
	"github.com/ironmarch/engine/ecs"
	"github.com/ironmarch/engine/nav"
)

func spawnAgent(t *testing.T, w *ecs.World, x, z float32) ecs.Entity {
	t.Helper()
	e, err := w.CreateEntity(
		components.PositionC,
		components.VelocityC,
		components.NavAgentC,
		components.PathC,
		components.MoveOrderC,
	)
	if err != nil {
		t.Fatalf("spawn agent: %v", err)
	}
	pos, _ := components.PositionC.GetFromEntity(w, e)
	pos.X, pos.Z = x, z
	return e
}

func TestSteeringAndMovementDriveAgentToTarget(t *testing.T) {
	w := ecs.NewWorld()
	grid := nav.NewGrid(40, 40, 1.0, 0, 0)
	cfg := config.Default()

	e := spawnAgent(t, w, 0, 0)
	order, _ := components.MoveOrderC.GetFromEntity(w, e)
	order.X, order.Z = 10, 0
	order.Issued = true

	movement := NewMovement(w, cfg, 5)
	steering := NewSteering(grid, movement.Tracker())

	reachedArrival := false
	for tick := 0; tick < 2000; tick++ {
		steering.Tick(w)
		movement.Tick(1.0 / 60.0)

		pos, err := components.PositionC.GetFromEntity(w, e)
		if err != nil {
			t.Fatalf("get position: %v", err)
		}
		dx := pos.X - 10
		if dx < 0 {
			dx = -dx
		}
		if dx <= cfg.ArrivalRadius && pos.Z == 0 {
			reachedArrival = true
			break
		}
	}
	if !reachedArrival {
		t.Fatalf("agent never reached target within tick budget")
	}
}

func TestMovementSetsAnimClipWhileMovingAndIdleOnArrival(t *testing.T) {
	w := ecs.NewWorld()
	cfg := config.Default()
	e, err := w.CreateEntity(
		components.PositionC,
		components.VelocityC,
		components.NavAgentC,
		components.PathC,
		components.MoveOrderC,
		components.AnimStateC,
	)
	if err != nil {
		t.Fatalf("spawn agent: %v", err)
	}
	path, _ := components.PathC.GetFromEntity(w, e)
	path.Waypoints = []components.Waypoint{{X: 5, Z: 0}}
	path.Next = 0

	movement := NewMovement(w, cfg, 1)
	movement.Tick(1.0 / 60.0)

	anim, err := components.AnimStateC.GetFromEntity(w, e)
	if err != nil {
		t.Fatalf("get anim state: %v", err)
	}
	if anim.Clip != "walk" {
		t.Errorf("clip = %q, want walk while mid-path", anim.Clip)
	}

	for tick := 0; tick < 2000 && path.Next < len(path.Waypoints); tick++ {
		movement.Tick(1.0)
		path, _ = components.PathC.GetFromEntity(w, e)
	}
	if anim.Clip != "idle" {
		t.Errorf("clip = %q, want idle once arrived", anim.Clip)
	}
}

func TestMovementStopsMarkingDirtyOnceArrived(t *testing.T) {
	w := ecs.NewWorld()
	cfg := config.Default()
	e := spawnAgent(t, w, 0, 0)
	path, _ := components.PathC.GetFromEntity(w, e)
	path.Waypoints = []components.Waypoint{{X: 0.1, Z: 0}}
	path.Next = 0

	movement := NewMovement(w, cfg, 5)
	store, _, err := w.StoreOf(e)
	if err != nil {
		t.Fatalf("store of: %v", err)
	}
	// The tracker pre-marks every existing matching row as dirty the first
	// time a tracker is created over it (first-consumer semantics), so the
	// first Tick should process and arrive in one step.
	movement.Tick(1.0)
	if rows := movement.Tracker().Consume(store); len(rows) != 0 {
		t.Errorf("expected no rows left dirty after arrival, got %v", rows)
	}
}
