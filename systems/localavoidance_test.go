package systems

import (
	"math"
	"testing"

	"github.com/ironmarch/engine/components"
	"github.com/ironmarch/engine/config"
	"github.com/ironmarch/engine/ecs"
)

func spawnCircle(t *testing.T, w *ecs.World, x, z, radius float32) ecs.Entity {
	t.Helper()
	e, err := w.CreateEntity(components.PositionC, components.VelocityC, components.RadiusC, components.NavAgentC)
	if err != nil {
		t.Fatalf("spawn circle: %v", err)
	}
	pos, _ := components.PositionC.GetFromEntity(w, e)
	pos.X, pos.Z = x, z
	rad, _ := components.RadiusC.GetFromEntity(w, e)
	rad.R = radius
	return e
}

func TestLocalAvoidanceSeparatesOverlappingAgents(t *testing.T) {
	w := ecs.NewWorld()
	cfg := config.Default()
	idx := NewSpatialIndex(cfg.SpatialCellSize)

	a := spawnCircle(t, w, 0, 0, 1)
	b := spawnCircle(t, w, 0.5, 0, 1)

	avoidance := NewLocalAvoidance(idx, cfg)

	var distBefore, distAfter float32
	posA, _ := components.PositionC.GetFromEntity(w, a)
	posB, _ := components.PositionC.GetFromEntity(w, b)
	distBefore = dist2D(posA.X, posA.Z, posB.X, posB.Z)

	for i := 0; i < 30; i++ {
		Rebuild(w, idx)
		avoidance.Tick(w, 1.0/60.0)
	}

	distAfter = dist2D(posA.X, posA.Z, posB.X, posB.Z)
	if distAfter <= distBefore {
		t.Errorf("expected agents to separate, got distBefore=%v distAfter=%v", distBefore, distAfter)
	}
}

func TestLocalAvoidanceIgnoresNonOverlappingAgents(t *testing.T) {
	w := ecs.NewWorld()
	cfg := config.Default()
	idx := NewSpatialIndex(cfg.SpatialCellSize)

	a := spawnCircle(t, w, 0, 0, 0.5)
	b := spawnCircle(t, w, 100, 100, 0.5)

	avoidance := NewLocalAvoidance(idx, cfg)
	Rebuild(w, idx)
	avoidance.Tick(w, 1.0/60.0)

	velA, _ := components.VelocityC.GetFromEntity(w, a)
	velB, _ := components.VelocityC.GetFromEntity(w, b)
	if velA.X != 0 || velA.Z != 0 || velB.X != 0 || velB.Z != 0 {
		t.Errorf("expected no impulse for distant agents, got velA=%+v velB=%+v", velA, velB)
	}
}

func dist2D(x0, z0, x1, z1 float32) float32 {
	dx, dz := x0-x1, z0-z1
	return float32(math.Hypot(float64(dx), float64(dz)))
}
