package systems

import (
	"math"

	"github.com/ironmarch/engine/components"
	"github.com/ironmarch/engine/config"
	"github.com/ironmarch/engine/ecs"
)

// LocalAvoidance nudges overlapping agents apart each tick using the
// SpatialIndex's 3x3 neighborhood query instead of an all-pairs scan,
// porting original_source/Sample/systems/LocalAvoidanceSystem.h's
// impulse-based separation into the spatial-hash world this engine
// builds on.
type LocalAvoidance struct {
	index *SpatialIndex
	cfg   config.Config
}

// NewLocalAvoidance returns a LocalAvoidance system that queries idx for
// neighbor candidates; idx must be rebuilt (via Rebuild) before each Tick
// to reflect the current positions.
func NewLocalAvoidance(idx *SpatialIndex, cfg config.Config) *LocalAvoidance {
	return &LocalAvoidance{index: idx, cfg: cfg}
}

// Tick applies a separation impulse to every pair of overlapping agents
// found via the spatial index, scaled by cfg.SeparationStrength and the
// overlap depth. The index only ever holds NavAgent entities (Rebuild's
// query), so static Obstacles never push or get pushed here.
func (la *LocalAvoidance) Tick(w *ecs.World, dt float32) {
	q := ecs.NewQuery()
	node := q.And(components.NavAgentC, components.PositionC, components.RadiusC, components.VelocityC)
	cur := w.NewCursor(node)
	for cur.Next() {
		e := cur.CurrentEntity()
		pos := components.PositionC.GetFromCursor(cur)
		rad := components.RadiusC.GetFromCursor(cur)
		var sep float32
		if components.SeparationC.Has(cur.CurrentStore()) {
			sep = components.SeparationC.GetFromCursor(cur).Value
		}
		minGap := rad.R + sep

		var pushX, pushZ float32
		for _, other := range la.index.Neighbors(pos.X, pos.Z) {
			if other == e {
				continue
			}
			otherPos, err := components.PositionC.GetFromEntity(w, other)
			if err != nil {
				continue
			}
			otherRad, err := components.RadiusC.GetFromEntity(w, other)
			if err != nil {
				continue
			}
			dx := pos.X - otherPos.X
			dz := pos.Z - otherPos.Z
			dist := float32(math.Hypot(float64(dx), float64(dz)))
			wantGap := minGap + otherRad.R
			if dist >= wantGap || dist == 0 {
				if dist == 0 {
					dx, dz = 1, 0
					dist = 1
				} else {
					continue
				}
			}
			overlap := wantGap - dist
			pushX += dx / dist * overlap
			pushZ += dz / dist * overlap
		}

		if pushX == 0 && pushZ == 0 {
			continue
		}
		vel := components.VelocityC.GetFromCursor(cur)
		vel.X += pushX * la.cfg.SeparationStrength * dt
		vel.Z += pushZ * la.cfg.SeparationStrength * dt
		pos.X += pushX * la.cfg.SeparationStrength * dt
		pos.Z += pushZ * la.cfg.SeparationStrength * dt
	}
}
