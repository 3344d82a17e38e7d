package systems

import (
	"math"

	"github.com/ironmarch/engine/components"
	"github.com/ironmarch/engine/config"
	"github.com/ironmarch/engine/ecs"
)

// Movement integrates Position along the current Path waypoint for every
// entity its tracker reports dirty, re-marking rows that are still moving
// so they run again next tick and falling silent once an entity arrives -
// the dirty-bit-driven re-activation loop spec.md 4.11 describes. Grounded
// on original_source/Sample/systems/MovementSystem.h.
type Movement struct {
	tracker *ecs.DirtyTracker
	cfg     config.Config
	speed   float32
}

// NewMovement registers a DirtyTracker over every entity Steering can hand
// off to it and returns the Movement system built on top of it. speed is
// the uniform ground speed (meters/second) applied to every agent; a
// per-entity speed component is left for a later pass since nothing in
// the current scope needs heterogeneous unit speeds yet.
func NewMovement(w *ecs.World, cfg config.Config, speed float32) *Movement {
	q := ecs.NewQuery()
	node := q.And(components.NavAgentC, components.PositionC, components.VelocityC, components.PathC)
	return &Movement{tracker: w.NewDirtyTracker(node), cfg: cfg, speed: speed}
}

// Tracker exposes the underlying DirtyTracker so Steering can activate
// rows it just assigned a fresh Path to.
func (m *Movement) Tracker() *ecs.DirtyTracker {
	return m.tracker
}

// Tick advances every dirty row by at most speed*dt meters along its
// current waypoint, clamping to the distance left until ArrivalRadius so
// a fast unit or a long tick never overshoots past the waypoint in a
// single step.
func (m *Movement) Tick(dt float32) {
	for _, store := range m.tracker.Stores() {
		rows := m.tracker.Consume(store)
		for _, row := range rows {
			pos := components.PositionC.Get(store, row)
			vel := components.VelocityC.Get(store, row)
			path := components.PathC.Get(store, row)

			if path.Next >= len(path.Waypoints) {
				vel.X, vel.Z = 0, 0
				setAnimClip(store, row, "idle")
				continue
			}

			wp := path.Waypoints[path.Next]
			dx := wp.X - pos.X
			dz := wp.Z - pos.Z
			dist := float32(math.Hypot(float64(dx), float64(dz)))

			if dist <= m.cfg.ArrivalRadius {
				path.Next++
				vel.X, vel.Z = 0, 0
				if path.Next < len(path.Waypoints) {
					m.tracker.MarkDirty(store, row)
				} else {
					setAnimClip(store, row, "idle")
				}
				continue
			}

			remaining := dist - m.cfg.ArrivalRadius
			desiredSpeed := m.speed
			if got := remaining / dt; got < desiredSpeed {
				desiredSpeed = got
			}
			step := desiredSpeed * dt
			pos.X += dx / dist * step
			pos.Z += dz / dist * step
			vel.X = dx / dist * desiredSpeed
			vel.Z = dz / dist * desiredSpeed

			setAnimClip(store, row, "walk")
			m.tracker.MarkDirty(store, row)
		}
	}
}

// setAnimClip updates an entity's AnimState to a looping clip (walk/idle)
// at normal speed if it carries one. Most entities (obstacles, formless
// anchors) don't, so this is a no-op for them rather than a required
// component.
func setAnimClip(store *ecs.Store, row int, clip string) {
	if !components.AnimStateC.Has(store) {
		return
	}
	anim := components.AnimStateC.Get(store, row)
	anim.Clip = clip
	anim.Playing = true
	anim.Loop = true
	anim.Speed = 1
}
