// Package components declares every gameplay component type shared across
// the nav, systems, and scenario packages and registers each one with the
// ecs package exactly once at package init. Keeping the vocabulary in one
// place mirrors original_source's Engine/include/ECS/Components.h, which
// plays the same role for the C++ sample.
package components

import (
	"github.com/ironmarch/engine/assets"
	"github.com/ironmarch/engine/ecs"
)

// Position is the entity's ground-plane location; Y is height above the
// ground plane and is zero for every unit in this sample (spec.md carries
// no terrain elevation).
type Position struct {
	X, Y, Z float32
}

// Velocity is the entity's current ground-plane velocity in meters/second.
type Velocity struct {
	X, Z float32
}

// Radius is the entity's collision/formation radius in meters.
type Radius struct {
	R float32
}

// Separation is the minimum additional gap, beyond the sum of two
// entities' radii, local avoidance tries to maintain; "auto" formation
// spacing in scenario files also adds it.
type Separation struct {
	Value float32
}

// Health tracks current and maximum hit points.
type Health struct {
	Current, Max float32
}

// Team identifies which side an entity fights for; combat only resolves
// hits between entities on different teams.
type Team struct {
	ID uint8
}

// Selected is a tag marking a unit as currently player-selected.
type Selected struct{}

// Obstacle is a tag marking a static entity that the nav grid builder
// should carve out of the walkable area.
type Obstacle struct{}

// NavAgent is a tag marking an entity as eligible for pathfinding and
// steering (as opposed to static scenery).
type NavAgent struct{}

// Waypoint is one world-space point along a smoothed path.
type Waypoint struct {
	X, Z float32
}

// Path holds the current smoothed route for a moving entity plus the
// index of the next waypoint to steer toward.
type Path struct {
	Waypoints []Waypoint
	Next      int
}

// MoveOrder is the destination most recently issued by the command
// system; steering consumes it to (re)plan a Path.
type MoveOrder struct {
	X, Z    float32
	Issued  bool
	Formed  bool // true once this entity's slot in a group formation has been computed
	OffsetX float32
	OffsetZ float32
}

// AttackCooldown tracks an entity's per-unit attack rate: Interval is the
// base seconds between swings (a prefab-authored stat, since units may
// attack at different speeds), and Timer counts down from Interval
// (jittered) to zero, at which point Combat allows another swing. The
// charge/target-acquisition state the original's AttackOrder modeled
// per-entity now lives on the Combat system itself (battle_started,
// charge_active, battle_click) rather than as a component, since
// spec.md 4.13 describes one battle shared by every living unit, not a
// per-unit order a caller has to remember to attach.
type AttackCooldown struct {
	Timer    float32
	Interval float32
}

// Dead tags an entity that has been struck down but not yet removed: it
// sits in the death queue for config.DeathRemoveDelay seconds (playing a
// death animation) before Combat swap-removes it. Tagged so every
// gameplay query can exclude it with q.Not(DeadC) without having to
// special-case a Health.Current <= 0 check everywhere.
type Dead struct{}

// Facing holds an entity's yaw (radians, measured from +Z toward +X) for
// render-side orientation. Optional: components not carrying Facing are
// simply never turned to face anything.
type Facing struct {
	Yaw float32
}

// AnimState names the animation clip a render-side system should be
// playing plus enough playback state (Playing, Loop, Speed) for Combat to
// drive one-shot attack/damage/death clips distinctly from Movement's
// looping walk/idle clips; ironmarch has no renderer, so this is carried
// purely as data for the asset-manager interface boundary (SPEC_FULL.md
// 6).
type AnimState struct {
	Clip    string
	Playing bool
	Loop    bool
	Speed   float32
}

// RenderModel holds the resolved asset handle for a prefab's visual
// block. Added to an entity's signature only when the prefab JSON that
// spawned it declares a visual.model path that the asset manager could
// resolve.
type RenderModel struct {
	Handle assets.Handle
}

// RenderAnimation names a default animation clip, distinct from
// AnimState's runtime-mutated clip. The prefab visual block carries no
// clip name, so LoadPrefab always sets it to the zero value.
type RenderAnimation struct {
	Clip string
}

var (
	// PositionC etc. are the registered, typed accessors for every
	// component above, resolved once at init so the rest of the engine
	// can import them as package-level values.
	PositionC       = ecs.Register[Position]("Position")
	VelocityC       = ecs.Register[Velocity]("Velocity")
	RadiusC         = ecs.Register[Radius]("Radius")
	SeparationC     = ecs.Register[Separation]("Separation")
	HealthC         = ecs.Register[Health]("Health")
	TeamC           = ecs.Register[Team]("Team")
	SelectedC       = ecs.Register[Selected]("Selected")
	ObstacleC       = ecs.Register[Obstacle]("Obstacle")
	NavAgentC       = ecs.Register[NavAgent]("NavAgent")
	PathC           = ecs.Register[Path]("Path")
	MoveOrderC      = ecs.Register[MoveOrder]("MoveOrder")
	AttackCooldownC = ecs.Register[AttackCooldown]("AttackCooldown")
	DeadC           = ecs.Register[Dead]("Dead")
	FacingC         = ecs.Register[Facing]("Facing")
	AnimStateC      = ecs.Register[AnimState]("AnimState")

	RenderModelC     = ecs.Register[RenderModel]("RenderModel")
	RenderAnimationC = ecs.Register[RenderAnimation]("RenderAnimation")
)
