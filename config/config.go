// Package config holds the engine's runtime tunables, promoted from
// original_source's compile-time constants into a single overridable
// value the way warehouse/config.go promotes table event callbacks into a
// package-level Config, so cmd/ironmarch can expose them as flags instead
// of requiring a recompile.
package config

// Config holds every tunable that original_source hard-codes as a
// constant scattered across its systems headers.
type Config struct {
	// TickRate is the fixed simulation step rate in Hz.
	TickRate float32

	// ArrivalRadius is how close (meters) a moving entity must get to its
	// current waypoint before Movement advances to the next one, and the
	// distance within which Movement clamps velocity to avoid
	// overshooting in a single tick.
	ArrivalRadius float32

	// PassRadius is the distance (meters) within which an entity on leg 1
	// of a charge (heading to the click point) is promoted to leg 2
	// (heading to its actual target). Must exceed ArrivalRadius, or a
	// fast-moving entity can step clean over the promotion radius in one
	// tick without ever registering it.
	PassRadius float32

	// SeparationStrength scales the per-tick impulse LocalAvoidance
	// applies when two entities' radii overlap.
	SeparationStrength float32

	// SpatialCellSize is the edge length (meters) of one spatial hash
	// grid cell.
	SpatialCellSize float32

	// MeleeRange is the distance (meters) within which Combat considers
	// an enemy in melee and stops chasing it.
	MeleeRange float32

	// DamageMin and DamageMax bound the uniform base damage roll for a
	// successful attack, before the rage bonus and any crit multiplier.
	DamageMin float32
	DamageMax float32

	// DeathRemoveDelay is how long (seconds) a unit with Current <= 0 HP
	// lingers, tagged Dead and excluded from gameplay queries, before
	// Combat actually swap-removes it - long enough for a death
	// animation to play out.
	DeathRemoveDelay float32

	// MaxHPPerUnit is the uniform per-unit maximum HP used both for
	// team_stats' max_hp bookkeeping and as the denominator of the rage
	// bonus calculation, matching original_source's global constant
	// rather than a per-entity Health.Max.
	MaxHPPerUnit float32

	// MissChance and CritChance are the probability (0..1) an attack
	// roll whiffs entirely or lands a critical hit.
	MissChance  float32
	CritChance  float32

	// CritMultiplier scales a critical hit's damage.
	CritMultiplier float32

	// RageMaxBonus is the maximum fractional damage bonus (at 0 HP
	// remaining) granted by the "wounded units hit harder" rage curve.
	RageMaxBonus float32

	// CooldownJitter randomizes each reset attack cooldown by up to this
	// fraction in either direction, so a formation's attacks don't all
	// land on the same tick.
	CooldownJitter float32

	// StaggerMax bounds the random initial cooldown offset applied to
	// every unit's AttackCooldown.Timer the first time Combat ticks, so
	// a freshly spawned army doesn't swing its first attack in lockstep.
	StaggerMax float32
}

// Default returns the tunables original_source ships as constants.
func Default() Config {
	return Config{
		TickRate:           60,
		ArrivalRadius:      0.5,
		PassRadius:         1.5,
		SeparationStrength: 2.0,
		SpatialCellSize:    4.0,
		MeleeRange:         2.0,
		DamageMin:          12.0,
		DamageMax:          28.0,
		DeathRemoveDelay:   3.0,
		MaxHPPerUnit:       140.0,
		MissChance:         0.20,
		CritChance:         0.10,
		CritMultiplier:     2.0,
		RageMaxBonus:       0.50,
		CooldownJitter:     0.30,
		StaggerMax:         0.6,
	}
}
