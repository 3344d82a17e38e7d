package systems

import (
	"math"
	"math/rand/v2"

	"github.com/ironmarch/engine/components"
	"github.com/ironmarch/engine/config"
	"github.com/ironmarch/engine/ecs"
)

// TeamStats summarizes one team's current battle condition, refreshed by
// Combat only when statsDirty is set - a HUD or victory-condition check
// reads Stats(team) rather than re-deriving it from a full query every
// frame.
type TeamStats struct {
	Alive        int
	TotalSpawned int
	CurrentHP    float32
	MaxHP        float32
}

type pendingDeath struct {
	entity    ecs.Entity
	remaining float32
}

// Combat owns the battle's lifecycle - the two-leg charge toward a
// click point, per-unit melee resolution, the death queue, and team
// bookkeeping - for every living, non-Dead entity carrying the combat
// component set. Grounded on
// original_source/Sample/systems/CombatSystem.h's CombatSystem class,
// whose member fields (m_battleStarted, m_chargeActive, m_chargeIssued,
// m_deathQueue, m_teamStats, m_statsDirty) map directly onto this
// struct. Melee decisions are read in one cursor pass and the stops,
// moves, animations and damage they produce are applied once that cursor
// has released the world's iteration guard; newly dead units are likewise
// collected in a cursor pass and tagged Dead after it, since a World
// forbids row creation/destruction mid-cursor.
type Combat struct {
	index *SpatialIndex
	cfg   config.Config
	rng   *rand.Rand

	battleStarted bool
	staggered     bool
	chargeActive  bool
	chargeIssued  bool
	clickX        float32
	clickZ        float32

	deathQueue []pendingDeath
	deathSet   map[ecs.Entity]bool

	teamStats  map[uint8]*TeamStats
	statsDirty bool
}

// NewCombat returns a Combat system that finds targets via idx (which
// must be rebuilt each tick before Combat runs) and rolls hits from a
// deterministic source seeded from seed, so a recorded match replays
// identically.
func NewCombat(idx *SpatialIndex, cfg config.Config, seed uint64) *Combat {
	return &Combat{
		index:      idx,
		cfg:        cfg,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		deathSet:   make(map[ecs.Entity]bool),
		teamStats:  make(map[uint8]*TeamStats),
		statsDirty: true,
	}
}

// StartBattle begins the charge: every living unit gets an immediate
// move order toward (clickX, clickZ) on the next Tick, and units that
// pass within PassRadius of it before reaching melee range are promoted
// to chase the nearest enemy instead.
func (c *Combat) StartBattle(clickX, clickZ float32) {
	c.battleStarted = true
	c.chargeActive = true
	c.chargeIssued = false
	c.clickX, c.clickZ = clickX, clickZ
}

// Stats returns the most recently refreshed TeamStats for team, or a
// zero value if no unit on that team has ever been observed.
func (c *Combat) Stats(team uint8) TeamStats {
	if s, ok := c.teamStats[team]; ok {
		return *s
	}
	return TeamStats{}
}

// Tick advances the death queue, then - once a battle has started -
// stagger-initializes cooldowns on its first call, dispatches and
// promotes the charge, resolves every living unit's melee decision, and
// detects newly dead units. Team stats are refreshed at the end of any
// call in which statsDirty is set, whether or not a battle has started;
// statsDirty starts out set, so the first call already reports
// total_spawned/max_hp even before combat begins.
func (c *Combat) Tick(w *ecs.World, dt float32) error {
	if err := c.tickDeathQueue(w, dt); err != nil {
		return err
	}

	if c.battleStarted {
		if !c.staggered {
			c.staggerCooldowns(w)
			c.staggered = true
		}
		if c.chargeActive && !c.chargeIssued {
			c.issueClickTargets(w)
			c.chargeIssued = true
		}
		if c.chargeActive {
			c.promoteNearClick(w)
		}
		if err := c.resolveMelee(w, dt); err != nil {
			return err
		}
		if err := c.detectNewlyDead(w); err != nil {
			return err
		}
	}

	if c.statsDirty {
		c.refreshTeamStats(w)
		c.statsDirty = false
	}
	return nil
}

type stopAction struct {
	entity ecs.Entity
	yaw    float32
}

type moveAction struct {
	entity ecs.Entity
	tx, tz float32
	yaw    float32
}

type attackAnimAction struct {
	entity ecs.Entity
}

type damageAnimAction struct {
	target ecs.Entity
	crit   bool
}

type damageAction struct {
	target ecs.Entity
	amount float32
}

// resolveMelee runs the per-unit combat decision loop (spec step 4) and
// applies every deferred stop/move/anim/damage action it queued (step
// 5). During the decision loop the only component written is each unit's
// own AttackCooldown timer (decremented, and reset after a swing); every
// other write happens after the cursor walking the decision query has
// exhausted and released the world's iteration guard.
func (c *Combat) resolveMelee(w *ecs.World, dt float32) error {
	meleeRange2 := c.cfg.MeleeRange * c.cfg.MeleeRange

	var stops []stopAction
	var moves []moveAction
	var attackAnims []attackAnimAction
	var damageAnims []damageAnimAction
	var damages []damageAction

	q := ecs.NewQuery()
	node := q.And(
		components.PositionC, components.HealthC, components.VelocityC,
		components.TeamC, components.AttackCooldownC, components.NavAgentC,
		components.MoveOrderC, q.Not(components.DeadC),
	)
	cur := w.NewCursor(node)
	for cur.Next() {
		health := components.HealthC.GetFromCursor(cur)
		if health.Current <= 0 {
			continue
		}
		self := cur.CurrentEntity()
		pos := components.PositionC.GetFromCursor(cur)
		team := components.TeamC.GetFromCursor(cur)
		cooldown := components.AttackCooldownC.GetFromCursor(cur)
		order := components.MoveOrderC.GetFromCursor(cur)

		cooldown.Timer -= dt

		enemy, ex, ez, found := c.findNearestEnemy(w, pos.X, pos.Z, team.ID, self)
		if !found {
			if !c.chargeActive {
				stops = append(stops, stopAction{entity: self, yaw: currentYaw(w, self)})
			}
			continue
		}

		dx := ex - pos.X
		dz := ez - pos.Z
		dist2 := dx*dx + dz*dz
		yaw := currentYaw(w, self)
		if dist2 > 1e-6 {
			yaw = float32(math.Atan2(float64(dx), float64(dz)))
		}

		if dist2 <= meleeRange2 {
			c.chargeActive = false
			stops = append(stops, stopAction{entity: self, yaw: yaw})

			if cooldown.Timer <= 0 {
				jitter := 1 + (c.rng.Float32()*2-1)*c.cfg.CooldownJitter
				cooldown.Timer = cooldown.Interval * jitter
				attackAnims = append(attackAnims, attackAnimAction{entity: self})

				if c.rng.Float32() >= c.cfg.MissChance {
					base := c.cfg.DamageMin + c.rng.Float32()*(c.cfg.DamageMax-c.cfg.DamageMin)
					rage := 1 + c.cfg.RageMaxBonus*(1-clamp01(health.Current/c.cfg.MaxHPPerUnit))
					base *= rage
					crit := c.rng.Float32() < c.cfg.CritChance
					if crit {
						base *= c.cfg.CritMultiplier
					}
					damages = append(damages, damageAction{target: enemy, amount: base})
					damageAnims = append(damageAnims, damageAnimAction{target: enemy, crit: crit})
				}
			}
			continue
		}

		skipChase := false
		if c.chargeActive {
			tdx := order.X - c.clickX
			tdz := order.Z - c.clickZ
			skipChase = tdx*tdx+tdz*tdz < 1.0
		}
		if !skipChase {
			moves = append(moves, moveAction{entity: self, tx: ex, tz: ez, yaw: yaw})
		}
	}

	for _, s := range stops {
		if vel, err := components.VelocityC.GetFromEntity(w, s.entity); err == nil {
			vel.X, vel.Z = 0, 0
		}
		if mo, err := components.MoveOrderC.GetFromEntity(w, s.entity); err == nil {
			mo.Issued = false
		}
		setFacing(w, s.entity, s.yaw)
	}
	for _, mv := range moves {
		mo, err := components.MoveOrderC.GetFromEntity(w, mv.entity)
		if err != nil {
			continue
		}
		ddx := mo.X - mv.tx
		ddz := mo.Z - mv.tz
		moved := ddx*ddx+ddz*ddz > 4.0 || !mo.Issued
		if moved {
			mo.X, mo.Z = mv.tx, mv.tz
			mo.Issued = true
			mo.Formed = false
			if path, err := components.PathC.GetFromEntity(w, mv.entity); err == nil {
				path.Waypoints = nil
				path.Next = 0
			}
		}
		setFacing(w, mv.entity, mv.yaw)
		setAnimState(w, mv.entity, "run", true, true, 1)
	}
	for _, aa := range attackAnims {
		setAnimState(w, aa.entity, "attack", true, false, 1)
	}
	for _, d := range damages {
		health, err := components.HealthC.GetFromEntity(w, d.target)
		if err != nil {
			continue
		}
		health.Current -= d.amount
		c.statsDirty = true
	}
	for _, da := range damageAnims {
		health, err := components.HealthC.GetFromEntity(w, da.target)
		if err != nil || health.Current <= 0 {
			continue
		}
		speed := float32(1.0)
		if da.crit {
			speed = 1.4
		}
		setAnimState(w, da.target, "damage", true, false, speed)
	}
	return nil
}

// issueClickTargets is the charge's leg-1 dispatch: every living unit
// gets its MoveOrder pointed at the click point, regardless of where it
// currently stands.
func (c *Combat) issueClickTargets(w *ecs.World) {
	q := ecs.NewQuery()
	node := q.And(components.HealthC, components.MoveOrderC, q.Not(components.DeadC))
	cur := w.NewCursor(node)
	for cur.Next() {
		health := components.HealthC.GetFromCursor(cur)
		if health.Current <= 0 {
			continue
		}
		order := components.MoveOrderC.GetFromCursor(cur)
		order.X, order.Z = c.clickX, c.clickZ
		order.Issued = true
		order.Formed = false
	}
}

type promotion struct {
	entity ecs.Entity
	tx, tz float32
}

// promoteNearClick is the charge's leg-2 promotion: a unit still heading
// for the click point (its MoveOrder target hasn't been redirected by
// melee resolution) that has closed to within PassRadius of it gets
// re-pointed at its own nearest living enemy instead, with its Path
// invalidated so Steering replans toward the new target next tick.
func (c *Combat) promoteNearClick(w *ecs.World) {
	passRadius2 := c.cfg.PassRadius * c.cfg.PassRadius

	q := ecs.NewQuery()
	node := q.And(
		components.PositionC, components.TeamC, components.MoveOrderC,
		components.HealthC, q.Not(components.DeadC),
	)
	cur := w.NewCursor(node)
	var promos []promotion
	for cur.Next() {
		health := components.HealthC.GetFromCursor(cur)
		if health.Current <= 0 {
			continue
		}
		order := components.MoveOrderC.GetFromCursor(cur)
		tdx := order.X - c.clickX
		tdz := order.Z - c.clickZ
		if tdx*tdx+tdz*tdz >= 1.0 {
			continue // already redirected elsewhere
		}
		pos := components.PositionC.GetFromCursor(cur)
		pdx := pos.X - c.clickX
		pdz := pos.Z - c.clickZ
		if pdx*pdx+pdz*pdz > passRadius2 {
			continue
		}
		self := cur.CurrentEntity()
		team := components.TeamC.GetFromCursor(cur)
		if _, ex, ez, found := c.findNearestEnemy(w, pos.X, pos.Z, team.ID, self); found {
			promos = append(promos, promotion{entity: self, tx: ex, tz: ez})
		}
	}
	for _, p := range promos {
		order, err := components.MoveOrderC.GetFromEntity(w, p.entity)
		if err != nil {
			continue
		}
		order.X, order.Z = p.tx, p.tz
		order.Issued = true
		order.Formed = false
		if path, err := components.PathC.GetFromEntity(w, p.entity); err == nil {
			path.Waypoints = nil
			path.Next = 0
		}
	}
}

// detectNewlyDead scans every non-Dead entity with a Health for one that
// has just dropped to zero or below, queues its death animation, tags
// it Dead so every gameplay query excludes it from here on, and pushes
// it onto the death queue for DeathRemoveDelay seconds before actual
// removal.
func (c *Combat) detectNewlyDead(w *ecs.World) error {
	q := ecs.NewQuery()
	node := q.And(components.HealthC, q.Not(components.DeadC))
	cur := w.NewCursor(node)
	var newlyDead []ecs.Entity
	for cur.Next() {
		health := components.HealthC.GetFromCursor(cur)
		if health.Current > 0 {
			continue
		}
		e := cur.CurrentEntity()
		if c.deathSet[e] {
			continue
		}
		newlyDead = append(newlyDead, e)
	}

	for _, e := range newlyDead {
		if vel, err := components.VelocityC.GetFromEntity(w, e); err == nil {
			vel.X, vel.Z = 0, 0
		}
		if mo, err := components.MoveOrderC.GetFromEntity(w, e); err == nil {
			mo.Issued = false
		}
		setAnimState(w, e, "death", true, false, 1)
		if err := w.AddComponent(e, components.DeadC); err != nil {
			return err
		}
		c.deathQueue = append(c.deathQueue, pendingDeath{entity: e, remaining: c.cfg.DeathRemoveDelay})
		c.deathSet[e] = true
		c.statsDirty = true
	}
	return nil
}

// tickDeathQueue decrements every queued death's remaining time and
// swap-removes whichever have expired, reattaching the entity swap-moved
// into a processed slot's place (ecs.World.DestroyEntity already handles
// that at the component-storage level; this only keeps the queue itself
// compact via a swap-and-pop).
func (c *Combat) tickDeathQueue(w *ecs.World, dt float32) error {
	for i := 0; i < len(c.deathQueue); {
		c.deathQueue[i].remaining -= dt
		if c.deathQueue[i].remaining > 0 {
			i++
			continue
		}
		dead := c.deathQueue[i].entity
		last := len(c.deathQueue) - 1
		c.deathQueue[i] = c.deathQueue[last]
		c.deathQueue = c.deathQueue[:last]
		delete(c.deathSet, dead)
		if err := w.DestroyEntity(dead); err != nil {
			return err
		}
		// Don't advance i: the entry swapped into i still needs checking.
	}
	return nil
}

// refreshTeamStats recomputes Alive and CurrentHP for every team from
// scratch, and advances TotalSpawned to the new high-watermark of alive
// units if it grew. MaxHP is derived from TotalSpawned rather than
// tracked independently, so a team's max capacity only ever grows to
// match the largest force it has ever fielded.
func (c *Combat) refreshTeamStats(w *ecs.World) {
	for _, s := range c.teamStats {
		s.Alive = 0
		s.CurrentHP = 0
	}

	q := ecs.NewQuery()
	node := q.And(components.HealthC, components.TeamC, q.Not(components.DeadC))
	cur := w.NewCursor(node)
	for cur.Next() {
		health := components.HealthC.GetFromCursor(cur)
		if health.Current <= 0 {
			continue
		}
		team := components.TeamC.GetFromCursor(cur)
		s, ok := c.teamStats[team.ID]
		if !ok {
			s = &TeamStats{}
			c.teamStats[team.ID] = s
		}
		s.Alive++
		s.CurrentHP += health.Current
	}

	for _, s := range c.teamStats {
		if s.Alive > s.TotalSpawned {
			s.TotalSpawned = s.Alive
		}
		s.MaxHP = float32(s.TotalSpawned) * c.cfg.MaxHPPerUnit
	}
}

// staggerCooldowns randomizes every living unit's initial attack timer
// so a freshly spawned army doesn't land its first swing in lockstep.
// Runs once, on the first Tick after StartBattle.
func (c *Combat) staggerCooldowns(w *ecs.World) {
	q := ecs.NewQuery()
	node := q.And(components.AttackCooldownC, q.Not(components.DeadC))
	cur := w.NewCursor(node)
	for cur.Next() {
		cd := components.AttackCooldownC.GetFromCursor(cur)
		cd.Timer = c.rng.Float32() * c.cfg.StaggerMax
	}
}

// findNearestEnemy tries the spatial index's 3x3 neighborhood around
// (x, z) first; if that neighborhood holds no living enemy (the index
// cell is empty, or every occupant is on the same team or already dead),
// it falls back to a full scan of every Health+Team entity in the
// world, matching original_source's spatial-index-first-then-full-scan
// contract so a lone, far-flung enemy is never invisible just because
// the index happens to be sparse near the seeker.
func (c *Combat) findNearestEnemy(w *ecs.World, x, z float32, team uint8, self ecs.Entity) (enemy ecs.Entity, ex, ez float32, found bool) {
	if enemy, ex, ez, found = c.scanCandidates(w, c.index.Neighbors(x, z), x, z, team, self); found {
		return
	}
	return c.findNearestEnemyFullScan(w, x, z, team, self)
}

func (c *Combat) scanCandidates(w *ecs.World, candidates []ecs.Entity, x, z float32, team uint8, self ecs.Entity) (best ecs.Entity, bestX, bestZ float32, found bool) {
	bestDist := float32(math.MaxFloat32)
	for _, cand := range candidates {
		if cand == self {
			continue
		}
		candTeam, err := components.TeamC.GetFromEntity(w, cand)
		if err != nil || candTeam.ID == team {
			continue
		}
		store, _, err := w.StoreOf(cand)
		if err != nil || components.DeadC.Has(store) {
			continue
		}
		health, err := components.HealthC.GetFromEntity(w, cand)
		if err != nil || health.Current <= 0 {
			continue
		}
		candPos, err := components.PositionC.GetFromEntity(w, cand)
		if err != nil {
			continue
		}
		dx := candPos.X - x
		dz := candPos.Z - z
		dist := dx*dx + dz*dz
		if dist < bestDist {
			bestDist = dist
			best, bestX, bestZ, found = cand, candPos.X, candPos.Z, true
		}
	}
	return
}

func (c *Combat) findNearestEnemyFullScan(w *ecs.World, x, z float32, team uint8, self ecs.Entity) (best ecs.Entity, bestX, bestZ float32, found bool) {
	bestDist := float32(math.MaxFloat32)
	q := ecs.NewQuery()
	node := q.And(components.PositionC, components.HealthC, components.TeamC, q.Not(components.DeadC))
	cur := w.NewCursor(node)
	for cur.Next() {
		cand := cur.CurrentEntity()
		if cand == self {
			continue
		}
		candTeam := components.TeamC.GetFromCursor(cur)
		if candTeam.ID == team {
			continue
		}
		health := components.HealthC.GetFromCursor(cur)
		if health.Current <= 0 {
			continue
		}
		candPos := components.PositionC.GetFromCursor(cur)
		dx := candPos.X - x
		dz := candPos.Z - z
		dist := dx*dx + dz*dz
		if dist < bestDist {
			bestDist = dist
			best, bestX, bestZ, found = cand, candPos.X, candPos.Z, true
		}
	}
	return
}

func currentYaw(w *ecs.World, e ecs.Entity) float32 {
	f, err := components.FacingC.GetFromEntity(w, e)
	if err != nil {
		return 0
	}
	return f.Yaw
}

func setFacing(w *ecs.World, e ecs.Entity, yaw float32) {
	f, err := components.FacingC.GetFromEntity(w, e)
	if err != nil {
		return
	}
	f.Yaw = yaw
}

func setAnimState(w *ecs.World, e ecs.Entity, clip string, playing, loop bool, speed float32) {
	a, err := components.AnimStateC.GetFromEntity(w, e)
	if err != nil {
		return
	}
	a.Clip = clip
	a.Playing = playing
	a.Loop = loop
	a.Speed = speed
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
