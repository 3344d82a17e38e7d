package systems

import (
	"testing"

	"github.com/ironmarch/engine/components"
	"github.com/ironmarch/engine/config"
	"github.com/ironmarch/engine/ecs"
)

func spawnFighter(t *testing.T, w *ecs.World, team uint8, x, z float32) ecs.Entity {
	t.Helper()
	e, err := w.CreateEntity(
		components.PositionC,
		components.VelocityC,
		components.NavAgentC,
		components.TeamC,
		components.HealthC,
		components.AttackCooldownC,
		components.MoveOrderC,
		components.PathC,
	)
	if err != nil {
		t.Fatalf("spawn fighter: %v", err)
	}
	pos, _ := components.PositionC.GetFromEntity(w, e)
	pos.X, pos.Z = x, z
	tm, _ := components.TeamC.GetFromEntity(w, e)
	tm.ID = team
	hp, _ := components.HealthC.GetFromEntity(w, e)
	hp.Current, hp.Max = 100, 100
	cd, _ := components.AttackCooldownC.GetFromEntity(w, e)
	cd.Interval = 1.0
	return e
}

func TestCombatChargeDispatchesMoveOrderToClickPoint(t *testing.T) {
	w := ecs.NewWorld()
	cfg := config.Default()
	idx := NewSpatialIndex(cfg.SpatialCellSize)

	a := spawnFighter(t, w, 0, 0, 0)
	Rebuild(w, idx)
	combat := NewCombat(idx, cfg, 1)
	combat.StartBattle(50, 25)

	if err := combat.Tick(w, 1.0/60.0); err != nil {
		t.Fatalf("combat tick: %v", err)
	}
	order, err := components.MoveOrderC.GetFromEntity(w, a)
	if err != nil {
		t.Fatalf("get move order: %v", err)
	}
	if !order.Issued || order.X != 50 || order.Z != 25 {
		t.Errorf("expected leg-1 dispatch to click point, got %+v", order)
	}
}

func TestCombatPromotesNearClickToNearestEnemy(t *testing.T) {
	w := ecs.NewWorld()
	cfg := config.Default()
	idx := NewSpatialIndex(cfg.SpatialCellSize)

	attacker := spawnFighter(t, w, 0, 5.2, 5.0)
	enemy := spawnFighter(t, w, 1, 20, 20)

	order, _ := components.MoveOrderC.GetFromEntity(w, attacker)
	order.X, order.Z = 5, 5 // already en route to the click point
	order.Issued = true

	Rebuild(w, idx)
	combat := NewCombat(idx, cfg, 2)
	combat.StartBattle(5, 5) // attacker sits within PassRadius of this click

	if err := combat.Tick(w, 1.0/60.0); err != nil {
		t.Fatalf("combat tick: %v", err)
	}

	order, _ = components.MoveOrderC.GetFromEntity(w, attacker)
	enemyPos, _ := components.PositionC.GetFromEntity(w, enemy)
	if order.X != enemyPos.X || order.Z != enemyPos.Z {
		t.Errorf("expected promotion to redirect at the nearest enemy %+v, got order=%+v", enemyPos, order)
	}
}

func TestCombatMeleeDamageAndDelayedDeath(t *testing.T) {
	w := ecs.NewWorld()
	cfg := config.Default()
	cfg.MeleeRange = 5
	cfg.MissChance = 0
	cfg.CritChance = 0
	cfg.DamageMin = 1000
	cfg.DamageMax = 1000
	cfg.CooldownJitter = 0
	cfg.StaggerMax = 0
	cfg.DeathRemoveDelay = 2.0
	idx := NewSpatialIndex(cfg.SpatialCellSize)

	spawnFighter(t, w, 0, 0, 0)
	victim := spawnFighter(t, w, 1, 1, 0)

	Rebuild(w, idx)
	combat := NewCombat(idx, cfg, 3)
	combat.StartBattle(1, 0)

	if err := combat.Tick(w, 1.0/60.0); err != nil {
		t.Fatalf("combat tick: %v", err)
	}

	if !w.Valid(victim) {
		t.Fatalf("victim should still exist during its death delay, not be destroyed immediately")
	}
	store, _, err := w.StoreOf(victim)
	if err != nil {
		t.Fatalf("store of victim: %v", err)
	}
	if !components.DeadC.Has(store) {
		t.Fatalf("expected victim tagged Dead immediately after lethal damage")
	}

	for i := 0; i < 3; i++ {
		if err := combat.Tick(w, 1.0); err != nil {
			t.Fatalf("combat tick: %v", err)
		}
	}
	if w.Valid(victim) {
		t.Fatalf("expected victim to be removed once its death delay elapsed")
	}
}

func TestCombatExcludesDeadUnitsFromTargetAcquisition(t *testing.T) {
	w := ecs.NewWorld()
	cfg := config.Default()
	cfg.MeleeRange = 5
	cfg.MissChance = 0
	cfg.CritChance = 0
	cfg.DamageMin = 1000
	cfg.DamageMax = 1000
	cfg.StaggerMax = 0
	cfg.DeathRemoveDelay = 5.0
	idx := NewSpatialIndex(cfg.SpatialCellSize)

	attacker := spawnFighter(t, w, 0, 0, 0)
	victim := spawnFighter(t, w, 1, 1, 0)
	farEnemy := spawnFighter(t, w, 1, 100, 100)

	Rebuild(w, idx)
	combat := NewCombat(idx, cfg, 4)
	combat.StartBattle(1, 0)

	if err := combat.Tick(w, 1.0/60.0); err != nil {
		t.Fatalf("combat tick: %v", err)
	}
	store, _, err := w.StoreOf(victim)
	if err != nil {
		t.Fatalf("store of: %v", err)
	}
	if !components.DeadC.Has(store) {
		t.Fatalf("expected victim tagged Dead")
	}

	enemy, _, _, found := combat.findNearestEnemy(w, 0, 0, 0, attacker)
	if !found {
		t.Fatalf("expected the full-scan fallback to find the far living enemy")
	}
	if enemy != farEnemy {
		t.Errorf("expected the nearest living enemy to be the far one once the near one is Dead-tagged, got %v", enemy)
	}
}

func TestCombatRefreshesTeamStatsOnDamage(t *testing.T) {
	w := ecs.NewWorld()
	cfg := config.Default()
	cfg.MeleeRange = 5
	cfg.MissChance = 0
	cfg.CritChance = 0
	cfg.DamageMin = 10
	cfg.DamageMax = 10
	cfg.RageMaxBonus = 0
	cfg.StaggerMax = 0
	idx := NewSpatialIndex(cfg.SpatialCellSize)

	spawnFighter(t, w, 0, 0, 0)
	spawnFighter(t, w, 1, 1, 0)

	Rebuild(w, idx)
	combat := NewCombat(idx, cfg, 5)

	if err := combat.Tick(w, 0); err != nil {
		t.Fatalf("pre-battle tick: %v", err)
	}
	before := combat.Stats(1)
	if before.Alive != 1 || before.CurrentHP != 100 {
		t.Fatalf("expected stats refreshed even before battle starts, got %+v", before)
	}

	combat.StartBattle(1, 0)
	if err := combat.Tick(w, 1.0/60.0); err != nil {
		t.Fatalf("combat tick: %v", err)
	}
	after := combat.Stats(1)
	if after.CurrentHP != 90 {
		t.Errorf("expected team 1's current HP to drop to 90 after one guaranteed hit, got %v", after.CurrentHP)
	}
}
