package ecs

import "testing"

type pfPosition struct{ X, Y float32 }
type pfHealth struct{ HP int32 }

func TestPrefabRegisterRejectsMismatchedDefaultType(t *testing.T) {
	pos := Register[pfPosition]("PfPosition")
	hp := Register[pfHealth]("PfHealth")
	_ = hp

	m := NewPrefabManager()
	p := &Prefab{
		Name:       "bad",
		Components: []Component{pos},
		Defaults: map[ComponentID]any{
			pos.ID(): "not a position",
		},
	}
	if err := m.Register(p); err == nil {
		t.Fatalf("expected ConfigurationError for mismatched default type")
	}
}

func TestSpawnFromPrefabAppliesDefaults(t *testing.T) {
	w := NewWorld()
	pos := Register[pfPosition]("PfPosition2")
	hp := Register[pfHealth]("PfHealth2")

	m := NewPrefabManager()
	p := &Prefab{
		Name:       "soldier",
		Components: []Component{pos, hp},
		Defaults: map[ComponentID]any{
			pos.ID(): pfPosition{X: 1, Y: 2},
			hp.ID():  pfHealth{HP: 100},
		},
	}
	if err := m.Register(p); err != nil {
		t.Fatalf("register: %v", err)
	}

	got, ok := m.Get("soldier")
	if !ok {
		t.Fatalf("prefab not found")
	}

	result, err := SpawnFromPrefab(w, got)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}

	p2 := pos.Get(result.Store, result.Row)
	if p2.X != 1 || p2.Y != 2 {
		t.Errorf("position default not applied: %+v", p2)
	}
	h := hp.Get(result.Store, result.Row)
	if h.HP != 100 {
		t.Errorf("health default not applied: %+v", h)
	}
}
