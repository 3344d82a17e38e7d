package ecs

import (
	"fmt"
	"reflect"
)

// Prefab is a named template: a component signature plus a table of
// default values for a subset of those components, applied to every row
// spawned from it. This is the Go shape of original_source's
// Engine/include/ECS/Prefab.h, whose defaults table is a
// std::unordered_map<uint32_t, std::variant<...>> keyed by component id;
// Go has no closed variant type, so defaults are stored as `any` and
// applied via reflect.Value.Set the same way warehouse/entity.go's
// AddComponentWithValue matches an incoming value's reflect.Type against
// a column's element type before writing it.
type Prefab struct {
	Name       string
	Components []Component
	Defaults   map[ComponentID]any
}

// PrefabManager is a named registry of prefabs, validated at
// registration time so a malformed scenario or prefab file fails fast
// with a ConfigurationError rather than panicking mid-spawn.
type PrefabManager struct {
	byName map[string]*Prefab
}

// NewPrefabManager returns an empty registry.
func NewPrefabManager() *PrefabManager {
	return &PrefabManager{byName: make(map[string]*Prefab)}
}

// Register validates p (every default references a component in p's own
// signature, with a value of exactly that component's Go type) and adds
// it to the registry under p.Name, overwriting any existing prefab with
// that name.
func (m *PrefabManager) Register(p *Prefab) error {
	sig := make(map[ComponentID]Component, len(p.Components))
	for _, c := range p.Components {
		sig[c.ID()] = c
	}
	for id, val := range p.Defaults {
		c, ok := sig[id]
		if !ok {
			return ConfigurationError{Source: p.Name, Reason: fmt.Sprintf(
				"default given for component %q which is not in this prefab's signature", ComponentName(id))}
		}
		want := c.elemType()
		got := reflect.TypeOf(val)
		if got != want {
			return ConfigurationError{Source: p.Name, Reason: fmt.Sprintf(
				"default for component %q has type %s, want %s", ComponentName(id), got, want)}
		}
	}
	m.byName[p.Name] = p
	return nil
}

// Get looks up a prefab by name.
func (m *PrefabManager) Get(name string) (*Prefab, bool) {
	p, ok := m.byName[name]
	return p, ok
}

// SpawnResult describes where a freshly spawned entity landed.
type SpawnResult struct {
	Entity Entity
	Store  *Store
	Row    int
}

// SpawnFromPrefab creates one entity with p's component signature, applies
// every default value, and returns its location. This is the Go shape of
// spawnFromPrefab in original_source's PrefabSpawner.h: create entity,
// get/create the archetype store, create the row, apply defaults, attach
// to the entity table, mark dirty (the dirty mark happens inside
// World.CreateEntity itself).
func SpawnFromPrefab(w *World, p *Prefab) (SpawnResult, error) {
	e, err := w.CreateEntity(p.Components...)
	if err != nil {
		return SpawnResult{}, err
	}
	store, row, err := w.locate(e)
	if err != nil {
		return SpawnResult{}, err
	}
	for id, val := range p.Defaults {
		col, ok := store.columns[id]
		if !ok {
			return SpawnResult{}, ConfigurationError{Source: p.Name, Reason: fmt.Sprintf(
				"component %q missing from spawned archetype", ComponentName(id))}
		}
		col.Index(row).Set(reflect.ValueOf(val))
	}
	return SpawnResult{Entity: e, Store: store, Row: row}, nil
}
