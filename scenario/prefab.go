// Package scenario loads prefab and scenario JSON documents and spawns
// the entities they describe into an ecs.World, following the
// spawn-group formation algorithm original_source/Sample/src/
// ScenarioSpawner.cpp implements (spec.md 6, SPEC_FULL.md 6).
package scenario

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/ironmarch/engine/assets"
	"github.com/ironmarch/engine/components"
	"github.com/ironmarch/engine/ecs"
	"github.com/ironmarch/engine/ironlog"
)

type visualBlock struct {
	Model string `json:"model"`
}

// LoadPrefab decodes one prefab JSON document and registers it into pm
// under its own name. am may be nil if the document carries no visual
// block. Unknown component names and defaults whose value doesn't decode
// into the registered type are dropped with a warning rather than
// failing the whole file, matching spec.md 7's "reported once per bad
// file; loading continues" and "bad defaults are silently dropped after
// a validation pass (logged, not fatal)".
func LoadPrefab(data []byte, am assets.Manager, pm *ecs.PrefabManager) (*ecs.Prefab, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ecs.ConfigurationError{Source: "prefab", Reason: err.Error()}
	}

	var name string
	if v, ok := raw["name"]; ok {
		_ = json.Unmarshal(v, &name)
		delete(raw, "name")
	}
	if name == "" {
		return nil, ecs.ConfigurationError{Source: "prefab", Reason: "missing name"}
	}

	var componentNames []string
	if v, ok := raw["components"]; ok {
		if err := json.Unmarshal(v, &componentNames); err != nil {
			return nil, ecs.ConfigurationError{Source: name, Reason: "components: " + err.Error()}
		}
		delete(raw, "components")
	}

	var visual *visualBlock
	if v, ok := raw["visual"]; ok {
		visual = &visualBlock{}
		if err := json.Unmarshal(v, visual); err != nil {
			ironlog.Logger.WithField("prefab", name).Warnf("prefab visual block malformed: %v", err)
			visual = nil
		}
		delete(raw, "visual")
	}

	comps := make([]ecs.Component, 0, len(componentNames)+2)
	for _, cname := range componentNames {
		c, ok := ecs.ComponentByName(cname)
		if !ok {
			ironlog.Logger.WithField("prefab", name).Warnf("unknown component %q, dropping", cname)
			continue
		}
		comps = append(comps, c)
	}

	defaults := map[ecs.ComponentID]any{}
	for key, rawVal := range raw {
		c, ok := ecs.ComponentByName(key)
		if !ok {
			continue
		}
		typ, _ := ecs.ComponentType(c.ID())
		ptr := reflect.New(typ)
		if err := json.Unmarshal(rawVal, ptr.Interface()); err != nil {
			ironlog.Logger.WithField("prefab", name).Warnf("default for %q malformed, dropping: %v", key, err)
			continue
		}
		defaults[c.ID()] = ptr.Elem().Interface()
	}

	if visual != nil {
		if am == nil {
			ironlog.Logger.WithField("prefab", name).Warn("visual block present but no asset manager configured")
		} else if handle, ok := am.Resolve(visual.Model); ok {
			comps = append(comps, components.RenderModelC, components.RenderAnimationC)
			defaults[components.RenderModelC.ID()] = components.RenderModel{Handle: handle}
			defaults[components.RenderAnimationC.ID()] = components.RenderAnimation{}
		} else {
			ironlog.Logger.WithField("prefab", name).Warnf("unresolved model path %q", visual.Model)
		}
	}

	p := &ecs.Prefab{Name: name, Components: comps, Defaults: defaults}
	if err := pm.Register(p); err != nil {
		return nil, fmt.Errorf("prefab %q: %w", name, err)
	}
	return p, nil
}
