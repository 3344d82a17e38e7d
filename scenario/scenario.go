package scenario

import (
	"encoding/json"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/ironmarch/engine/components"
	"github.com/ironmarch/engine/config"
	"github.com/ironmarch/engine/ecs"
	"github.com/ironmarch/engine/ironlog"
)

// StartZone marks the circular region a scenario document calls out for
// e.g. a camera's initial focus or a "no spawns here" rule; ironmarch's
// tick loop doesn't interpret it itself, it's surfaced to the caller.
type StartZone struct {
	X, Z, Radius float32
}

// Scenario is the result of loading and spawning a scenario document.
type Scenario struct {
	Name      string
	StartZone StartZone
}

type anchorDef struct {
	X float32 `json:"x"`
	Z float32 `json:"z"`
}

type offsetDef struct {
	X float32 `json:"x"`
	Z float32 `json:"z"`
}

type formationDef struct {
	Kind     string          `json:"kind"`
	Columns  int             `json:"columns"`
	RadiusM  float32         `json:"radius_m"`
	SpacingM json.RawMessage `json:"spacing_m"`
	JitterM  float32         `json:"jitter_m"`
}

type spawnGroupDef struct {
	ID        string       `json:"id"`
	UnitType  string       `json:"unitType"`
	Count     int          `json:"count"`
	Anchor    string       `json:"anchor"`
	Offset    offsetDef    `json:"offset"`
	Formation formationDef `json:"formation"`
}

type combatTuning struct {
	PassRadius         *float32 `json:"passRadius"`
	SeparationStrength *float32 `json:"separationStrength"`
	ArrivalRadius      *float32 `json:"arrivalRadius"`
}

type scenarioFile struct {
	Name        string                   `json:"name"`
	Anchors     map[string]anchorDef     `json:"anchors"`
	SpawnGroups []spawnGroupDef          `json:"spawnGroups"`
	Combat      combatTuning             `json:"combat"`
	StartZone struct {
		X      float32 `json:"x"`
		Z      float32 `json:"z"`
		Radius float32 `json:"radius"`
	} `json:"startZone"`
}

// SpawnFromFile parses a scenario JSON document, spawns every spawn
// group's units from pm, and applies any combat tuning overrides present
// in the document to cfg (nil cfg skips tuning). A group naming an
// unknown anchor or unregistered unit type is skipped with a warning;
// the rest of the file still loads, per spec.md 7.
func SpawnFromFile(data []byte, w *ecs.World, pm *ecs.PrefabManager, cfg *config.Config) (*Scenario, error) {
	var doc scenarioFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ecs.ConfigurationError{Source: "scenario", Reason: err.Error()}
	}

	if cfg != nil {
		applyTuning(cfg, doc.Combat)
	}

	for _, group := range doc.SpawnGroups {
		if err := spawnGroup(w, pm, group, doc.Anchors); err != nil {
			ironlog.Logger.WithField("group", group.ID).Warnf("spawn group skipped: %v", err)
			continue
		}
	}

	return &Scenario{
		Name: doc.Name,
		StartZone: StartZone{
			X: doc.StartZone.X, Z: doc.StartZone.Z, Radius: doc.StartZone.Radius,
		},
	}, nil
}

func applyTuning(cfg *config.Config, t combatTuning) {
	if t.PassRadius != nil {
		cfg.PassRadius = *t.PassRadius
	}
	if t.SeparationStrength != nil {
		cfg.SeparationStrength = *t.SeparationStrength
	}
	if t.ArrivalRadius != nil {
		cfg.ArrivalRadius = *t.ArrivalRadius
	}
}

func spawnGroup(w *ecs.World, pm *ecs.PrefabManager, group spawnGroupDef, anchors map[string]anchorDef) error {
	if group.Count <= 0 {
		return nil
	}
	anchor, ok := anchors[group.Anchor]
	if !ok {
		return ecs.ConfigurationError{Source: group.ID, Reason: "unknown anchor " + group.Anchor}
	}
	prefab, ok := pm.Get(group.UnitType)
	if !ok {
		return ecs.ConfigurationError{Source: group.ID, Reason: "unknown unit type " + group.UnitType}
	}

	originX := anchor.X + group.Offset.X
	originZ := anchor.Z + group.Offset.Z

	offsets := computeFormationOffsets(group.Formation, group.Count, prefab)
	rng := seededRNG(group.ID)
	jitter := group.Formation.JitterM

	for i := 0; i < group.Count; i++ {
		result, err := ecs.SpawnFromPrefab(w, prefab)
		if err != nil {
			return err
		}
		jx := (rng.Float32()*2 - 1) * jitter
		jz := (rng.Float32()*2 - 1) * jitter
		if !components.PositionC.Has(result.Store) {
			continue
		}
		pos := components.PositionC.Get(result.Store, result.Row)
		pos.X = originX + offsets[i].X + jx
		pos.Z = originZ + offsets[i].Z + jz
	}
	return nil
}

// computeFormationOffsets lays out n units either in a centered grid or
// evenly around a circle, per spec.md 6's spawn-group formation rules.
func computeFormationOffsets(f formationDef, n int, prefab *ecs.Prefab) []offsetDef {
	if f.Kind == "circle" {
		return circleOffsets(n, f.RadiusM)
	}
	return gridOffsets(n, f.Columns, resolveSpacing(f.SpacingM, prefab))
}

func circleOffsets(n int, radius float32) []offsetDef {
	out := make([]offsetDef, n)
	for i := 0; i < n; i++ {
		angle := float64(i) * 2 * math.Pi / float64(n)
		out[i] = offsetDef{X: radius * float32(math.Cos(angle)), Z: radius * float32(math.Sin(angle))}
	}
	return out
}

func gridOffsets(n, columns int, spacing float32) []offsetDef {
	if columns <= 0 {
		columns = int(math.Ceil(math.Sqrt(float64(n))))
	}
	rows := int(math.Ceil(float64(n) / float64(columns)))
	halfW := (float32(columns) - 1) * 0.5
	halfH := (float32(rows) - 1) * 0.5

	out := make([]offsetDef, n)
	for i := 0; i < n; i++ {
		col := i % columns
		row := i / columns
		out[i] = offsetDef{
			X: (float32(col) - halfW) * spacing,
			Z: (float32(row) - halfH) * spacing,
		}
	}
	return out
}

// resolveSpacing handles spacing_m's number|"auto" union: "auto" derives
// 2*(radius + separation) from the prefab's own Radius/Separation
// defaults, falling back to 1 meter if the prefab declares neither.
func resolveSpacing(raw json.RawMessage, prefab *ecs.Prefab) float32 {
	var asNumber float32
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber
	}
	var radius, separation float32 = 0.5, 0
	if v, ok := prefab.Defaults[components.RadiusC.ID()]; ok {
		if r, ok := v.(components.Radius); ok {
			radius = r.R
		}
	}
	if v, ok := prefab.Defaults[components.SeparationC.ID()]; ok {
		if s, ok := v.(components.Separation); ok {
			separation = s.Value
		}
	}
	return 2 * (radius + separation)
}

// seededRNG derives a deterministic per-group RNG from its string id so
// a scenario replays with the same jitter every run, the same
// reproducibility original_source's ScenarioSpawner gets from seeding
// its RNG with a hash of the group's id.
func seededRNG(id string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed^0x2545f4914f6cdd1d))
}
