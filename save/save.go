// Package save reads and writes the engine's save file: camera-focus
// state persisted across runs, per spec.md 6. original_source/Sample
// persists this alongside entity state; this port keeps the format to
// exactly what spec.md names plus the optional camera object
// SPEC_FULL.md 8 adds, since no broader world-state persistence is in
// scope (spec.md 1's "no persistence beyond a trivial save of camera
// state" Non-goal).
package save

import "encoding/json"

// Focus is the camera-focus state spec.md 6 names verbatim.
type Focus struct {
	RTSFocusX float32 `json:"rts_focus_x"`
	RTSFocusY float32 `json:"rts_focus_y"`
	RTSFocusZ float32 `json:"rts_focus_z"`
	YawDeg    float32 `json:"yawDeg"`
	PitchDeg  float32 `json:"pitchDeg"`
	Height    float32 `json:"height"`
	WinW      int     `json:"win_w"`
	WinH      int     `json:"win_h"`
	WinX      int     `json:"win_x"`
	WinY      int     `json:"win_y"`
}

// Camera is the optional expansion object: a top-down map focus plus
// zoom level, distinct from Focus's first-person-style orbit state.
// Omitted from the written document when absent, ignored on read if
// absent from the input.
type Camera struct {
	X    float32 `json:"x"`
	Z    float32 `json:"z"`
	Zoom float32 `json:"zoom"`
}

// File is the top-level save document shape: Focus's fields sit at the
// document's top level (matching spec.md 6's flat
// {rts_focus_x, ..., win_y} object) with Camera as an additional,
// optional sibling key.
type File struct {
	Focus
	Camera *Camera `json:"camera,omitempty"`
}

// Load decodes a save file document.
func Load(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Marshal encodes f, omitting Camera entirely when nil.
func Marshal(f *File) ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}
