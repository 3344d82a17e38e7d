package ecs

import (
	"strconv"

	"github.com/RoaringBitmap/roaring/v2"
)

// ComponentMask is a dynamic, sparse bitset over ComponentID, backed by a
// roaring bitmap. Unlike a fixed-width mask it never caps the number of
// registered components, matching the original ComponentMask's growable
// word-vector semantics (spec.md 4.1).
type ComponentMask struct {
	bm *roaring.Bitmap
}

// NewComponentMask returns an empty mask.
func NewComponentMask() ComponentMask {
	return ComponentMask{bm: roaring.New()}
}

// Set marks id present in the mask.
func (m ComponentMask) Set(id ComponentID) {
	m.bm.Add(uint32(id))
}

// Clear marks id absent from the mask.
func (m ComponentMask) Clear(id ComponentID) {
	m.bm.Remove(uint32(id))
}

// Has reports whether id is present.
func (m ComponentMask) Has(id ComponentID) bool {
	return m.bm.Contains(uint32(id))
}

// ContainsAll reports whether every bit set in other is also set in m.
func (m ComponentMask) ContainsAll(other ComponentMask) bool {
	if other.bm.IsEmpty() {
		return true
	}
	diff := other.bm.Clone()
	diff.AndNot(m.bm)
	return diff.IsEmpty()
}

// ContainsAny reports whether m and other share at least one bit.
func (m ComponentMask) ContainsAny(other ComponentMask) bool {
	return m.bm.Intersects(other.bm)
}

// ContainsNone reports whether m and other share no bits.
func (m ComponentMask) ContainsNone(other ComponentMask) bool {
	return !m.ContainsAny(other)
}

// IsEmpty reports whether no bits are set.
func (m ComponentMask) IsEmpty() bool {
	return m.bm.IsEmpty()
}

// Clone returns an independent copy.
func (m ComponentMask) Clone() ComponentMask {
	return ComponentMask{bm: m.bm.Clone()}
}

// IDs returns the set component ids in ascending order.
func (m ComponentMask) IDs() []ComponentID {
	raw := m.bm.ToArray()
	ids := make([]ComponentID, len(raw))
	for i, v := range raw {
		ids[i] = ComponentID(v)
	}
	return ids
}

// Key returns the canonical textual signature used to deduplicate
// archetypes: the ascending component ids, hex-encoded and comma
// separated. Two masks with exactly the same set bits always produce the
// same key regardless of registration order, matching spec.md's archetype
// identity invariant.
func (m ComponentMask) Key() string {
	raw := m.bm.ToArray()
	if len(raw) == 0 {
		return ""
	}
	buf := make([]byte, 0, len(raw)*5)
	for i, v := range raw {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendUint(buf, uint64(v), 16)
	}
	return string(buf)
}
