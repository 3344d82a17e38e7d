package ecs

import (
	"fmt"
	"reflect"

	"github.com/TheBitDrifter/bark"
)

// ArchetypeID identifies a Store within a World. Ids are assigned in
// creation order starting at 1; 0 is never a valid id.
type ArchetypeID uint32

// Store is the column-oriented backing for every entity sharing one
// ComponentMask signature: one reflect-driven slice per component, kept
// the same length, indexed by row. This is a direct Go port of
// original_source's ArchetypeStore, which dispatches to one typed vector
// per component id; Go's lack of a heterogeneous-vector-of-vectors forces
// the dispatch through reflect.Value rather than a template parameter
// pack, but the per-row layout and swap-remove behavior are identical.
type Store struct {
	id           ArchetypeID
	mask         ComponentMask
	componentIDs []ComponentID
	columns      map[ComponentID]reflect.Value
	entities     []Entity
}

func newStore(id ArchetypeID, comps []Component) *Store {
	s := &Store{
		id:      id,
		mask:    NewComponentMask(),
		columns: make(map[ComponentID]reflect.Value, len(comps)),
	}
	for _, c := range comps {
		s.mask.Set(c.ID())
		s.componentIDs = append(s.componentIDs, c.ID())
		t := c.elemType()
		s.columns[c.ID()] = reflect.MakeSlice(reflect.SliceOf(t), 0, 0)
	}
	return s
}

// ID returns the store's archetype id.
func (s *Store) ID() ArchetypeID { return s.id }

// Mask returns the component signature of every row in this store.
func (s *Store) Mask() ComponentMask { return s.mask }

// ComponentIDs returns the components carried by every row, in the order
// the archetype was first created.
func (s *Store) ComponentIDs() []ComponentID { return s.componentIDs }

// Len returns the number of live rows.
func (s *Store) Len() int { return len(s.entities) }

// EntityAt returns the entity occupying row.
func (s *Store) EntityAt(row int) Entity { return s.entities[row] }

func (s *Store) column(id ComponentID) reflect.Value {
	col, ok := s.columns[id]
	if !ok {
		panic(bark.AddTrace(fmt.Errorf("component id %d not present in archetype %d", id, s.id)))
	}
	return col
}

// createRow appends a zero-valued row for e and returns its index.
func (s *Store) createRow(e Entity) int {
	for id, col := range s.columns {
		s.columns[id] = reflect.Append(col, reflect.Zero(col.Type().Elem()))
	}
	s.entities = append(s.entities, e)
	return len(s.entities) - 1
}

// destroyRowSwap removes row by swapping the last row into its place, then
// truncating. It returns the entity that was moved into row (so the
// caller's EntityTable can be fixed up), whether a move actually happened
// - destroying the last row moves nothing - and lastRow, the index the
// last row occupied before truncation, so a caller can repair any
// per-row bookkeeping (such as a DirtyTracker's bitmap) keyed on that now
// stale index.
func (s *Store) destroyRowSwap(row int) (moved Entity, movedOK bool, lastRow int) {
	last := len(s.entities) - 1
	if row < 0 || row > last {
		panic(bark.AddTrace(fmt.Errorf("row %d out of range [0,%d) in archetype %d", row, len(s.entities), s.id)))
	}
	lastRow = last
	if row != last {
		for id, col := range s.columns {
			reflect.Copy(col.Slice(row, row+1), col.Slice(last, last+1))
			s.columns[id] = col
		}
		s.entities[row] = s.entities[last]
		moved, movedOK = s.entities[row], true
	}
	for id, col := range s.columns {
		s.columns[id] = col.Slice(0, last)
	}
	s.entities = s.entities[:last]
	return
}

// copyRowInto copies the component values shared between s and dst for
// srcRow into dst's newly created dstRow, used when an entity migrates to
// a superset/subset archetype via AddComponent/RemoveComponent.
func (s *Store) copyRowInto(srcRow int, dst *Store, dstRow int) {
	for _, id := range s.componentIDs {
		dstCol, ok := dst.columns[id]
		if !ok {
			continue
		}
		srcCol := s.columns[id]
		dstCol.Index(dstRow).Set(srcCol.Index(srcRow))
	}
}
