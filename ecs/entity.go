package ecs

// Entity is an opaque handle into a World's entity table: an index into the
// backing record slice plus the generation that was current when the
// handle was issued. Comparing generations is how a stale handle (held
// across a destroy+recreate at the same index) is detected, matching
// original_source's EntitiesRecord freelist design.
type Entity struct {
	Index      uint32
	Generation uint32
}

// entityRecord tracks where a live entity's row lives. row is -1 for a
// freed slot awaiting reuse.
type entityRecord struct {
	generation uint32
	archetype  ArchetypeID
	row        int32
}

// EntityTable maps entity indices to their current archetype store and row,
// recycling freed indices via a freelist so long-running simulations don't
// grow the record slice without bound.
type EntityTable struct {
	records  []entityRecord
	freeList []uint32
}

// NewEntityTable returns an empty table.
func NewEntityTable() *EntityTable {
	return &EntityTable{}
}

// create allocates a new entity bound to (arch, row), reusing a freed index
// when available.
func (t *EntityTable) create(arch ArchetypeID, row int) Entity {
	if n := len(t.freeList); n > 0 {
		idx := t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		rec := &t.records[idx]
		rec.archetype = arch
		rec.row = int32(row)
		return Entity{Index: idx, Generation: rec.generation}
	}
	idx := uint32(len(t.records))
	t.records = append(t.records, entityRecord{generation: 1, archetype: arch, row: int32(row)})
	return Entity{Index: idx, Generation: 1}
}

func (t *EntityTable) recordFor(e Entity) (*entityRecord, error) {
	if int(e.Index) >= len(t.records) {
		return nil, StaleEntityReferenceError{Entity: e}
	}
	rec := &t.records[e.Index]
	if rec.generation != e.Generation || rec.row < 0 {
		return nil, StaleEntityReferenceError{Entity: e}
	}
	return rec, nil
}

// destroy bumps the generation (invalidating all outstanding handles to
// this index) and returns the index to the freelist.
func (t *EntityTable) destroy(e Entity) error {
	rec, err := t.recordFor(e)
	if err != nil {
		return err
	}
	rec.generation++
	rec.row = -1
	t.freeList = append(t.freeList, e.Index)
	return nil
}

// locate returns the archetype and row currently backing e.
func (t *EntityTable) locate(e Entity) (ArchetypeID, int, error) {
	rec, err := t.recordFor(e)
	if err != nil {
		return 0, 0, err
	}
	return rec.archetype, int(rec.row), nil
}

// relocate updates bookkeeping after e moves to a different archetype/row,
// either via AddComponent/RemoveComponent migration or a swap-remove
// shifting a different entity into e's old slot.
func (t *EntityTable) relocate(e Entity, arch ArchetypeID, row int) error {
	rec, err := t.recordFor(e)
	if err != nil {
		return err
	}
	rec.archetype = arch
	rec.row = int32(row)
	return nil
}

// Valid reports whether e still refers to a live entity.
func (t *EntityTable) Valid(e Entity) bool {
	_, err := t.recordFor(e)
	return err == nil
}
