package ecs

import "github.com/RoaringBitmap/roaring/v2"

// DirtyTracker reports, for every Store matching its query, which rows
// have been touched (created or migrated into) since the last Consume.
// Registration is incremental: a tracker created after stores already
// exist is backfilled against them, and any store created afterward is
// matched automatically via the World's onStoreCreated hook (spec.md
// 4.5's "first-consumer semantics" - every row present in a store at the
// moment a tracker starts watching it counts as dirty).
type DirtyTracker struct {
	world *World
	query QueryNode
	bits  map[ArchetypeID]*roaring.Bitmap
}

type queryManager struct {
	world    *World
	trackers []*DirtyTracker
}

func newQueryManager(w *World) *queryManager {
	return &queryManager{world: w}
}

// NewDirtyTracker registers a tracker for q against every store that
// currently exists (pre-marking all of their rows dirty) and every store
// created from this point forward.
func (w *World) NewDirtyTracker(q QueryNode) *DirtyTracker {
	t := &DirtyTracker{
		world: w,
		query: q,
		bits:  make(map[ArchetypeID]*roaring.Bitmap),
	}
	w.queries.trackers = append(w.queries.trackers, t)
	w.archetypes.onStoreCreated(func(s *Store) {
		if !q.Evaluate(s) {
			return
		}
		bm := roaring.New()
		for row := 0; row < s.Len(); row++ {
			bm.Add(uint32(row))
		}
		t.bits[s.id] = bm
	})
	return t
}

// markRowDirty notifies every registered tracker whose query matches
// store that row was just created or migrated into.
func (qm *queryManager) markRowDirty(store *Store, row int) {
	for _, t := range qm.trackers {
		if bm, ok := t.bits[store.id]; ok {
			bm.Add(uint32(row))
		}
	}
}

// Consume drains and clears the dirty rows for store, returning them in
// ascending order. Calling Consume again before any new rows are marked
// returns an empty slice - the operation is idempotent, matching
// spec.md 4.5.
func (t *DirtyTracker) Consume(store *Store) []int {
	bm, ok := t.bits[store.id]
	if !ok {
		return nil
	}
	raw := bm.ToArray()
	bm.Clear()
	rows := make([]int, len(raw))
	for i, v := range raw {
		rows[i] = int(v)
	}
	return rows
}

// MarkDirty explicitly re-marks row as dirty for store, used by systems
// such as Movement that re-activate their own dirty bit while an entity
// is still moving (spec.md 4.11).
func (t *DirtyTracker) MarkDirty(store *Store, row int) {
	bm, ok := t.bits[store.id]
	if !ok {
		bm = roaring.New()
		t.bits[store.id] = bm
	}
	bm.Add(uint32(row))
}

// fixupSwapRemove repairs every registered tracker's bitmap for store
// after a swap-remove moved the row that used to live at lastRow down
// into row (or simply truncated away row, if lastRow == row and no move
// happened). Bit row is always cleared - whatever entity used to occupy
// it is gone. If a different row was moved in (lastRow != row), that
// entity's dirty bit, if it carried one, follows it: set on row, cleared
// from its old, now out-of-range position at lastRow. This is the fixup
// spec.md 4.5 requires so a tracker's bitmap never holds a bit for a row
// index a store has since truncated past.
func (qm *queryManager) fixupSwapRemove(store *Store, row, lastRow int) {
	for _, t := range qm.trackers {
		bm, ok := t.bits[store.id]
		if !ok {
			continue
		}
		bm.Remove(uint32(row))
		if lastRow != row {
			wasDirty := bm.Contains(uint32(lastRow))
			bm.Remove(uint32(lastRow))
			if wasDirty {
				bm.Add(uint32(row))
			}
		}
	}
}

// Stores returns every archetype store this tracker currently watches.
func (t *DirtyTracker) Stores() []*Store {
	out := make([]*Store, 0, len(t.bits))
	for id := range t.bits {
		out = append(out, t.world.archetypes.get(id))
	}
	return out
}
