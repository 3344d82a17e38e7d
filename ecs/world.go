package ecs

import (
	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
)

// World owns the entity table, the archetype manager, and the query
// engine: the single mutable resource systems borrow for a tick.
//
// The iteration guard (iterLocks) is grounded directly on
// warehouse/storage.go's storage.locks mask.Mask256 field and its
// AddLock/RemoveLock/Locked methods: a Cursor marks a bit on Initialize
// and unmarks it on Reset, and CreateEntity/DestroyEntity/AddComponent/
// RemoveComponent panic if any bit is set, enforcing spec.md 5's "no
// row create/destroy while a cursor walks the store" rule with the same
// mechanism the teacher uses for its own re-entrant locking rather than a
// hand-rolled boolean.
type World struct {
	entities   *EntityTable
	archetypes *archetypeManager
	queries    *queryManager
	iterLocks  mask.Mask256
	lockBitSeq uint32
}

// NewWorld returns an empty World ready to register components and spawn
// entities into.
func NewWorld() *World {
	w := &World{
		entities:   NewEntityTable(),
		archetypes: newArchetypeManager(),
	}
	w.queries = newQueryManager(w)
	return w
}

// allocLockBit hands out a distinct guard bit per outstanding Cursor so
// nested cursors (e.g. a system that queries inside another query's loop)
// don't release each other's locks early. mask.Mask256 holds 256 bits,
// far more than the tick loop ever nests cursors.
func (w *World) allocLockBit() uint32 {
	bit := w.lockBitSeq % 256
	w.lockBitSeq++
	return bit
}

func (w *World) lockIteration(bit uint32)   { w.iterLocks.Mark(bit) }
func (w *World) unlockIteration(bit uint32) { w.iterLocks.Unmark(bit) }
func (w *World) iterating() bool            { return !w.iterLocks.IsEmpty() }

func (w *World) assertMutable() {
	if w.iterating() {
		panic(bark.AddTrace(LockedWorldError{}))
	}
}

// CreateEntity spawns a single entity carrying zero-valued instances of
// comps and returns its handle.
func (w *World) CreateEntity(comps ...Component) (Entity, error) {
	w.assertMutable()
	store := w.archetypes.storeFor(comps)
	row := store.createRow(Entity{})
	e := w.entities.create(store.id, row)
	store.entities[row] = e
	w.queries.markRowDirty(store, row)
	return e, nil
}

// CreateEntities spawns n entities sharing the same component set.
func (w *World) CreateEntities(n int, comps ...Component) ([]Entity, error) {
	w.assertMutable()
	store := w.archetypes.storeFor(comps)
	out := make([]Entity, n)
	for i := 0; i < n; i++ {
		row := store.createRow(Entity{})
		e := w.entities.create(store.id, row)
		store.entities[row] = e
		w.queries.markRowDirty(store, row)
		out[i] = e
	}
	return out, nil
}

// DestroyEntity removes e from its store via swap-remove and fixes up the
// entity table for both e and whichever entity was moved into e's old row.
func (w *World) DestroyEntity(e Entity) error {
	w.assertMutable()
	archID, row, err := w.entities.locate(e)
	if err != nil {
		return err
	}
	store := w.archetypes.get(archID)
	moved, movedOK, lastRow := store.destroyRowSwap(row)
	if movedOK {
		if err := w.entities.relocate(moved, archID, row); err != nil {
			return err
		}
	}
	w.queries.fixupSwapRemove(store, row, lastRow)
	return w.entities.destroy(e)
}

// Valid reports whether e still refers to a live entity.
func (w *World) Valid(e Entity) bool {
	return w.entities.Valid(e)
}

func (w *World) locate(e Entity) (*Store, int, error) {
	archID, row, err := w.entities.locate(e)
	if err != nil {
		return nil, 0, err
	}
	return w.archetypes.get(archID), row, nil
}

// StoreOf returns the archetype store currently backing e.
func (w *World) StoreOf(e Entity) (*Store, int, error) {
	return w.locate(e)
}

// componentsOf returns store's component set with extra added (if non-nil)
// and remove dropped. Used by AddComponent/RemoveComponent to compute the
// destination archetype.
func (w *World) componentsOf(store *Store, extra Component, remove ComponentID) []Component {
	out := make([]Component, 0, len(store.componentIDs)+1)
	if extra != nil {
		out = append(out, extra)
	}
	for _, id := range store.componentIDs {
		if id == remove {
			continue
		}
		if extra != nil && id == extra.ID() {
			continue
		}
		out = append(out, componentByID(id))
	}
	return out
}

// AddComponent migrates e to the archetype that also carries c, copying
// every previously-held component value across and zero-initializing c.
func (w *World) AddComponent(e Entity, c Component) error {
	w.assertMutable()
	store, row, err := w.locate(e)
	if err != nil {
		return err
	}
	if store.mask.Has(c.ID()) {
		return nil
	}
	destComps := w.componentsOf(store, c, 0)
	dest := w.archetypes.storeFor(destComps)
	return w.migrate(e, store, row, dest)
}

// RemoveComponent migrates e to the archetype without c.
func (w *World) RemoveComponent(e Entity, c Component) error {
	w.assertMutable()
	store, row, err := w.locate(e)
	if err != nil {
		return err
	}
	if !store.mask.Has(c.ID()) {
		return nil
	}
	destComps := w.componentsOf(store, nil, c.ID())
	dest := w.archetypes.storeFor(destComps)
	return w.migrate(e, store, row, dest)
}

func (w *World) migrate(e Entity, src *Store, srcRow int, dest *Store) error {
	dstRow := dest.createRow(e)
	src.copyRowInto(srcRow, dest, dstRow)
	dest.entities[dstRow] = e

	moved, movedOK, lastRow := src.destroyRowSwap(srcRow)
	if movedOK {
		if err := w.entities.relocate(moved, src.id, srcRow); err != nil {
			return err
		}
	}
	w.queries.fixupSwapRemove(src, srcRow, lastRow)
	if err := w.entities.relocate(e, dest.id, dstRow); err != nil {
		return err
	}
	w.queries.markRowDirty(dest, dstRow)
	return nil
}

// componentRegistryByID lets World reconstruct a Component from a bare id
// when building a migration's destination signature. Populated lazily by
// Register via registerComponentLookup.
var componentRegistryByID = map[ComponentID]Component{}

func registerComponentLookup(c Component) {
	componentRegistryByID[c.ID()] = c
}

func componentByID(id ComponentID) Component {
	c, ok := componentRegistryByID[id]
	if !ok {
		panic(bark.AddTrace(ComponentNotFoundError{Component: ComponentName(id)}))
	}
	return c
}

// Archetypes exposes every store for iteration by the query engine and by
// diagnostics/save-file code.
func (w *World) Archetypes() []*Store {
	return w.archetypes.Stores()
}
