/*
Package ecs provides the archetype-based Entity-Component-System core for
ironmarch: component registration, archetype storage, queries with dirty-row
tracking, and prefab-driven entity spawning.

Entities are opaque handles (index, generation) resolved through an
EntityTable. Components sharing a signature are grouped into a Store (one
per distinct ComponentMask); a World owns the set of stores, the entity
table, and the component registry, and is the single mutable resource every
gameplay system borrows for the duration of a tick.

Basic usage:

	w := ecs.NewWorld()
	position := ecs.Register[Position]("Position")
	velocity := ecs.Register[Velocity]("Velocity")

	e, _ := w.CreateEntity(position, velocity)
	query := ecs.NewQuery().And(position, velocity)
	cur := w.NewCursor(query)
	for cur.Next() {
		pos := position.GetFromCursor(cur)
		vel := velocity.GetFromCursor(cur)
		pos.X += vel.X
		pos.Y += vel.Y
	}
*/
package ecs
