package ecs

import (
	"fmt"

	"github.com/milk9111/nodebridge/ecs/component"
)

// ComponentEntry is one (kind, value) pair of an entity snapshot.
type ComponentEntry struct {
	ID    component.ComponentID
	Value any
}

// World owns entities and their components.
type World struct {
	entities entityStore
	stores   map[component.ComponentID]*SparseSet
	// order keeps each slot's component ids in insertion order so snapshots
	// are deterministic.
	order  map[entityID][]component.ComponentID
	events EventQueue
}

// NewWorld creates an empty ECS world.
func NewWorld() *World {
	return &World{
		stores: make(map[component.ComponentID]*SparseSet),
		order:  make(map[entityID][]component.ComponentID),
	}
}

// CreateEntity allocates a new entity.
func (w *World) CreateEntity() Entity {
	return w.entities.create()
}

// DestroyEntity drops every component of e and retires the handle.
func (w *World) DestroyEntity(e Entity) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	for _, id := range w.order[e.id()] {
		w.stores[id].Remove(e.id())
	}
	delete(w.order, e.id())
	return w.entities.destroy(e)
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	return w != nil && w.entities.isAlive(e)
}

// Len returns the number of live entities.
func (w *World) Len() int {
	if w == nil {
		return 0
	}
	return w.entities.count
}

// Spawn creates an entity and returns a builder bound to it.
func (w *World) Spawn() *EntityBuilder {
	return NewEntityBuilder(w, w.CreateEntity())
}

// AddComponent stores value under id for e, replacing any previous value of
// that kind.
func (w *World) AddComponent(e Entity, id component.ComponentID, value any) error {
	if w == nil || !w.entities.isAlive(e) {
		return component.ErrEntityNotAlive
	}
	if id == 0 {
		return component.ErrInvalidComponentKind
	}
	if value == nil {
		return component.ErrNilComponent
	}
	if !component.Accepts(id, value) {
		return fmt.Errorf("%w: %T for %s", component.ErrComponentType, value, component.KindName(id))
	}
	store, ok := w.stores[id]
	if !ok {
		store = &SparseSet{}
		w.stores[id] = store
	}
	if store.Set(e.id(), value) {
		w.order[e.id()] = append(w.order[e.id()], id)
	}
	return nil
}

// RemoveComponent drops the component of kind id from e. Removing an absent
// component is a no-op that returns false.
func (w *World) RemoveComponent(e Entity, id component.ComponentID) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	if !w.stores[id].Remove(e.id()) {
		return false
	}
	ids := w.order[e.id()]
	for i, cur := range ids {
		if cur == id {
			w.order[e.id()] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return true
}

// GetComponent returns the component of kind id on e.
func (w *World) GetComponent(e Entity, id component.ComponentID) (any, bool) {
	if w == nil || !w.entities.isAlive(e) {
		return nil, false
	}
	store := w.stores[id]
	if !store.Has(e.id()) {
		return nil, false
	}
	return store.Get(e.id()), true
}

// HasComponent reports whether e carries a component of kind id.
func (w *World) HasComponent(e Entity, id component.ComponentID) bool {
	if w == nil || !w.entities.isAlive(e) {
		return false
	}
	return w.stores[id].Has(e.id())
}

// Components returns a snapshot of e's components in insertion order.
func (w *World) Components(e Entity) []ComponentEntry {
	if w == nil || !w.entities.isAlive(e) {
		return nil
	}
	ids := w.order[e.id()]
	out := make([]ComponentEntry, 0, len(ids))
	for _, id := range ids {
		out = append(out, ComponentEntry{ID: id, Value: w.stores[id].Get(e.id())})
	}
	return out
}

// Entities returns all live entities ordered by slot id.
func (w *World) Entities() []Entity {
	if w == nil {
		return nil
	}
	out := make([]Entity, 0, w.entities.count)
	w.entities.each(func(e Entity) { out = append(out, e) })
	return out
}

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}

func (w *World) entity(id entityID) Entity {
	return makeEntity(id, w.entities.gens[id-1])
}
