package ecs

import (
	"errors"
	"reflect"

	"github.com/milk9111/nodebridge/ecs/component"
)

// Spawnable is the spawn-hook capability. The bridge calls Spawn once, on the
// root node only, right after the node subtree has been attached.
type Spawnable interface {
	Spawn(b *EntityBuilder) error
}

func init() {
	component.DefineCapability(component.CapSpawnHook, reflect.TypeFor[Spawnable]())
}

// EntityBuilder adds components to one entity. The first failed add is kept
// and reported by Err; later adds are skipped.
type EntityBuilder struct {
	world  *World
	entity Entity
	err    error
}

func NewEntityBuilder(w *World, e Entity) *EntityBuilder {
	return &EntityBuilder{world: w, entity: e}
}

func (b *EntityBuilder) World() *World {
	return b.world
}

func (b *EntityBuilder) Id() Entity {
	return b.entity
}

func (b *EntityBuilder) Err() error {
	return b.err
}

// Add stores value under kind id.
func (b *EntityBuilder) Add(id component.ComponentID, value any) *EntityBuilder {
	if b.err != nil {
		return b
	}
	b.err = b.world.AddComponent(b.entity, id, value)
	return b
}

// With is the typed form of Add.
func With[T any](b *EntityBuilder, kind component.ComponentKind[T], value *T) *EntityBuilder {
	if value == nil {
		b.err = errors.Join(b.err, component.ErrNilComponent)
		return b
	}
	return b.Add(kind.ID(), value)
}
