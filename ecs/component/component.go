package component

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
)

var (
	ErrEntityNotAlive       = errors.New("ecs: entity not alive")
	ErrNilComponent         = errors.New("ecs: component is nil")
	ErrInvalidComponentKind = errors.New("ecs: invalid component kind")
	ErrComponentType        = errors.New("ecs: component value does not match kind")
)

type ComponentID uint32

var nextComponentID atomic.Uint32

// ComponentKind identifies one component storage. Values stored under a kind
// are always *T.
type ComponentKind[T any] struct {
	id ComponentID
}

func NewComponentKind[T any]() ComponentKind[T] {
	id := ComponentID(nextComponentID.Add(1))
	registerKind(id, reflect.TypeFor[*T]())
	return ComponentKind[T]{id: id}
}

func (k ComponentKind[T]) ID() ComponentID {
	return k.id
}

func (k ComponentKind[T]) Valid() bool {
	return k.id != 0
}

type ComponentHandle[T any] struct {
	kind ComponentKind[T]
}

func NewComponent[T any]() ComponentHandle[T] {
	return ComponentHandle[T]{kind: NewComponentKind[T]()}
}

func (h ComponentHandle[T]) Kind() ComponentKind[T] {
	return h.kind
}

var (
	kindsMu sync.RWMutex
	kinds   = map[ComponentID]reflect.Type{}
)

func registerKind(id ComponentID, typ reflect.Type) {
	kindsMu.Lock()
	kinds[id] = typ
	kindsMu.Unlock()
}

// KindType returns the pointer type stored under id, or nil for unknown ids.
func KindType(id ComponentID) reflect.Type {
	kindsMu.RLock()
	defer kindsMu.RUnlock()
	return kinds[id]
}

// KindName returns a readable name for id, e.g. "scene.Sprite".
func KindName(id ComponentID) string {
	typ := KindType(id)
	if typ == nil {
		return "unknown"
	}
	return typ.Elem().String()
}

// Accepts reports whether value can be stored under id.
func Accepts(id ComponentID, value any) bool {
	typ := KindType(id)
	if typ == nil || value == nil {
		return false
	}
	return reflect.TypeOf(value) == typ
}
