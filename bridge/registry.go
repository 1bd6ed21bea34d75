package bridge

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/milk9111/nodebridge/ecs"
	"github.com/milk9111/nodebridge/ecs/component"
	"github.com/milk9111/nodebridge/scene"
)

type addNodeFn func(w *ecs.World, e ecs.Entity, n scene.Node) error

type nodeBinding struct {
	typ  reflect.Type
	id   component.ComponentID
	caps component.Capability
	kind any
	add  addNodeFn
}

// Registry maps concrete node types to the typed add operation for their
// component kind. Build it once at startup, before the first attach.
type Registry struct {
	bindings map[reflect.Type]nodeBinding
}

func NewRegistry() *Registry {
	return &Registry{bindings: make(map[reflect.Type]nodeBinding)}
}

// RegisterNode binds node type *T to its own component kind and returns that
// kind. Registering the same type twice returns the existing kind.
func RegisterNode[T any, PT interface {
	*T
	scene.Node
}](r *Registry) component.ComponentKind[T] {
	typ := reflect.TypeFor[PT]()
	if b, ok := r.bindings[typ]; ok {
		return b.kind.(component.ComponentKind[T])
	}

	kind := component.NewComponentKind[T]()
	r.bindings[typ] = nodeBinding{
		typ:  typ,
		id:   kind.ID(),
		caps: component.TypeCapabilities(typ),
		kind: kind,
		add: func(w *ecs.World, e ecs.Entity, n scene.Node) error {
			p, ok := n.(PT)
			if !ok {
				return fmt.Errorf("node %T is not %v", n, typ)
			}
			return ecs.Add(w, e, kind, (*T)(p))
		},
	}
	return kind
}

// KindOf returns the component kind registered for node type *T.
func KindOf[T any, PT interface {
	*T
	scene.Node
}](r *Registry) (component.ComponentKind[T], bool) {
	b, ok := r.bindings[reflect.TypeFor[PT]()]
	if !ok {
		return component.ComponentKind[T]{}, false
	}
	return b.kind.(component.ComponentKind[T]), true
}

func (r *Registry) lookup(n scene.Node) (nodeBinding, bool) {
	b, ok := r.bindings[reflect.TypeOf(n)]
	return b, ok
}

// Len returns the number of registered node types.
func (r *Registry) Len() int {
	return len(r.bindings)
}

// Types lists registered node types by name.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.bindings))
	for typ := range r.bindings {
		out = append(out, typ.String())
	}
	sort.Strings(out)
	return out
}

// SceneKinds holds the component kinds of the built-in scene node types.
type SceneKinds struct {
	Group  component.ComponentKind[scene.Group]
	Sprite component.ComponentKind[scene.Sprite]
	Rect   component.ComponentKind[scene.Rect]
	Label  component.ComponentKind[scene.Label]
	Body   component.ComponentKind[scene.Body]
}

// RegisterSceneNodes registers every built-in scene node type.
func RegisterSceneNodes(r *Registry) SceneKinds {
	return SceneKinds{
		Group:  RegisterNode[scene.Group](r),
		Sprite: RegisterNode[scene.Sprite](r),
		Rect:   RegisterNode[scene.Rect](r),
		Label:  RegisterNode[scene.Label](r),
		Body:   RegisterNode[scene.Body](r),
	}
}
