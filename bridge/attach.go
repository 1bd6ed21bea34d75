package bridge

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/milk9111/nodebridge/ecs"
	"github.com/milk9111/nodebridge/ecs/component"
	"github.com/milk9111/nodebridge/marshal"
	"github.com/milk9111/nodebridge/scene"
)

// Spawn creates an entity and attaches root to it. The entity is destroyed
// again if the attach fails.
func (b *Bridge) Spawn(w *ecs.World, root scene.Node) (*ecs.EntityBuilder, error) {
	if w == nil {
		return nil, ErrNilWorld
	}
	eb := w.Spawn()
	if _, err := b.Attach(eb, root); err != nil {
		ecs.DestroyEntity(w, eb.Id())
		return nil, err
	}
	return eb, nil
}

// Attach attaches root to the builder's entity and returns the builder.
func (b *Bridge) Attach(eb *ecs.EntityBuilder, root scene.Node) (*ecs.EntityBuilder, error) {
	if err := b.AttachNode(eb.World(), eb.Id(), root); err != nil {
		return eb, err
	}
	return eb, nil
}

// AttachNode mirrors root and its eligible direct children onto e.
//
// Every node type is resolved before anything is written, so an unregistered
// or duplicated type leaves e untouched.
func (b *Bridge) AttachNode(w *ecs.World, e ecs.Entity, root scene.Node) error {
	if w == nil {
		return ErrNilWorld
	}
	if root == nil {
		return ErrNilNode
	}
	if !ecs.IsAlive(w, e) {
		return fmt.Errorf("attach %q: %w", root.Name(), component.ErrEntityNotAlive)
	}
	if ecs.Has(w, e, RootComponent.Kind()) {
		return fmt.Errorf("attach %q to %s: %w", root.Name(), e, ErrAlreadyAttached)
	}

	nodes := eligibleNodes(root)
	bindings, err := b.resolve(w, e, nodes)
	if err != nil {
		return fmt.Errorf("attach %q: %w", root.Name(), err)
	}

	handle := marshal.Wrap(e)
	if err := ecs.Add(w, e, RootComponent.Kind(), &Root{Node: root, handle: handle}); err != nil {
		handle.Release()
		return fmt.Errorf("attach %q: add root: %w", root.Name(), err)
	}
	if err := b.mirror(w, e, root, handle, nodes, bindings); err != nil {
		b.rollback(w, e, root, handle, bindings)
		return fmt.Errorf("attach %q: %w", root.Name(), err)
	}

	w.Events().PushLifecycle(ecs.LifecycleEvent{Entity: e, Kind: ecs.EntitySpawned, Node: root.Name()})
	b.logger.Debug().
		Str("entity", e.String()).
		Str("root", scene.Path(root)).
		Int("nodes", len(nodes)).
		Msg("attached node")
	return nil
}

func (b *Bridge) mirror(w *ecs.World, e ecs.Entity, root scene.Node, handle *marshal.Handle[ecs.Entity], nodes []scene.Node, bindings []nodeBinding) error {
	root.SetMeta(MetaEntityKey, handle)
	got, err := EntityOf(root)
	if err != nil {
		if errors.Is(err, ErrMetaCorrupt) {
			return err
		}
		return fmt.Errorf("%w: read back: %w", ErrMetaCorrupt, err)
	}
	if got != e {
		return fmt.Errorf("%w: stored %s, read back %s", ErrMetaCorrupt, e, got)
	}

	for i, n := range nodes {
		if err := bindings[i].add(w, e, n); err != nil {
			return fmt.Errorf("add %q: %w", n.Name(), err)
		}
	}

	if !bindings[0].caps.Has(component.CapSpawnHook) {
		return nil
	}
	eb := ecs.NewEntityBuilder(w, e)
	if err := root.(ecs.Spawnable).Spawn(eb); err != nil {
		return fmt.Errorf("spawn hook: %w", err)
	}
	if err := eb.Err(); err != nil {
		return fmt.Errorf("spawn hook: %w", err)
	}
	return nil
}

// rollback undoes a failed mirror. Components added by a failing spawn hook
// stay; they belong to the hook's author.
func (b *Bridge) rollback(w *ecs.World, e ecs.Entity, root scene.Node, handle *marshal.Handle[ecs.Entity], bindings []nodeBinding) {
	for _, binding := range bindings {
		w.RemoveComponent(e, binding.id)
	}
	ecs.Remove(w, e, RootComponent.Kind())
	if v, ok := root.Meta(MetaEntityKey); ok && v == any(handle) {
		root.SetMeta(MetaEntityKey, nil)
	}
	handle.Release()
}

// eligibleNodes returns root followed by its direct children whose names do
// not start with ReservedPrefix.
func eligibleNodes(root scene.Node) []scene.Node {
	children := root.Children()
	nodes := make([]scene.Node, 0, len(children)+1)
	nodes = append(nodes, root)
	for _, c := range children {
		if strings.HasPrefix(c.Name(), ReservedPrefix) {
			continue
		}
		nodes = append(nodes, c)
	}
	return nodes
}

func (b *Bridge) resolve(w *ecs.World, e ecs.Entity, nodes []scene.Node) ([]nodeBinding, error) {
	out := make([]nodeBinding, 0, len(nodes))
	seen := make(map[reflect.Type]string, len(nodes))
	for _, n := range nodes {
		binding, ok := b.registry.lookup(n)
		if !ok {
			return nil, fmt.Errorf("%w: %q is %T", ErrUnregisteredNode, n.Name(), n)
		}
		if prev, dup := seen[binding.typ]; dup {
			return nil, fmt.Errorf("%w: %q and %q are both %v", ErrDuplicateNodeType, prev, n.Name(), binding.typ)
		}
		if w.HasComponent(e, binding.id) {
			return nil, fmt.Errorf("%w: %q is %v", ErrDuplicateNodeType, n.Name(), binding.typ)
		}
		seen[binding.typ] = n.Name()
		out = append(out, binding)
	}
	return out, nil
}
