package bridge

import (
	"fmt"

	"github.com/milk9111/nodebridge/ecs"
	"github.com/milk9111/nodebridge/ecs/component"
)

// DespawnAndFree strips removable components from e, queues its root node for
// release and retires e. An entity without a Root is despawned without any
// release.
func (b *Bridge) DespawnAndFree(w *ecs.World, e ecs.Entity) error {
	if w == nil {
		return ErrNilWorld
	}
	if !ecs.IsAlive(w, e) {
		return fmt.Errorf("despawn %s: %w", e, component.ErrEntityNotAlive)
	}

	stripped := b.StripMarked(w, e)

	name := ""
	if root, ok := ecs.Get(w, e, RootComponent.Kind()); ok && root != nil {
		if root.Node != nil {
			name = root.Node.Name()
			root.Node.QueueRelease()
		}
		if root.handle != nil {
			root.handle.Release()
			root.handle = nil
		}
	}

	ecs.DestroyEntity(w, e)
	w.Events().PushLifecycle(ecs.LifecycleEvent{Entity: e, Kind: ecs.EntityDespawned, Node: name})
	b.logger.Debug().
		Str("entity", e.String()).
		Str("root", name).
		Int("stripped", stripped).
		Msg("despawned entity")
	return nil
}

// StripMarked removes every component of e whose kind carries
// CapRemovedOnDespawn, in snapshot order, and returns how many were removed.
// Running it again on the same entity removes nothing.
func (b *Bridge) StripMarked(w *ecs.World, e ecs.Entity) int {
	removed := 0
	for _, entry := range w.Components(e) {
		if !component.Capabilities(entry.ID).Has(component.CapRemovedOnDespawn) {
			continue
		}
		if w.RemoveComponent(e, entry.ID) {
			removed++
		}
	}
	return removed
}
