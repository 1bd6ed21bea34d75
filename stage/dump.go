package stage

import (
	"fmt"
	"strings"

	"github.com/milk9111/nodebridge/bridge"
	"github.com/milk9111/nodebridge/ecs"
	"github.com/milk9111/nodebridge/ecs/component"
)

// Dump renders one line per live stage entity:
//
//	1v0 Player: bridge.Root script.Node scene.Rect ...
func (s *Stage) Dump() string {
	var sb strings.Builder
	for _, e := range s.Entities() {
		sb.WriteString(DumpEntity(s.World, e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// DumpEntity renders e and its component kinds in insertion order.
func DumpEntity(w *ecs.World, e ecs.Entity) string {
	name := "-"
	if root, ok := ecs.Get(w, e, bridge.RootComponent.Kind()); ok && root.Node != nil {
		name = root.Node.Name()
	}
	kinds := make([]string, 0, 8)
	for _, entry := range w.Components(e) {
		kinds = append(kinds, component.KindName(entry.ID))
	}
	return fmt.Sprintf("%s %s: %s", e, name, strings.Join(kinds, " "))
}
