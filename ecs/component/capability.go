package component

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Capability is a set of type-level tags resolved from interface conformance.
type Capability uint8

const (
	// CapRemovedOnDespawn marks components stripped before their entity is
	// retired.
	CapRemovedOnDespawn Capability = 1 << iota
	// CapSpawnHook marks node types that run a callback when attached.
	CapSpawnHook
)

func (c Capability) Has(other Capability) bool {
	return other != 0 && c&other == other
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var names []string
	if c.Has(CapRemovedOnDespawn) {
		names = append(names, "removed_on_despawn")
	}
	if c.Has(CapSpawnHook) {
		names = append(names, "spawn_hook")
	}
	return strings.Join(names, "|")
}

// RemovedOnDespawn is satisfied by any type embedding RemoveOnDespawn.
type RemovedOnDespawn interface {
	removedOnDespawn()
}

// RemoveOnDespawn is embedded in component structs to tag them with
// CapRemovedOnDespawn. It carries no data.
type RemoveOnDespawn struct{}

func (RemoveOnDespawn) removedOnDespawn() {}

var (
	capsMu     sync.RWMutex
	capIfaces  = map[Capability]reflect.Type{CapRemovedOnDespawn: reflect.TypeFor[RemovedOnDespawn]()}
	capsByType = map[reflect.Type]Capability{}
)

// DefineCapability binds c to an interface type. Types implementing iface
// report c from TypeCapabilities. Redefining a capability clears the cache.
func DefineCapability(c Capability, iface reflect.Type) {
	if iface == nil || iface.Kind() != reflect.Interface {
		panic(fmt.Sprintf("component: capability %s needs an interface type, got %v", c, iface))
	}
	capsMu.Lock()
	defer capsMu.Unlock()
	capIfaces[c] = iface
	clear(capsByType)
}

// TypeCapabilities resolves the capability set of typ once and caches it.
func TypeCapabilities(typ reflect.Type) Capability {
	if typ == nil {
		return 0
	}
	capsMu.RLock()
	caps, ok := capsByType[typ]
	capsMu.RUnlock()
	if ok {
		return caps
	}

	capsMu.Lock()
	defer capsMu.Unlock()
	caps = 0
	for c, iface := range capIfaces {
		if typ.Implements(iface) {
			caps |= c
		}
	}
	capsByType[typ] = caps
	return caps
}

// Capabilities returns the capability set of the values stored under id.
func Capabilities(id ComponentID) Capability {
	return TypeCapabilities(KindType(id))
}
