package component

import (
	"reflect"
	"testing"
)

type plain struct{}

type marked struct {
	RemoveOnDespawn
	N int
}

type hooked interface {
	Hook()
}

type hookedThing struct{}

func (*hookedThing) Hook() {}

func TestCapabilities(t *testing.T) {
	plainKind := NewComponentKind[plain]()
	markedKind := NewComponentKind[marked]()
	ttl := TTLComponent.Kind()

	cases := []struct {
		name string
		id   ComponentID
		want Capability
	}{
		{"plain", plainKind.ID(), 0},
		{"marked", markedKind.ID(), CapRemovedOnDespawn},
		{"ttl", ttl.ID(), CapRemovedOnDespawn},
		{"props", PropsComponent.Kind().ID(), 0},
		{"unknown", ComponentID(0), 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Capabilities(c.id); got != c.want {
				t.Fatalf("expected %s, got %s", c.want, got)
			}
		})
	}
}

func TestDefineCapability(t *testing.T) {
	typ := reflect.TypeFor[*hookedThing]()
	before := TypeCapabilities(typ)

	const capTest Capability = 1 << 7
	DefineCapability(capTest, reflect.TypeFor[hooked]())
	if !TypeCapabilities(typ).Has(capTest) {
		t.Fatalf("expected cache refreshed after DefineCapability")
	}
	if before.Has(capTest) {
		t.Fatalf("capability should not exist before being defined")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for a non-interface capability")
		}
	}()
	DefineCapability(capTest, typ)
}

func TestCapabilityString(t *testing.T) {
	if got := (CapRemovedOnDespawn | CapSpawnHook).String(); got != "removed_on_despawn|spawn_hook" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Capability(0).String(); got != "none" {
		t.Fatalf("unexpected %q", got)
	}
	if Capability(0).Has(0) {
		t.Fatalf("empty set has nothing")
	}
}

func TestKindName(t *testing.T) {
	if got := KindName(TagsComponent.Kind().ID()); got != "component.Tags" {
		t.Fatalf("unexpected %q", got)
	}
	tags := &Tags{Names: []string{"enemy"}}
	if !tags.Has("enemy") || tags.Has("player") {
		t.Fatalf("unexpected Has result")
	}
}
