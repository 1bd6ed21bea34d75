// Package bridge mirrors scene node subtrees onto ECS entities and tears the
// mirror down again.
//
// Attach registers one component per eligible node, keyed by the node's
// concrete type, plus a Root component pointing at the subtree root. The root
// node gets a back-reference to its entity in its metadata slot. Despawn
// strips components tagged component.RemoveOnDespawn, queues the root node for
// release on its scene.Tree and retires the entity.
//
// All calls must happen on the goroutine that owns the scene tree.
package bridge

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/milk9111/nodebridge/ecs"
	"github.com/milk9111/nodebridge/ecs/component"
	"github.com/milk9111/nodebridge/marshal"
	"github.com/milk9111/nodebridge/scene"
)

const (
	// ReservedPrefix excludes children from automatic registration.
	ReservedPrefix = "_"
	// MetaEntityKey is the metadata key holding the entity back-reference.
	MetaEntityKey = "Entity"
)

var (
	ErrNilWorld          = errors.New("bridge: world is nil")
	ErrNilNode           = errors.New("bridge: node is nil")
	ErrUnregisteredNode  = errors.New("bridge: node type not registered")
	ErrDuplicateNodeType = errors.New("bridge: node type already attached to entity")
	ErrAlreadyAttached   = errors.New("bridge: entity already has a root")
	ErrNoEntity          = errors.New("bridge: node has no entity")
	ErrMetaCorrupt       = errors.New("bridge: entity metadata corrupt")
)

// Root anchors an entity in the scene tree. It never owns Node; the tree
// frees it.
type Root struct {
	Node   scene.Node
	handle *marshal.Handle[ecs.Entity]
}

var RootComponent = component.NewComponent[Root]()

// Bridge attaches and despawns node-backed entities.
type Bridge struct {
	registry *Registry
	logger   zerolog.Logger
}

type Option func(*Bridge)

func WithLogger(l zerolog.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// New returns a bridge dispatching through reg. A nil reg is replaced by an
// empty registry.
func New(reg *Registry, opts ...Option) *Bridge {
	if reg == nil {
		reg = NewRegistry()
	}
	b := &Bridge{registry: reg, logger: log.Logger}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bridge) Registry() *Registry {
	return b.registry
}

// EntityOf reads the entity back-reference out of n's metadata slot.
func EntityOf(n scene.Node) (ecs.Entity, error) {
	if n == nil {
		return 0, ErrNilNode
	}
	v, ok := n.Meta(MetaEntityKey)
	if !ok {
		return 0, ErrNoEntity
	}
	e, err := marshal.Unwrap[ecs.Entity](v)
	if err != nil {
		return 0, errors.Join(ErrMetaCorrupt, err)
	}
	return e, nil
}
