// Package scene is a small retained-mode scene graph run by ebiten. Nodes are
// owned by their Tree; they are never freed directly, only queued for release
// and freed when the tree flushes at the end of a frame.
package scene

import (
	"errors"
	"fmt"
)

var (
	ErrHasParent = errors.New("scene: node already has a parent")
	ErrReleased  = errors.New("scene: node released")
	ErrCycle     = errors.New("scene: node cannot be its own ancestor")
)

// RefCounted metadata values are retained when stored and released when
// replaced, removed or when their node is freed.
type RefCounted interface {
	Retain()
	Release()
}

// Node is implemented by embedding Base.
type Node interface {
	Name() string
	Children() []Node
	SetMeta(key string, value any)
	Meta(key string) (any, bool)
	QueueRelease()
	base() *Base
}

// Updater nodes run once per frame.
type Updater interface {
	Update() error
}

// Freer nodes release engine resources when their node is freed.
type Freer interface {
	OnFree()
}

// Base holds the tree bookkeeping shared by all node types.
type Base struct {
	name     string
	self     Node
	parent   Node
	children []Node
	meta     map[string]any
	tree     *Tree
	queued   bool
	released bool
}

func (b *Base) base() *Base {
	return b
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) SetName(name string) {
	b.name = name
}

// Parent returns nil for roots and detached nodes.
func (b *Base) Parent() Node {
	return b.parent
}

// Children returns a copy of the ordered child list.
func (b *Base) Children() []Node {
	return append([]Node(nil), b.children...)
}

// Tree returns the tree the node belongs to, if any.
func (b *Base) Tree() *Tree {
	return b.tree
}

func (b *Base) Released() bool {
	return b.released
}

// SetMeta stores value under key. A nil value removes the key. The new value
// is retained before the old one is released, so storing the same value again
// never drops its last reference.
func (b *Base) SetMeta(key string, value any) {
	if b.released {
		return
	}
	if value != nil {
		if rc, ok := value.(RefCounted); ok {
			rc.Retain()
		}
	}
	old, hadOld := b.meta[key]
	if value == nil {
		delete(b.meta, key)
	} else {
		if b.meta == nil {
			b.meta = make(map[string]any)
		}
		b.meta[key] = value
	}
	if hadOld {
		if rc, ok := old.(RefCounted); ok {
			rc.Release()
		}
	}
}

func (b *Base) Meta(key string) (any, bool) {
	v, ok := b.meta[key]
	return v, ok
}

// QueueRelease schedules the node, and its subtree, to be freed at the next
// flush of its tree. It never frees synchronously.
func (b *Base) QueueRelease() {
	if b.released || b.queued {
		return
	}
	b.queued = true
	if b.tree != nil && b.self != nil {
		b.tree.enqueue(b.self)
	}
}

func (b *Base) init(self Node, name string) {
	b.self = self
	b.name = name
}

func bind(n Node) *Base {
	b := n.base()
	b.self = n
	return b
}

// AddChild appends child to parent. If parent is in a tree, the child's
// subtree joins it, including any release queued while detached.
func AddChild(parent, child Node) error {
	if parent == nil || child == nil {
		return fmt.Errorf("scene: add child: nil node")
	}
	pb, cb := bind(parent), bind(child)
	if pb.released || cb.released {
		return ErrReleased
	}
	if cb.parent != nil {
		return fmt.Errorf("%w: %q under %q", ErrHasParent, cb.name, cb.parent.Name())
	}
	for n := parent; n != nil; n = n.base().parent {
		if n == child {
			return ErrCycle
		}
	}
	cb.parent = parent
	pb.children = append(pb.children, child)
	if pb.tree != nil {
		pb.tree.adopt(child)
	}
	return nil
}

// RemoveChild detaches child from parent without freeing it.
func RemoveChild(parent, child Node) bool {
	if parent == nil || child == nil {
		return false
	}
	pb, cb := parent.base(), child.base()
	for i, c := range pb.children {
		if c == child {
			pb.children = append(pb.children[:i], pb.children[i+1:]...)
			cb.parent = nil
			Walk(child, func(n Node) bool {
				n.base().tree = nil
				return true
			})
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth-first, pre-order. Returning false
// skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.base().children {
		Walk(c, fn)
	}
}

// Path returns the slash-separated names from the root down to n.
func Path(n Node) string {
	if n == nil {
		return ""
	}
	if p := n.base().parent; p != nil {
		return Path(p) + "/" + n.Name()
	}
	return n.Name()
}
