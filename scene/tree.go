package scene

import (
	"errors"
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// Drawer nodes render once per frame, parents before children.
type Drawer interface {
	Draw(screen *ebiten.Image)
}

// Tree owns a node hierarchy and its pending-release queue.
type Tree struct {
	root    Node
	pending []Node
	frame   uint64
	freed   int
}

// NewTree makes root the root of a new tree.
func NewTree(root Node) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("scene: new tree: nil root")
	}
	rb := bind(root)
	if rb.released {
		return nil, ErrReleased
	}
	if rb.parent != nil {
		return nil, fmt.Errorf("%w: %q cannot be a root", ErrHasParent, rb.name)
	}
	t := &Tree{root: root}
	t.adopt(root)
	return t, nil
}

func (t *Tree) Root() Node {
	return t.root
}

// Frame returns the number of completed updates.
func (t *Tree) Frame() uint64 {
	return t.frame
}

// Pending returns the number of nodes waiting for release.
func (t *Tree) Pending() int {
	return len(t.pending)
}

// Freed returns the total number of nodes freed by this tree.
func (t *Tree) Freed() int {
	return t.freed
}

// Update runs every Updater, then frees nodes queued during the frame. The
// flush is the tree's only safe deletion point.
func (t *Tree) Update() error {
	var errs []error
	Walk(t.root, func(n Node) bool {
		if n.base().released {
			return false
		}
		if u, ok := n.(Updater); ok {
			if err := u.Update(); err != nil {
				errs = append(errs, fmt.Errorf("update %s: %w", Path(n), err))
			}
		}
		return true
	})
	t.FlushReleases()
	t.frame++
	return errors.Join(errs...)
}

// Draw renders every Drawer that is not waiting for release.
func (t *Tree) Draw(screen *ebiten.Image) {
	Walk(t.root, func(n Node) bool {
		b := n.base()
		if b.released || b.queued {
			return false
		}
		if d, ok := n.(Drawer); ok {
			d.Draw(screen)
		}
		return true
	})
}

// FlushReleases frees every queued node and returns how many nodes were
// freed. Nodes queued while flushing wait for the next flush.
func (t *Tree) FlushReleases() int {
	if len(t.pending) == 0 {
		return 0
	}
	queue := t.pending
	t.pending = nil
	count := 0
	for _, n := range queue {
		b := n.base()
		if b.released {
			continue
		}
		if b.parent != nil {
			RemoveChild(b.parent, n)
		}
		if n == t.root {
			t.root = nil
		}
		count += free(n)
	}
	t.freed += count
	return count
}

func (t *Tree) enqueue(n Node) {
	t.pending = append(t.pending, n)
}

// adopt moves n's subtree into t and queues nodes released while detached.
func (t *Tree) adopt(n Node) {
	Walk(n, func(c Node) bool {
		b := bind(c)
		b.tree = t
		if b.queued && !b.released {
			t.enqueue(c)
		}
		return true
	})
}

// free releases n's subtree children first and returns the node count.
func free(n Node) int {
	b := n.base()
	if b.released {
		return 0
	}
	count := 0
	for _, c := range b.children {
		c.base().parent = nil
		count += free(c)
	}
	b.children = nil
	if f, ok := n.(Freer); ok {
		f.OnFree()
	}
	for key, v := range b.meta {
		delete(b.meta, key)
		if rc, ok := v.(RefCounted); ok {
			rc.Release()
		}
	}
	b.tree = nil
	b.queued = false
	b.released = true
	return count + 1
}

// Discard frees n and its subtree right away and returns the node count. It
// is for nodes that never joined a tree, such as half-built scenes; nodes
// owned by a tree are left alone and must go through QueueRelease.
func Discard(n Node) int {
	if n == nil {
		return 0
	}
	b := bind(n)
	if b.tree != nil {
		return 0
	}
	if b.parent != nil {
		RemoveChild(b.parent, n)
	}
	return free(n)
}
