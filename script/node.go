// Package script provides a scene node whose spawn hook runs a tengo script.
//
// The script sees three globals: `entity` (int), `name` (string) and `props`
// (a map it may fill), plus any Node.Globals. It may call `tag(...)` with one
// or more strings. After
// the run, tags become a component.Tags and a non-empty props map becomes a
// component.Props on the spawned entity.
package script

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/milk9111/nodebridge/ecs"
	"github.com/milk9111/nodebridge/ecs/component"
	"github.com/milk9111/nodebridge/scene"
)

// DefaultTimeout bounds a single spawn hook run.
const DefaultTimeout = 250 * time.Millisecond

// Node is a scene node carrying a spawn hook script.
type Node struct {
	scene.Base
	Source  []byte
	Timeout time.Duration
	// Globals are extra script variables. They cannot shadow the built-in
	// ones.
	Globals map[string]any
}

func New(name string, src []byte) *Node {
	n := &Node{Source: src, Timeout: DefaultTimeout}
	n.SetName(name)
	return n
}

// Spawn runs the script against the entity being attached.
func (n *Node) Spawn(b *ecs.EntityBuilder) error {
	if len(n.Source) == 0 {
		return nil
	}

	var tags []string
	tagFn := &tengo.UserFunction{
		Name: "tag",
		Value: func(args ...tengo.Object) (tengo.Object, error) {
			if len(args) == 0 {
				return nil, tengo.ErrWrongNumArguments
			}
			for _, arg := range args {
				str, ok := arg.(*tengo.String)
				if !ok {
					return nil, tengo.ErrInvalidArgumentType{Name: "name", Expected: "string", Found: arg.TypeName()}
				}
				tags = append(tags, str.Value)
			}
			return tengo.UndefinedValue, nil
		},
	}

	s := tengo.NewScript(n.Source)
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))
	globals := map[string]any{
		"tag":    tagFn,
		"entity": int64(b.Id()),
		"name":   n.Name(),
		"props":  map[string]any{},
	}
	for k, v := range n.Globals {
		if _, builtin := globals[k]; !builtin {
			globals[k] = v
		}
	}
	for _, k := range slices.Sorted(maps.Keys(globals)) {
		if err := s.Add(k, globals[k]); err != nil {
			return fmt.Errorf("script %q: global %s: %w", n.Name(), k, err)
		}
	}

	timeout := n.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	compiled, err := s.RunContext(ctx)
	if err != nil {
		return fmt.Errorf("script %q: %w", n.Name(), err)
	}

	if len(tags) > 0 {
		ecs.With(b, component.TagsComponent.Kind(), &component.Tags{Names: tags})
	}
	if props := compiled.Get("props").Map(); len(props) > 0 {
		ecs.With(b, component.PropsComponent.Kind(), &component.Props{Values: props})
	}
	return b.Err()
}
