package scenefile

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"sort"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jakecoffman/cp"
	"golang.org/x/image/colornames"

	"github.com/milk9111/nodebridge/scene"
	"github.com/milk9111/nodebridge/script"
)

var ErrUnknownNodeType = errors.New("scenefile: unknown node type")

// BuildContext carries the engine resources node builders need.
type BuildContext struct {
	Space *cp.Space
	// LoadFile reads images and scripts referenced by a scene. Defaults to Load.
	LoadFile func(name string) ([]byte, error)
}

func (c *BuildContext) load(name string) ([]byte, error) {
	if c != nil && c.LoadFile != nil {
		return c.LoadFile(name)
	}
	return Load(name)
}

type nodeBuildFn func(spec NodeSpec, ctx *BuildContext) (scene.Node, error)

var nodeRegistry = map[string]nodeBuildFn{
	"group":  buildGroup,
	"sprite": buildSprite,
	"rect":   buildRect,
	"label":  buildLabel,
	"body":   buildBody,
	"script": buildScript,
}

// NodeTypes lists the type names scene files may use.
func NodeTypes() []string {
	out := make([]string, 0, len(nodeRegistry))
	for name := range nodeRegistry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Build instantiates spec and its children. Nothing is added to a tree.
func Build(spec NodeSpec, ctx *BuildContext) (scene.Node, error) {
	typ := strings.ToLower(strings.TrimSpace(spec.Type))
	if typ == "" {
		typ = "group"
	}
	builder, ok := nodeRegistry[typ]
	if !ok {
		return nil, fmt.Errorf("build %q: %w %q", spec.Name, ErrUnknownNodeType, spec.Type)
	}
	if strings.TrimSpace(spec.Name) == "" {
		return nil, fmt.Errorf("build %s node: name is required", typ)
	}
	node, err := builder(spec, ctx)
	if err != nil {
		return nil, fmt.Errorf("build %q: %w", spec.Name, err)
	}
	for _, childSpec := range spec.Children {
		child, err := Build(childSpec, ctx)
		if err != nil {
			scene.Discard(node)
			return nil, fmt.Errorf("build %q: %w", spec.Name, err)
		}
		if err := scene.AddChild(node, child); err != nil {
			scene.Discard(child)
			scene.Discard(node)
			return nil, fmt.Errorf("build %q: %w", spec.Name, err)
		}
	}
	return node, nil
}

// BuildScene builds every top-level node of a scene under a group named
// after the scene. On error every node built so far is discarded, which also
// takes their bodies out of ctx.Space.
func BuildScene(spec SceneSpec, ctx *BuildContext) (*scene.Group, []scene.Node, error) {
	name := spec.Name
	if name == "" {
		name = "Scene"
	}
	root := scene.NewGroup(name)
	nodes := make([]scene.Node, 0, len(spec.Nodes))
	for _, ns := range spec.Nodes {
		n, err := Build(ns, ctx)
		if err != nil {
			scene.Discard(root)
			return nil, nil, err
		}
		if err := scene.AddChild(root, n); err != nil {
			scene.Discard(n)
			scene.Discard(root)
			return nil, nil, err
		}
		nodes = append(nodes, n)
	}
	return root, nodes, nil
}

func buildGroup(spec NodeSpec, _ *BuildContext) (scene.Node, error) {
	return scene.NewGroup(spec.Name), nil
}

func buildSprite(spec NodeSpec, ctx *BuildContext) (scene.Node, error) {
	p, err := DecodeParams[SpriteParams](spec.Params)
	if err != nil {
		return nil, fmt.Errorf("decode sprite params: %w", err)
	}
	var img *ebiten.Image
	if p.Image != "" {
		data, err := ctx.load(p.Image)
		if err != nil {
			return nil, fmt.Errorf("load image %s: %w", p.Image, err)
		}
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode image %s: %w", p.Image, err)
		}
		img = ebiten.NewImageFromImage(decoded)
	}
	return scene.NewSprite(spec.Name, img, p.X, p.Y), nil
}

func buildRect(spec NodeSpec, _ *BuildContext) (scene.Node, error) {
	p, err := DecodeParams[RectParams](spec.Params)
	if err != nil {
		return nil, fmt.Errorf("decode rect params: %w", err)
	}
	c, err := parseColor(p.Color)
	if err != nil {
		return nil, err
	}
	return scene.NewRect(spec.Name, p.X, p.Y, p.Width, p.Height, c), nil
}

func buildLabel(spec NodeSpec, _ *BuildContext) (scene.Node, error) {
	p, err := DecodeParams[LabelParams](spec.Params)
	if err != nil {
		return nil, fmt.Errorf("decode label params: %w", err)
	}
	return scene.NewLabel(spec.Name, p.Text, int(p.X), int(p.Y)), nil
}

func buildBody(spec NodeSpec, ctx *BuildContext) (scene.Node, error) {
	p, err := DecodeParams[BodyParams](spec.Params)
	if err != nil {
		return nil, fmt.Errorf("decode body params: %w", err)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return nil, fmt.Errorf("body size %gx%g must be positive", p.Width, p.Height)
	}
	var space *cp.Space
	if ctx != nil {
		space = ctx.Space
	}
	return scene.NewBody(spec.Name, space, p.X, p.Y, p.Width, p.Height, p.Mass), nil
}

func buildScript(spec NodeSpec, ctx *BuildContext) (scene.Node, error) {
	p, err := DecodeParams[ScriptParams](spec.Params)
	if err != nil {
		return nil, fmt.Errorf("decode script params: %w", err)
	}
	src := []byte(p.Source)
	if p.File != "" {
		if src, err = ctx.load(p.File); err != nil {
			return nil, fmt.Errorf("load script %s: %w", p.File, err)
		}
	}
	n := script.New(spec.Name, src)
	n.Globals = p.Globals
	return n, nil
}

// parseColor accepts a colornames name or #rrggbb / #rrggbbaa. Empty means
// the node default.
func parseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil, nil
	}
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	var r, g, b uint8
	a := uint8(0xff)
	if _, err := fmt.Sscanf(hex[:6], "%02x%02x%02x", &r, &g, &b); err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	if len(hex) == 8 {
		if _, err := fmt.Sscanf(hex[6:], "%02x", &a); err != nil {
			return nil, fmt.Errorf("invalid color %q: %w", s, err)
		}
	}
	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}
