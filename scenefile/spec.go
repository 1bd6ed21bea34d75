package scenefile

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// NodeSpec describes one node and its children. Params are decoded by the
// builder registered for Type.
type NodeSpec struct {
	Name     string         `yaml:"name"`
	Type     string         `yaml:"type"`
	Params   map[string]any `yaml:"params"`
	Children []NodeSpec     `yaml:"children"`
}

// SceneSpec is the top-level document of a scene file.
type SceneSpec struct {
	Name  string     `yaml:"name"`
	Nodes []NodeSpec `yaml:"nodes"`
}

// Files lists the files the scene references, scripts and images, in node
// order without duplicates. Nodes whose params do not decode are skipped;
// Build reports those.
func (s SceneSpec) Files() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = SceneName(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	var walk func(ns NodeSpec)
	walk = func(ns NodeSpec) {
		switch strings.ToLower(strings.TrimSpace(ns.Type)) {
		case "script":
			if p, err := DecodeParams[ScriptParams](ns.Params); err == nil {
				add(p.File)
			}
		case "sprite":
			if p, err := DecodeParams[SpriteParams](ns.Params); err == nil {
				add(p.Image)
			}
		}
		for _, c := range ns.Children {
			walk(c)
		}
	}
	for _, ns := range s.Nodes {
		walk(ns)
	}
	return out
}

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("scenefile: load %s: %w", filename, err)
	}
	return ParseSpec[T](data, filename)
}

func ParseSpec[T any](data []byte, filename string) (T, error) {
	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		var zero T
		return zero, fmt.Errorf("scenefile: unmarshal %s: %w", filename, err)
	}
	return spec, nil
}

func LoadSceneSpec(filename string) (SceneSpec, error) {
	return LoadSpec[SceneSpec](filename)
}

// DecodeParams re-decodes a loosely typed params map into T.
func DecodeParams[T any](raw map[string]any) (T, error) {
	var zero T
	if raw == nil {
		return zero, nil
	}
	b, err := yaml.Marshal(raw)
	if err != nil {
		return zero, err
	}
	var out T
	if err := yaml.Unmarshal(b, &out); err != nil {
		return zero, err
	}
	return out, nil
}

type PositionParams struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type SpriteParams struct {
	PositionParams `yaml:",inline"`
	Image          string `yaml:"image"`
}

type RectParams struct {
	PositionParams `yaml:",inline"`
	Width          float64 `yaml:"width"`
	Height         float64 `yaml:"height"`
	Color          string  `yaml:"color"`
}

type LabelParams struct {
	PositionParams `yaml:",inline"`
	Text           string `yaml:"text"`
}

type BodyParams struct {
	PositionParams `yaml:",inline"`
	Width          float64 `yaml:"width"`
	Height         float64 `yaml:"height"`
	Mass           float64 `yaml:"mass"`
}

type ScriptParams struct {
	Source  string         `yaml:"source"`
	File    string         `yaml:"file"`
	Globals map[string]any `yaml:"globals"`
}
