// Package stage owns a running scene: the node tree, the ECS world and the
// bridge between them. It loads scene files, spawns their top-level nodes as
// entities and tears them down again on reload.
package stage

import (
	"errors"
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/milk9111/nodebridge/bridge"
	"github.com/milk9111/nodebridge/ecs"
	"github.com/milk9111/nodebridge/ecs/component"
	"github.com/milk9111/nodebridge/ecs/system"
	"github.com/milk9111/nodebridge/scene"
	"github.com/milk9111/nodebridge/scenefile"
	"github.com/milk9111/nodebridge/script"
)

// Step is the fixed physics step used by Update.
const Step = 1.0 / 60.0

var ErrNoScene = errors.New("stage: no scene loaded")

// Stage owns scene loading, reloads and the per-frame update order.
type Stage struct {
	World  *ecs.World
	Bridge *bridge.Bridge
	Tree   *scene.Tree
	Space  *cp.Space

	Kinds  bridge.SceneKinds

	sched    *ecs.Scheduler
	root     *scene.Group
	scene    *scene.Group
	sceneRef string
	files    map[string]bool
	spawned  []ecs.Entity
	logger   zerolog.Logger
}

type Option func(*Stage)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Stage) {
		s.logger = l
	}
}

// New builds an empty stage with every scene node type registered.
func New(opts ...Option) (*Stage, error) {
	s := &Stage{logger: log.Logger}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	reg := bridge.NewRegistry()
	s.Kinds = bridge.RegisterSceneNodes(reg)
	bridge.RegisterNode[script.Node](reg)

	s.World = ecs.NewWorld()
	s.Bridge = bridge.New(reg, bridge.WithLogger(s.logger))
	s.Space = cp.NewSpace()
	s.Space.SetGravity(cp.Vector{X: 0, Y: 400})
	s.root = scene.NewGroup("Root")
	tree, err := scene.NewTree(s.root)
	if err != nil {
		return nil, err
	}
	s.Tree = tree
	s.sched = ecs.NewScheduler(
		&bodySync{bodies: s.Kinds.Body, rects: s.Kinds.Rect},
		system.NewTTLSystem(s.Bridge),
	)
	return s, nil
}

// Load builds the named scene file and spawns one entity per top-level node.
// A previously loaded scene is despawned first.
func (s *Stage) Load(name string) error {
	spec, err := scenefile.LoadSceneSpec(name)
	if err != nil {
		return err
	}
	group, nodes, err := scenefile.BuildScene(spec, &scenefile.BuildContext{Space: s.Space})
	if err != nil {
		return fmt.Errorf("stage: build %s: %w", name, err)
	}

	s.Unload()
	if err := scene.AddChild(s.root, group); err != nil {
		return err
	}
	s.scene = group
	s.sceneRef = name
	s.files = map[string]bool{scenefile.SceneName(name): true}
	for _, f := range spec.Files() {
		s.files[f] = true
	}

	var errs []error
	for _, n := range nodes {
		eb, err := s.Bridge.Spawn(s.World, n)
		if err != nil {
			errs = append(errs, fmt.Errorf("spawn %s: %w", scene.Path(n), err))
			continue
		}
		s.spawned = append(s.spawned, eb.Id())
	}
	s.logger.Info().
		Str("scene", name).
		Int("entities", len(s.spawned)).
		Msg("scene loaded")
	return errors.Join(errs...)
}

// Reload despawns the current scene and loads it again from its file.
func (s *Stage) Reload() error {
	if s.sceneRef == "" {
		return ErrNoScene
	}
	return s.Load(s.sceneRef)
}

// Uses reports whether the loaded scene reads the named file, either the
// scene file itself or a script or image it references.
func (s *Stage) Uses(name string) bool {
	return s.files[scenefile.SceneName(name)]
}

// Unload despawns every entity spawned by the current scene and queues the
// scene group for release. Nodes are freed on the next Update.
func (s *Stage) Unload() {
	for _, e := range s.spawned {
		if !ecs.IsAlive(s.World, e) {
			continue
		}
		s.despawnLogged(e)
	}
	s.spawned = nil
	if s.scene != nil {
		s.scene.QueueRelease()
		s.scene = nil
	}
}

// SpawnTimed adds n under the current scene and spawns it with a TTL of
// frames updates.
func (s *Stage) SpawnTimed(n scene.Node, frames int) (ecs.Entity, error) {
	if s.scene == nil {
		return 0, ErrNoScene
	}
	if err := scene.AddChild(s.scene, n); err != nil {
		return 0, err
	}
	eb, err := s.Bridge.Spawn(s.World, n)
	if err != nil {
		n.QueueRelease()
		return 0, err
	}
	ecs.With(eb, component.TTLComponent.Kind(), &component.TTL{Frames: frames})
	if err := eb.Err(); err != nil {
		s.despawnLogged(eb.Id())
		return 0, err
	}
	s.spawned = append(s.spawned, eb.Id())
	return eb.Id(), nil
}

// despawnLogged despawns e on cleanup paths that have no caller to return
// the error to.
func (s *Stage) despawnLogged(e ecs.Entity) bool {
	if err := s.Bridge.DespawnAndFree(s.World, e); err != nil {
		s.logger.Warn().Err(err).Str("entity", e.String()).Msg("despawn failed")
		return false
	}
	return true
}

// Despawn retires e through the bridge.
func (s *Stage) Despawn(e ecs.Entity) error {
	return s.Bridge.DespawnAndFree(s.World, e)
}

// Entities returns the live entities spawned by the stage, in spawn order.
func (s *Stage) Entities() []ecs.Entity {
	out := make([]ecs.Entity, 0, len(s.spawned))
	for _, e := range s.spawned {
		if ecs.IsAlive(s.World, e) {
			out = append(out, e)
		}
	}
	return out
}

// Update steps physics, runs systems, reports lifecycle events and finally
// updates the tree, which frees released nodes.
func (s *Stage) Update() error {
	s.Space.Step(Step)
	s.sched.Update(s.World)
	for _, evt := range s.World.Events().Drain() {
		if le, ok := evt.Data.(ecs.LifecycleEvent); ok {
			s.logger.Debug().
				Str("entity", le.Entity.String()).
				Str("node", le.Node).
				Msg(string(le.Kind))
		}
	}
	return s.Tree.Update()
}

// Close despawns the scene and frees every node.
func (s *Stage) Close() {
	s.Unload()
	s.Tree.FlushReleases()
}

// bodySync moves each entity's rect so it stays centered on the entity's
// physics body.
type bodySync struct {
	bodies component.ComponentKind[scene.Body]
	rects  component.ComponentKind[scene.Rect]
}

func (b *bodySync) Update(w *ecs.World) {
	ecs.ForEach2(w, b.bodies, b.rects, func(_ ecs.Entity, body *scene.Body, rect *scene.Rect) {
		if body.Body == nil {
			return
		}
		x, y := body.Position()
		rect.X = x - rect.W/2
		rect.Y = y - rect.H/2
	})
}
