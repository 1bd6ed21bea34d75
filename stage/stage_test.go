package stage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jakecoffman/cp"
	"github.com/rs/zerolog"

	"github.com/milk9111/nodebridge/bridge"
	"github.com/milk9111/nodebridge/ecs"
	"github.com/milk9111/nodebridge/ecs/component"
	"github.com/milk9111/nodebridge/logging"
	"github.com/milk9111/nodebridge/scene"
	"github.com/milk9111/nodebridge/scenefile"
	"github.com/milk9111/nodebridge/script"
)

func TestMain(m *testing.M) {
	logging.ConfigureTests()
	m.Run()
}

func newStage(t *testing.T) *Stage {
	t.Helper()
	s, err := New()
	if err != nil {
		t.Fatalf("new stage: %v", err)
	}
	if err := s.Load("player.yaml"); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func kindNames(w *ecs.World, e ecs.Entity) []string {
	var out []string
	for _, entry := range w.Components(e) {
		out = append(out, component.KindName(entry.ID))
	}
	return out
}

func TestLoadSpawnsTopLevelNodes(t *testing.T) {
	s := newStage(t)
	entities := s.Entities()
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(entities))
	}

	want := []string{"bridge.Root", "script.Node", "scene.Rect", "scene.Label", "scene.Body", "component.Tags", "component.Props"}
	if diff := cmp.Diff(want, kindNames(s.World, entities[0])); diff != "" {
		t.Fatalf("player components mismatch (-want +got):\n%s", diff)
	}

	tags, ok := ecs.Get(s.World, entities[0], component.TagsComponent.Kind())
	if !ok || !tags.Has("player") {
		t.Fatalf("expected player tag, got %+v", tags)
	}

	root, ok := ecs.Get(s.World, entities[0], bridge.RootComponent.Kind())
	if !ok {
		t.Fatalf("expected root component")
	}
	if _, ok := root.Node.(*script.Node); !ok {
		t.Fatalf("expected script root, got %T", root.Node)
	}
	got, err := bridge.EntityOf(root.Node)
	if err != nil || got != entities[0] {
		t.Fatalf("EntityOf = %v, %v", got, err)
	}
}

func TestReloadFreesOldScene(t *testing.T) {
	s := newStage(t)
	old := s.Entities()
	oldRoot, _ := ecs.Get(s.World, old[0], bridge.RootComponent.Kind())
	player := oldRoot.Node

	if err := s.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	for _, e := range old {
		if ecs.IsAlive(s.World, e) {
			t.Fatalf("expected %s despawned", e)
		}
	}
	if len(s.Entities()) != 2 {
		t.Fatalf("expected 2 new entities, got %d", len(s.Entities()))
	}
	if player.(*script.Node).Released() {
		t.Fatalf("node freed before the frame flush")
	}

	if err := s.Update(); err != nil {
		t.Fatalf("update: %v", err)
	}
	if !player.(*script.Node).Released() {
		t.Fatalf("expected old player freed after update")
	}
	if len(s.Tree.Root().Children()) != 1 {
		t.Fatalf("expected only the new scene under root, got %d", len(s.Tree.Root().Children()))
	}
}

func TestSpawnTimedExpires(t *testing.T) {
	s := newStage(t)
	rect := scene.NewRect("Spark", 0, 0, 4, 4, nil)

	e, err := s.SpawnTimed(rect, 2)
	if err != nil {
		t.Fatalf("spawn timed: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.Update(); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
	}
	if ecs.IsAlive(s.World, e) {
		t.Fatalf("expected TTL entity despawned")
	}
	if !rect.Released() {
		t.Fatalf("expected spark node freed")
	}
}

func TestStageErrors(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatalf("new stage: %v", err)
	}
	if err := s.Reload(); !errors.Is(err, ErrNoScene) {
		t.Fatalf("expected ErrNoScene, got %v", err)
	}
	if _, err := s.SpawnTimed(scene.NewGroup("x"), 1); !errors.Is(err, ErrNoScene) {
		t.Fatalf("expected ErrNoScene, got %v", err)
	}
	if err := s.Load("missing.yaml"); err == nil {
		t.Fatalf("expected error for missing scene")
	}
}

func TestCloseFreesEverything(t *testing.T) {
	s := newStage(t)
	s.Close()
	if s.World.Len() != 0 {
		t.Fatalf("expected empty world, got %d", s.World.Len())
	}
	if len(s.Tree.Root().Children()) != 0 {
		t.Fatalf("expected empty root")
	}
}

func TestDump(t *testing.T) {
	s := newStage(t)
	entities := s.Entities()

	got := DumpEntity(s.World, entities[1])
	want := entities[1].String() + " Crate: bridge.Root scene.Group scene.Rect"
	if got != want {
		t.Fatalf("DumpEntity = %q, want %q", got, want)
	}

	lines := strings.Split(strings.TrimSpace(s.Dump()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 dump lines, got %q", lines)
	}
	if !strings.Contains(lines[0], " Player: bridge.Root script.Node") {
		t.Fatalf("unexpected player line %q", lines[0])
	}
}

func TestUsesTracksSceneFiles(t *testing.T) {
	s := newStage(t)
	tests := []struct {
		name string
		want bool
	}{
		{name: "player.yaml", want: true},
		{name: "player.tengo", want: true},
		{name: filepath.Join(scenefile.DiskDir, "player.tengo"), want: true},
		{name: "other.yaml", want: false},
		{name: "enemy.tengo", want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := s.Uses(tc.name); got != tc.want {
				t.Fatalf("Uses(%q) = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}

func countBodies(space *cp.Space) int {
	n := 0
	space.EachBody(func(*cp.Body) { n++ })
	return n
}

func TestFailedLoadKeepsSceneAndSpace(t *testing.T) {
	s := newStage(t)
	before := s.Entities()
	if got := countBodies(s.Space); got != 1 {
		t.Fatalf("expected the player body in space, got %d", got)
	}

	dir := t.TempDir()
	old := scenefile.DiskDir
	scenefile.DiskDir = dir
	t.Cleanup(func() { scenefile.DiskDir = old })
	broken := `name: Broken
nodes:
  - name: Floor
    type: body
    params: {width: 10, height: 10}
  - name: Oops
    type: mesh
`
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(broken), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := s.Load("broken.yaml"); err == nil {
		t.Fatalf("expected load error")
	}
	if got := countBodies(s.Space); got != 1 {
		t.Fatalf("expected failed load to leave no bodies behind, got %d", got)
	}
	if diff := cmp.Diff(before, s.Entities()); diff != "" {
		t.Fatalf("expected old scene kept (-want +got):\n%s", diff)
	}
	if !s.Uses("player.yaml") || s.Uses("broken.yaml") {
		t.Fatalf("expected watched files of the old scene kept")
	}
}

func TestBodySyncMovesRect(t *testing.T) {
	s, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Load("player.yaml"); err != nil {
		t.Fatal(err)
	}
	player := s.Entities()[0]
	rect, ok := ecs.Get(s.World, player, s.Kinds.Rect)
	if !ok {
		t.Fatalf("expected rect component")
	}
	body, ok := ecs.Get(s.World, player, s.Kinds.Body)
	if !ok {
		t.Fatalf("expected body component")
	}
	startY := rect.Y

	for i := 0; i < 10; i++ {
		if err := s.Update(); err != nil {
			t.Fatal(err)
		}
	}
	x, y := body.Position()
	if rect.Y <= startY {
		t.Fatalf("expected rect to fall with its body, y stayed %v", rect.Y)
	}
	if rect.X != x-rect.W/2 || rect.Y != y-rect.H/2 {
		t.Fatalf("rect (%v,%v) not centered on body (%v,%v)", rect.X, rect.Y, x, y)
	}

	crate := s.Entities()[1]
	box := s.World.Components(crate)[2].Value.(*scene.Rect)
	if box.Y != 232 {
		t.Fatalf("rect without a body must not move, y=%v", box.Y)
	}
}

func TestCleanupDespawnFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	s, err := New(WithLogger(zerolog.New(&buf)))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Load("player.yaml"); err != nil {
		t.Fatal(err)
	}
	e := s.Entities()[1]

	if !s.despawnLogged(e) {
		t.Fatalf("expected first despawn to succeed")
	}
	buf.Reset()
	if s.despawnLogged(e) {
		t.Fatalf("expected despawn of a dead entity to fail")
	}
	out := buf.String()
	if !strings.Contains(out, "despawn failed") || !strings.Contains(out, e.String()) {
		t.Fatalf("expected warning naming %s, got %q", e, out)
	}
}
