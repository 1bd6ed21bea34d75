package scenefile

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jakecoffman/cp"

	"github.com/milk9111/nodebridge/scene"
	"github.com/milk9111/nodebridge/script"
)

func childNames(n scene.Node) []string {
	var names []string
	for _, c := range n.Children() {
		names = append(names, c.Name())
	}
	return names
}

func TestBuildEmbeddedScene(t *testing.T) {
	spec, err := LoadSceneSpec("player.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	space := cp.NewSpace()
	root, nodes, err := BuildScene(spec, &BuildContext{Space: space})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if root.Name() != "Demo" || len(nodes) != 2 {
		t.Fatalf("unexpected scene %q with %d nodes", root.Name(), len(nodes))
	}

	player, ok := nodes[0].(*script.Node)
	if !ok {
		t.Fatalf("expected script node, got %T", nodes[0])
	}
	if len(player.Source) == 0 {
		t.Fatalf("expected script source loaded from file")
	}
	if diff := cmp.Diff(map[string]any{"max_hp": 3}, player.Globals); diff != "" {
		t.Fatalf("globals mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Sprite", "_Internal", "Health", "Body"}, childNames(player)); diff != "" {
		t.Fatalf("children mismatch (-want +got):\n%s", diff)
	}
	body := player.Children()[3].(*scene.Body)
	if !space.ContainsBody(body.Body) {
		t.Fatalf("expected body added to the build space")
	}
	box := nodes[1].Children()[0].(*scene.Rect)
	if diff := cmp.Diff(color.NRGBA{R: 0xc0, G: 0x80, B: 0x40, A: 0xff}, box.Color); diff != "" {
		t.Fatalf("color mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		spec NodeSpec
		want error
	}{
		{
			name: "unknown_type",
			spec: NodeSpec{Name: "Thing", Type: "mesh"},
			want: ErrUnknownNodeType,
		},
		{
			name: "unknown_child_type",
			spec: NodeSpec{Name: "Root", Children: []NodeSpec{{Name: "Thing", Type: "light"}}},
			want: ErrUnknownNodeType,
		},
		{
			name: "missing_name",
			spec: NodeSpec{Type: "group"},
		},
		{
			name: "bad_color",
			spec: NodeSpec{Name: "Box", Type: "rect", Params: map[string]any{"color": "#12"}},
		},
		{
			name: "empty_body",
			spec: NodeSpec{Name: "Body", Type: "body"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.spec, nil)
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func countBodies(space *cp.Space) int {
	n := 0
	space.EachBody(func(*cp.Body) { n++ })
	return n
}

func TestFailedBuildRemovesBodies(t *testing.T) {
	floor := NodeSpec{Name: "Floor", Type: "body", Params: map[string]any{"width": 10, "height": 10}}
	crate := NodeSpec{Name: "Crate", Type: "body", Params: map[string]any{"width": 4, "height": 4, "mass": 1}}
	bad := NodeSpec{Name: "Oops", Type: "mesh"}

	tests := []struct {
		name  string
		scene SceneSpec
	}{
		{
			name:  "failing_sibling",
			scene: SceneSpec{Name: "Broken", Nodes: []NodeSpec{floor, bad}},
		},
		{
			name:  "failing_child",
			scene: SceneSpec{Name: "Broken", Nodes: []NodeSpec{{Name: "Level", Children: []NodeSpec{floor, crate, bad}}}},
		},
		{
			name: "failing_grandchild",
			scene: SceneSpec{Name: "Broken", Nodes: []NodeSpec{
				crate,
				{Name: "Level", Children: []NodeSpec{floor, {Name: "Inner", Children: []NodeSpec{bad}}}},
			}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			space := cp.NewSpace()
			root, nodes, err := BuildScene(tc.scene, &BuildContext{Space: space})
			if !errors.Is(err, ErrUnknownNodeType) {
				t.Fatalf("expected ErrUnknownNodeType, got %v", err)
			}
			if root != nil || nodes != nil {
				t.Fatalf("expected no scene on failure")
			}
			if got := countBodies(space); got != 0 {
				t.Fatalf("expected no bodies left in space, got %d", got)
			}
		})
	}
}

func TestDecodeParams(t *testing.T) {
	got, err := DecodeParams[RectParams](map[string]any{"x": 1, "y": 2.5, "width": 3, "height": 4, "color": "red"})
	if err != nil {
		t.Fatal(err)
	}
	want := RectParams{PositionParams: PositionParams{X: 1, Y: 2.5}, Width: 3, Height: 4, Color: "red"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("params mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"body", "group", "label", "rect", "script", "sprite"}, NodeTypes()); diff != "" {
		t.Fatalf("node types mismatch (-want +got):\n%s", diff)
	}
}

func TestDiskOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	old := DiskDir
	DiskDir = dir
	t.Cleanup(func() { DiskDir = old })

	body := "name: Disk\nnodes:\n  - name: Only\n"
	if err := os.WriteFile(filepath.Join(dir, "player.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	spec, err := LoadSceneSpec("scenes/player.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if spec.Name != "Disk" || len(spec.Nodes) != 1 {
		t.Fatalf("expected disk scene, got %+v", spec)
	}
	if _, ok := ModTime("player.yaml"); !ok {
		t.Fatalf("expected mod time for disk file")
	}
}

func nextChange(t *testing.T, w *Watcher) Change {
	t.Helper()
	select {
	case got := <-w.Events:
		return got
	case err := <-w.Errors:
		t.Fatalf("watch error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for scene change")
	}
	return Change{}
}

func TestWatcherReportsSceneChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "level.yaml")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("name: Level\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	want := Change{Name: "level.yaml", Path: path, Kind: ChangeScene}
	if diff := cmp.Diff(want, nextChange(t, w)); diff != "" {
		t.Fatalf("change mismatch (-want +got):\n%s", diff)
	}

	select {
	case extra := <-w.Events:
		t.Fatalf("expected one change per burst, got extra %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}

	script := filepath.Join(dir, "boss.tengo")
	if err := os.WriteFile(script, []byte("x := 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := nextChange(t, w); got.Name != "boss.tengo" || got.Kind != ChangeScript {
		t.Fatalf("unexpected script change %+v", got)
	}
}

func TestSceneFiles(t *testing.T) {
	spec, err := LoadSceneSpec("player.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"player.tengo"}, spec.Files()); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}

	custom := SceneSpec{Nodes: []NodeSpec{
		{Name: "A", Type: "script", Params: map[string]any{"file": "scenes/a.tengo"}},
		{Name: "B", Children: []NodeSpec{
			{Name: "Art", Type: "sprite", Params: map[string]any{"image": "art.png"}},
			{Name: "Again", Type: "script", Params: map[string]any{"file": "a.tengo"}},
			{Name: "Inline", Type: "script", Params: map[string]any{"source": "x := 1"}},
		}},
	}}
	if diff := cmp.Diff([]string{"a.tengo", "art.png"}, custom.Files()); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}
	if got := SceneName(filepath.Join(DiskDir, "player.yaml")); got != "player.yaml" {
		t.Fatalf("SceneName = %q", got)
	}
}
