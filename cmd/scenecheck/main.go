// Command scenecheck loads a scene without opening a window, spawns it,
// prints every entity with its component kinds and the registered node types
// the scene never uses, then despawns it and checks that all nodes were freed.
package main

import (
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/milk9111/nodebridge/ecs/component"
	"github.com/milk9111/nodebridge/logging"
	"github.com/milk9111/nodebridge/scenefile"
	"github.com/milk9111/nodebridge/stage"
)

func main() {
	dir := flag.String("dir", scenefile.DiskDir, "scene directory checked before the embedded scenes")
	frames := flag.Int("frames", 1, "updates to run before despawning")
	logLevel := flag.String("log", "warn", "log level")
	flag.Parse()

	logging.Configure(logging.ProfileRuntime, *logLevel)
	scenefile.DiskDir = *dir

	scenes := flag.Args()
	if len(scenes) == 0 {
		scenes = []string{"player.yaml"}
	}

	failed := false
	for _, name := range scenes {
		if err := check(name, *frames); err != nil {
			log.Error().Err(err).Str("scene", name).Msg("check failed")
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func check(name string, frames int) error {
	st, err := stage.New()
	if err != nil {
		return err
	}
	if err := st.Load(name); err != nil {
		return err
	}
	registered := make(map[string]bool)
	for _, typ := range st.Bridge.Registry().Types() {
		registered[strings.TrimPrefix(typ, "*")] = true
	}
	for i := 0; i < frames; i++ {
		if err := st.Update(); err != nil {
			return err
		}
	}

	fmt.Printf("%s\n%s", name, st.Dump())
	for _, e := range st.Entities() {
		for _, entry := range st.World.Components(e) {
			delete(registered, component.KindName(entry.ID))
		}
	}
	if len(registered) > 0 {
		fmt.Printf("unused node types: %s\n", strings.Join(slices.Sorted(maps.Keys(registered)), " "))
	}

	st.Close()
	if n := st.World.Len(); n != 0 {
		return fmt.Errorf("%d entities left after despawn", n)
	}
	if n := len(st.Tree.Root().Children()); n != 0 {
		return fmt.Errorf("%d nodes left under root after flush", n)
	}
	fmt.Printf("ok: %d nodes freed\n", st.Tree.Freed())
	return nil
}
