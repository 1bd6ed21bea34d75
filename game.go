package main

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/rs/zerolog/log"
	"golang.design/x/clipboard"

	"github.com/milk9111/nodebridge/config"
	"github.com/milk9111/nodebridge/scene"
	"github.com/milk9111/nodebridge/scenefile"
	"github.com/milk9111/nodebridge/stage"
)

type Game struct {
	cfg    config.Config
	frames int

	stage     *stage.Stage
	watcher   *scenefile.Watcher
	inspector *Inspector
	clipboard bool
	sparks    int
}

func NewGame(cfg config.Config) (*Game, error) {
	st, err := stage.New()
	if err != nil {
		return nil, err
	}
	if err := st.Load(cfg.Scene); err != nil {
		return nil, err
	}

	g := &Game{
		cfg:       cfg,
		stage:     st,
		inspector: NewInspector(cfg.Width),
	}
	g.inspector.visible = cfg.Debug

	if cfg.Watch {
		w, err := scenefile.NewWatcher(cfg.SceneDir)
		if err != nil {
			log.Warn().Err(err).Str("dir", cfg.SceneDir).Msg("scene watcher disabled")
		} else {
			g.watcher = w
		}
	}

	if err := clipboard.Init(); err != nil {
		log.Warn().Err(err).Msg("clipboard unavailable")
	} else {
		g.clipboard = true
	}
	return g, nil
}

func (g *Game) Update() error {
	g.frames++

	if g.sceneChanged() || inpututil.IsKeyJustPressed(ebiten.KeyR) {
		if err := g.stage.Reload(); err != nil {
			log.Error().Err(err).Msg("reload failed")
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.inspector.visible = !g.inspector.visible
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyX) {
		if entities := g.stage.Entities(); len(entities) > 0 {
			if err := g.stage.Despawn(entities[0]); err != nil {
				log.Warn().Err(err).Msg("despawn failed")
			}
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyT) {
		g.spawnSpark()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) && g.clipboard {
		clipboard.Write(clipboard.FmtText, []byte(g.stage.Dump()))
		log.Info().Msg("entity dump copied to clipboard")
	}

	if err := g.stage.Update(); err != nil {
		log.Warn().Err(err).Msg("tree update")
	}
	g.inspector.Update(g.stage.Dump())
	return nil
}

func (g *Game) spawnSpark() {
	g.sparks++
	x, y := ebiten.CursorPosition()
	spark := scene.NewRect(fmt.Sprintf("Spark%d", g.sparks), float64(x), float64(y), 8, 8, nil)
	if _, err := g.stage.SpawnTimed(spark, g.cfg.TTLFrames); err != nil {
		log.Warn().Err(err).Msg("spawn spark failed")
	}
}

// sceneChanged drains pending watcher events without blocking and reports
// whether any of them touched the loaded scene.
func (g *Game) sceneChanged() bool {
	if g.watcher == nil {
		return false
	}
	changed := false
	for {
		select {
		case change, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return changed
			}
			if !g.stage.Uses(change.Name) {
				log.Debug().Str("file", change.Name).Msg("ignoring change outside the loaded scene")
				continue
			}
			log.Info().Str("file", change.Name).Stringer("kind", change.Kind).Msg("scene file changed")
			changed = true
		case err := <-g.watcher.Errors:
			if err != nil {
				log.Warn().Err(err).Msg("scene watcher")
			}
		default:
			return changed
		}
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.stage.Tree.Draw(screen)
	g.inspector.Draw(screen)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Frames: %d    FPS: %.2f    Entities: %d", g.frames, ebiten.ActualFPS(), g.stage.World.Len()), 0, g.cfg.Height-16)
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

func (g *Game) Close() {
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	g.stage.Close()
}
