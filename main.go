package main

import (
	"flag"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/profile"
	"github.com/rs/zerolog/log"

	"github.com/milk9111/nodebridge/config"
	"github.com/milk9111/nodebridge/logging"
	"github.com/milk9111/nodebridge/scenefile"
)

func main() {
	configPath := flag.String("config", "", "config file (.yaml, .yml or .toml)")
	sceneName := flag.String("scene", "", "scene file in the scene dir (overrides config)")
	debug := flag.Bool("debug", false, "show the entity inspector on start")
	watch := flag.Bool("watch", false, "reload the scene when its files change")
	logLevel := flag.String("log", "", "log level (overrides config)")
	cpuProfile := flag.Bool("profile", false, "write a CPU profile to the working directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.ConfigureRuntime()
		log.Fatal().Err(err).Msg("load config")
	}
	if *sceneName != "" {
		cfg.Scene = *sceneName
	}
	if *debug {
		cfg.Debug = true
	}
	if *watch {
		cfg.Watch = true
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logging.Configure(logging.ProfileRuntime, cfg.LogLevel)

	if *cpuProfile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	scenefile.DiskDir = cfg.SceneDir

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)

	game, err := NewGame(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("start game")
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		log.Error().Err(err).Msg("game exited")
		game.Close()
		os.Exit(1)
	}
}
