package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/jwebster45206/orchard-engine/internal/config"
	"github.com/jwebster45206/orchard-engine/internal/logger"
	"github.com/jwebster45206/orchard-engine/internal/storage"
	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/save"
	"github.com/jwebster45206/orchard-engine/pkg/tutorial"
	"github.com/jwebster45206/orchard-engine/pkg/world"
)

// consoleSlot is the game the console plays when none is named, so that
// restarting the console continues the same farm.
var consoleSlot = uuid.NewSHA1(uuid.NameSpaceOID, []byte("orchard-engine/console"))

type ConsoleConfig struct {
	GameID  uuid.UUID
	NewGame bool
	Speed   float64
	Frame   time.Duration
}

func main() {
	backend := flag.String("backend", getEnv("STORAGE_BACKEND", config.BackendGdata), "save backend: gdata, file, redis or mysql")
	gameID := flag.String("game", consoleSlot.String(), "game ID of the save slot")
	newGame := flag.Bool("new", false, "start a new game even if a save exists")
	speed := flag.Float64("speed", 1, "simulation speed multiplier")
	logFile := flag.String("log", getEnv("CONSOLE_LOG", "console.log"), "log file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.StorageBackend = *backend
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	id, err := uuid.Parse(*gameID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid game ID: %v\n", err)
		os.Exit(1)
	}
	if *speed <= 0 {
		fmt.Fprintf(os.Stderr, "Speed must be positive\n")
		os.Exit(1)
	}

	// The terminal belongs to the UI, so logs go to a file.
	f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	log := logger.SetupWriter(cfg, f).With("game_id", id.String())

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		if cat, err = catalog.LoadFile(cfg.CatalogPath); err == nil {
			err = cat.Validate()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := storage.Open(ctx, cfg, log)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open %s storage: %v\n", cfg.StorageBackend, err)
		os.Exit(1)
	}
	defer store.Close()

	codec, err := save.CodecFor(cfg.SaveFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid save format: %v\n", err)
		os.Exit(1)
	}

	game, err := startGame(context.Background(), store, cat, log, &ConsoleConfig{
		GameID:  id,
		NewGame: *newGame,
		Speed:   *speed,
		Frame:   250 * time.Millisecond,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start game: %v\n", err)
		os.Exit(1)
	}
	game.codec = codec

	p := tea.NewProgram(NewConsoleUI(game),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}

	if err := game.world.Save(context.Background()); err != nil {
		log.Warn("Final save failed", "error", err)
	}
}

// Game is a world running in this process, autosaving into one slot.
type Game struct {
	cfg    *ConsoleConfig
	world  *world.World
	guide  *tutorial.Guide
	feed   *feed
	slot   storage.Slot
	codec  save.Codec
	paused bool
}

// startGame resumes the slot's save when there is one. The save is applied
// one step per frame so the UI shows the load in progress.
func startGame(ctx context.Context, store storage.Storage, cat *catalog.Catalog, log *slog.Logger, cfg *ConsoleConfig) (*Game, error) {
	g := &Game{
		cfg:   cfg,
		guide: &tutorial.Guide{},
		feed:  newFeed(200),
		slot:  storage.Slot{Store: store, ID: cfg.GameID},
		codec: save.JSONCodec{},
	}
	g.world = world.New(world.Options{
		Catalog:   cat,
		Logger:    log,
		Presenter: g.guide,
		Slot:      g.slot,
	})
	g.world.Subscribe(g.feed.record)

	var snap *save.Snapshot
	if !cfg.NewGame {
		var err error
		if snap, err = g.slot.Read(ctx); err != nil {
			return nil, err
		}
	}
	if snap == nil {
		g.world.NewGame()
		log.Info("Started new game")
		return g, nil
	}
	g.world.BeginImport(snap)
	log.Info("Resuming saved game", "trees", len(snap.Trees), "quests", len(snap.Quest.Quests))
	return g, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
