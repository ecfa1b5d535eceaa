// Command snaketerm plays snake in the terminal and posts each final score
// to the snake server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/snake/apps/go-server/internal/food"
	"github.com/robalobadob/snake/apps/go-server/internal/game"
	"github.com/robalobadob/snake/apps/go-server/internal/grid"
	"github.com/robalobadob/snake/apps/go-server/internal/report"
	"github.com/robalobadob/snake/apps/go-server/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "snaketerm:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	endpoint := flag.String("endpoint", getEnv("SCORE_ENDPOINT", report.DefaultEndpoint), "score submission URL")
	width := flag.Int("width", grid.DefaultCanvasWidth, "canvas width in pixels")
	height := flag.Int("height", grid.DefaultCanvasHeight, "canvas height in pixels")
	cell := flag.Int("cell", grid.DefaultCellSize, "cell size in pixels")
	seed := flag.Int64("seed", 0, "food RNG seed (0 = random)")
	offline := flag.Bool("offline", false, "do not contact the score server")
	flag.Parse()

	closeLog, err := setupLogging(os.Getenv("LOG_FILE"))
	if err != nil {
		return err
	}
	defer closeLog()

	cfg := game.DefaultConfig()
	cfg.Grid = grid.New(*width, *height, *cell)

	var opts []game.LoopOption
	if !*offline {
		client := report.NewClient(*endpoint, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if high, err := client.HighScore(ctx); err == nil {
			cfg.InitialHighScore = high
		} else {
			log.Warn().Err(err).Msg("fetch high score")
		}
		cancel()
		opts = append(opts, game.WithReporter(client))
	}

	var placer *food.Placer
	if *seed != 0 {
		placer = food.NewSeeded(cfg.Grid, *seed)
	}
	eng, err := game.NewEngine(cfg, placer)
	if err != nil {
		return fmt.Errorf("configure game: %w", err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	defer screen.Fini()

	// Ticks arrive on timer goroutines; hand them to the event loop for drawing.
	opts = append(opts, game.WithObserver(func(s game.Snapshot) {
		_ = screen.PostEvent(tcell.NewEventInterrupt(s))
	}))
	loop := game.NewLoop(eng, opts...)
	defer loop.Close()

	tui.Draw(screen, loop.Snapshot())
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventInterrupt:
			if snap, ok := ev.Data().(game.Snapshot); ok {
				tui.Draw(screen, snap)
			}
		case *tcell.EventResize:
			screen.Sync()
			tui.Draw(screen, loop.Snapshot())
		case *tcell.EventKey:
			act, dir := tui.ActionFor(ev)
			if !tui.Apply(loop, act, dir) {
				return nil
			}
		}
	}
}

// setupLogging sends zerolog output to path, or discards it: stderr is the game screen.
func setupLogging(path string) (func(), error) {
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if path == "" {
		log.Logger = zerolog.New(io.Discard)
		return func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.Logger = zerolog.New(f).With().Timestamp().Str("app", "snaketerm").Logger()
	return func() { _ = f.Close() }, nil
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
