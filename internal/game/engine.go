// internal/game/engine.go
//
// Core state machine for a single snake game.
// Responsibilities:
//   - Own all run state: snake body, committed + pending direction, food,
//     score, speed, run state, and the process-lifetime high score.
//   - Apply one tick (Step): commit turn, move head, detect wall/self
//     collision, eat or translate.
//   - Lifecycle transitions: Start, Pause, Reset.
//
// Notes:
//   - Collision is checked against the body before the tail is removed, so
//     the cell the tail is leaving still counts as occupied.
//   - Engine is not safe for concurrent use; Loop serializes access.

package game

import (
	"slices"

	"github.com/robalobadob/snake/apps/go-server/internal/food"
	"github.com/robalobadob/snake/apps/go-server/internal/grid"
)

// Engine holds the state of one game across runs.
type Engine struct {
	cfg    Config
	placer *food.Placer

	snake   []grid.Cell // head first
	dir     Direction   // committed
	pending Direction   // applied on next Step
	food    grid.Cell
	score   int
	speed   int
	ticks   int
	state   RunState

	highScore  int
	finalScore int
}

// NewEngine validates cfg and returns an idle engine with a fresh run.
// A nil placer gets a time-seeded one over cfg.Grid.
func NewEngine(cfg Config, placer *food.Placer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if placer == nil {
		placer = food.NewPlacer(cfg.Grid, nil)
	}
	e := &Engine{cfg: cfg, placer: placer, highScore: cfg.InitialHighScore}
	e.newRun()
	e.state = StateIdle
	return e, nil
}

// newRun re-creates snake, direction, score, speed and food.
func (e *Engine) newRun() {
	e.snake = slices.Clone(e.cfg.InitialSnake)
	e.dir = e.cfg.InitialDirection
	e.pending = e.cfg.InitialDirection
	e.score = 0
	e.ticks = 0
	e.speed = e.cfg.InitialSpeed
	e.finalScore = 0
	// Validate guarantees at least one free cell here.
	e.food, _ = e.placer.Place(grid.SetOf(e.snake))
}

// Step advances a running game by one tick and reports whether the run
// ended on this tick. It is a no-op unless the state is running.
func (e *Engine) Step() (over bool) {
	if e.state != StateRunning {
		return false
	}
	e.dir = e.pending

	dx, dy := e.dir.Delta()
	head := e.snake[0].Add(dx, dy)

	if !e.cfg.Grid.InBounds(head) || slices.Contains(e.snake, head) {
		e.gameOver()
		return true
	}

	e.snake = slices.Insert(e.snake, 0, head)
	e.ticks++

	if head == e.food {
		e.score += e.cfg.ScoreStep
		next, err := e.placer.Place(grid.SetOf(e.snake))
		if err != nil {
			// Board is full; nothing left to eat.
			e.gameOver()
			return true
		}
		e.food = next
		e.speed = max(e.speed-e.cfg.SpeedStep, e.cfg.MinSpeed)
	} else {
		e.snake = e.snake[:len(e.snake)-1]
	}
	return false
}

// gameOver ends the run and folds the score into the high score.
func (e *Engine) gameOver() {
	e.state = StateOver
	e.finalScore = e.score
	if e.score > e.highScore {
		e.highScore = e.score
	}
}

// RequestTurn buffers d as the pending direction unless it reverses the
// committed direction. Returns whether the request was accepted.
func (e *Engine) RequestTurn(d Direction) bool {
	if !d.Valid() || d == e.dir.Opposite() {
		return false
	}
	e.pending = d
	return true
}

// Start moves idle or paused to running, and begins a fresh run from over.
// It is a no-op while already running.
func (e *Engine) Start() bool {
	switch e.state {
	case StateRunning:
		return false
	case StateOver:
		e.newRun()
	}
	e.state = StateRunning
	return true
}

// Pause toggles running and paused. Other states are left alone.
func (e *Engine) Pause() bool {
	switch e.state {
	case StateRunning:
		e.state = StatePaused
	case StatePaused:
		e.state = StateRunning
	default:
		return false
	}
	return true
}

// Reset discards the current run and returns to idle with fresh state.
// The high score survives.
func (e *Engine) Reset() {
	e.newRun()
	e.state = StateIdle
}

// State reports the current run state.
func (e *Engine) State() RunState { return e.state }

// Speed reports the current tick interval in milliseconds.
func (e *Engine) Speed() int { return e.speed }

// Snapshot copies the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		State:      e.state,
		Grid:       e.cfg.Grid,
		Snake:      slices.Clone(e.snake),
		Food:       e.food,
		Direction:  e.dir,
		Score:      e.score,
		HighScore:  e.highScore,
		FinalScore: e.finalScore,
		Speed:      e.speed,
		Ticks:      e.ticks,
	}
}
