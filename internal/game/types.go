// internal/game/types.go
//
// Core type definitions for the snake engine.
// Defines:
//   - Direction: one of up/down/left/right, with its opposite and unit delta.
//   - RunState: idle → running ⇄ paused → over lifecycle.
//   - Config: tuning (initial snake, speeds, score step).
//   - Snapshot: copy of engine state handed to renderers and JSON encoders.

package game

import (
	"errors"
	"fmt"

	"github.com/robalobadob/snake/apps/go-server/internal/grid"
)

// Direction is the heading of the snake's head.
type Direction string

const (
	DirUp    Direction = "up"
	DirDown  Direction = "down"
	DirLeft  Direction = "left"
	DirRight Direction = "right"
)

// ParseDirection maps a wire string to a Direction.
func ParseDirection(s string) (Direction, error) {
	d := Direction(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown direction %q", s)
	}
	return d, nil
}

// Valid reports whether d is one of the four headings.
func (d Direction) Valid() bool {
	switch d {
	case DirUp, DirDown, DirLeft, DirRight:
		return true
	}
	return false
}

// Opposite returns the direct reversal of d.
func (d Direction) Opposite() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	}
	return ""
}

// Delta is the unit step for d; y grows downwards.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case DirUp:
		return 0, -1
	case DirDown:
		return 0, 1
	case DirLeft:
		return -1, 0
	case DirRight:
		return 1, 0
	}
	return 0, 0
}

// RunState is the lifecycle state of a run.
type RunState string

const (
	StateIdle    RunState = "idle"
	StateRunning RunState = "running"
	StatePaused  RunState = "paused"
	StateOver    RunState = "over"
)

// Default tuning. Speeds are tick intervals in milliseconds.
const (
	DefaultInitialSpeed = 120
	DefaultMinSpeed     = 60
	DefaultSpeedStep    = 2
	ScoreIncrement      = 10
)

// Config holds the tunables of an Engine.
type Config struct {
	Grid             grid.Grid
	InitialSnake     []grid.Cell // head first
	InitialDirection Direction
	InitialSpeed     int
	MinSpeed         int
	SpeedStep        int
	ScoreStep        int
	InitialHighScore int // e.g. best score fetched from the server
}

// DefaultConfig returns the classic configuration on the 20x20 grid.
func DefaultConfig() Config {
	return Config{
		Grid:             grid.Default(),
		InitialSnake:     []grid.Cell{{X: 5, Y: 10}, {X: 4, Y: 10}, {X: 3, Y: 10}},
		InitialDirection: DirRight,
		InitialSpeed:     DefaultInitialSpeed,
		MinSpeed:         DefaultMinSpeed,
		SpeedStep:        DefaultSpeedStep,
		ScoreStep:        ScoreIncrement,
	}
}

// Validate checks that the configuration describes a playable run.
func (c Config) Validate() error {
	if len(c.InitialSnake) == 0 {
		return errors.New("initial snake is empty")
	}
	if len(c.InitialSnake) >= c.Grid.Capacity() {
		return fmt.Errorf("grid %dx%d too small for a %d-cell snake", c.Grid.Width, c.Grid.Height, len(c.InitialSnake))
	}
	seen := grid.Set{}
	for _, cell := range c.InitialSnake {
		if !c.Grid.InBounds(cell) {
			return fmt.Errorf("initial snake cell %v out of bounds", cell)
		}
		if seen.Has(cell) {
			return fmt.Errorf("initial snake overlaps itself at %v", cell)
		}
		seen[cell] = struct{}{}
	}
	if !c.InitialDirection.Valid() {
		return fmt.Errorf("invalid initial direction %q", c.InitialDirection)
	}
	if c.MinSpeed <= 0 || c.InitialSpeed < c.MinSpeed {
		return fmt.Errorf("speeds must satisfy 0 < min (%d) <= initial (%d)", c.MinSpeed, c.InitialSpeed)
	}
	if c.SpeedStep < 0 || c.ScoreStep < 0 || c.InitialHighScore < 0 {
		return errors.New("speed step, score step and high score must be non-negative")
	}
	return nil
}

// Snapshot is a deep copy of engine state at one instant.
type Snapshot struct {
	State      RunState    `json:"state"`
	Grid       grid.Grid   `json:"grid"`
	Snake      []grid.Cell `json:"snake"`
	Food       grid.Cell   `json:"food"`
	Direction  Direction   `json:"direction"`
	Score      int         `json:"score"`
	HighScore  int         `json:"highScore"`
	FinalScore int         `json:"finalScore"`
	Speed      int         `json:"speed"` // tick interval, ms
	Ticks      int         `json:"ticks"` // ticks applied in this run
}

// Head returns the first snake cell.
func (s Snapshot) Head() grid.Cell {
	if len(s.Snake) == 0 {
		return grid.Cell{}
	}
	return s.Snake[0]
}
