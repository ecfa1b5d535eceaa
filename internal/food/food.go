// internal/food/food.go
//
// Food placement for the snake engine.
// Responsibilities:
//   - Draw a uniformly random in-bounds cell that the snake does not occupy.
//   - Stay bounded: after maxDraws rejected draws, pick uniformly among the
//     remaining free cells instead of retrying forever.
//
// Notes:
//   - The RNG is injected so daily mode and tests can be deterministic.
//   - A Placer is not safe for concurrent use; the game loop serializes calls.

package food

import (
	"errors"
	"math/rand"
	"time"

	"github.com/robalobadob/snake/apps/go-server/internal/grid"
)

// ErrNoFreeCell is returned when the occupied set covers the whole grid.
var ErrNoFreeCell = errors.New("no free cell for food")

const defaultMaxDraws = 64

// Placer chooses food cells on a fixed grid.
type Placer struct {
	grid     grid.Grid
	rng      *rand.Rand
	maxDraws int
}

// NewPlacer builds a Placer. A nil rng is replaced with a time-seeded one.
func NewPlacer(g grid.Grid, rng *rand.Rand) *Placer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Placer{grid: g, rng: rng, maxDraws: defaultMaxDraws}
}

// NewSeeded builds a Placer whose sequence is fully determined by seed.
func NewSeeded(g grid.Grid, seed int64) *Placer {
	return NewPlacer(g, rand.New(rand.NewSource(seed)))
}

// Place returns a random cell of the grid not contained in occupied.
func (p *Placer) Place(occupied grid.Set) (grid.Cell, error) {
	if p.grid.Capacity() == 0 {
		return grid.Cell{}, ErrNoFreeCell
	}
	for i := 0; i < p.maxDraws; i++ {
		c := grid.Cell{X: p.rng.Intn(p.grid.Width), Y: p.rng.Intn(p.grid.Height)}
		if !occupied.Has(c) {
			return c, nil
		}
	}

	// Crowded grid: fall back to a single pass over the free cells.
	free := make([]grid.Cell, 0, max(p.grid.Capacity()-len(occupied), 0))
	for y := 0; y < p.grid.Height; y++ {
		for x := 0; x < p.grid.Width; x++ {
			c := grid.Cell{X: x, Y: y}
			if !occupied.Has(c) {
				free = append(free, c)
			}
		}
	}
	if len(free) == 0 {
		return grid.Cell{}, ErrNoFreeCell
	}
	return free[p.rng.Intn(len(free))], nil
}
