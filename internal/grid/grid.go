// internal/grid/grid.go
//
// Bounded discrete coordinate space the snake is played on.
// A Grid is derived once from a pixel canvas and a cell size and never
// changes afterwards; everything here is a pure function of those values.

package grid

// Default canvas geometry (400x400 px at 20 px per cell → 20x20 cells).
const (
	DefaultCellSize     = 20
	DefaultCanvasWidth  = 400
	DefaultCanvasHeight = 400
)

// Cell is a single grid coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns c shifted by (dx, dy).
func (c Cell) Add(dx, dy int) Cell { return Cell{X: c.X + dx, Y: c.Y + dy} }

// Grid holds the width and height in cells.
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// New derives a grid from canvas pixel dimensions using integer division.
// A non-positive cell size falls back to DefaultCellSize.
func New(canvasWidth, canvasHeight, cellSize int) Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return Grid{Width: canvasWidth / cellSize, Height: canvasHeight / cellSize}
}

// Default returns the classic 20x20 grid.
func Default() Grid { return New(DefaultCanvasWidth, DefaultCanvasHeight, DefaultCellSize) }

// InBounds reports whether 0 <= x < Width and 0 <= y < Height.
func (g Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.Width && c.Y >= 0 && c.Y < g.Height
}

// Capacity is the number of cells on the grid.
func (g Grid) Capacity() int {
	if g.Width <= 0 || g.Height <= 0 {
		return 0
	}
	return g.Width * g.Height
}

// Set is a set of occupied cells.
type Set map[Cell]struct{}

// SetOf builds a Set from a slice of cells.
func SetOf(cells []Cell) Set {
	s := make(Set, len(cells))
	for _, c := range cells {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether c is in s.
func (s Set) Has(c Cell) bool {
	_, ok := s[c]
	return ok
}
