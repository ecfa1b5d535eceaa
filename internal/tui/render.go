// Package tui draws engine snapshots on a tcell screen and maps keys to
// game actions for the snaketerm client.
package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/robalobadob/snake/apps/go-server/internal/game"
)

// Each grid cell is two columns wide so the board looks square.
const cellCols = 2

var (
	styleBorder = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleHead   = tcell.StyleDefault.Background(tcell.ColorGreen)
	styleBody   = tcell.StyleDefault.Background(tcell.ColorLightGreen)
	styleFood   = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleText   = tcell.StyleDefault
	styleBanner = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
)

// BoardSize is the number of screen columns and rows the board occupies,
// border included.
func BoardSize(g game.Snapshot) (cols, rows int) {
	return g.Grid.Width*cellCols + 2, g.Grid.Height + 2
}

// Draw renders snap: border, snake, food, score line and state banner.
func Draw(s tcell.Screen, snap game.Snapshot) {
	s.Clear()
	cols, rows := BoardSize(snap)

	for x := 0; x < cols; x++ {
		s.SetContent(x, 0, '─', nil, styleBorder)
		s.SetContent(x, rows-1, '─', nil, styleBorder)
	}
	for y := 0; y < rows; y++ {
		s.SetContent(0, y, '│', nil, styleBorder)
		s.SetContent(cols-1, y, '│', nil, styleBorder)
	}
	s.SetContent(0, 0, '┌', nil, styleBorder)
	s.SetContent(cols-1, 0, '┐', nil, styleBorder)
	s.SetContent(0, rows-1, '└', nil, styleBorder)
	s.SetContent(cols-1, rows-1, '┘', nil, styleBorder)

	fx, fy := screenPos(snap.Food.X, snap.Food.Y)
	s.SetContent(fx, fy, '●', nil, styleFood)

	for i, c := range snap.Snake {
		st := styleBody
		if i == 0 {
			st = styleHead
		}
		x, y := screenPos(c.X, c.Y)
		for dx := 0; dx < cellCols; dx++ {
			s.SetContent(x+dx, y, ' ', nil, st)
		}
	}

	drawText(s, 0, rows, styleText, fmt.Sprintf("Score: %d  High: %d  Speed: %dms", snap.Score, snap.HighScore, snap.Speed))
	if banner := Banner(snap); banner != "" {
		drawText(s, 0, rows+1, styleBanner, banner)
	}
	drawText(s, 0, rows+2, styleText, "arrows/wasd/hjkl: turn  space: start/pause  r: reset  q: quit")
	s.Show()
}

// Banner is the state line shown under the score.
func Banner(snap game.Snapshot) string {
	switch snap.State {
	case game.StateIdle:
		return "Press space to start"
	case game.StatePaused:
		return "Paused"
	case game.StateOver:
		return fmt.Sprintf("Game over! Final score: %d", snap.FinalScore)
	}
	return ""
}

func screenPos(x, y int) (int, int) { return 1 + x*cellCols, 1 + y }

func drawText(s tcell.Screen, x, y int, st tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, st)
	}
}
