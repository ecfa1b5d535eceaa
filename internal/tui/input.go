package tui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/robalobadob/snake/apps/go-server/internal/game"
)

// Action is what a key press asks the game to do.
type Action int

const (
	ActionNone Action = iota
	ActionTurn
	ActionToggle // space: pause if running, otherwise start
	ActionReset
	ActionQuit
)

// ActionFor maps a key event to an action and, for ActionTurn, a direction.
func ActionFor(ev *tcell.EventKey) (Action, game.Direction) {
	switch ev.Key() {
	case tcell.KeyUp:
		return ActionTurn, game.DirUp
	case tcell.KeyDown:
		return ActionTurn, game.DirDown
	case tcell.KeyLeft:
		return ActionTurn, game.DirLeft
	case tcell.KeyRight:
		return ActionTurn, game.DirRight
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return ActionQuit, ""
	case tcell.KeyRune:
	default:
		return ActionNone, ""
	}

	switch ev.Rune() {
	case 'w', 'k':
		return ActionTurn, game.DirUp
	case 's', 'j':
		return ActionTurn, game.DirDown
	case 'a', 'h':
		return ActionTurn, game.DirLeft
	case 'd', 'l':
		return ActionTurn, game.DirRight
	case ' ':
		return ActionToggle, ""
	case 'r':
		return ActionReset, ""
	case 'q':
		return ActionQuit, ""
	}
	return ActionNone, ""
}

// Apply performs a on l. It reports false when the client should quit.
func Apply(l *game.Loop, a Action, d game.Direction) bool {
	switch a {
	case ActionTurn:
		l.Turn(d)
	case ActionToggle:
		l.Toggle()
	case ActionReset:
		l.Reset()
	case ActionQuit:
		return false
	}
	return true
}
