package tui

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/robalobadob/snake/apps/go-server/internal/game"
	"github.com/robalobadob/snake/apps/go-server/internal/grid"
)

func testSnapshot() game.Snapshot {
	return game.Snapshot{
		State:     game.StateRunning,
		Grid:      grid.Grid{Width: 10, Height: 8},
		Snake:     []grid.Cell{{X: 3, Y: 2}, {X: 2, Y: 2}, {X: 1, Y: 2}},
		Food:      grid.Cell{X: 6, Y: 5},
		Direction: game.DirRight,
		Score:     20,
		HighScore: 50,
		Speed:     116,
	}
}

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	s.SetSize(60, 20)
	t.Cleanup(s.Fini)
	return s
}

func runeAt(s tcell.SimulationScreen, x, y int) rune {
	r, _, _, _ := s.GetContent(x, y)
	return r
}

func lineAt(s tcell.SimulationScreen, y int) string {
	w, _ := s.Size()
	var b strings.Builder
	for x := 0; x < w; x++ {
		b.WriteRune(runeAt(s, x, y))
	}
	return strings.TrimRight(b.String(), " \x00")
}

func TestDraw_BoardAndStatus(t *testing.T) {
	s := newSimScreen(t)
	snap := testSnapshot()
	Draw(s, snap)

	cols, rows := BoardSize(snap)
	if cols != 22 || rows != 10 {
		t.Fatalf("unexpected board size %dx%d", cols, rows)
	}
	if runeAt(s, 0, 0) != '┌' || runeAt(s, cols-1, rows-1) != '┘' {
		t.Error("border corners missing")
	}
	fx, fy := screenPos(6, 5)
	if runeAt(s, fx, fy) != '●' {
		t.Errorf("food not drawn at (%d,%d)", fx, fy)
	}
	hx, hy := screenPos(3, 2)
	_, _, st, _ := s.GetContent(hx, hy)
	if st != styleHead {
		t.Error("head not drawn with head style")
	}
	if got := lineAt(s, rows); !strings.HasPrefix(got, "Score: 20  High: 50") {
		t.Errorf("unexpected status line %q", got)
	}
}

func TestBanner(t *testing.T) {
	snap := testSnapshot()
	if Banner(snap) != "" {
		t.Error("running game should have no banner")
	}
	snap.State, snap.FinalScore = game.StateOver, 70
	if b := Banner(snap); !strings.Contains(b, "70") {
		t.Errorf("game over banner should show final score, got %q", b)
	}
	snap.State = game.StatePaused
	if Banner(snap) != "Paused" {
		t.Errorf("unexpected paused banner %q", Banner(snap))
	}
}

func TestActionFor(t *testing.T) {
	cases := []struct {
		ev  *tcell.EventKey
		act Action
		dir game.Direction
	}{
		{tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone), ActionTurn, game.DirUp},
		{tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), ActionTurn, game.DirLeft},
		{tcell.NewEventKey(tcell.KeyRune, 'd', tcell.ModNone), ActionTurn, game.DirRight},
		{tcell.NewEventKey(tcell.KeyRune, 'j', tcell.ModNone), ActionTurn, game.DirDown},
		{tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), ActionToggle, ""},
		{tcell.NewEventKey(tcell.KeyRune, 'r', tcell.ModNone), ActionReset, ""},
		{tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone), ActionQuit, ""},
		{tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), ActionQuit, ""},
		{tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone), ActionNone, ""},
		{tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone), ActionNone, ""},
	}
	for _, tc := range cases {
		act, dir := ActionFor(tc.ev)
		if act != tc.act || dir != tc.dir {
			t.Errorf("%s: want (%d,%q), got (%d,%q)", tc.ev.Name(), tc.act, tc.dir, act, dir)
		}
	}
}

func TestApply(t *testing.T) {
	e, err := game.NewEngine(game.DefaultConfig(), nil)
	if err != nil {
		t.Fatal(err)
	}
	l := game.NewLoop(e)
	defer l.Close()

	if !Apply(l, ActionToggle, "") || l.Snapshot().State != game.StateRunning {
		t.Fatal("toggle should start the game")
	}
	Apply(l, ActionToggle, "")
	if l.Snapshot().State != game.StatePaused {
		t.Fatal("toggle should pause a running game")
	}
	Apply(l, ActionReset, "")
	if l.Snapshot().State != game.StateIdle {
		t.Fatal("reset should return to idle")
	}
	if Apply(l, ActionQuit, "") {
		t.Error("quit should report false")
	}
}
