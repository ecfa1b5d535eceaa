package game

import (
	"slices"
	"testing"

	"github.com/robalobadob/snake/apps/go-server/internal/food"
	"github.com/robalobadob/snake/apps/go-server/internal/grid"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	e, err := NewEngine(cfg, food.NewSeeded(cfg.Grid, 12345))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestNewEngine_Initial(t *testing.T) {
	e := newTestEngine(t)
	s := e.Snapshot()
	if s.State != StateIdle {
		t.Errorf("expected idle, got %s", s.State)
	}
	want := []grid.Cell{{X: 5, Y: 10}, {X: 4, Y: 10}, {X: 3, Y: 10}}
	if !slices.Equal(s.Snake, want) {
		t.Errorf("expected %v, got %v", want, s.Snake)
	}
	if s.Score != 0 || s.Speed != DefaultInitialSpeed || s.Direction != DirRight {
		t.Errorf("unexpected initial values: %+v", s)
	}
	if slices.Contains(s.Snake, s.Food) {
		t.Errorf("food %v on snake", s.Food)
	}
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Grid = grid.Grid{Width: 4, Height: 4}
	if _, err := NewEngine(cfg, nil); err == nil {
		t.Fatal("expected error for snake outside the grid")
	}
}

func TestStep_NoopUnlessRunning(t *testing.T) {
	e := newTestEngine(t)
	before := e.Snapshot()
	if e.Step() {
		t.Fatal("idle step should not end the run")
	}
	if !slices.Equal(before.Snake, e.Snapshot().Snake) {
		t.Error("idle step moved the snake")
	}
}

func TestStep_EatsFood(t *testing.T) {
	e := newTestEngine(t)
	e.Start()
	e.food = grid.Cell{X: 6, Y: 10}

	if e.Step() {
		t.Fatal("unexpected game over")
	}
	s := e.Snapshot()
	want := []grid.Cell{{X: 6, Y: 10}, {X: 5, Y: 10}, {X: 4, Y: 10}, {X: 3, Y: 10}}
	if !slices.Equal(s.Snake, want) {
		t.Fatalf("expected %v, got %v", want, s.Snake)
	}
	if s.Score != 10 {
		t.Errorf("expected score 10, got %d", s.Score)
	}
	if slices.Contains(s.Snake, s.Food) {
		t.Errorf("new food %v on snake", s.Food)
	}
	if s.Speed != DefaultInitialSpeed-DefaultSpeedStep {
		t.Errorf("expected speed %d, got %d", DefaultInitialSpeed-DefaultSpeedStep, s.Speed)
	}
}

func TestStep_SpeedFloor(t *testing.T) {
	e := newTestEngine(t)
	e.Start()
	e.speed = DefaultMinSpeed
	e.food = grid.Cell{X: 6, Y: 10}
	e.Step()
	if e.speed != DefaultMinSpeed {
		t.Errorf("speed dropped below floor: %d", e.speed)
	}

	e.speed = DefaultMinSpeed + 1
	e.food = grid.Cell{X: 7, Y: 10}
	e.Step()
	if e.speed != DefaultMinSpeed {
		t.Errorf("expected clamp to %d, got %d", DefaultMinSpeed, e.speed)
	}
}

func TestStep_TranslatesWithoutFood(t *testing.T) {
	e := newTestEngine(t)
	e.Start()
	e.food = grid.Cell{X: 0, Y: 0}

	e.Step()
	s := e.Snapshot()
	want := []grid.Cell{{X: 6, Y: 10}, {X: 5, Y: 10}, {X: 4, Y: 10}}
	if !slices.Equal(s.Snake, want) {
		t.Fatalf("expected %v, got %v", want, s.Snake)
	}
	if s.Score != 0 || s.Speed != DefaultInitialSpeed {
		t.Errorf("score/speed changed without food: %+v", s)
	}
}

func TestStep_WallCollision(t *testing.T) {
	e := newTestEngine(t)
	e.Start()
	e.snake = []grid.Cell{{X: 0, Y: 5}, {X: 1, Y: 5}, {X: 2, Y: 5}}
	e.dir, e.pending = DirLeft, DirLeft
	e.food = grid.Cell{X: 10, Y: 10}
	before := slices.Clone(e.snake)

	if !e.Step() {
		t.Fatal("expected game over")
	}
	if e.State() != StateOver {
		t.Errorf("expected over, got %s", e.State())
	}
	if !slices.Equal(e.snake, before) {
		t.Errorf("snake mutated on collision: %v", e.snake)
	}
}

func TestStep_SelfCollision(t *testing.T) {
	e := newTestEngine(t)
	e.Start()
	// Head at (2,2) heading up into its own body at (2,1).
	e.snake = []grid.Cell{{X: 2, Y: 2}, {X: 3, Y: 2}, {X: 3, Y: 1}, {X: 2, Y: 1}, {X: 1, Y: 1}}
	e.dir, e.pending = DirLeft, DirLeft
	e.RequestTurn(DirUp)
	e.food = grid.Cell{X: 10, Y: 10}

	if !e.Step() {
		t.Fatal("expected game over")
	}
}

func TestStep_TailCellStillOccupied(t *testing.T) {
	e := newTestEngine(t)
	e.Start()
	// A 2x2 ring: moving left from (1,0) enters (0,0), the cell the tail is leaving.
	e.snake = []grid.Cell{{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}}
	e.dir, e.pending = DirUp, DirLeft
	e.food = grid.Cell{X: 10, Y: 10}

	if !e.Step() {
		t.Fatal("moving into the vacating tail cell should end the run")
	}
}

func TestRequestTurn_RejectsReversal(t *testing.T) {
	e := newTestEngine(t)
	if e.RequestTurn(DirLeft) {
		t.Error("left should be rejected while heading right")
	}
	if e.pending != DirRight {
		t.Errorf("pending changed to %s", e.pending)
	}
	if !e.RequestTurn(DirUp) || e.pending != DirUp {
		t.Error("up should be accepted")
	}
	if !e.RequestTurn(DirDown) || e.pending != DirDown {
		t.Error("down should be accepted")
	}
	if e.RequestTurn(Direction("sideways")) {
		t.Error("invalid direction accepted")
	}
}

func TestRequestTurn_NoSameTickReversal(t *testing.T) {
	e := newTestEngine(t)
	e.Start()
	e.food = grid.Cell{X: 0, Y: 0}
	// Up then left within one tick: left is checked against committed right.
	e.RequestTurn(DirUp)
	if e.RequestTurn(DirLeft) {
		t.Fatal("left must be rejected against committed right")
	}
	e.Step()
	if e.Snapshot().Head() != (grid.Cell{X: 5, Y: 9}) {
		t.Errorf("expected head (5,9), got %v", e.Snapshot().Head())
	}
}

func TestLifecycle(t *testing.T) {
	e := newTestEngine(t)
	if e.Pause() {
		t.Error("pause from idle should be a no-op")
	}
	if !e.Start() || e.State() != StateRunning {
		t.Fatal("start from idle should run")
	}
	if e.Start() {
		t.Error("start while running should be a no-op")
	}
	if !e.Pause() || e.State() != StatePaused {
		t.Fatal("pause should move to paused")
	}
	if e.Step() || e.Snapshot().Ticks != 0 {
		t.Error("paused engine must not step")
	}
	if !e.Pause() || e.State() != StateRunning {
		t.Fatal("second pause should resume")
	}
	e.Pause()
	if !e.Start() || e.State() != StateRunning {
		t.Fatal("start should resume from paused")
	}
}

func TestStartFromOverBeginsFreshRun(t *testing.T) {
	e := newTestEngine(t)
	e.Start()
	e.score = 30
	e.gameOver()
	if !e.Start() {
		t.Fatal("start from over should begin a run")
	}
	s := e.Snapshot()
	if s.Score != 0 || len(s.Snake) != 3 || s.State != StateRunning {
		t.Errorf("expected fresh run, got %+v", s)
	}
}

func TestReset_FromAnyState(t *testing.T) {
	for _, prep := range []func(e *Engine){
		func(e *Engine) {},
		func(e *Engine) { e.Start() },
		func(e *Engine) { e.Start(); e.Pause() },
		func(e *Engine) { e.Start(); e.score = 50; e.speed = 70; e.gameOver() },
	} {
		e := newTestEngine(t)
		prep(e)
		e.Reset()
		s := e.Snapshot()
		if s.State != StateIdle || s.Score != 0 || s.Speed != DefaultInitialSpeed {
			t.Errorf("unexpected state after reset: %+v", s)
		}
		if !slices.Equal(s.Snake, DefaultConfig().InitialSnake) {
			t.Errorf("expected initial snake, got %v", s.Snake)
		}
	}
}

func TestHighScore(t *testing.T) {
	e := newTestEngine(t)
	e.Start()
	e.score = 40
	e.gameOver()
	if e.highScore != 40 || e.finalScore != 40 {
		t.Fatalf("expected high/final 40, got %d/%d", e.highScore, e.finalScore)
	}

	e.Reset()
	if e.highScore != 40 {
		t.Errorf("reset cleared high score: %d", e.highScore)
	}
	e.Start()
	e.score = 20
	e.gameOver()
	if e.highScore != 40 {
		t.Errorf("lower score replaced high score: %d", e.highScore)
	}
}

func TestLongPlayKeepsBodyConsistent(t *testing.T) {
	e := newTestEngine(t)
	e.Start()
	turns := []Direction{DirUp, DirLeft, DirDown, DirRight}
	prevScore := 0
	for i := 0; i < 2000 && e.State() == StateRunning; i++ {
		if i%7 == 0 {
			e.RequestTurn(turns[(i/7)%len(turns)])
		}
		before := e.Snapshot()
		e.Step()
		s := e.Snapshot()
		if s.State != StateRunning {
			break
		}
		for _, c := range s.Snake {
			if !s.Grid.InBounds(c) {
				t.Fatalf("tick %d: cell %v out of bounds", i, c)
			}
		}
		if len(grid.SetOf(s.Snake)) != len(s.Snake) {
			t.Fatalf("tick %d: snake overlaps itself", i)
		}
		if slices.Contains(s.Snake, s.Food) {
			t.Fatalf("tick %d: food on snake", i)
		}
		ate := s.Head() == before.Food
		switch {
		case ate && (s.Score != prevScore+10 || len(s.Snake) != len(before.Snake)+1):
			t.Fatalf("tick %d: bad growth on eat", i)
		case !ate && (s.Score != prevScore || len(s.Snake) != len(before.Snake)):
			t.Fatalf("tick %d: bad translation", i)
		}
		prevScore = s.Score
	}
}
