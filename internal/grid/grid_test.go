package grid

import "testing"

func TestNew_IntegerDivision(t *testing.T) {
	g := New(410, 395, 20)
	if g.Width != 20 || g.Height != 19 {
		t.Fatalf("expected 20x19, got %dx%d", g.Width, g.Height)
	}
}

func TestNew_ZeroCellSizeFallsBack(t *testing.T) {
	g := New(400, 400, 0)
	if g != Default() {
		t.Errorf("expected default grid, got %+v", g)
	}
}

func TestInBounds(t *testing.T) {
	g := Default()
	cases := []struct {
		c    Cell
		want bool
	}{
		{Cell{0, 0}, true},
		{Cell{19, 19}, true},
		{Cell{-1, 5}, false},
		{Cell{5, -1}, false},
		{Cell{20, 0}, false},
		{Cell{0, 20}, false},
	}
	for _, tc := range cases {
		if got := g.InBounds(tc.c); got != tc.want {
			t.Errorf("InBounds(%v): want %v, got %v", tc.c, tc.want, got)
		}
	}
}

func TestCapacity(t *testing.T) {
	if c := Default().Capacity(); c != 400 {
		t.Errorf("want 400, got %d", c)
	}
	if c := (Grid{Width: -1, Height: 3}).Capacity(); c != 0 {
		t.Errorf("want 0 for degenerate grid, got %d", c)
	}
}

func TestSetOf(t *testing.T) {
	s := SetOf([]Cell{{1, 2}, {3, 4}})
	if !s.Has(Cell{1, 2}) || !s.Has(Cell{3, 4}) {
		t.Error("expected both cells present")
	}
	if s.Has(Cell{2, 1}) {
		t.Error("unexpected cell present")
	}
}
