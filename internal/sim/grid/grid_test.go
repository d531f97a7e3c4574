package grid

import (
	"errors"
	"testing"
)

func TestGrid_ColumnMajorIndexing(t *testing.T) {
	n := 0
	g := New(3, 2, func() int { n++; return n })
	// cells are filled in storage order, which is x*height + y.
	if got := g.At(0, 1); got != 2 {
		t.Fatalf("At(0,1)=%d want 2", got)
	}
	if got := g.At(1, 0); got != 3 {
		t.Fatalf("At(1,0)=%d want 3", got)
	}
	g.Set(2, 1, 42)
	if got := g.Cells[2*2+1]; got != 42 {
		t.Fatalf("Set did not write column-major cell: %d", got)
	}
	*g.Ptr(0, 0) = 7
	if g.At(0, 0) != 7 {
		t.Fatalf("Ptr write lost")
	}
}

func TestGrid_OutOfBoundsPanics(t *testing.T) {
	g := New(2, 2, func() int { return 0 })
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrOutOfBounds) {
			t.Fatalf("panic value %v is not ErrOutOfBounds", r)
		}
	}()
	_ = g.At(2, 0)
}

func TestGrid_GetReturnsError(t *testing.T) {
	g := New(2, 2, func() int { return 1 })
	if _, err := g.Get(-1, 0); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("Get(-1,0) err=%v", err)
	}
	if v, err := g.Get(1, 1); err != nil || v != 1 {
		t.Fatalf("Get(1,1)=%d,%v", v, err)
	}
}

func TestIter2D_RowOrder(t *testing.T) {
	it := NewIter2D(2, 2)
	var got [][2]int
	for {
		x, y, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, [2]int{x, y})
	}
	want := [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	if len(got) != len(want) {
		t.Fatalf("len=%d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("step %d = %v want %v", i, got[i], want[i])
		}
	}
}

func TestClone_Independent(t *testing.T) {
	g := New(2, 2, func() int { return 1 })
	c := g.Clone()
	c.Set(0, 0, 5)
	if g.At(0, 0) != 1 {
		t.Fatalf("clone shares storage")
	}
}
