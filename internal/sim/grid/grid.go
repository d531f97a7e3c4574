package grid

import (
	"errors"
	"fmt"
)

var ErrOutOfBounds = errors.New("out of bounds")

// OutOfBoundsError is the panic value of At/Set/Ptr for a bad coordinate.
type OutOfBoundsError struct {
	X, Y          int
	Width, Height int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("(%d, %d) outside %dx%d grid", e.X, e.Y, e.Width, e.Height)
}

func (e *OutOfBoundsError) Unwrap() error { return ErrOutOfBounds }

// Grid is a fixed-size column-major 2D array.
// Fields are exported so the grid survives gob encoding in save files.
type Grid[T any] struct {
	Width  int
	Height int
	Cells  []T
}

// New builds a grid, calling fill once per cell in storage order.
func New[T any](width, height int, fill func() T) Grid[T] {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	cells := make([]T, width*height)
	if fill != nil {
		for i := range cells {
			cells[i] = fill()
		}
	}
	return Grid[T]{Width: width, Height: height, Cells: cells}
}

func (g *Grid[T]) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

func (g *Grid[T]) index(x, y int) int {
	if !g.InBounds(x, y) {
		panic(&OutOfBoundsError{X: x, Y: y, Width: g.Width, Height: g.Height})
	}
	return x*g.Height + y
}

func (g *Grid[T]) At(x, y int) T { return g.Cells[g.index(x, y)] }

// Ptr returns a pointer into the grid for in-place mutation.
func (g *Grid[T]) Ptr(x, y int) *T { return &g.Cells[g.index(x, y)] }

func (g *Grid[T]) Set(x, y int, v T) { g.Cells[g.index(x, y)] = v }

// Get is the non-panicking form of At for coordinates that came off the wire.
func (g *Grid[T]) Get(x, y int) (T, error) {
	if !g.InBounds(x, y) {
		var zero T
		return zero, &OutOfBoundsError{X: x, Y: y, Width: g.Width, Height: g.Height}
	}
	return g.Cells[x*g.Height+y], nil
}

// Clone copies the cells with a shallow per-cell copy.
func (g *Grid[T]) Clone() Grid[T] {
	cells := make([]T, len(g.Cells))
	copy(cells, g.Cells)
	return Grid[T]{Width: g.Width, Height: g.Height, Cells: cells}
}

// Each visits every cell in Iter2D order.
func (g *Grid[T]) Each(fn func(x, y int)) {
	it := NewIter2D(g.Width, g.Height)
	for {
		x, y, ok := it.Next()
		if !ok {
			return
		}
		fn(x, y)
	}
}
