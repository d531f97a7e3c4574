package grid

// Iter2D walks a width x height area row by row: y outer, x inner.
type Iter2D struct {
	width, height int
	x, y          int
}

func NewIter2D(width, height int) *Iter2D {
	return &Iter2D{width: width, height: height}
}

func (it *Iter2D) Next() (x, y int, ok bool) {
	if it.width <= 0 || it.y >= it.height {
		return 0, 0, false
	}
	x, y = it.x, it.y
	it.x++
	if it.x >= it.width {
		it.x = 0
		it.y++
	}
	return x, y, true
}
