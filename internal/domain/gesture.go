package domain

import "math"

// CellAt maps pointer coordinates relative to the board's top-left corner to
// a cell index, or -1 when the point falls outside the grid.
func CellAt(x, y, cellSize float64) int {
	// bounds are checked before converting, int() of huge floats is undefined
	if !(cellSize > 0) || math.IsInf(cellSize, 1) || !(x >= 0 && x < 3*cellSize) || !(y >= 0 && y < 3*cellSize) {
		return -1
	}
	col := int(x / cellSize)
	row := int(y / cellSize)
	if col > 2 || row > 2 {
		return -1
	}
	return row*3 + col
}
