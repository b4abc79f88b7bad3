// Package grid maps linear memory offsets onto row-major grids, such as the
// 32-words-per-row layout of the screen map.
package grid

// GetGridCoords returns the column and row of index in a grid that is cols
// cells wide.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// Index is the inverse of GetGridCoords.
func Index(x, y, cols int) int {
	return y*cols + x
}
