package grid

// GetGridCoords converts a linear cell index into column and row for a grid
// cols cells wide.
func GetGridCoords(index, cols int) (x, y int) {
	return index % cols, index / cols
}

// Index is the inverse of GetGridCoords.
func Index(x, y, cols int) int {
	return y*cols + x
}

// Cell is one visible rune at a linear grid index.
type Cell struct {
	Index int
	Rune  rune
}

// Layout places lines of text into a grid cols cells wide, one line per row.
// Lines longer than cols are clipped and blanks produce no cell.
func Layout(lines []string, cols int) []Cell {
	var cells []Cell
	for row, line := range lines {
		col := 0
		for _, r := range line {
			if col >= cols {
				break
			}
			if r != ' ' && r != '\t' {
				cells = append(cells, Cell{Index: Index(col, row, cols), Rune: r})
			}
			col++
		}
	}
	return cells
}
