package planner

import "farmbot/internal/domain/grid"

// GreedyRoute orders targets by repeatedly visiting the nearest unvisited one
// in world space. It returns indexes into targets.
func GreedyRoute(start grid.Point, targets []grid.Point) []int {
	return greedy(len(targets), func(cur, i int) float64 {
		from := start
		if cur >= 0 {
			from = targets[cur]
		}
		return grid.Euclidean(from, targets[i])
	})
}

// OptimizeOrder is GreedyRoute over row/col distance.
func OptimizeOrder(start grid.Cell, cells []grid.Cell) []int {
	return greedy(len(cells), func(cur, i int) float64 {
		from := start
		if cur >= 0 {
			from = cells[cur]
		}
		return grid.CellDistance(from, cells[i])
	})
}

// FindNearest returns the index of the cell closest to from, or -1.
func FindNearest(from grid.Cell, cells []grid.Cell) int {
	best, bestD := -1, 0.0
	for i, c := range cells {
		d := grid.CellDistance(from, c)
		if best < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

// NearestPoint returns the index of the point closest to from, or -1.
func NearestPoint(from grid.Point, points []grid.Point) int {
	best, bestD := -1, 0.0
	for i, p := range points {
		d := grid.Euclidean(from, p)
		if best < 0 || d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

func greedy(n int, dist func(cur, i int) float64) []int {
	visited := make([]bool, n)
	order := make([]int, 0, n)
	cur := -1
	for len(order) < n {
		best, bestD := -1, 0.0
		for i := 0; i < n; i++ {
			if visited[i] {
				continue
			}
			d := dist(cur, i)
			if best < 0 || d < bestD {
				best, bestD = i, d
			}
		}
		visited[best] = true
		order = append(order, best)
		cur = best
	}
	return order
}

// CoveragePath sweeps every free cell row by row, alternating direction.
func (p *Planner) CoveragePath() []grid.Cell {
	out := make([]grid.Cell, 0, p.Geometry.Size*p.Geometry.Size)
	for r := 0; r < p.Geometry.Size; r++ {
		for i := 0; i < p.Geometry.Size; i++ {
			col := i
			if r%2 == 1 {
				col = p.Geometry.Size - 1 - i
			}
			c := grid.Cell{Row: r, Col: col}
			if !p.obstacles[c] {
				out = append(out, c)
			}
		}
	}
	return out
}

// AdjacentStand picks the cell the robot should stand on to work target:
// the first free orthogonal neighbor in left, right, up, down order.
func (p *Planner) AdjacentStand(target grid.Cell) (grid.Cell, bool) {
	for _, c := range p.Geometry.Neighbors4(target) {
		if !p.obstacles[c] {
			return c, true
		}
	}
	return grid.Cell{}, false
}
