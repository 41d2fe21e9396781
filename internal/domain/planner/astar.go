package planner

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"farmbot/internal/domain/grid"
)

var ErrUnreachable = errors.New("target unreachable")

type Heuristic int

const (
	// HeuristicOctile is exact on an open 8-connected grid and never
	// overestimates.
	HeuristicOctile Heuristic = iota
	// HeuristicManhattan can overestimate when diagonal steps are allowed.
	HeuristicManhattan
)

func (h Heuristic) String() string {
	if h == HeuristicManhattan {
		return "manhattan"
	}
	return "octile"
}

// ParseHeuristic maps a config name to a Heuristic. Empty means octile.
func ParseHeuristic(name string) (Heuristic, error) {
	switch name {
	case "", "octile":
		return HeuristicOctile, nil
	case "manhattan":
		return HeuristicManhattan, nil
	default:
		return HeuristicOctile, fmt.Errorf("unknown heuristic %q", name)
	}
}

type Planner struct {
	Geometry  grid.Geometry
	Heuristic Heuristic
	obstacles map[grid.Cell]bool
}

func New(geo grid.Geometry) *Planner {
	return &Planner{Geometry: geo, obstacles: map[grid.Cell]bool{}}
}

func (p *Planner) SetObstacles(cells []grid.Cell) {
	p.obstacles = make(map[grid.Cell]bool, len(cells))
	for _, c := range cells {
		p.obstacles[c] = true
	}
}

func (p *Planner) Blocked(c grid.Cell) bool {
	return !p.Geometry.InBounds(c) || p.obstacles[c]
}

func (p *Planner) GridToWorld(c grid.Cell) grid.Point {
	return p.Geometry.CellToWorld(c)
}

func (p *Planner) WorldToGrid(pt grid.Point) (grid.Cell, bool) {
	return p.Geometry.WorldToCell(pt)
}

func (p *Planner) estimate(a, b grid.Cell) float64 {
	if p.Heuristic == HeuristicManhattan {
		return grid.Manhattan(a, b)
	}
	return grid.Octile(a, b)
}

type node struct {
	cell  grid.Cell
	g, f  float64
	seq   int
	index int
}

type openSet []*node

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}
func (o *openSet) Push(x any) {
	n := x.(*node)
	n.index = len(*o)
	*o = append(*o, n)
}
func (o *openSet) Pop() any {
	old := *o
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*o = old[:len(old)-1]
	n.index = -1
	return n
}

// AStar returns the cell path from start to goal, both inclusive.
func (p *Planner) AStar(start, goal grid.Cell) ([]grid.Cell, error) {
	if p.Blocked(start) {
		return nil, fmt.Errorf("%w: start %s blocked", ErrUnreachable, start)
	}
	if p.Blocked(goal) {
		return nil, fmt.Errorf("%w: goal %s blocked", ErrUnreachable, goal)
	}
	if start == goal {
		return []grid.Cell{start}, nil
	}

	seq := 0
	open := &openSet{}
	nodes := map[grid.Cell]*node{}
	came := map[grid.Cell]grid.Cell{}
	closed := map[grid.Cell]bool{}

	first := &node{cell: start, g: 0, f: p.estimate(start, goal)}
	nodes[start] = first
	heap.Push(open, first)

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if cur.cell == goal {
			return reconstruct(came, goal), nil
		}
		closed[cur.cell] = true

		for _, next := range p.Geometry.Neighbors8(cur.cell) {
			if closed[next] || p.obstacles[next] {
				continue
			}
			step := 1.0
			if next.Row != cur.cell.Row && next.Col != cur.cell.Col {
				if p.cornerCut(cur.cell, next) {
					continue
				}
				step = math.Sqrt2
			}
			g := cur.g + step
			n, seen := nodes[next]
			if seen && g >= n.g {
				continue
			}
			came[next] = cur.cell
			if !seen {
				seq++
				n = &node{cell: next, seq: seq}
				nodes[next] = n
				n.g = g
				n.f = g + p.estimate(next, goal)
				heap.Push(open, n)
				continue
			}
			n.g = g
			n.f = g + p.estimate(next, goal)
			if n.index >= 0 {
				heap.Fix(open, n.index)
			} else {
				heap.Push(open, n)
			}
		}
	}
	return nil, fmt.Errorf("%w: no path %s -> %s", ErrUnreachable, start, goal)
}

// cornerCut rejects diagonal steps that squeeze between two blocked cells.
func (p *Planner) cornerCut(from, to grid.Cell) bool {
	a := grid.Cell{Row: from.Row, Col: to.Col}
	b := grid.Cell{Row: to.Row, Col: from.Col}
	return p.obstacles[a] && p.obstacles[b]
}

func reconstruct(came map[grid.Cell]grid.Cell, goal grid.Cell) []grid.Cell {
	path := []grid.Cell{goal}
	cur := goal
	for {
		prev, ok := came[cur]
		if !ok {
			break
		}
		path = append(path, prev)
		cur = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathCost sums step costs along path.
func PathCost(path []grid.Cell) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		if path[i].Row != path[i-1].Row && path[i].Col != path[i-1].Col {
			total += math.Sqrt2
		} else {
			total += 1
		}
	}
	return total
}

// PathLength is the world-space length of path.
func (p *Planner) PathLength(path []grid.Cell) float64 {
	return PathCost(path) * p.Geometry.CellSize
}
