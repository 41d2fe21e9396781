package planner

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"farmbot/internal/domain/grid"
)

func validPath(t *testing.T, p *Planner, path []grid.Cell, start, goal grid.Cell) {
	t.Helper()
	if len(path) == 0 || path[0] != start || path[len(path)-1] != goal {
		t.Fatalf("path must run %s -> %s, got %v", start, goal, path)
	}
	for i, c := range path {
		if p.Blocked(c) {
			t.Fatalf("path crosses blocked cell %s", c)
		}
		if i == 0 {
			continue
		}
		dr := c.Row - path[i-1].Row
		dc := c.Col - path[i-1].Col
		if dr < -1 || dr > 1 || dc < -1 || dc > 1 || (dr == 0 && dc == 0) {
			t.Fatalf("invalid step %s -> %s", path[i-1], c)
		}
	}
}

func TestAStarStartEqualsGoal(t *testing.T) {
	p := New(grid.DefaultGeometry())
	c := grid.Cell{Row: 2, Col: 2}
	path, err := p.AStar(c, c)
	if err != nil {
		t.Fatalf("astar: %v", err)
	}
	if len(path) != 1 || path[0] != c {
		t.Fatalf("expected [start], got %v", path)
	}
}

func TestAStarOpenGridIsOptimal(t *testing.T) {
	p := New(grid.DefaultGeometry())
	start, goal := grid.Cell{Row: 0, Col: 0}, grid.Cell{Row: 7, Col: 4}
	path, err := p.AStar(start, goal)
	if err != nil {
		t.Fatalf("astar: %v", err)
	}
	validPath(t, p, path, start, goal)
	if got, want := PathCost(path), grid.Octile(start, goal); math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected optimal cost %v, got %v", want, got)
	}
}

func TestAStarRoutesAroundWall(t *testing.T) {
	p := New(grid.DefaultGeometry())
	var wall []grid.Cell
	for r := 0; r < 7; r++ {
		wall = append(wall, grid.Cell{Row: r, Col: 3})
	}
	p.SetObstacles(wall)
	start, goal := grid.Cell{Row: 0, Col: 0}, grid.Cell{Row: 0, Col: 6}
	path, err := p.AStar(start, goal)
	if err != nil {
		t.Fatalf("astar: %v", err)
	}
	validPath(t, p, path, start, goal)
	passed := false
	for _, c := range path {
		if c.Row == 7 && c.Col == 3 {
			passed = true
		}
	}
	if !passed {
		t.Fatalf("expected path through the gap at (7,3), got %v", path)
	}
}

func TestAStarUnreachable(t *testing.T) {
	p := New(grid.DefaultGeometry())
	p.SetObstacles([]grid.Cell{{Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 1, Col: 1}})
	_, err := p.AStar(grid.Cell{Row: 0, Col: 0}, grid.Cell{Row: 5, Col: 5})
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
	if _, err := p.AStar(grid.Cell{Row: 2, Col: 2}, grid.Cell{Row: 1, Col: 1}); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable for blocked goal, got %v", err)
	}
	if _, err := p.AStar(grid.Cell{Row: 2, Col: 2}, grid.Cell{Row: 8, Col: 1}); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable for out-of-bounds goal, got %v", err)
	}
}

func TestAStarNoCornerCutting(t *testing.T) {
	p := New(grid.DefaultGeometry())
	p.SetObstacles([]grid.Cell{{Row: 0, Col: 1}, {Row: 1, Col: 0}})
	_, err := p.AStar(grid.Cell{Row: 0, Col: 0}, grid.Cell{Row: 1, Col: 1})
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected diagonal squeeze to be rejected, got %v", err)
	}
}

func TestAStarCostMonotonicAndMatchesReachability(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	geo := grid.DefaultGeometry()
	for trial := 0; trial < 200; trial++ {
		p := New(geo)
		if trial%2 == 1 {
			p.Heuristic = HeuristicManhattan
		}
		var obstacles []grid.Cell
		for _, c := range geo.Cells() {
			if rng.Float64() < 0.25 {
				obstacles = append(obstacles, c)
			}
		}
		p.SetObstacles(obstacles)
		start := grid.Cell{Row: rng.Intn(8), Col: rng.Intn(8)}
		goal := grid.Cell{Row: rng.Intn(8), Col: rng.Intn(8)}

		path, err := p.AStar(start, goal)
		reachable := floodReachable(p, start, goal)
		if err != nil {
			if !errors.Is(err, ErrUnreachable) {
				t.Fatalf("unexpected error %v", err)
			}
			if reachable {
				t.Fatalf("trial %d: planner missed a path %s -> %s", trial, start, goal)
			}
			continue
		}
		if !reachable {
			t.Fatalf("trial %d: planner invented a path %s -> %s", trial, start, goal)
		}
		validPath(t, p, path, start, goal)
		prev := 0.0
		for i := 1; i <= len(path); i++ {
			c := PathCost(path[:i])
			if c < prev {
				t.Fatalf("path cost decreased along path %v", path)
			}
			prev = c
		}
	}
}

func floodReachable(p *Planner, start, goal grid.Cell) bool {
	if p.Blocked(start) || p.Blocked(goal) {
		return false
	}
	seen := map[grid.Cell]bool{start: true}
	queue := []grid.Cell{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == goal {
			return true
		}
		for _, n := range p.Geometry.Neighbors8(cur) {
			if seen[n] || p.Blocked(n) {
				continue
			}
			if n.Row != cur.Row && n.Col != cur.Col && p.cornerCut(cur, n) {
				continue
			}
			seen[n] = true
			queue = append(queue, n)
		}
	}
	return false
}

func TestGreedyRoutePicksNearestFirst(t *testing.T) {
	start := grid.Point{X: 0, Z: 0}
	targets := []grid.Point{{X: 5, Z: 0}, {X: 1, Z: 0}, {X: 3, Z: 0}}
	order := GreedyRoute(start, targets)
	want := []int{1, 2, 0}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
	if got := NearestPoint(start, targets); got != 1 {
		t.Fatalf("expected nearest index 1, got %d", got)
	}
	if got := GreedyRoute(start, nil); len(got) != 0 {
		t.Fatalf("expected empty route, got %v", got)
	}
}

func TestOptimizeOrderAndFindNearest(t *testing.T) {
	start := grid.Cell{Row: 0, Col: 0}
	cells := []grid.Cell{{Row: 7, Col: 7}, {Row: 0, Col: 1}, {Row: 4, Col: 4}}
	order := OptimizeOrder(start, cells)
	if order[0] != 1 || order[1] != 2 || order[2] != 0 {
		t.Fatalf("unexpected order %v", order)
	}
	if got := FindNearest(grid.Cell{Row: 5, Col: 5}, cells); got != 2 {
		t.Fatalf("expected nearest index 2, got %d", got)
	}
	if got := FindNearest(start, nil); got != -1 {
		t.Fatalf("expected -1 for no cells, got %d", got)
	}
}

func TestCoveragePathVisitsEveryFreeCellOnce(t *testing.T) {
	p := New(grid.DefaultGeometry())
	p.SetObstacles([]grid.Cell{{Row: 3, Col: 3}})
	path := p.CoveragePath()
	if len(path) != 63 {
		t.Fatalf("expected 63 cells, got %d", len(path))
	}
	if path[7] != (grid.Cell{Row: 0, Col: 7}) || path[8] != (grid.Cell{Row: 1, Col: 7}) {
		t.Fatalf("expected zigzag turn at row end, got %v %v", path[7], path[8])
	}
}

func TestAdjacentStandPreference(t *testing.T) {
	p := New(grid.DefaultGeometry())
	got, ok := p.AdjacentStand(grid.Cell{Row: 3, Col: 3})
	if !ok || got != (grid.Cell{Row: 3, Col: 2}) {
		t.Fatalf("expected left neighbor, got %v", got)
	}
	got, _ = p.AdjacentStand(grid.Cell{Row: 3, Col: 0})
	if got != (grid.Cell{Row: 3, Col: 1}) {
		t.Fatalf("expected right neighbor at left edge, got %v", got)
	}
	p.SetObstacles([]grid.Cell{{Row: 3, Col: 2}, {Row: 3, Col: 4}})
	got, _ = p.AdjacentStand(grid.Cell{Row: 3, Col: 3})
	if got != (grid.Cell{Row: 2, Col: 3}) {
		t.Fatalf("expected up neighbor, got %v", got)
	}
}

func TestPathLength(t *testing.T) {
	p := New(grid.DefaultGeometry())
	path := []grid.Cell{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 2}}
	if got := p.PathLength(path); math.Abs(got-(1+math.Sqrt2)*0.5) > 1e-9 {
		t.Fatalf("unexpected length %v", got)
	}
}

func TestParseHeuristic(t *testing.T) {
	for name, want := range map[string]Heuristic{"": HeuristicOctile, "octile": HeuristicOctile, "manhattan": HeuristicManhattan} {
		got, err := ParseHeuristic(name)
		if err != nil || got != want {
			t.Fatalf("%q: expected %s, got %s (%v)", name, want, got, err)
		}
	}
	if _, err := ParseHeuristic("euclid"); err == nil {
		t.Fatalf("expected unknown heuristic to fail")
	}
}
