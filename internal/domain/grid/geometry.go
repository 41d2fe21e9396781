package grid

import (
	"fmt"
	"math"
)

const (
	DefaultSize     = 8
	DefaultCellSize = 0.5
	DefaultOrigin   = -2.0
)

type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

type Point struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// Geometry maps grid cells to world coordinates on the ground plane.
// Origin is the world coordinate of the grid's top-left corner on both axes.
type Geometry struct {
	Size     int
	CellSize float64
	Origin   float64
}

func DefaultGeometry() Geometry {
	return Geometry{Size: DefaultSize, CellSize: DefaultCellSize, Origin: DefaultOrigin}
}

func (g Geometry) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Col >= 0 && c.Row < g.Size && c.Col < g.Size
}

// CellToWorld returns the world position of the cell center.
func (g Geometry) CellToWorld(c Cell) Point {
	half := g.CellSize / 2
	return Point{
		X: g.Origin + float64(c.Col)*g.CellSize + half,
		Z: g.Origin + float64(c.Row)*g.CellSize + half,
	}
}

// WorldToCell returns the cell containing p. The second result is false when p
// falls outside the grid.
func (g Geometry) WorldToCell(p Point) (Cell, bool) {
	c := Cell{
		Col: int(math.Floor((p.X - g.Origin) / g.CellSize)),
		Row: int(math.Floor((p.Z - g.Origin) / g.CellSize)),
	}
	if !g.InBounds(c) {
		return c, false
	}
	return c, true
}

// Extent returns the world-space width of the grid.
func (g Geometry) Extent() float64 {
	return float64(g.Size) * g.CellSize
}

func (g Geometry) Cells() []Cell {
	out := make([]Cell, 0, g.Size*g.Size)
	for r := 0; r < g.Size; r++ {
		for c := 0; c < g.Size; c++ {
			out = append(out, Cell{Row: r, Col: c})
		}
	}
	return out
}

var orthogonal = [4]Cell{
	{Row: 0, Col: -1}, // left
	{Row: 0, Col: 1},  // right
	{Row: -1, Col: 0}, // up
	{Row: 1, Col: 0},  // down
}

var diagonal = [4]Cell{
	{Row: -1, Col: -1},
	{Row: -1, Col: 1},
	{Row: 1, Col: -1},
	{Row: 1, Col: 1},
}

// Neighbors4 returns in-bounds orthogonal neighbors ordered left, right, up, down.
func (g Geometry) Neighbors4(c Cell) []Cell {
	out := make([]Cell, 0, 4)
	for _, d := range orthogonal {
		n := Cell{Row: c.Row + d.Row, Col: c.Col + d.Col}
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// Neighbors8 returns in-bounds orthogonal neighbors followed by diagonal ones.
func (g Geometry) Neighbors8(c Cell) []Cell {
	out := g.Neighbors4(c)
	for _, d := range diagonal {
		n := Cell{Row: c.Row + d.Row, Col: c.Col + d.Col}
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

func Euclidean(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Z-a.Z)
}

// CellDistance is the Euclidean distance in row/col units.
func CellDistance(a, b Cell) float64 {
	return math.Hypot(float64(b.Row-a.Row), float64(b.Col-a.Col))
}

func Manhattan(a, b Cell) float64 {
	return math.Abs(float64(b.Row-a.Row)) + math.Abs(float64(b.Col-a.Col))
}

// Octile is the exact shortest-path cost on an obstacle-free 8-connected grid
// with unit orthogonal and sqrt(2) diagonal steps.
func Octile(a, b Cell) float64 {
	dr := math.Abs(float64(b.Row - a.Row))
	dc := math.Abs(float64(b.Col - a.Col))
	return math.Max(dr, dc) + (math.Sqrt2-1)*math.Min(dr, dc)
}

// Heading returns the yaw in degrees needed to face to from from, measured
// from the +X axis towards +Z.
func Heading(from, to Point) float64 {
	return math.Atan2(to.Z-from.Z, to.X-from.X) * 180 / math.Pi
}

// NormalizeAngle folds deg into [-180, 180].
func NormalizeAngle(deg float64) float64 {
	for deg > 180 {
		deg -= 360
	}
	for deg < -180 {
		deg += 360
	}
	return deg
}
