package farm

import (
	"fmt"
	"math"
	"math/rand"

	"farmbot/internal/domain/grid"
)

type slot struct {
	plant Plant
	soil  Soil
}

// Field owns the plant grid. It is not safe for concurrent use; callers
// serialize access around whole ticks.
type Field struct {
	geo   grid.Geometry
	slots []slot
	rng   *rand.Rand
}

func NewField(geo grid.Geometry, rng *rand.Rand) *Field {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	f := &Field{
		geo:   geo,
		slots: make([]slot, geo.Size*geo.Size),
		rng:   rng,
	}
	for i := range f.slots {
		f.slots[i] = slot{plant: Empty{}, soil: DefaultSoil()}
	}
	return f
}

func (f *Field) Geometry() grid.Geometry {
	return f.geo
}

func PlantID(c grid.Cell) string {
	return fmt.Sprintf("plant_%d_%d", c.Row, c.Col)
}

func ParsePlantID(id string) (grid.Cell, error) {
	var c grid.Cell
	if _, err := fmt.Sscanf(id, "plant_%d_%d", &c.Row, &c.Col); err != nil {
		return c, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c, nil
}

// CellByID resolves a plant id to its cell.
func (f *Field) CellByID(id string) (grid.Cell, error) {
	c, err := ParsePlantID(id)
	if err != nil {
		return c, err
	}
	if !f.geo.InBounds(c) {
		return c, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c, nil
}

func (f *Field) index(c grid.Cell) (int, error) {
	if !f.geo.InBounds(c) {
		return 0, fmt.Errorf("%w: cell %s", ErrNotFound, c)
	}
	return c.Row*f.geo.Size + c.Col, nil
}

func (f *Field) At(c grid.Cell) (Plant, error) {
	i, err := f.index(c)
	if err != nil {
		return nil, err
	}
	return f.slots[i].plant, nil
}

func (f *Field) SoilAt(c grid.Cell) (Soil, error) {
	i, err := f.index(c)
	if err != nil {
		return Soil{}, err
	}
	return f.slots[i].soil, nil
}

// Put replaces the occupant of c.
func (f *Field) Put(c grid.Cell, p Plant) error {
	i, err := f.index(c)
	if err != nil {
		return err
	}
	if p == nil {
		p = Empty{}
	}
	f.slots[i].plant = p
	return nil
}

func (f *Field) PutSoil(c grid.Cell, s Soil) error {
	i, err := f.index(c)
	if err != nil {
		return err
	}
	f.slots[i].soil = s
	return nil
}

func (f *Field) cellOf(i int) grid.Cell {
	return grid.Cell{Row: i / f.geo.Size, Col: i % f.geo.Size}
}

// Count returns how many cells hold the given variant.
func (f *Field) Count(v Variant) int {
	n := 0
	for _, s := range f.slots {
		if s.plant.Variant() == v {
			n++
		}
	}
	return n
}

// Tick advances every living cell by dt seconds under env.
func (f *Field) Tick(dt float64, env Environment) {
	if dt <= 0 {
		return
	}
	factor := GrowthFactor(env)
	evap := Evaporation(env) * dt

	var spreaders []grid.Cell
	for i, s := range f.slots {
		if w, ok := s.plant.(Weed); ok && w.Mature() {
			spreaders = append(spreaders, f.cellOf(i))
		}
	}

	for i := range f.slots {
		s := &f.slots[i]
		switch p := s.plant.(type) {
		case Seed:
			p.Age += dt
			p.SinceWatered += dt
			p.Moisture = math.Max(0, p.Moisture-evap)
			s.plant = p
		case Crop:
			s.soil = s.soil.drain(NutrientDrainRate * factor * dt)
			s.plant = tickCrop(p, s.soil, env, factor, evap, dt)
		case Weed:
			s.plant = tickWeed(p, env, factor, dt)
		case Dead:
			p.Age += dt
			s.plant = p
		}
	}

	for _, c := range spreaders {
		f.spread(c)
	}
}

func tickCrop(p Crop, soil Soil, env Environment, factor, evap, dt float64) Plant {
	p.Age += dt
	p.SinceWatered += dt
	p.Moisture = math.Max(0, p.Moisture-evap)

	thirsty := p.Thirsty()
	hungry := soil.Hungry()

	if p.PestCount > 0 {
		p.Health -= p.Health * PestDamageFraction * float64(p.PestCount) * dt / 60
	}
	if thirsty {
		p.Health -= ThirstDamagePerSecond * dt
	}
	if hungry {
		p.Health -= HungerDamagePerSecond * dt
	}
	if !thirsty && !hungry {
		p.Health += RecoveryPerSecond * dt
	}
	if env.Harsh() {
		p.Health -= ClimateDamagePerSec * dt
	}
	p.Health = clamp(p.Health, 0, MaxHealth)
	if p.Health <= 0 {
		return Dead{Kind: p.Kind}
	}

	if p.GrowthStage < CropMaxStage {
		rate := CropGrowthRate * factor
		if thirsty || hungry || p.Health < WiltHealth {
			rate *= StressGrowthPenalty
		}
		p.Progress += rate * dt
		if p.Progress >= 1.0 {
			p.GrowthStage++
			p.Progress = 0
		}
	} else {
		p.Progress = 0
	}
	return p
}

func tickWeed(p Weed, env Environment, factor, dt float64) Plant {
	p.Age += dt
	p.Health += RecoveryPerSecond * dt
	if env.Harsh() {
		p.Health -= ClimateDamagePerSec * dt
	}
	p.Health = clamp(p.Health, 0, MaxHealth)
	if p.Health <= 0 {
		return Dead{}
	}
	if p.GrowthStage < WeedMaxStage {
		p.Progress += CropGrowthRate * WeedGrowthMultiplier * factor * dt
		if p.Progress >= 1.0 {
			p.GrowthStage++
			p.Progress = 0
		}
	} else {
		p.Progress = 0
	}
	return p
}

// spread converts every orthogonal crop neighbor of a mature weed.
func (f *Field) spread(c grid.Cell) {
	i, _ := f.index(c)
	if _, ok := f.slots[i].plant.(Weed); !ok {
		return
	}
	for _, n := range f.geo.Neighbors4(c) {
		i, _ := f.index(n)
		if _, ok := f.slots[i].plant.(Crop); ok {
			f.slots[i].plant = Weed{GrowthStage: 1, Health: MaxHealth}
		}
	}
}
