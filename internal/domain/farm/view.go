package farm

import (
	"fmt"
	"math"

	"farmbot/internal/domain/grid"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// CellView is the exchange shape of one cell. Variant-specific fields are
// zero for variants that do not carry them.
type CellView struct {
	ID           string   `json:"id"`
	Row          int      `json:"row"`
	Col          int      `json:"col"`
	Position     Position `json:"position"`
	Variant      Variant  `json:"variant"`
	Kind         CropKind `json:"kind,omitempty"`
	GrowthStage  int      `json:"growth_stage"`
	Health       float64  `json:"health"`
	Moisture     float64  `json:"moisture"`
	PestCount    int      `json:"pest_count"`
	Progress     float64  `json:"progress"`
	Age          float64  `json:"age"`
	SinceWatered float64  `json:"since_watered"`
	Soil         Soil     `json:"soil"`
}

func (v CellView) Cell() grid.Cell {
	return grid.Cell{Row: v.Row, Col: v.Col}
}

func (v CellView) Harvestable() bool {
	return v.Variant == VariantCrop && v.GrowthStage >= CropMaxStage && v.Health >= MinHarvestHealth
}

// Plant rebuilds the domain plant. Unknown kinds and out-of-range stages are
// rejected; gauges are clamped to their valid ranges.
func (v CellView) Plant() (Plant, error) {
	switch v.Variant {
	case VariantSeed, VariantCrop:
		if !v.Kind.Valid() {
			return nil, fmt.Errorf("%s %s: unknown crop kind %q", v.Variant, v.ID, v.Kind)
		}
	case VariantDead:
		if v.Kind != "" && !v.Kind.Valid() {
			return nil, fmt.Errorf("dead %s: unknown crop kind %q", v.ID, v.Kind)
		}
	}
	moisture := clamp(v.Moisture, 0, MaxMoisture)
	age := math.Max(0, v.Age)
	since := math.Max(0, v.SinceWatered)
	progress := clamp(v.Progress, 0, 1)

	switch v.Variant {
	case VariantEmpty, "":
		return Empty{}, nil
	case VariantSeed:
		return Seed{Kind: v.Kind, Moisture: moisture, Age: age, SinceWatered: since}, nil
	case VariantCrop:
		if v.GrowthStage < 0 || v.GrowthStage > CropMaxStage {
			return nil, fmt.Errorf("crop %s: growth stage %d out of range", v.ID, v.GrowthStage)
		}
		return Crop{
			Kind:         v.Kind,
			GrowthStage:  v.GrowthStage,
			Health:       clamp(v.Health, 0, MaxHealth),
			Moisture:     moisture,
			PestCount:    min(max(v.PestCount, 0), PestMax),
			Progress:     progress,
			Age:          age,
			SinceWatered: since,
		}, nil
	case VariantWeed:
		if v.GrowthStage < 0 || v.GrowthStage > WeedMaxStage {
			return nil, fmt.Errorf("weed %s: growth stage %d out of range", v.ID, v.GrowthStage)
		}
		return Weed{GrowthStage: v.GrowthStage, Health: clamp(v.Health, 0, MaxHealth), Progress: progress, Age: age}, nil
	case VariantDead:
		return Dead{Kind: v.Kind, Age: age}, nil
	default:
		return nil, fmt.Errorf("cell %s: unknown variant %q", v.ID, v.Variant)
	}
}

func (s Soil) clamped() Soil {
	return Soil{
		Nitrogen:     clamp(s.Nitrogen, 0, 100),
		Phosphorus:   clamp(s.Phosphorus, 0, 100),
		Potassium:    clamp(s.Potassium, 0, 100),
		PH:           clamp(s.PH, 0, 14),
		Conductivity: math.Max(0, s.Conductivity),
	}
}

func (f *Field) view(i int) CellView {
	s := f.slots[i]
	c := f.cellOf(i)
	w := f.geo.CellToWorld(c)
	v := CellView{
		ID:       PlantID(c),
		Row:      c.Row,
		Col:      c.Col,
		Position: Position{X: w.X, Y: 0, Z: w.Z},
		Variant:  s.plant.Variant(),
		Soil:     s.soil,
	}
	switch p := s.plant.(type) {
	case Seed:
		v.Kind = p.Kind
		v.Moisture = p.Moisture
		v.Age = p.Age
		v.SinceWatered = p.SinceWatered
	case Crop:
		v.Kind = p.Kind
		v.GrowthStage = p.GrowthStage
		v.Health = p.Health
		v.Moisture = p.Moisture
		v.PestCount = p.PestCount
		v.Progress = p.Progress
		v.Age = p.Age
		v.SinceWatered = p.SinceWatered
	case Weed:
		v.GrowthStage = p.GrowthStage
		v.Health = p.Health
		v.Progress = p.Progress
		v.Age = p.Age
	case Dead:
		v.Kind = p.Kind
		v.Age = p.Age
	}
	return v
}

// Views returns every cell in row-major order.
func (f *Field) Views() []CellView {
	out := make([]CellView, len(f.slots))
	for i := range f.slots {
		out[i] = f.view(i)
	}
	return out
}

// Restore replaces the field contents with views. Cells missing from views
// become Empty; duplicates and out-of-bounds cells are rejected and leave the
// field untouched.
func (f *Field) Restore(views []CellView) error {
	next := make([]slot, len(f.slots))
	for i := range next {
		next[i] = slot{plant: Empty{}, soil: DefaultSoil()}
	}
	seen := make(map[grid.Cell]bool, len(views))
	for _, v := range views {
		c := v.Cell()
		i, err := f.index(c)
		if err != nil {
			return err
		}
		if seen[c] {
			return fmt.Errorf("duplicate cell %s in snapshot", c)
		}
		seen[c] = true
		p, err := v.Plant()
		if err != nil {
			return err
		}
		next[i] = slot{plant: p, soil: v.Soil.clamped()}
	}
	f.slots = next
	return nil
}
