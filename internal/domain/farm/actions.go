package farm

import (
	"math"

	"farmbot/internal/domain/grid"
)

type WaterOutcome struct {
	Germinated bool
	Became     Variant
	Kind       CropKind
	Stage      int
	PestCount  int
}

// Water germinates a seed or pushes a growing plant one stage forward.
func (f *Field) Water(c grid.Cell) (WaterOutcome, error) {
	i, err := f.index(c)
	if err != nil {
		return WaterOutcome{}, err
	}
	s := &f.slots[i]
	switch p := s.plant.(type) {
	case Seed:
		return f.germinate(s, p), nil
	case Crop:
		if p.Mature() {
			return WaterOutcome{}, notReady(c, p, "already mature")
		}
		p.Moisture = math.Min(MaxMoisture, p.Moisture+WaterMoistureGain)
		p.GrowthStage++
		p.Progress = 0
		p.SinceWatered = 0
		if p.PestCount > 0 {
			p.Health = math.Max(WaterPestHealthFlr, p.Health-WaterPestDamage*float64(p.PestCount))
		}
		p.Health += math.Min(WaterHealCap, MaxHealth-p.Health)
		s.plant = p
		return WaterOutcome{Became: VariantCrop, Kind: p.Kind, Stage: p.GrowthStage, PestCount: p.PestCount}, nil
	case Weed:
		if p.Mature() {
			return WaterOutcome{}, notReady(c, p, "already mature")
		}
		p.GrowthStage++
		p.Progress = 0
		s.plant = p
		return WaterOutcome{Became: VariantWeed, Stage: p.GrowthStage}, nil
	default:
		return WaterOutcome{}, notReady(c, s.plant, "nothing to water")
	}
}

func (f *Field) germinate(s *slot, seed Seed) WaterOutcome {
	if f.rng.Float64() >= GerminationCropChance {
		s.plant = Weed{GrowthStage: 1, Health: MaxHealth}
		return WaterOutcome{Germinated: true, Became: VariantWeed, Stage: 1}
	}
	crop := Crop{
		Kind:        seed.Kind,
		GrowthStage: 1,
		Health:      MaxHealth,
		Moisture:    GerminatedMoisture,
	}
	if f.rng.Float64() < PestChance {
		crop.PestCount = 1 + f.rng.Intn(PestMax)
		crop.Health = math.Max(PestHealthFloor, MaxHealth-PestHealthPenalty*float64(crop.PestCount))
	}
	s.plant = crop
	return WaterOutcome{Germinated: true, Became: VariantCrop, Kind: crop.Kind, Stage: 1, PestCount: crop.PestCount}
}

type HarvestOutcome struct {
	Kind    CropKind
	Yield   int
	Coins   int
	Quality string
}

// Harvest removes a mature, healthy crop and prices it.
func (f *Field) Harvest(c grid.Cell) (HarvestOutcome, error) {
	i, err := f.index(c)
	if err != nil {
		return HarvestOutcome{}, err
	}
	s := &f.slots[i]
	p, ok := s.plant.(Crop)
	if !ok {
		return HarvestOutcome{}, notReady(c, s.plant, "not a crop")
	}
	if !p.Mature() {
		return HarvestOutcome{}, notReady(c, p, "not mature")
	}
	if p.Health < MinHarvestHealth {
		return HarvestOutcome{}, notReady(c, p, "too unhealthy to harvest")
	}
	out := PriceHarvest(p)
	s.plant = Empty{}
	return out, nil
}

// PriceHarvest computes the yield and coin value of a crop.
func PriceHarvest(p Crop) HarvestOutcome {
	yield := YieldForHealth(p.Health)
	coins := HarvestBaseCoins + yield*HarvestCoinsPerUnit + p.GrowthStage*HarvestCoinsPerStg
	quality := "premium"
	if p.GrowthStage == CropMaxStage && p.Health >= PerfectHealth {
		coins += PerfectBonusCoins
		quality = "perfect"
	}
	return HarvestOutcome{Kind: p.Kind, Yield: yield, Coins: coins, Quality: quality}
}

func YieldForHealth(health float64) int {
	switch {
	case health >= 90:
		return 5
	case health >= 75:
		return 4
	case health >= 60:
		return 3
	case health >= 40:
		return 2
	default:
		return 1
	}
}

type WeedOutcome struct {
	Removed bool
	Coins   int
	Score   int
	Damage  float64
}

// RemoveWeed clears a weed. Aimed at a crop it misses and damages the crop.
func (f *Field) RemoveWeed(c grid.Cell) (WeedOutcome, error) {
	i, err := f.index(c)
	if err != nil {
		return WeedOutcome{}, err
	}
	s := &f.slots[i]
	switch p := s.plant.(type) {
	case Weed:
		s.plant = Empty{}
		return WeedOutcome{Removed: true, Coins: WeedRemovalCoins, Score: WeedRemovalScore}, nil
	case Crop:
		p.Health = math.Max(0, p.Health-MissedWeedDamage)
		if p.Health <= 0 {
			s.plant = Dead{Kind: p.Kind}
		} else {
			s.plant = p
		}
		return WeedOutcome{Score: -MissedWeedPenalty, Damage: MissedWeedDamage}, nil
	default:
		return WeedOutcome{}, notReady(c, s.plant, "no weed to remove")
	}
}

// Sow puts a seed of kind into an empty cell and resets its soil.
func (f *Field) Sow(c grid.Cell, kind CropKind) error {
	i, err := f.index(c)
	if err != nil {
		return err
	}
	s := &f.slots[i]
	if _, ok := s.plant.(Empty); !ok {
		return notReady(c, s.plant, "cell is occupied")
	}
	if !kind.Valid() {
		kind = KindWheat
	}
	s.plant = Seed{Kind: kind, Moisture: SeedMoisture}
	s.soil.Nitrogen = SeedNitrogen
	s.soil.Phosphorus = SeedPhosphorus
	s.soil.Potassium = SeedPotassium
	return nil
}

// CanSow reports whether Sow would succeed, without mutating.
func (f *Field) CanSow(c grid.Cell) error {
	p, err := f.At(c)
	if err != nil {
		return err
	}
	if _, ok := p.(Empty); !ok {
		return notReady(c, p, "cell is occupied")
	}
	return nil
}

type PesticideOutcome struct {
	Cleared int
	Healed  float64
	Coins   int
}

func (f *Field) SprayPesticide(c grid.Cell) (PesticideOutcome, error) {
	i, err := f.index(c)
	if err != nil {
		return PesticideOutcome{}, err
	}
	s := &f.slots[i]
	p, ok := s.plant.(Crop)
	if !ok {
		return PesticideOutcome{}, notReady(c, s.plant, "not a crop")
	}
	if p.PestCount == 0 {
		return PesticideOutcome{}, notReady(c, p, "no pests")
	}
	out := PesticideOutcome{
		Cleared: p.PestCount,
		Healed:  math.Min(PesticideHealCap, MaxHealth-p.Health),
		Coins:   PesticideCoinsPest * p.PestCount,
	}
	p.PestCount = 0
	p.Health += out.Healed
	s.plant = p
	return out, nil
}

// Fertilize tops up soil nutrients under anything except a weed.
func (f *Field) Fertilize(c grid.Cell) (Soil, error) {
	i, err := f.index(c)
	if err != nil {
		return Soil{}, err
	}
	s := &f.slots[i]
	if _, ok := s.plant.(Weed); ok {
		return Soil{}, notReady(c, s.plant, "weeds are not fertilized")
	}
	if s.soil.Nitrogen >= FertilizedLevel && s.soil.Phosphorus >= FertilizedLevel && s.soil.Potassium >= FertilizedLevel {
		return Soil{}, notReady(c, s.plant, "soil already rich")
	}
	s.soil.Nitrogen = math.Max(s.soil.Nitrogen, FertilizedLevel)
	s.soil.Phosphorus = math.Max(s.soil.Phosphorus, FertilizedLevel)
	s.soil.Potassium = math.Max(s.soil.Potassium, FertilizedLevel)
	return s.soil, nil
}

// Clear removes a dead plant.
func (f *Field) Clear(c grid.Cell) error {
	i, err := f.index(c)
	if err != nil {
		return err
	}
	s := &f.slots[i]
	if _, ok := s.plant.(Dead); !ok {
		return notReady(c, s.plant, "nothing to clear")
	}
	s.plant = Empty{}
	return nil
}

func (f *Field) Inspect(c grid.Cell) (CellView, error) {
	i, err := f.index(c)
	if err != nil {
		return CellView{}, err
	}
	return f.view(i), nil
}

func (f *Field) SoilReport(c grid.Cell, env Environment) (SoilReport, error) {
	i, err := f.index(c)
	if err != nil {
		return SoilReport{}, err
	}
	s := f.slots[i]
	return buildSoilReport(s.soil, moistureOf(s.plant), env), nil
}

func moistureOf(p Plant) float64 {
	switch v := p.(type) {
	case Seed:
		return v.Moisture
	case Crop:
		return v.Moisture
	default:
		return 0
	}
}
