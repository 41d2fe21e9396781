package farm

import (
	"errors"
	"testing"

	"farmbot/internal/domain/grid"
)

func TestSowThenWaterGerminatesAtStageOne(t *testing.T) {
	c := grid.Cell{Row: 2, Col: 3}
	run := func() Plant {
		f := newTestField(42)
		if err := f.Sow(c, KindCarrot); err != nil {
			t.Fatalf("sow: %v", err)
		}
		out, err := f.Water(c)
		if err != nil {
			t.Fatalf("water: %v", err)
		}
		if !out.Germinated || out.Stage != 1 {
			t.Fatalf("expected germination at stage 1, got %+v", out)
		}
		p, _ := f.At(c)
		return p
	}

	first := run()
	switch p := first.(type) {
	case Crop:
		if p.GrowthStage != 1 || p.Kind != KindCarrot || p.Moisture != GerminatedMoisture {
			t.Fatalf("unexpected crop after germination: %+v", p)
		}
	case Weed:
		if p.GrowthStage != 1 {
			t.Fatalf("unexpected weed after germination: %+v", p)
		}
	default:
		t.Fatalf("expected crop or weed, got %s", first.Variant())
	}
	if again := run(); again != first {
		t.Fatalf("expected deterministic germination, got %+v then %+v", first, again)
	}
}

func TestGerminationSplitIsRoughlyEightyTwenty(t *testing.T) {
	f := newTestField(3)
	crops := 0
	const trials = 2000
	c := grid.Cell{Row: 0, Col: 0}
	for i := 0; i < trials; i++ {
		_ = f.Put(c, Seed{Kind: KindWheat, Moisture: 30})
		out, err := f.Water(c)
		if err != nil {
			t.Fatalf("water: %v", err)
		}
		if out.Became == VariantCrop {
			crops++
		}
	}
	ratio := float64(crops) / trials
	if ratio < 0.75 || ratio > 0.85 {
		t.Fatalf("expected crop ratio near 0.8, got %v", ratio)
	}
}

func TestWaterAdvancesOneStage(t *testing.T) {
	f := newTestField(1)
	c := grid.Cell{Row: 1, Col: 1}
	_ = f.Put(c, Crop{Kind: KindWheat, GrowthStage: 1, Health: 80, Moisture: 40, Progress: 0.5})
	out, err := f.Water(c)
	if err != nil {
		t.Fatalf("water: %v", err)
	}
	p, _ := f.At(c)
	crop := p.(Crop)
	if out.Stage != 2 || crop.GrowthStage != 2 {
		t.Fatalf("expected stage 2, got %d", crop.GrowthStage)
	}
	if crop.Moisture != 70 {
		t.Fatalf("expected moisture 70, got %v", crop.Moisture)
	}
	if crop.Health != 95 {
		t.Fatalf("expected health 95, got %v", crop.Health)
	}
}

func TestWaterPestDamageBeforeHeal(t *testing.T) {
	f := newTestField(1)
	c := grid.Cell{Row: 1, Col: 1}
	_ = f.Put(c, Crop{Kind: KindWheat, GrowthStage: 1, Health: 12, Moisture: 40, PestCount: 2})
	if _, err := f.Water(c); err != nil {
		t.Fatalf("water: %v", err)
	}
	p, _ := f.At(c)
	if got := p.(Crop).Health; got != 25 {
		t.Fatalf("expected health floor 10 then +15 = 25, got %v", got)
	}
}

func TestWaterMatureIsNotReadyWithoutMutation(t *testing.T) {
	f := newTestField(1)
	c := grid.Cell{Row: 1, Col: 1}
	before := Crop{Kind: KindWheat, GrowthStage: 3, Health: 80, Moisture: 40}
	_ = f.Put(c, before)
	_, err := f.Water(c)
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	var nr *NotReadyError
	if !errors.As(err, &nr) || nr.Variant != VariantCrop {
		t.Fatalf("expected NotReadyError for crop, got %v", err)
	}
	if p, _ := f.At(c); p != before {
		t.Fatalf("expected no mutation, got %+v", p)
	}
	if _, err := f.Water(grid.Cell{Row: 0, Col: 0}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady watering empty cell, got %v", err)
	}
}

func TestHarvestPerfectCrop(t *testing.T) {
	f := newTestField(1)
	c := grid.Cell{Row: 5, Col: 5}
	_ = f.Put(c, Crop{Kind: KindTomato, GrowthStage: 3, Health: 95, Moisture: 60})
	out, err := f.Harvest(c)
	if err != nil {
		t.Fatalf("harvest: %v", err)
	}
	if out.Yield != 5 {
		t.Fatalf("expected yield 5, got %d", out.Yield)
	}
	if want := 10 + 5*15 + 3*5 + 20; out.Coins != want {
		t.Fatalf("expected %d coins, got %d", want, out.Coins)
	}
	if out.Quality != "perfect" {
		t.Fatalf("expected perfect quality, got %q", out.Quality)
	}
	if p, _ := f.At(c); p.Variant() != VariantEmpty {
		t.Fatalf("expected empty cell after harvest, got %s", p.Variant())
	}
}

func TestHarvestYieldTiers(t *testing.T) {
	cases := []struct {
		health float64
		yield  int
	}{{95, 5}, {90, 5}, {80, 4}, {75, 4}, {60, 3}, {45, 2}, {40, 2}, {35, 1}}
	for _, tc := range cases {
		if got := YieldForHealth(tc.health); got != tc.yield {
			t.Fatalf("health %v: expected yield %d, got %d", tc.health, tc.yield, got)
		}
	}
	if got := PriceHarvest(Crop{GrowthStage: 3, Health: 70}).Coins; got != 10+3*15+15 {
		t.Fatalf("expected premium price 70, got %d", got)
	}
}

func TestHarvestRequiresMatureHealthyCrop(t *testing.T) {
	f := newTestField(1)
	young := grid.Cell{Row: 0, Col: 0}
	sick := grid.Cell{Row: 0, Col: 1}
	weed := grid.Cell{Row: 0, Col: 2}
	_ = f.Put(young, Crop{Kind: KindWheat, GrowthStage: 2, Health: 100})
	_ = f.Put(sick, Crop{Kind: KindWheat, GrowthStage: 3, Health: 29})
	_ = f.Put(weed, Weed{GrowthStage: 2, Health: 100})
	for _, c := range []grid.Cell{young, sick, weed} {
		if _, err := f.Harvest(c); !errors.Is(err, ErrNotReady) {
			t.Fatalf("cell %s: expected ErrNotReady, got %v", c, err)
		}
	}
	if _, err := f.Harvest(grid.Cell{Row: -1, Col: 0}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveWeed(t *testing.T) {
	f := newTestField(1)
	c := grid.Cell{Row: 3, Col: 3}
	_ = f.Put(c, Weed{GrowthStage: 1, Health: 100})
	out, err := f.RemoveWeed(c)
	if err != nil {
		t.Fatalf("remove weed: %v", err)
	}
	if !out.Removed || out.Coins != WeedRemovalCoins || out.Score != WeedRemovalScore {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if p, _ := f.At(c); p.Variant() != VariantEmpty {
		t.Fatalf("expected empty, got %s", p.Variant())
	}
}

func TestRemoveWeedMissDamagesCrop(t *testing.T) {
	f := newTestField(1)
	c := grid.Cell{Row: 3, Col: 3}
	_ = f.Put(c, Crop{Kind: KindWheat, GrowthStage: 2, Health: 80})
	out, err := f.RemoveWeed(c)
	if err != nil {
		t.Fatalf("remove weed: %v", err)
	}
	if out.Removed || out.Coins != 0 || out.Score != -MissedWeedPenalty {
		t.Fatalf("unexpected miss outcome %+v", out)
	}
	p, _ := f.At(c)
	if p.(Crop).Health != 50 {
		t.Fatalf("expected health 50, got %v", p.(Crop).Health)
	}
	if _, err := f.RemoveWeed(grid.Cell{Row: 0, Col: 0}); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady on empty cell, got %v", err)
	}
}

func TestSowOccupiedIsNotReady(t *testing.T) {
	f := newTestField(1)
	c := grid.Cell{Row: 3, Col: 3}
	if err := f.Sow(c, KindCorn); err != nil {
		t.Fatalf("sow: %v", err)
	}
	if err := f.Sow(c, KindCorn); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if err := f.CanSow(c); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected CanSow ErrNotReady, got %v", err)
	}
	p, _ := f.At(c)
	if s := p.(Seed); s.Kind != KindCorn || s.Moisture != SeedMoisture {
		t.Fatalf("unexpected seed %+v", s)
	}
}

func TestSprayPesticide(t *testing.T) {
	f := newTestField(1)
	c := grid.Cell{Row: 3, Col: 3}
	_ = f.Put(c, Crop{Kind: KindWheat, GrowthStage: 2, Health: 60, PestCount: 2})
	out, err := f.SprayPesticide(c)
	if err != nil {
		t.Fatalf("spray: %v", err)
	}
	if out.Cleared != 2 || out.Coins != 10 || out.Healed != 20 {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if _, err := f.SprayPesticide(c); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady with no pests left, got %v", err)
	}
}

func TestFertilizeAndClear(t *testing.T) {
	f := newTestField(1)
	c := grid.Cell{Row: 3, Col: 3}
	_ = f.PutSoil(c, Soil{Nitrogen: 10, Phosphorus: 90, Potassium: 20, PH: 6.5})
	soil, err := f.Fertilize(c)
	if err != nil {
		t.Fatalf("fertilize: %v", err)
	}
	if soil.Nitrogen != 80 || soil.Phosphorus != 90 || soil.Potassium != 80 {
		t.Fatalf("unexpected soil %+v", soil)
	}
	if _, err := f.Fertilize(c); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady on rich soil, got %v", err)
	}

	_ = f.Put(c, Dead{Kind: KindCorn})
	if err := f.Clear(c); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := f.Clear(c); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady clearing empty cell, got %v", err)
	}
}

func TestSoilReport(t *testing.T) {
	f := newTestField(1)
	c := grid.Cell{Row: 3, Col: 3}
	_ = f.Put(c, Crop{Kind: KindWheat, GrowthStage: 1, Health: 100, Moisture: 60})
	r, err := f.SoilReport(c, Environment{Temperature: 22, Humidity: 60, Light: 70})
	if err != nil {
		t.Fatalf("soil report: %v", err)
	}
	// ph +20, moisture +20, npk 65 avg +20, temperature +15, conductivity +15
	if r.Score != 90 || r.Rating != "excellent" {
		t.Fatalf("expected score 90 excellent, got %d %s", r.Score, r.Rating)
	}
}
