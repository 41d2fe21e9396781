package runtime

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"farmbot/internal/app/motion"
	"farmbot/internal/app/ports"
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/ledger"
	"farmbot/internal/domain/world"
)

func newTestProvider(seed int64) *Provider {
	cfg := DefaultConfig()
	cfg.Seed = seed
	cfg.Drift = false
	cfg.Motion = motion.Config{Frame: time.Microsecond}
	return NewProvider(cfg)
}

func cropView(row, col int, stage int, health float64) farm.CellView {
	return farm.CellView{
		Row:         row,
		Col:         col,
		Variant:     farm.VariantCrop,
		Kind:        farm.KindWheat,
		GrowthStage: stage,
		Health:      health,
		Moisture:    60,
		Soil:        farm.DefaultSoil(),
	}
}

func TestPlantThenWaterIsDeterministic(t *testing.T) {
	ctx := context.Background()
	cell := grid.Cell{Row: 2, Col: 3}
	var outcomes []farm.Variant
	for i := 0; i < 2; i++ {
		p := newTestProvider(42)
		if _, err := p.ExecuteAction(ctx, farm.ActionPlant, cell, ports.ActionParams{Kind: farm.KindCorn}); err != nil {
			t.Fatalf("plant: %v", err)
		}
		res, err := p.ExecuteAction(ctx, farm.ActionWater, cell, ports.ActionParams{})
		if err != nil {
			t.Fatalf("water: %v", err)
		}
		if res.Plant == nil || res.Plant.GrowthStage != 1 {
			t.Fatalf("expected stage 1 after germination, got %+v", res.Plant)
		}
		if res.Plant.Variant != farm.VariantCrop && res.Plant.Variant != farm.VariantWeed {
			t.Fatalf("expected crop or weed, got %s", res.Plant.Variant)
		}
		snap, _ := p.GetSnapshot(ctx)
		if snap.Coins != 315 {
			t.Fatalf("expected 315 coins after planting, got %d", snap.Coins)
		}
		if snap.Resources.Seeds[farm.KindCorn] != 4 {
			t.Fatalf("expected corn stock 4, got %d", snap.Resources.Seeds[farm.KindCorn])
		}
		outcomes = append(outcomes, res.Plant.Variant)
	}
	if outcomes[0] != outcomes[1] {
		t.Fatalf("same seed must give same germination, got %v", outcomes)
	}
}

func TestHarvestCreditsExactReward(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(1)
	if err := p.Restore(ctx, world.Snapshot{Plants: []farm.CellView{cropView(4, 4, 3, 95)}}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	before, _ := p.GetSnapshot(ctx)

	res, err := p.ExecuteAction(ctx, farm.ActionHarvest, grid.Cell{Row: 4, Col: 4}, ports.ActionParams{})
	if err != nil {
		t.Fatalf("harvest: %v", err)
	}
	after, _ := p.GetSnapshot(ctx)
	// 10 base + 5 units * 15 + stage 3 * 5 + 20 perfect bonus.
	if got := after.Coins - before.Coins; got != 120 {
		t.Fatalf("expected +120 coins, got %+d", got)
	}
	if res.Plant.Variant != farm.VariantEmpty {
		t.Fatalf("expected empty cell, got %s", res.Plant.Variant)
	}
	if math.Abs(before.Robot.Energy-after.Robot.Energy-3) > 1e-9 {
		t.Fatalf("expected 3 energy spent, got %v", before.Robot.Energy-after.Robot.Energy)
	}
	if after.Score != 120 {
		t.Fatalf("expected score 120, got %d", after.Score)
	}
}

func TestNotReadyChargesNothing(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(1)
	before, _ := p.GetSnapshot(ctx)

	_, err := p.ExecuteAction(ctx, farm.ActionHarvest, grid.Cell{Row: 0, Col: 0}, ports.ActionParams{})
	if !errors.Is(err, farm.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	after, _ := p.GetSnapshot(ctx)
	if after.Robot.Energy != before.Robot.Energy || after.Coins != before.Coins {
		t.Fatalf("failed action must not charge: before %+v after %+v", before.Robot, after.Robot)
	}
	tool := after.Resources.Tools[ledger.ToolHarvester]
	if tool.Durability != ledger.DefaultConfig().MaxDurability {
		t.Fatalf("failed action must not wear the tool, durability %d", tool.Durability)
	}
}

func TestActionErrors(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(1)
	if _, err := p.ExecuteAction(ctx, farm.ActionWater, grid.Cell{Row: 9, Col: 0}, ports.ActionParams{}); !errors.Is(err, farm.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := p.ExecuteAction(ctx, "dance", grid.Cell{}, ports.ActionParams{}); !errors.Is(err, ports.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestInsufficientEnergyLeavesPlantUntouched(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(1)
	res := ledger.New(ledger.DefaultConfig()).State()
	res.Energy = 0.05
	seed := farm.CellView{Row: 1, Col: 1, Variant: farm.VariantSeed, Kind: farm.KindWheat, Moisture: 30, Soil: farm.DefaultSoil()}
	if err := p.Restore(ctx, world.Snapshot{Plants: []farm.CellView{seed}, Resources: res}); err != nil {
		t.Fatalf("restore: %v", err)
	}

	_, err := p.ExecuteAction(ctx, farm.ActionWater, grid.Cell{Row: 1, Col: 1}, ports.ActionParams{})
	if !errors.Is(err, ledger.ErrInsufficientResource) {
		t.Fatalf("expected ErrInsufficientResource, got %v", err)
	}
	snap, _ := p.GetSnapshot(ctx)
	v, _ := snap.PlantAt(grid.Cell{Row: 1, Col: 1})
	if v.Variant != farm.VariantSeed {
		t.Fatalf("expected seed to remain, got %s", v.Variant)
	}
}

func TestWeedMissCostsScore(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(1)
	if err := p.Restore(ctx, world.Snapshot{Plants: []farm.CellView{cropView(0, 0, 2, 80)}}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	res, err := p.ExecuteAction(ctx, farm.ActionWeed, grid.Cell{}, ports.ActionParams{})
	if err != nil {
		t.Fatalf("weed: %v", err)
	}
	if res.Success {
		t.Fatalf("expected miss to report failure")
	}
	if res.Plant.Health != 50 {
		t.Fatalf("expected crop health 50, got %v", res.Plant.Health)
	}
	snap, _ := p.GetSnapshot(ctx)
	if snap.Score != -100 {
		t.Fatalf("expected score -100, got %d", snap.Score)
	}
}

func TestRunInTxNestsAndPublishes(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(1)
	start, _ := p.GetSnapshot(ctx)

	err := p.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := p.ExecuteAction(ctx, farm.ActionPlant, grid.Cell{Row: 5, Col: 5}, ports.ActionParams{}); err != nil {
			return err
		}
		inside, err := p.GetSnapshot(ctx)
		if err != nil {
			return err
		}
		if v, _ := inside.PlantAt(grid.Cell{Row: 5, Col: 5}); v.Variant != farm.VariantSeed {
			t.Errorf("expected live read to see the seed, got %s", v.Variant)
		}
		outside, _ := p.GetSnapshot(context.Background())
		if v, _ := outside.PlantAt(grid.Cell{Row: 5, Col: 5}); v.Variant != farm.VariantEmpty {
			t.Errorf("expected published snapshot to hide the half-done tick, got %s", v.Variant)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}
	end, _ := p.GetSnapshot(ctx)
	if end.Version <= start.Version {
		t.Fatalf("expected a newer version, %d -> %d", start.Version, end.Version)
	}
	if v, _ := end.PlantAt(grid.Cell{Row: 5, Col: 5}); v.Variant != farm.VariantSeed {
		t.Fatalf("expected published seed after commit, got %s", v.Variant)
	}
}

func TestSnapshotCancelledContextIsTransient(t *testing.T) {
	p := newTestProvider(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.GetSnapshot(ctx); !errors.Is(err, ports.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestMoveToChargesAndCompletes(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(1)
	geo := p.Geometry()
	before, _ := p.GetSnapshot(ctx)

	target := geo.CellToWorld(grid.Cell{Row: 0, Col: 2})
	ack, err := p.MoveTo(ctx, ports.MoveRequest{Target: target, Speed: 5})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	select {
	case <-ack.Done:
	case <-time.After(5 * time.Second):
		t.Fatalf("move did not complete")
	}
	after, _ := p.GetSnapshot(ctx)
	if after.Robot.Position != target {
		t.Fatalf("expected robot at %+v, got %+v", target, after.Robot.Position)
	}
	if spent := before.Robot.Energy - after.Robot.Energy; math.Abs(spent-0.5) > 1e-9 {
		t.Fatalf("expected 0.5 energy for 1.0 units, got %v", spent)
	}

	if _, err := p.MoveTo(ctx, ports.MoveRequest{Target: grid.Point{X: 50, Z: 0}}); !errors.Is(err, ports.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for off-field target, got %v", err)
	}
}

func TestAdvanceTicksAndRegenerates(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(1)
	res := ledger.New(ledger.DefaultConfig()).State()
	res.Energy = 50
	if err := p.Restore(ctx, world.Snapshot{Resources: res}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := p.Advance(ctx, 1); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	snap, _ := p.GetSnapshot(ctx)
	if snap.Tick != 10 {
		t.Fatalf("expected tick 10, got %d", snap.Tick)
	}
	if math.Abs(snap.Robot.Energy-50.2) > 1e-9 {
		t.Fatalf("expected energy 50.2, got %v", snap.Robot.Energy)
	}
}

func TestRestoreRejectsForeignGrid(t *testing.T) {
	p := newTestProvider(1)
	if err := p.Restore(context.Background(), world.Snapshot{GridSize: 4}); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRunInTxPanicKeepsLastPublished(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(1)
	start, _ := p.GetSnapshot(ctx)
	cell := grid.Cell{Row: 4, Col: 4}

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Fatalf("expected the panic to propagate")
			}
		}()
		_ = p.RunInTx(ctx, func(ctx context.Context) error {
			if _, err := p.ExecuteAction(ctx, farm.ActionPlant, cell, ports.ActionParams{}); err != nil {
				return err
			}
			panic("tick aborted")
		})
	}()

	after, _ := p.GetSnapshot(ctx)
	if after.Version != start.Version {
		t.Fatalf("expected version %d kept after panic, got %d", start.Version, after.Version)
	}
	if v, _ := after.PlantAt(cell); v.Variant != farm.VariantEmpty {
		t.Fatalf("expected the half-done tick hidden, got %s", v.Variant)
	}
	if err := p.RunInTx(ctx, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("expected the tick mutex released, got %v", err)
	}
}

func TestRestoreSetsRobotPose(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(1)
	want := p.Geometry().CellToWorld(grid.Cell{Row: 2, Col: 6})
	if err := p.Restore(ctx, world.Snapshot{Robot: world.Robot{Position: want}}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	snap, _ := p.GetSnapshot(ctx)
	if snap.Robot.Position != want {
		t.Fatalf("expected robot at %+v, got %+v", want, snap.Robot.Position)
	}
}

func TestProjectActionsLeavesLedgerUntouched(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(1)
	before, _ := p.GetSnapshot(ctx)
	proj, err := p.ProjectActions(ctx, []farm.ActionKind{farm.ActionWater, farm.ActionPlant})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if !proj.Affordable || proj.FailedAt != -1 || proj.TotalEnergy <= 0 {
		t.Fatalf("expected an affordable projection, got %+v", proj)
	}
	if proj.Coins != before.Coins-5 {
		t.Fatalf("expected planting to be priced at 5 coins, got %d from %d", proj.Coins, before.Coins)
	}
	after, _ := p.GetSnapshot(ctx)
	if after.Coins != before.Coins || after.Robot.Energy != before.Robot.Energy {
		t.Fatalf("expected projection not to spend, before=%+v after=%+v", before.Robot, after.Robot)
	}
}
