package tuning

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"farmbot/internal/app/dispatch"
	"farmbot/internal/app/motion"
	"farmbot/internal/app/scheduler"
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/ledger"
	"farmbot/internal/domain/planner"
	"farmbot/internal/domain/world"
)

// Tuning is the operator-facing farm configuration. Fields missing from the
// file keep their Default values.
type Tuning struct {
	Seed  int64 `yaml:"seed"`
	Drift bool  `yaml:"drift"`

	Grid       Grid       `yaml:"grid"`
	Robot      Robot      `yaml:"robot"`
	Dispatch   Dispatch   `yaml:"dispatch"`
	Planner    Planner    `yaml:"planner"`
	Scheduler  Scheduler  `yaml:"scheduler"`
	Clock      Clock      `yaml:"clock"`
	Motion     Motion     `yaml:"motion"`
	Climate    Climate    `yaml:"climate"`
	ActionCost ActionCost `yaml:"action_energy"`
}

type Grid struct {
	Size     int     `yaml:"size"`
	CellSize float64 `yaml:"cell_size"`
	Origin   float64 `yaml:"origin"`
}

type Robot struct {
	InitialEnergy  float64        `yaml:"initial_energy"`
	MaxEnergy      float64        `yaml:"max_energy"`
	RegenPerSecond float64        `yaml:"regen_per_second"`
	InitialCoins   int            `yaml:"initial_coins"`
	Seeds          map[string]int `yaml:"seeds"`
	MaxDurability  int            `yaml:"max_durability"`
	MaxToolLevel   int            `yaml:"max_tool_level"`
	PlantCost      int            `yaml:"plant_cost"`
	FertilizeCost  int            `yaml:"fertilize_cost"`
	RepairPerLevel int            `yaml:"repair_cost_per_level"`
	UpgradeBase    int            `yaml:"upgrade_base_cost"`
}

type Dispatch struct {
	IntervalMs    int      `yaml:"interval_ms"`
	TickSeconds   float64  `yaml:"tick_seconds"`
	MoveWaitMs    int      `yaml:"move_wait_ms"`
	MoveSpeed     float64  `yaml:"move_speed"`
	SmoothMoves   bool     `yaml:"smooth_moves"`
	SnapshotEvery int      `yaml:"snapshot_every"`
	AutoRepair    bool     `yaml:"auto_repair"`
	Obstacles     [][2]int `yaml:"obstacles"`
}

type Planner struct {
	// Heuristic is "octile" or "manhattan".
	Heuristic string `yaml:"heuristic"`
}

type Scheduler struct {
	MinEnergy        float64 `yaml:"min_energy"`
	MinPlantingCoins int     `yaml:"min_planting_coins"`
	MaxWeedBatch     int     `yaml:"max_weed_batch"`
}

type Clock struct {
	DaySeconds   int     `yaml:"day_seconds"`
	NightSeconds int     `yaml:"night_seconds"`
	DayLight     float64 `yaml:"day_light"`
	NightLight   float64 `yaml:"night_light"`
	LightStep    float64 `yaml:"light_step"`
}

type Motion struct {
	StepsPerSecond int     `yaml:"steps_per_second"`
	TurnRate       float64 `yaml:"turn_rate"`
}

type Climate struct {
	Temperature float64 `yaml:"temperature"`
	Humidity    float64 `yaml:"humidity"`
	Light       float64 `yaml:"light"`
}

// ActionCost overrides the energy charged per action kind.
type ActionCost map[string]float64

func Default() Tuning {
	led := ledger.DefaultConfig()
	dis := dispatch.DefaultConfig()
	sch := scheduler.DefaultConfig()
	mot := motion.DefaultConfig()
	env := farm.DefaultEnvironment()
	geo := grid.DefaultGeometry()

	seeds := make(map[string]int, len(led.InitialSeeds))
	for k, n := range led.InitialSeeds {
		seeds[string(k)] = n
	}
	return Tuning{
		Drift: true,
		Grid:  Grid{Size: geo.Size, CellSize: geo.CellSize, Origin: geo.Origin},
		Robot: Robot{
			InitialEnergy:  led.InitialEnergy,
			MaxEnergy:      led.MaxEnergy,
			RegenPerSecond: led.RegenPerSecond,
			InitialCoins:   led.InitialCoins,
			Seeds:          seeds,
			MaxDurability:  led.MaxDurability,
			MaxToolLevel:   led.MaxToolLevel,
			PlantCost:      led.PlantCost,
			FertilizeCost:  led.FertilizeCost,
			RepairPerLevel: led.RepairCostPerLevel,
			UpgradeBase:    led.UpgradeBaseCost,
		},
		Dispatch: Dispatch{
			IntervalMs:    int(dis.Interval / time.Millisecond),
			MoveWaitMs:    int(dis.MoveWait / time.Millisecond),
			MoveSpeed:     dis.MoveSpeed,
			SmoothMoves:   dis.SmoothMoves,
			SnapshotEvery: dis.SnapshotEvery,
			AutoRepair:    dis.AutoRepair,
		},
		Planner: Planner{Heuristic: planner.HeuristicOctile.String()},
		Scheduler: Scheduler{
			MinEnergy:        sch.MinEnergy,
			MinPlantingCoins: sch.MinPlantingCoins,
			MaxWeedBatch:     sch.MaxWeedBatch,
		},
		Clock:   Clock{DaySeconds: 600, NightSeconds: 300, DayLight: 80, NightLight: 25, LightStep: 2},
		Motion:  Motion{StepsPerSecond: mot.StepsPerSecond, TurnRate: mot.TurnRate},
		Climate: Climate{Temperature: env.Temperature, Humidity: env.Humidity, Light: env.Light},
	}
}

// Load reads a YAML tuning file on top of Default.
func Load(path string) (Tuning, error) {
	t := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.Grid.Size <= 0 || t.Grid.CellSize <= 0 {
		return fmt.Errorf("grid size and cell_size must be positive")
	}
	if t.Robot.MaxEnergy <= 0 || t.Robot.InitialEnergy > t.Robot.MaxEnergy {
		return fmt.Errorf("initial_energy must not exceed a positive max_energy")
	}
	for name := range t.Robot.Seeds {
		if !farm.CropKind(name).Valid() {
			return fmt.Errorf("unknown seed kind %q", name)
		}
	}
	for name := range t.ActionCost {
		if _, ok := costKind(name); !ok {
			return fmt.Errorf("unknown action %q in action_energy", name)
		}
	}
	if _, err := planner.ParseHeuristic(t.Planner.Heuristic); err != nil {
		return fmt.Errorf("planner: %w", err)
	}
	for _, o := range t.Dispatch.Obstacles {
		if !t.Geometry().InBounds(grid.Cell{Row: o[0], Col: o[1]}) {
			return fmt.Errorf("obstacle %v outside the %dx%d grid", o, t.Grid.Size, t.Grid.Size)
		}
	}
	return nil
}

func costKind(name string) (farm.ActionKind, bool) {
	k := farm.ActionKind(name)
	return k, k.Valid() || k == farm.ActionMove
}

func (t Tuning) Geometry() grid.Geometry {
	return grid.Geometry{Size: t.Grid.Size, CellSize: t.Grid.CellSize, Origin: t.Grid.Origin}
}

func (t Tuning) Ledger() ledger.Config {
	cfg := ledger.DefaultConfig()
	cfg.InitialEnergy = t.Robot.InitialEnergy
	cfg.MaxEnergy = t.Robot.MaxEnergy
	cfg.RegenPerSecond = t.Robot.RegenPerSecond
	cfg.InitialCoins = t.Robot.InitialCoins
	cfg.MaxDurability = t.Robot.MaxDurability
	cfg.MaxToolLevel = t.Robot.MaxToolLevel
	cfg.PlantCost = t.Robot.PlantCost
	cfg.FertilizeCost = t.Robot.FertilizeCost
	cfg.RepairCostPerLevel = t.Robot.RepairPerLevel
	cfg.UpgradeBaseCost = t.Robot.UpgradeBase
	cfg.InitialSeeds = make(map[farm.CropKind]int, len(t.Robot.Seeds))
	for k, n := range t.Robot.Seeds {
		cfg.InitialSeeds[farm.CropKind(k)] = n
	}
	for name, e := range t.ActionCost {
		if kind, ok := costKind(name); ok {
			cfg.Energy[kind] = e
		}
	}
	return cfg
}

func (t Tuning) DayNight() world.Clock {
	return world.NewClock(world.ClockConfig{
		DayDuration:   time.Duration(t.Clock.DaySeconds) * time.Second,
		NightDuration: time.Duration(t.Clock.NightSeconds) * time.Second,
		DayLight:      t.Clock.DayLight,
		NightLight:    t.Clock.NightLight,
	})
}

func (t Tuning) CartConfig() motion.Config {
	cfg := motion.DefaultConfig()
	if t.Motion.StepsPerSecond > 0 {
		cfg.StepsPerSecond = t.Motion.StepsPerSecond
	}
	if t.Motion.TurnRate > 0 {
		cfg.TurnRate = t.Motion.TurnRate
	}
	cfg.DefaultSpeed = t.Dispatch.MoveSpeed
	return cfg
}

func (t Tuning) Environment() farm.Environment {
	return farm.Environment{Temperature: t.Climate.Temperature, Humidity: t.Climate.Humidity, Light: t.Climate.Light}
}

func (t Tuning) SchedulerConfig() scheduler.Config {
	cfg := scheduler.DefaultConfig()
	cfg.MinEnergy = t.Scheduler.MinEnergy
	cfg.MinPlantingCoins = t.Scheduler.MinPlantingCoins
	if t.Scheduler.MaxWeedBatch > 0 {
		cfg.MaxWeedBatch = t.Scheduler.MaxWeedBatch
	}
	return cfg
}

func (t Tuning) LoopConfig() dispatch.Config {
	cfg := dispatch.DefaultConfig()
	cfg.Interval = time.Duration(t.Dispatch.IntervalMs) * time.Millisecond
	cfg.TickSeconds = t.Dispatch.TickSeconds
	cfg.MoveWait = time.Duration(t.Dispatch.MoveWaitMs) * time.Millisecond
	cfg.MoveSpeed = t.Dispatch.MoveSpeed
	cfg.SmoothMoves = t.Dispatch.SmoothMoves
	cfg.SnapshotEvery = t.Dispatch.SnapshotEvery
	cfg.AutoRepair = t.Dispatch.AutoRepair
	cfg.Obstacles = t.Obstacles()
	cfg.Heuristic, _ = planner.ParseHeuristic(t.Planner.Heuristic)
	return cfg
}

func (t Tuning) Obstacles() []grid.Cell {
	var out []grid.Cell
	for _, o := range t.Dispatch.Obstacles {
		out = append(out, grid.Cell{Row: o[0], Col: o[1]})
	}
	return out
}

// RoutePlanner builds a planner with the same grid, obstacles and heuristic
// the dispatch loop uses.
func (t Tuning) RoutePlanner() *planner.Planner {
	p := planner.New(t.Geometry())
	p.Heuristic, _ = planner.ParseHeuristic(t.Planner.Heuristic)
	p.SetObstacles(t.Obstacles())
	return p
}
