package ledger

import (
	"errors"
	"fmt"
	"math"
	"time"

	"farmbot/internal/domain/farm"
)

var ErrInsufficientResource = errors.New("insufficient resource")

type Resource string

const (
	ResourceEnergy Resource = "energy"
	ResourceCoins  Resource = "coins"
	ResourceSeeds  Resource = "seeds"
	ResourceTool   Resource = "tool"
)

type InsufficientError struct {
	Resource Resource
	Name     string
	Need     float64
	Have     float64
}

func (e *InsufficientError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("insufficient %s %s: need %.2f, have %.2f", e.Resource, e.Name, e.Need, e.Have)
	}
	return fmt.Sprintf("insufficient %s: need %.2f, have %.2f", e.Resource, e.Need, e.Have)
}

func (e *InsufficientError) Unwrap() error {
	return ErrInsufficientResource
}

type ToolName string

const (
	ToolWateringCan ToolName = "watering_can"
	ToolWeeder      ToolName = "weeder"
	ToolScanner     ToolName = "scanner"
	ToolHarvester   ToolName = "harvester"
)

var ToolNames = []ToolName{ToolWateringCan, ToolWeeder, ToolScanner, ToolHarvester}

type Tool struct {
	Level      int     `json:"level"`
	Efficiency float64 `json:"efficiency"`
	Durability int     `json:"durability"`
}

// Cost is what an operation takes from the ledger. A zero Tool means no tool
// is used.
type Cost struct {
	Energy float64
	Coins  int
	Tool   ToolName
}

type Entry struct {
	At     time.Time `json:"at"`
	Kind   string    `json:"kind"`
	Energy float64   `json:"energy"`
	Coins  int       `json:"coins"`
	Detail string    `json:"detail,omitempty"`
}

// Ledger owns the robot's consumables. It is not safe for concurrent use.
type Ledger struct {
	cfg     Config
	energy  float64
	coins   int
	seeds   map[farm.CropKind]int
	tools   map[ToolName]Tool
	history []Entry
	now     func() time.Time
}

func New(cfg Config) *Ledger {
	l := &Ledger{
		cfg:    cfg,
		energy: cfg.InitialEnergy,
		coins:  cfg.InitialCoins,
		seeds:  make(map[farm.CropKind]int, len(cfg.InitialSeeds)),
		tools:  make(map[ToolName]Tool, len(ToolNames)),
		now:    time.Now,
	}
	for k, n := range cfg.InitialSeeds {
		l.seeds[k] = n
	}
	for _, name := range ToolNames {
		l.tools[name] = Tool{Level: 1, Efficiency: 1.0, Durability: cfg.MaxDurability}
	}
	return l
}

// WithClock replaces the history clock.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

func (l *Ledger) Config() Config  { return l.cfg }
func (l *Ledger) Energy() float64 { return l.energy }
func (l *Ledger) Coins() int      { return l.coins }

func (l *Ledger) Tool(name ToolName) (Tool, bool) {
	t, ok := l.tools[name]
	return t, ok
}

func (l *Ledger) Seeds(kind farm.CropKind) int {
	return l.seeds[kind]
}

func (l *Ledger) CanAfford(cost Cost) bool {
	return l.Check(cost) == nil
}

// Check reports why cost cannot be paid, or nil.
func (l *Ledger) Check(cost Cost) error {
	if cost.Energy > l.energy {
		return &InsufficientError{Resource: ResourceEnergy, Need: cost.Energy, Have: l.energy}
	}
	if cost.Coins > l.coins {
		return &InsufficientError{Resource: ResourceCoins, Need: float64(cost.Coins), Have: float64(l.coins)}
	}
	if cost.Tool != "" {
		t, ok := l.tools[cost.Tool]
		if !ok || t.Durability <= 0 {
			return &InsufficientError{Resource: ResourceTool, Name: string(cost.Tool), Need: 1, Have: float64(t.Durability)}
		}
	}
	return nil
}

// Consume deducts the whole cost or nothing.
func (l *Ledger) Consume(cost Cost, detail string) error {
	if cost.Energy < 0 || cost.Coins < 0 {
		return fmt.Errorf("negative cost %+v", cost)
	}
	if err := l.Check(cost); err != nil {
		return err
	}
	l.energy -= cost.Energy
	l.coins -= cost.Coins
	if cost.Tool != "" {
		t := l.tools[cost.Tool]
		t.Durability--
		l.tools[cost.Tool] = t
	}
	l.record("consume", -cost.Energy, -cost.Coins, detail)
	return nil
}

func (l *Ledger) Credit(coins int, detail string) {
	if coins <= 0 {
		return
	}
	l.coins += coins
	l.record("credit", 0, coins, detail)
}

// Regenerate restores energy passively for dt seconds.
func (l *Ledger) Regenerate(dt float64) {
	if dt <= 0 {
		return
	}
	l.energy = math.Min(l.cfg.MaxEnergy, l.energy+l.cfg.RegenPerSecond*dt)
}

func (l *Ledger) RestoreEnergy(amount float64) {
	if amount <= 0 {
		return
	}
	l.energy = math.Min(l.cfg.MaxEnergy, l.energy+amount)
	l.record("restore", amount, 0, "")
}

func (l *Ledger) UseTool(name ToolName) bool {
	t, ok := l.tools[name]
	if !ok || t.Durability <= 0 {
		return false
	}
	t.Durability--
	l.tools[name] = t
	return true
}

func (l *Ledger) UpgradeCost(name ToolName) (int, bool) {
	t, ok := l.tools[name]
	if !ok || t.Level >= l.cfg.MaxToolLevel {
		return 0, false
	}
	return l.cfg.UpgradeBaseCost * t.Level * t.Level, true
}

// UpgradeTool raises the tool one level, paid in coins.
func (l *Ledger) UpgradeTool(name ToolName) bool {
	cost, ok := l.UpgradeCost(name)
	if !ok || cost > l.coins {
		return false
	}
	t := l.tools[name]
	l.coins -= cost
	t.Level++
	t.Efficiency *= l.cfg.UpgradeEfficiencyStep
	t.Durability = l.cfg.MaxDurability
	l.tools[name] = t
	l.record("upgrade", 0, -cost, string(name))
	return true
}

func (l *Ledger) RepairCost(name ToolName) int {
	t := l.tools[name]
	return l.cfg.RepairCostPerLevel * t.Level
}

// RepairTool restores full durability, paid in coins.
func (l *Ledger) RepairTool(name ToolName) bool {
	t, ok := l.tools[name]
	if !ok || t.Durability >= l.cfg.MaxDurability {
		return false
	}
	cost := l.RepairCost(name)
	if cost > l.coins {
		return false
	}
	l.coins -= cost
	t.Durability = l.cfg.MaxDurability
	l.tools[name] = t
	l.record("repair", 0, -cost, string(name))
	return true
}

// TakeSeed removes one seed of kind from the inventory.
func (l *Ledger) TakeSeed(kind farm.CropKind) bool {
	if l.seeds[kind] <= 0 {
		return false
	}
	l.seeds[kind]--
	l.record("seed", 0, 0, string(kind))
	return true
}

func (l *Ledger) AddSeeds(kind farm.CropKind, n int) {
	if n <= 0 || !kind.Valid() {
		return
	}
	l.seeds[kind] += n
	l.record("restock", 0, 0, fmt.Sprintf("%s x%d", kind, n))
}

// PreferredSeed returns the kind with the largest stock, or wheat when the
// inventory is empty.
func (l *Ledger) PreferredSeed() farm.CropKind {
	best, bestN := farm.KindWheat, 0
	for _, k := range farm.Kinds {
		if n := l.seeds[k]; n > bestN {
			best, bestN = k, n
		}
	}
	return best
}

func (l *Ledger) record(kind string, energy float64, coins int, detail string) {
	l.history = append(l.history, Entry{At: l.now(), Kind: kind, Energy: energy, Coins: coins, Detail: detail})
	if over := len(l.history) - l.cfg.HistoryLimit; l.cfg.HistoryLimit > 0 && over > 0 {
		l.history = append(l.history[:0:0], l.history[over:]...)
	}
}

// History returns the most recent entries, newest last.
func (l *Ledger) History(limit int) []Entry {
	start := 0
	if limit > 0 && len(l.history) > limit {
		start = len(l.history) - limit
	}
	out := make([]Entry, len(l.history)-start)
	copy(out, l.history[start:])
	return out
}

type State struct {
	Energy    float64               `json:"energy"`
	MaxEnergy float64               `json:"max_energy"`
	Coins     int                   `json:"coins"`
	Seeds     map[farm.CropKind]int `json:"seeds"`
	Tools     map[ToolName]Tool     `json:"tools"`
}

func (l *Ledger) State() State {
	s := State{
		Energy:    l.energy,
		MaxEnergy: l.cfg.MaxEnergy,
		Coins:     l.coins,
		Seeds:     make(map[farm.CropKind]int, len(l.seeds)),
		Tools:     make(map[ToolName]Tool, len(l.tools)),
	}
	for k, v := range l.seeds {
		s.Seeds[k] = v
	}
	for k, v := range l.tools {
		s.Tools[k] = v
	}
	return s
}

// Restore loads a previously captured state. Values are clamped to the
// ledger's invariants.
func (l *Ledger) Restore(s State) {
	l.energy = math.Max(0, math.Min(l.cfg.MaxEnergy, s.Energy))
	l.coins = max(0, s.Coins)
	l.seeds = make(map[farm.CropKind]int, len(s.Seeds))
	for k, v := range s.Seeds {
		if k.Valid() {
			l.seeds[k] = max(0, v)
		}
	}
	for _, name := range ToolNames {
		if t, ok := s.Tools[name]; ok {
			l.tools[name] = l.clampTool(t)
		}
	}
}

func (l *Ledger) clampTool(t Tool) Tool {
	t.Level = min(max(t.Level, 1), max(l.cfg.MaxToolLevel, 1))
	t.Durability = min(max(t.Durability, 0), l.cfg.MaxDurability)
	if t.Efficiency <= 0 || math.IsNaN(t.Efficiency) {
		t.Efficiency = 1.0
	}
	return t
}
