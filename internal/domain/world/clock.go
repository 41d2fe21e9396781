package world

import "time"

type Phase string

const (
	PhaseDay   Phase = "day"
	PhaseNight Phase = "night"
)

type ClockConfig struct {
	DayDuration   time.Duration
	NightDuration time.Duration
	DayLight      float64
	NightLight    float64
}

// Clock maps elapsed simulation time onto a day/night cycle.
type Clock struct {
	cfg ClockConfig
}

func NewClock(cfg ClockConfig) Clock {
	if cfg.DayDuration <= 0 {
		cfg.DayDuration = 10 * time.Minute
	}
	if cfg.NightDuration <= 0 {
		cfg.NightDuration = 5 * time.Minute
	}
	if cfg.DayLight <= 0 {
		cfg.DayLight = 80
	}
	if cfg.NightLight <= 0 {
		cfg.NightLight = 25
	}
	return Clock{cfg: cfg}
}

func DefaultClock() Clock {
	return NewClock(ClockConfig{})
}

// PhaseAt returns the phase at elapsed and how long it has left.
func (c Clock) PhaseAt(elapsed time.Duration) (Phase, time.Duration) {
	total := c.cfg.DayDuration + c.cfg.NightDuration
	if elapsed < 0 {
		elapsed = 0
	}
	offset := elapsed % total
	if offset < c.cfg.DayDuration {
		return PhaseDay, c.cfg.DayDuration - offset
	}
	return PhaseNight, total - offset
}

// TargetLight is the ambient light level the environment drifts towards.
func (c Clock) TargetLight(elapsed time.Duration) float64 {
	phase, _ := c.PhaseAt(elapsed)
	if phase == PhaseNight {
		return c.cfg.NightLight
	}
	return c.cfg.DayLight
}
