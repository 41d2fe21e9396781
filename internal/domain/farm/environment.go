package farm

import (
	"math"
	"math/rand"
)

type Environment struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Light       float64 `json:"light"`
}

func DefaultEnvironment() Environment {
	return Environment{Temperature: 24, Humidity: 60, Light: 75}
}

const (
	minGrowthFactor = 0.1
	maxGrowthFactor = 1.2
)

// GrowthFactor scales growth progress by how close the climate is to ideal.
func GrowthFactor(env Environment) float64 {
	f := temperatureTerm(env.Temperature) * humidityTerm(env.Humidity) * lightTerm(env.Light)
	return clamp(f, minGrowthFactor, maxGrowthFactor)
}

func temperatureTerm(t float64) float64 {
	switch {
	case t >= 20 && t <= 28:
		return 1.0
	case t < 20:
		return math.Max(minGrowthFactor, 0.5+(t-15)*0.1)
	default:
		return math.Max(minGrowthFactor, 1-(t-28)*0.05)
	}
}

func humidityTerm(h float64) float64 {
	if h >= 50 && h <= 70 {
		return 1.0
	}
	return math.Max(0.5, 1-math.Abs(h-60)*0.01)
}

func lightTerm(l float64) float64 {
	if l > 50 {
		return 0.8 + (l-50)*0.004
	}
	return math.Max(minGrowthFactor, 0.2+l*0.012)
}

// Evaporation is the moisture lost per second.
func Evaporation(env Environment) float64 {
	return math.Max(0.1, 0.5+(env.Temperature-20)*0.1)
}

func (e Environment) Harsh() bool {
	return math.Abs(e.Temperature-OptimalTemperature) > ClimateTolerance
}

// Drift applies one step of random weather change.
func (e Environment) Drift(rng *rand.Rand) Environment {
	e.Temperature = clamp(e.Temperature+(rng.Float64()-0.5), 15, 35)
	e.Humidity = clamp(e.Humidity+(rng.Float64()*2-1), 30, 90)
	e.Light = clamp(e.Light+(rng.Float64()*2-1), 20, 100)
	return e
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
