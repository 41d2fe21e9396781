package farm

type Soil struct {
	Nitrogen     float64 `json:"nitrogen"`
	Phosphorus   float64 `json:"phosphorus"`
	Potassium    float64 `json:"potassium"`
	PH           float64 `json:"ph"`
	Conductivity float64 `json:"conductivity"`
}

func DefaultSoil() Soil {
	return Soil{
		Nitrogen:     SeedNitrogen,
		Phosphorus:   SeedPhosphorus,
		Potassium:    SeedPotassium,
		PH:           6.5,
		Conductivity: 1150,
	}
}

func (s Soil) Nutrients() float64 {
	return (s.Nitrogen + s.Phosphorus + s.Potassium) / 3
}

func (s Soil) Hungry() bool {
	return s.Nutrients() < FertilizerThreshold
}

func (s Soil) drain(amount float64) Soil {
	s.Nitrogen = clamp(s.Nitrogen-amount, 0, 100)
	s.Phosphorus = clamp(s.Phosphorus-amount, 0, 100)
	s.Potassium = clamp(s.Potassium-amount, 0, 100)
	return s
}

type SoilReport struct {
	Soil            Soil     `json:"soil"`
	Moisture        float64  `json:"moisture"`
	Temperature     float64  `json:"temperature"`
	Score           int      `json:"score"`
	Rating          string   `json:"rating"`
	Recommendations []string `json:"recommendations,omitempty"`
}

func buildSoilReport(s Soil, moisture float64, env Environment) SoilReport {
	r := SoilReport{Soil: s, Moisture: moisture, Temperature: env.Temperature}
	if s.PH >= 6 && s.PH <= 7 {
		r.Score += 20
	} else {
		r.Recommendations = append(r.Recommendations, "adjust soil ph towards 6.0-7.0")
	}
	if moisture >= 50 && moisture <= 70 {
		r.Score += 20
	} else if moisture < 50 {
		r.Recommendations = append(r.Recommendations, "increase watering")
	} else {
		r.Recommendations = append(r.Recommendations, "reduce watering")
	}
	switch n := s.Nutrients(); {
	case n >= 70:
		r.Score += 30
	case n >= 50:
		r.Score += 20
	default:
		r.Recommendations = append(r.Recommendations, "apply fertilizer")
	}
	if env.Temperature >= 20 && env.Temperature <= 26 {
		r.Score += 15
	}
	if s.Conductivity >= 1000 && s.Conductivity <= 1300 {
		r.Score += 15
	}
	switch {
	case r.Score >= 80:
		r.Rating = "excellent"
	case r.Score >= 60:
		r.Rating = "good"
	case r.Score >= 40:
		r.Rating = "fair"
	default:
		r.Rating = "poor"
	}
	return r
}
