package physics

import (
	"math"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"
)

// Weights of the stability decomposition. Factors are all in [0,1].
const (
	weightEntropy     = 0.15
	weightStructure   = 0.25
	weightDarkEnergy  = 0.15
	weightTemperature = 0.15
	weightAnomaly     = 0.20
	weightEnergy      = 0.10
)

// UpdateStability recomputes the composite stability index from the current
// state and anomaly load, pushes it onto the history ring and refreshes the
// derived metric indices.
func (e *Engine) UpdateStability() {
	st := &e.u.CurrentState

	entropyFactor := math.Max(0, 1-math.Pow(st.Entropy/3e14, 0.7))
	structureFactor := e.structureFactor()
	darkEnergyFactor := e.darkEnergyFactor()
	temperatureFactor := math.Exp(-sq((st.Temperature - 2.725) / 5))
	anomalyFactor := e.anomalyFactor()

	raw := weightEntropy*entropyFactor +
		weightStructure*structureFactor +
		weightDarkEnergy*darkEnergyFactor +
		weightTemperature*temperatureFactor +
		weightAnomaly*anomalyFactor +
		weightEnergy*st.EnergyBudget

	st.StabilityIndex = universe.Clamp(raw*(0.6+0.4/e.opts.DifficultyModifier), 0, 1)

	e.pushStability(st.StabilityIndex)
	e.updateIndices(entropyFactor, structureFactor, temperatureFactor)
	e.u.Touch()
}

// structureFactor averages how filled-in the galaxy and star populations are
// relative to their age-scaled expectations.
func (e *Engine) structureFactor() float64 {
	st := &e.u.CurrentState
	c := e.u.Constants
	ageGyr := st.Age / 1e9

	expectedGalaxies := math.Max(1, e.observableGalaxies*math.Min(ageGyr/13.8, 1)*0.3)
	galaxyFactor := math.Min(1, st.GalaxyCount/expectedGalaxies)

	expectedStars := math.Max(1, st.GalaxyCount*c.AverageStarsPerGalaxy*0.5)
	starFactor := math.Min(1, st.StarCount/expectedStars)

	return (galaxyFactor + starFactor) / 2
}

// darkEnergyFactor penalizes dark-energy domination beyond 95%.
func (e *Engine) darkEnergyFactor() float64 {
	st := &e.u.CurrentState
	c := e.u.Constants

	a := st.ScaleFactor
	omegaM := (c.DarkMatterDensity + c.MatterDensity) / (a * a * a)
	f := c.DarkEnergyDensity / (omegaM + c.DarkEnergyDensity)
	if f < 0.95 {
		return 1.0
	}
	return math.Max(0, 1-sq((f-0.95)/0.05))
}

// anomalyFactor degrades with unresolved and total anomaly load, each with
// its own ceiling.
func (e *Engine) anomalyFactor() float64 {
	unresolved := float64(e.u.UnresolvedAnomalies())
	total := float64(len(e.u.Anomalies))
	return math.Max(0, 1-math.Min(unresolved*0.008, 0.35)-math.Min(total*0.0015, 0.25))
}

// pushStability appends to the fixed-capacity history ring.
func (e *Engine) pushStability(v float64) {
	e.stabilityHistory = append(e.stabilityHistory, v)
	if len(e.stabilityHistory) > stabilityHistoryCap {
		e.stabilityHistory = e.stabilityHistory[len(e.stabilityHistory)-stabilityHistoryCap:]
	}
}

// StabilityHistory returns a copy of the recorded stability values, oldest
// first.
func (e *Engine) StabilityHistory() []float64 {
	out := make([]float64, len(e.stabilityHistory))
	copy(out, e.stabilityHistory)
	return out
}

// StabilityTrend is mean(last 10) - mean(prior 10); zero until 20 samples
// exist.
func (e *Engine) StabilityTrend() float64 {
	h := e.stabilityHistory
	if len(h) < 20 {
		return 0
	}
	recent := mean(h[len(h)-10:])
	prior := mean(h[len(h)-20 : len(h)-10])
	return recent - prior
}

// updateIndices refreshes the derived metric subrecord.
func (e *Engine) updateIndices(entropyFactor, structureFactor, temperatureFactor float64) {
	st := &e.u.CurrentState
	m := &e.u.Metrics

	m.ComplexityIndex = universe.Clamp(
		0.3*structureFactor+
			0.3*math.Min(1, st.Metallicity/0.5)+
			0.2*math.Min(1, st.LifeBearingPlanetsCount/1e4)+
			0.2*math.Min(1, float64(st.CivilizationCount)/100), 0, 1)

	m.LifePotentialIndex = universe.Clamp(
		0.4*math.Min(1, st.HabitableSystemsCount/1e6)+
			0.3*math.Min(1, st.Metallicity/0.3)+
			0.3*temperatureFactor, 0, 1)

	m.CosmicHealth = universe.Clamp(
		0.5*st.StabilityIndex+0.3*st.EnergyBudget+0.2*entropyFactor, 0, 1)
}

// Statistics is the read-only snapshot exposed by the stats endpoint.
type Statistics struct {
	Age                float64              `json:"age"`
	AgeGyr             float64              `json:"ageGyr"`
	CosmicPhase        universe.CosmicPhase `json:"cosmicPhase"`
	ScaleFactor        float64              `json:"_scaleFactor"`
	ExpansionRate      float64              `json:"expansionRate"`
	Temperature        float64              `json:"temperature"`
	Entropy            float64              `json:"entropy"`
	StabilityIndex     float64              `json:"stabilityIndex"`
	StabilityTrend     float64              `json:"stabilityTrend"`
	GalaxyCount        float64              `json:"galaxyCount"`
	StarCount          float64              `json:"starCount"`
	BlackHoleCount     float64              `json:"blackHoleCount"`
	HabitableSystems   float64              `json:"habitableSystemsCount"`
	LifeBearingPlanets float64              `json:"lifeBearingPlanetsCount"`
	CivilizationCount  int                  `json:"civilizationCount"`
	Metallicity        float64              `json:"metallicity"`
	StellarGenerations float64              `json:"stellarGenerations"`
	EnergyBudget       float64              `json:"energyBudget"`
	Metrics            universe.Metrics     `json:"metrics"`
	Milestones         map[string]bool      `json:"milestones"`
}

// Statistics captures the current observable state.
func (e *Engine) Statistics() Statistics {
	st := e.u.CurrentState
	milestones := make(map[string]bool, len(e.u.Milestones))
	for k, v := range e.u.Milestones {
		milestones[k] = v
	}
	return Statistics{
		Age:                st.Age,
		AgeGyr:             e.u.AgeGyr(),
		CosmicPhase:        st.CosmicPhase,
		ScaleFactor:        st.ScaleFactor,
		ExpansionRate:      st.ExpansionRate,
		Temperature:        st.Temperature,
		Entropy:            st.Entropy,
		StabilityIndex:     st.StabilityIndex,
		StabilityTrend:     e.StabilityTrend(),
		GalaxyCount:        st.GalaxyCount,
		StarCount:          st.StarCount,
		BlackHoleCount:     st.BlackHoleCount,
		HabitableSystems:   st.HabitableSystemsCount,
		LifeBearingPlanets: st.LifeBearingPlanetsCount,
		CivilizationCount:  st.CivilizationCount,
		Metallicity:        st.Metallicity,
		StellarGenerations: st.StellarGenerations,
		EnergyBudget:       st.EnergyBudget,
		Metrics:            e.u.Metrics,
		Milestones:         milestones,
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
