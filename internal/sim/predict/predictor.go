// Package predict produces heuristic, side-effect-free forecasts of a
// universe's near-term trajectory: stability drift, anomaly emergence,
// end-condition risk and life growth.
package predict

import (
	"math"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/sim/anomaly"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/sim/endings"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"
)

const (
	kmPerMpc       = 3.08567758128e19
	secondsPerYear = 3.15576e7
)

// Options tunes the forecast horizon to the run's tick size.
type Options struct {
	TimeStepYears      float64
	DifficultyModifier float64
}

func (o Options) withDefaults() Options {
	if o.TimeStepYears <= 0 {
		o.TimeStepYears = 1e7
	}
	if o.DifficultyModifier <= 0 {
		o.DifficultyModifier = 1
	}
	return o
}

// StabilityForecast predicts where the stability index is heading.
type StabilityForecast struct {
	Current        float64 `json:"current"`
	PredictedDelta float64 `json:"predictedDelta"`
	Predicted      float64 `json:"predicted"`
	Outlook        string  `json:"outlook"` // "improving", "stable", "declining", "critical"
}

// AnomalyForecast estimates near-term anomaly pressure.
type AnomalyForecast struct {
	EmergenceProbability float64  `json:"emergenceProbability"`
	LikelyTypes          []string `json:"likelyTypes"`
	UnresolvedCount      int      `json:"unresolvedCount"`
}

// EndRisk scores one end condition.
type EndRisk struct {
	Condition   string  `json:"condition"`
	Risk        float64 `json:"risk"`        // [0,1]
	StepsToRisk int     `json:"stepsToRisk"` // -1 when not estimable
}

// LifeForecast summarizes life-evolution trends.
type LifeForecast struct {
	HabitableSystems    float64 `json:"habitableSystems"`
	LifeBearingPlanets  float64 `json:"lifeBearingPlanets"`
	ActiveCivilizations int     `json:"activeCivilizations"`
	GrowthTrend         string  `json:"growthTrend"` // "dormant", "emerging", "expanding", "declining"
}

// Report is the full heuristic forecast.
type Report struct {
	Stability      StabilityForecast `json:"stability"`
	Anomalies      AnomalyForecast   `json:"anomalies"`
	EndConditions  []EndRisk         `json:"endConditions"`
	Life           LifeForecast      `json:"life"`
	OverallRisk    float64           `json:"overallRisk"`
	ActionPriority []string          `json:"actionPriority"`
}

// Forecast builds a report from the universe's current state. Pure.
func Forecast(u *universe.Universe, opts Options) *Report {
	opts = opts.withDefaults()

	stability := forecastStability(u)
	anomalies := forecastAnomalies(u)
	ends := forecastEndConditions(u, opts)
	life := forecastLife(u)

	endRisk := 0.0
	for _, e := range ends {
		endRisk = math.Max(endRisk, e.Risk)
	}
	stabilityRisk := universe.Clamp(1-stability.Predicted, 0, 1)
	overall := universe.Clamp(
		0.4*stabilityRisk+0.3*anomalies.EmergenceProbability+0.3*endRisk, 0, 1)

	return &Report{
		Stability:      stability,
		Anomalies:      anomalies,
		EndConditions:  ends,
		Life:           life,
		OverallRisk:    overall,
		ActionPriority: actionPriority(u, stability, anomalies, endRisk),
	}
}

func forecastStability(u *universe.Universe) StabilityForecast {
	st := &u.CurrentState
	unresolved := float64(u.UnresolvedAnomalies())

	anomalyPenalty := math.Min(0.05, unresolved*0.002)
	agePenalty := math.Min(0.02, u.AgeGyr()/1e4)
	entropyPenalty := math.Min(0.05, st.Entropy/3e14*0.05)

	delta := -(anomalyPenalty + agePenalty + entropyPenalty)
	predicted := universe.Clamp(st.StabilityIndex+delta, 0, 1)

	outlook := "stable"
	switch {
	case predicted < 0.15:
		outlook = "critical"
	case delta < -0.02:
		outlook = "declining"
	case delta > 0.005:
		outlook = "improving"
	}

	return StabilityForecast{
		Current:        st.StabilityIndex,
		PredictedDelta: delta,
		Predicted:      predicted,
		Outlook:        outlook,
	}
}

// forecastAnomalies reuses the generator's own conditions to list which
// variants could fire next tick.
func forecastAnomalies(u *universe.Universe) AnomalyForecast {
	st := &u.CurrentState
	ageGyr := u.AgeGyr()

	activity := math.Min(1, st.GalaxyCount/u.Constants.ObservableGalaxies)
	ageBonus := math.Min(0.2, ageGyr/50)
	prob := universe.Clamp(0.1+activity*0.5+ageBonus, 0, 1)

	var likely []string
	for i := range anomaly.Catalog {
		def := &anomaly.Catalog[i]
		if def.Condition(st, ageGyr) {
			likely = append(likely, def.Type)
		}
	}

	return AnomalyForecast{
		EmergenceProbability: prob,
		LikelyTypes:          likely,
		UnresolvedCount:      u.UnresolvedAnomalies(),
	}
}

func forecastEndConditions(u *universe.Universe, opts Options) []EndRisk {
	st := &u.CurrentState
	ageGyr := u.AgeGyr()
	mod := opts.DifficultyModifier
	dt := opts.TimeStepYears

	out := make([]EndRisk, 0, 6)

	// Instability: distance to the collapse threshold.
	threshold := 0.05 / mod
	out = append(out, EndRisk{
		Condition:   endings.InstabilityCollapse,
		Risk:        universe.Clamp(1-st.StabilityIndex/(3*threshold), 0, 1),
		StepsToRisk: -1,
	})

	// Heat death: the energy budget decays linearly.
	energyDecayPerStep := 5e-13 * dt
	heatRisk := universe.Clamp(1-(st.EnergyBudget-0.05)/0.95, 0, 1) *
		universe.Clamp(ageGyr/(200/mod), 0, 1)
	out = append(out, EndRisk{
		Condition:   endings.HeatDeath,
		Risk:        heatRisk,
		StepsToRisk: stepsUntil(st.EnergyBudget-0.05, energyDecayPerStep),
	})

	out = append(out, EndRisk{
		Condition:   endings.StellarDeath,
		Risk:        universe.Clamp(ageGyr/80, 0, 1) * universe.Clamp(1-st.StarCount/1e6, 0, 1),
		StepsToRisk: -1,
	})

	// Big rip: exponential growth toward the scale-factor ceiling.
	hInternal := st.ExpansionRate / kmPerMpc * secondsPerYear
	growthPerStep := math.Min(0.1, math.Max(0, hInternal*dt))
	ripSteps := -1
	if growthPerStep > 1e-9 && st.ScaleFactor > 0 {
		ripSteps = int(math.Ceil(math.Log(1e9/st.ScaleFactor) / growthPerStep))
		if ripSteps < 0 {
			ripSteps = 0
		}
	}
	out = append(out, EndRisk{
		Condition:   endings.BigRip,
		Risk:        universe.Clamp(math.Log10(math.Max(1, st.ScaleFactor))/9, 0, 1),
		StepsToRisk: ripSteps,
	})

	out = append(out, EndRisk{
		Condition:   endings.BigCrunch,
		Risk:        universe.Clamp(math.Log10(1e-8/math.Max(1e-10, st.ScaleFactor))/2+1, 0, 1),
		StepsToRisk: -1,
	})

	entropyPerStep := math.Log(math.Max(1, math.Pow(st.ScaleFactor, 3))) * 1e5 * (dt / 1e8)
	out = append(out, EndRisk{
		Condition:   endings.MaximumEntropy,
		Risk:        universe.Clamp(st.Entropy/2e15, 0, 1),
		StepsToRisk: stepsUntil(2e15-st.Entropy, entropyPerStep),
	})

	return out
}

// stepsUntil estimates ticks until remaining is exhausted at the given rate.
func stepsUntil(remaining, perStep float64) int {
	if perStep <= 0 || remaining <= 0 {
		return -1
	}
	steps := math.Ceil(remaining / perStep)
	if steps > 1e9 {
		return -1
	}
	return int(steps)
}

func forecastLife(u *universe.Universe) LifeForecast {
	st := &u.CurrentState
	active := u.ActiveCivilizations()

	trend := "dormant"
	switch {
	case active > 0 && u.Metrics.CosmicHealth < 0.3:
		trend = "declining"
	case active > 0:
		trend = "expanding"
	case st.LifeBearingPlanetsCount >= 1:
		trend = "emerging"
	}

	return LifeForecast{
		HabitableSystems:    st.HabitableSystemsCount,
		LifeBearingPlanets:  st.LifeBearingPlanetsCount,
		ActiveCivilizations: active,
		GrowthTrend:         trend,
	}
}

// actionPriority derives an ordered list of recommended operator actions
// from threshold breaches. Order is fixed, most urgent first.
func actionPriority(u *universe.Universe, s StabilityForecast, a AnomalyForecast, endRisk float64) []string {
	st := &u.CurrentState
	var actions []string
	if s.Predicted < 0.2 {
		actions = append(actions, "stabilize_universe")
	}
	if a.UnresolvedCount > 10 {
		actions = append(actions, "resolve_anomalies")
	}
	if st.EnergyBudget < 0.2 {
		actions = append(actions, "conserve_energy")
	}
	if st.ScaleFactor > 1e8 {
		actions = append(actions, "monitor_expansion")
	}
	if endRisk > 0.7 {
		actions = append(actions, "prepare_for_end_condition")
	}
	if len(actions) == 0 {
		actions = append(actions, "continue_observation")
	}
	return actions
}
