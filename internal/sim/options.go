// Package sim contains the step orchestrator: the fixed-order per-tick
// pipeline that sequences physics, anomaly processing, stability and
// end-condition checks, and the persistence boundary around a run.
package sim

import "github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"

// MaxStepsPerRequest caps a single simulation request.
const MaxStepsPerRequest = 100

// RunOptions are the difficulty-derived knobs for one simulation run.
type RunOptions struct {
	TimeStepYears                float64
	AnomalyProbabilityScale      float64
	MaxAnomalyPerStep            int
	ObservableGalaxiesMultiplier float64
	DifficultyModifier           float64
}

// OptionsForDifficulty maps a difficulty preset to its run options.
func OptionsForDifficulty(d universe.Difficulty) RunOptions {
	switch d {
	case universe.DifficultyIntermediate:
		return RunOptions{
			TimeStepYears:                2e7,
			AnomalyProbabilityScale:      1.0,
			MaxAnomalyPerStep:            3,
			ObservableGalaxiesMultiplier: 1.0,
			DifficultyModifier:           1.5,
		}
	case universe.DifficultyAdvanced:
		return RunOptions{
			TimeStepYears:                1e7,
			AnomalyProbabilityScale:      1.5,
			MaxAnomalyPerStep:            5,
			ObservableGalaxiesMultiplier: 0.5,
			DifficultyModifier:           2.0,
		}
	default: // beginner
		return RunOptions{
			TimeStepYears:                5e7,
			AnomalyProbabilityScale:      0.5,
			MaxAnomalyPerStep:            2,
			ObservableGalaxiesMultiplier: 1.0,
			DifficultyModifier:           1.0,
		}
	}
}

// clampSteps bounds a requested step count into [1, MaxStepsPerRequest].
func clampSteps(requested int) int {
	if requested < 1 {
		return 1
	}
	if requested > MaxStepsPerRequest {
		return MaxStepsPerRequest
	}
	return requested
}
