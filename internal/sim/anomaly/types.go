// Package anomaly generates, applies, decays and resolves the discrete
// stochastic perturbations of a universe. Anomaly kinds form a closed set of
// tagged variants, each carrying its trigger condition, severity-scaled
// effect map and metadata.
package anomaly

import (
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"
)

// Effect keys understood by the apply step. Unknown keys in a stored effect
// map are logged and ignored, never fatal.
const (
	EffectStability        = "stability"
	EffectEntropy          = "entropy"
	EffectMetallicity      = "metallicity"
	EffectStarCount        = "starCount"
	EffectGalaxyCount      = "galaxyCount"
	EffectBlackHoleCount   = "blackHoleCount"
	EffectHabitableSystems = "habitableSystems"
	EffectExpansionBoost   = "expansionBoost"
	EffectScaleFactorBump  = "scaleFactorBump"
)

// appliedEffectOrder fixes the order effects are applied in, so clamping
// interactions replay identically.
var appliedEffectOrder = []string{
	EffectStability,
	EffectEntropy,
	EffectMetallicity,
	EffectStarCount,
	EffectGalaxyCount,
	EffectBlackHoleCount,
	EffectHabitableSystems,
	EffectExpansionBoost,
	EffectScaleFactorBump,
}

// Definition is one anomaly variant: base probability, trigger condition and
// severity-scaled effects.
type Definition struct {
	Type            string
	Category        universe.AnomalyCategory
	BaseProbability float64
	Description     string
	Condition       func(st *universe.CurrentState, ageGyr float64) bool
	Effects         func(severity float64) map[string]float64
}

// Catalog lists every anomaly variant in declared order. Generation iterates
// this order, so it is part of the determinism contract.
var Catalog = []Definition{
	{
		Type:            "blackHoleMerger",
		Category:        universe.CategoryGravitational,
		BaseProbability: 0.001,
		Description:     "Two supermassive black holes spiral into violent union",
		Condition: func(st *universe.CurrentState, _ float64) bool {
			return st.BlackHoleCount > 1e5
		},
		Effects: func(s float64) map[string]float64 {
			return map[string]float64{
				EffectStability: -0.008 * s,
				EffectEntropy:   5e6 * s,
			}
		},
	},
	{
		Type:            "darkEnergySurge",
		Category:        universe.CategoryCosmological,
		BaseProbability: 0.0004,
		Description:     "A surge of dark energy accelerates the cosmic expansion",
		Condition: func(_ *universe.CurrentState, ageGyr float64) bool {
			return ageGyr > 5
		},
		Effects: func(s float64) map[string]float64 {
			return map[string]float64{
				EffectExpansionBoost:  0.0008 * s,
				EffectScaleFactorBump: 0.001 * s,
				EffectStability:       -0.012 * s,
			}
		},
	},
	{
		Type:            "supernovaChain",
		Category:        universe.CategoryStellar,
		BaseProbability: 0.0015,
		Description:     "A chain of supernovae seeds the void with heavy elements",
		Condition: func(st *universe.CurrentState, _ float64) bool {
			return st.StarCount > 1e9
		},
		Effects: func(s float64) map[string]float64 {
			return map[string]float64{
				EffectMetallicity: 0.0005 * s,
				EffectStarCount:   -100 * s,
				EffectStability:   -0.005 * s,
			}
		},
	},
	{
		Type:            "quantumFluctuation",
		Category:        universe.CategoryQuantum,
		BaseProbability: 0.0003,
		Description:     "A quantum fluctuation ripples through spacetime",
		Condition: func(_ *universe.CurrentState, _ float64) bool {
			return true
		},
		Effects: func(s float64) map[string]float64 {
			return map[string]float64{
				EffectEntropy:   -1e6 * s,
				EffectStability: -0.015 * s,
			}
		},
	},
	{
		Type:            "galacticCollision",
		Category:        universe.CategoryStructural,
		BaseProbability: 0.0008,
		Description:     "Two galaxies collide, igniting a storm of star formation",
		Condition: func(st *universe.CurrentState, ageGyr float64) bool {
			return st.GalaxyCount > 1e6 && ageGyr > 2
		},
		Effects: func(s float64) map[string]float64 {
			return map[string]float64{
				EffectStarCount:      5000 * s,
				EffectBlackHoleCount: 10 * s,
				EffectStability:      -0.007 * s,
			}
		},
	},
	{
		Type:            "cosmicVoid",
		Category:        universe.CategoryCosmological,
		BaseProbability: 0.0003,
		Description:     "An expanding void swallows entire galaxy clusters",
		Condition: func(_ *universe.CurrentState, ageGyr float64) bool {
			return ageGyr > 3
		},
		Effects: func(s float64) map[string]float64 {
			return map[string]float64{
				EffectGalaxyCount: -1000 * s,
				EffectStability:   -0.01 * s,
			}
		},
	},
	{
		Type:            "magneticReversal",
		Category:        universe.CategoryElectromagnetic,
		BaseProbability: 0.0005,
		Description:     "Galactic magnetic fields reverse, scouring habitable worlds",
		Condition: func(st *universe.CurrentState, _ float64) bool {
			return st.GalaxyCount > 1e5
		},
		Effects: func(s float64) map[string]float64 {
			return map[string]float64{
				EffectHabitableSystems: -100 * s,
				EffectStability:        -0.004 * s,
			}
		},
	},
	{
		Type:            "darkMatterClump",
		Category:        universe.CategoryGravitational,
		BaseProbability: 0.0006,
		Description:     "A dark matter clump warps the local gravitational field",
		Condition: func(_ *universe.CurrentState, ageGyr float64) bool {
			return ageGyr > 1
		},
		Effects: func(s float64) map[string]float64 {
			return map[string]float64{
				EffectStability: -0.006 * s,
			}
		},
	},
}
