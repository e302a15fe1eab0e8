// Package physics advances the continuous state of a universe: metric
// expansion, structure formation, life evolution and the composite stability
// index. One Engine instance owns one universe for the duration of a
// simulation run.
package physics

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/sim/civilization"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/sim/rng"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"
)

// Unit conversions: Mpc in km, seconds per Julian year.
const (
	kmPerMpc       = 3.08567758128e19
	secondsPerYear = 3.15576e7
)

// Scale factor hard bounds.
const (
	scaleFactorMin = 1e-10
	scaleFactorMax = 1e10
)

// radiationDensity is the fixed Omega_r used in the Friedmann term.
const radiationDensity = 0.0001

// Options configures an Engine for one run.
type Options struct {
	TimeStepYears                float64 // default 1e7
	DifficultyModifier           float64 // default 1
	ObservableGalaxiesMultiplier float64 // default 1
	Seed                         string
}

func (o Options) withDefaults() Options {
	if o.TimeStepYears <= 0 {
		o.TimeStepYears = 1e7
	}
	if o.DifficultyModifier <= 0 {
		o.DifficultyModifier = 1
	}
	if o.ObservableGalaxiesMultiplier <= 0 {
		o.ObservableGalaxiesMultiplier = 1
	}
	return o
}

// Engine advances a single universe. Not safe for concurrent use; the
// orchestrator serializes access per universe.
type Engine struct {
	u    *universe.Universe
	opts Options
	rng  *rng.Stream
	civs *civilization.Manager
	log  zerolog.Logger

	observableGalaxies float64 // constants value scaled by the difficulty multiplier

	stabilityHistory []float64 // ring of the last 100 values
}

// stabilityHistoryCap bounds the in-run stability history.
const stabilityHistoryCap = 100

// NewEngine creates an engine over the given universe. The physics stream
// derives directly from the seed; anomaly generation uses its own sub-stream
// elsewhere so the two never cross-contaminate.
func NewEngine(u *universe.Universe, opts Options, log zerolog.Logger) *Engine {
	opts = opts.withDefaults()
	if opts.Seed == "" {
		opts.Seed = u.Seed
	}
	stream := rng.New(opts.Seed)
	return &Engine{
		u:                  u,
		opts:               opts,
		rng:                stream,
		civs:               civilization.NewManager(stream, log),
		log:                log.With().Str("component", "physics").Logger(),
		observableGalaxies: u.Constants.ObservableGalaxies * opts.ObservableGalaxiesMultiplier,
		stabilityHistory:   make([]float64, 0, stabilityHistoryCap),
	}
}

// SimulateStep advances one tick of continuous physics: expansion, structure
// formation and life evolution. Stability is recomputed separately (after
// anomaly processing) via UpdateStability.
func (e *Engine) SimulateStep() {
	dt := e.opts.TimeStepYears
	e.updateExpansion(dt)
	e.updateStructures(dt)
	e.updateLife(dt)
	e.u.Touch()
}

// SimulateSteps runs n full ticks including the stability recomputation.
// Intended for standalone engine use; the orchestrator interleaves anomaly
// processing instead.
func (e *Engine) SimulateSteps(n int) {
	for i := 0; i < n; i++ {
		e.SimulateStep()
		e.UpdateStability()
	}
}

// updateExpansion advances cosmic time, the scale factor and the
// thermodynamic observables driven by it.
func (e *Engine) updateExpansion(dt float64) {
	st := &e.u.CurrentState
	c := e.u.Constants

	st.Age += dt
	ageGyr := st.Age / 1e9

	// Hubble parameter in inverse years.
	h0 := c.H0KmSMpc / kmPerMpc * secondsPerYear

	a := st.ScaleFactor
	omegaM := c.DarkMatterDensity + c.MatterDensity
	term := omegaM/(a*a*a) + radiationDensity/(a*a*a*a) + c.DarkEnergyDensity
	hEff := h0 * math.Sqrt(math.Max(0, term))

	growth := universe.Clamp(hEff*dt, -0.1, 0.1)
	st.ScaleFactor = universe.Clamp(a*math.Exp(growth), scaleFactorMin, scaleFactorMax)

	// Back to km/s/Mpc for display.
	st.ExpansionRate = hEff * kmPerMpc / secondsPerYear

	t0 := c.InitialTemperature
	st.Temperature = universe.Clamp(t0/st.ScaleFactor, 0.01, 100*t0)

	a3 := st.ScaleFactor * st.ScaleFactor * st.ScaleFactor
	st.Entropy = universe.Clamp(st.Entropy+math.Log(math.Max(1, a3))*1e5*(dt/1e8), 0, 1e16)

	st.EnergyBudget = universe.Clamp(st.EnergyBudget-5e-13*dt, 0, 1)

	st.CosmicPhase = phaseForAge(ageGyr)
}

// phaseForAge maps gigayears to the discrete cosmic phase.
func phaseForAge(ageGyr float64) universe.CosmicPhase {
	switch {
	case ageGyr < 0.1:
		return universe.PhaseDarkAges
	case ageGyr < 1:
		return universe.PhaseReionization
	case ageGyr < 5:
		return universe.PhaseGalaxyFormation
	case ageGyr < 10:
		return universe.PhaseStellarPeak
	case ageGyr < 50:
		return universe.PhaseGradualDecline
	case ageGyr < 100:
		return universe.PhaseTwilightEra
	default:
		return universe.PhaseDegenerateEra
	}
}

// updateStructures grows galaxies, stars, stellar generations, metallicity
// and black holes.
func (e *Engine) updateStructures(dt float64) {
	st := &e.u.CurrentState
	c := e.u.Constants
	ageGyr := st.Age / 1e9
	k := e.observableGalaxies

	// Galaxies: logistic growth with an early-universe bootstrap window.
	rate := (0.15 / 1e9) * (1 + 2*math.Exp(-sq((ageGyr-5)/3)))
	switch {
	case ageGyr > 0.1 && ageGyr < 2.5 && st.GalaxyCount < 1000:
		st.GalaxyCount += 2000 * math.Exp(-sq((ageGyr-0.5)/0.7)) * (dt / 1e7)
	case st.GalaxyCount > 0:
		st.GalaxyCount += rate * st.GalaxyCount * (1 - st.GalaxyCount/k) * dt
	}
	if ageGyr > 1.0 && st.GalaxyCount < 100 {
		st.GalaxyCount += 100
	}
	st.GalaxyCount = universe.Clamp(st.GalaxyCount, 0, 1.5*k)
	if st.GalaxyCount >= 1 && e.u.SetMilestone(universe.MilestoneFirstGalaxy) {
		e.u.AddEvent("first_galaxy", "The first galaxy coalesces from the primordial dark", nil)
	}

	// Stars: relax toward the per-galaxy target, faster in metal-rich eras.
	starsTarget := st.GalaxyCount * c.AverageStarsPerGalaxy
	st.StarCount += (starsTarget - st.StarCount) * 0.003 *
		(1 + 0.5*st.Metallicity) * math.Exp(-ageGyr/10) * (dt / 1e7)
	if ageGyr > 0.5 && st.GalaxyCount > 10 && st.StarCount < 1e6 {
		st.StarCount += 1e6
	}
	if st.StarCount < 0 {
		st.StarCount = 0
	}
	if st.StarCount >= 1 && e.u.SetMilestone(universe.MilestoneFirstStar) {
		e.u.AddEvent("first_star", "First light: a star ignites", nil)
	}

	// Stellar evolution: deaths drive generations and metal enrichment.
	deathRate := st.StarCount * 1e-11 * dt
	st.StellarGenerations = math.Min(10, st.StellarGenerations+deathRate/(c.AverageStarsPerGalaxy*10))
	st.Metallicity = universe.Clamp(st.Metallicity+deathRate*1e-14, 0, 1)
	if st.Metallicity > 0.1 && e.u.SetMilestone(universe.MilestoneStellarPopulationI) {
		e.u.AddEvent("stellar_population_1", "Metal-rich Population I stars emerge", nil)
	}

	// Black holes accrete from the stellar population.
	st.BlackHoleCount += st.StarCount * 1e-4 * 0.1 * (dt / 1e9)
}

// updateLife evolves habitability, life-bearing planets and civilizations.
// Requires a mature, metal-enriched universe.
func (e *Engine) updateLife(dt float64) {
	st := &e.u.CurrentState
	ageGyr := st.Age / 1e9

	if ageGyr < 1 || st.Metallicity < 0.01 {
		return
	}

	metallicityFactor := universe.Clamp(st.Metallicity/0.3, 0, 1)
	st.HabitableSystemsCount = st.StarCount *
		(0.001 + metallicityFactor*math.Min(1, (ageGyr-1)/3)*0.015)

	if ageGyr > 3 && st.HabitableSystemsCount > 100 {
		tempSuitability := math.Exp(-sq((st.Temperature - 2.725) / 10))
		st.LifeBearingPlanetsCount += st.HabitableSystemsCount * 1e-8 *
			universe.Clamp((ageGyr-3)/5, 0, 1) * metallicityFactor * tempSuitability * (dt / 1e8)

		if st.LifeBearingPlanetsCount >= 1 && e.u.SetMilestone(universe.MilestoneFirstLife) {
			e.u.AddEvent("first_life", "Somewhere, chemistry becomes biology", nil)
		}
		if st.LifeBearingPlanetsCount > 1000 && e.u.SetMilestone(universe.MilestoneComplexLifeEra) {
			e.u.AddEvent("complex_life_era", "Complex life flourishes across a thousand worlds", nil)
		}
	}

	spawnAllowed := ageGyr > 5 && st.LifeBearingPlanetsCount > 1000
	e.civs.Update(e.u, dt, spawnAllowed)
}

func sq(x float64) float64 { return x * x }
