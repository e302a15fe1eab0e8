package universe

import (
	"fmt"
	"math"
	"time"

	"github.com/aquilax/go-perlin"
	"github.com/google/uuid"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/sim/rng"
)

// Milestone flag names. Each transitions false -> true at most once per
// universe lifetime.
const (
	MilestoneFirstGalaxy        = "firstGalaxy"
	MilestoneFirstStar          = "firstStar"
	MilestoneStellarPopulationI = "stellarPopulationI"
	MilestoneFirstLife          = "firstLife"
	MilestoneComplexLifeEra     = "complexLifeEra"
	MilestoneFirstCivilization  = "firstCivilization"
	MilestoneGreatFilter        = "greatFilter"
)

// Event log bounds: append past maxEvents drops the oldest eventEviction
// entries in one slice operation.
const (
	maxEvents     = 2000
	eventEviction = 500
)

// MaxAnomalies is the hard cap on active+resolved anomalies per universe.
const MaxAnomalies = 200

// MaxCivilizations is the hard cap on non-extinct civilizations.
const MaxCivilizations = 500

// CivilizationCullInterval is how many steps pass between extinct-record
// culls.
const CivilizationCullInterval = 10

// ExtinctRetention is how many most-recent extinct civilizations survive a
// cull.
const ExtinctRetention = 100

// New creates a universe for the given owner. A missing seed is replaced
// with a random one; constants default to the standard cosmology. The
// initial-conditions signature is derived from seeded Perlin noise so equal
// seeds yield equal universes.
func New(ownerID uuid.UUID, name, seed string, difficulty Difficulty, constants *Constants) *Universe {
	if seed == "" {
		seed = uuid.NewString()
	}
	if name == "" {
		name = "Universe " + seed[:minInt(8, len(seed))]
	}
	c := DefaultConstants()
	if constants != nil {
		c = *constants
	}
	now := time.Now().UTC()
	u := &Universe{
		ID:                uuid.New(),
		OwnerID:           ownerID,
		Name:              name,
		Seed:              seed,
		Difficulty:        difficulty,
		Constants:         c,
		InitialConditions: deriveInitialConditions(seed),
		CurrentState: CurrentState{
			Age:          0,
			ScaleFactor:  1,
			Temperature:  c.InitialTemperature,
			Entropy:      0,
			EnergyBudget: 1,
			CosmicPhase:  PhaseDarkAges,
		},
		Anomalies:         make([]*Anomaly, 0),
		Civilizations:     make([]*Civilization, 0),
		SignificantEvents: make([]SignificantEvent, 0),
		Milestones:        make(map[string]bool),
		Status:            StatusRunning,
		Version:           1,
		CreatedAt:         now,
		LastModified:      now,
	}
	u.AddEvent("universe_created", "A new universe flickers into existence", nil)
	return u
}

// deriveInitialConditions samples a primordial perturbation signature from
// seed-keyed Perlin noise. Pure function of the seed.
func deriveInitialConditions(seed string) InitialConditions {
	src := rng.New(seed + "_genesis")
	p := perlin.NewPerlin(2, 2, 3, int64(math.Floor(src.Float64()*math.MaxInt32)))
	sig := make([]float64, 8)
	variance := 0.0
	for i := range sig {
		sig[i] = p.Noise1D(float64(i) * 0.37)
		variance += sig[i] * sig[i]
	}
	return InitialConditions{
		DensityVariance:   variance / float64(len(sig)),
		PerturbationScale: 1e-5 * (1 + math.Abs(p.Noise1D(13.7))),
		NoiseSignature:    sig,
	}
}

// AgeGyr returns the universe age in gigayears.
func (u *Universe) AgeGyr() float64 { return u.CurrentState.Age / 1e9 }

// Touch updates the modification timestamp. Called on every mutation.
func (u *Universe) Touch() { u.LastModified = time.Now().UTC() }

// Ended reports whether the universe has reached an end condition.
func (u *Universe) Ended() bool { return u.Status == StatusEnded }

// SetMilestone flips a milestone flag and reports whether this call set it.
// A set flag never reverts.
func (u *Universe) SetMilestone(name string) bool {
	if u.Milestones[name] {
		return false
	}
	u.Milestones[name] = true
	u.Touch()
	return true
}

// AddEvent appends to the significant-event log, evicting the oldest 500
// entries when the log would exceed 2000.
func (u *Universe) AddEvent(eventType, description string, effects map[string]float64) {
	u.SignificantEvents = append(u.SignificantEvents, SignificantEvent{
		Timestamp:   time.Now().UTC(),
		Age:         u.CurrentState.Age,
		AgeGyr:      fmt.Sprintf("%.3f", u.AgeGyr()),
		Type:        eventType,
		Description: description,
		Effects:     effects,
	})
	if len(u.SignificantEvents) > maxEvents {
		u.SignificantEvents = append(u.SignificantEvents[:0:0], u.SignificantEvents[eventEviction:]...)
	}
	u.Touch()
}

// UnresolvedAnomalies counts anomalies still awaiting resolution.
func (u *Universe) UnresolvedAnomalies() int {
	n := 0
	for _, a := range u.Anomalies {
		if !a.Resolved {
			n++
		}
	}
	return n
}

// ResolvedAnomalies counts resolved anomalies.
func (u *Universe) ResolvedAnomalies() int {
	return len(u.Anomalies) - u.UnresolvedAnomalies()
}

// ActiveCivilizations counts non-extinct civilizations.
func (u *Universe) ActiveCivilizations() int {
	n := 0
	for _, c := range u.Civilizations {
		if !c.Extinct {
			n++
		}
	}
	return n
}

// Summarize produces the list projection for this universe.
func (u *Universe) Summarize() Summary {
	return Summary{
		ID:             u.ID,
		Name:           u.Name,
		Difficulty:     u.Difficulty,
		Status:         u.Status,
		AgeGyr:         u.AgeGyr(),
		StabilityIndex: u.CurrentState.StabilityIndex,
		GalaxyCount:    u.CurrentState.GalaxyCount,
		Civilizations:  u.ActiveCivilizations(),
		Anomalies:      u.UnresolvedAnomalies(),
		CreatedAt:      u.CreatedAt,
	}
}

// Clamp bounds v into [lo,hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
