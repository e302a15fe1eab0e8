// Package civilization manages the lifecycle of civilizations within a
// universe: spawning, technological evolution, extinction risk, catastrophic
// filter events and periodic culling of extinct records.
package civilization

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/sim/rng"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"
)

// Extinction cause tags, chosen by the dominant risk tier at death.
const (
	CauseSocietalCollapse   = "societal_collapse"
	CauseResourceExhaustion = "resource_exhaustion"
	CauseSelfAnnihilation   = "self_annihilation"
	CauseNaturalDecline     = "natural_decline"
)

// maxSpawnPerStep bounds how many civilizations appear in a single tick.
const maxSpawnPerStep = 10

// Result summarizes what one civilization update produced.
type Result struct {
	Spawned           int
	Extinctions       int
	CatastropheDeaths int
}

// Manager evolves the civilization population. All stochastic draws come
// from the physics stream so trajectories replay exactly.
type Manager struct {
	rng       *rng.Stream
	log       zerolog.Logger
	stepCount int
}

// NewManager creates a manager drawing from the given stream.
func NewManager(stream *rng.Stream, log zerolog.Logger) *Manager {
	return &Manager{
		rng: stream,
		log: log.With().Str("component", "civilization").Logger(),
	}
}

// Update runs one tick of civilization dynamics in fixed order: spawn,
// evolve+extinction, catastrophe check, periodic cull. spawnAllowed gates
// new civilizations on the life-era conditions checked by the caller.
func (m *Manager) Update(u *universe.Universe, dt float64, spawnAllowed bool) Result {
	m.stepCount++
	var res Result

	if spawnAllowed {
		res.Spawned = m.spawn(u)
	}
	res.Extinctions = m.evolve(u, dt)
	res.CatastropheDeaths = m.checkCatastrophe(u)
	if m.stepCount%universe.CivilizationCullInterval == 0 {
		m.cull(u)
	}

	u.CurrentState.CivilizationCount = u.ActiveCivilizations()
	return res
}

// spawn adds new civilizations toward the expected population, capped per
// step and by the universe-wide limit.
func (m *Manager) spawn(u *universe.Universe) int {
	st := &u.CurrentState
	expected := math.Floor(st.LifeBearingPlanetsCount * 1e-7 * (1 + 0.5*st.Metallicity))
	active := u.ActiveCivilizations()

	toAdd := int(expected) - active
	if room := universe.MaxCivilizations - active; toAdd > room {
		toAdd = room
	}
	if toAdd > maxSpawnPerStep {
		toAdd = maxSpawnPerStep
	}
	if toAdd <= 0 {
		return 0
	}

	ageGyr := u.AgeGyr()
	for i := 0; i < toAdd; i++ {
		civ := &universe.Civilization{
			ID:               uuid.New(),
			Type:             m.rollType(ageGyr),
			CreatedAt:        st.Age,
			DevelopmentLevel: m.rng.Float64(),
			Technology:       m.rng.Float64() * 10,
			Stability:        0.5 + m.rng.Float64()*0.5,
			Warlikeness:      m.rng.Float64(),
			Population:       1e6 + m.rng.Float64()*1e9,
		}
		u.Civilizations = append(u.Civilizations, civ)
	}

	if u.SetMilestone(universe.MilestoneFirstCivilization) {
		u.AddEvent("first_civilization", "The first civilization gazes at its sky", nil)
	}
	u.Touch()
	return toAdd
}

// rollType picks the initial civilization type. Early universes only
// produce Type0.
func (m *Manager) rollType(ageGyr float64) universe.CivType {
	if ageGyr < 8 {
		return universe.CivType0
	}
	r := m.rng.Float64()
	switch {
	case r < 0.98:
		return universe.CivType0
	case r < 0.998:
		return universe.CivType1
	case r < 0.9998:
		return universe.CivType2
	default:
		return universe.CivType3
	}
}

// evolve advances every living civilization and rolls its extinction risk.
// Returns the number of extinctions this tick.
func (m *Manager) evolve(u *universe.Universe, dt float64) int {
	extinctions := 0
	for _, civ := range u.Civilizations {
		if civ.Extinct {
			continue
		}
		civ.Age += dt

		techGrowth := 0.01 * (dt / 1e8) * (1 + civ.DevelopmentLevel)
		civ.Technology = math.Min(100, civ.Technology+techGrowth)
		civ.ResourceDepletion = math.Min(1, civ.ResourceDepletion+techGrowth*0.005)

		m.tryPromotion(civ)

		drift := m.rng.Gaussian(0, 0.01)
		civ.Stability = universe.Clamp(
			civ.Stability+drift-0.02*civ.ResourceDepletion-0.01*civ.Warlikeness, 0, 1)

		risk := m.extinctionRisk(civ, u.CurrentState.StabilityIndex)
		if m.rng.Float64() < risk {
			m.extinguish(u, civ)
			extinctions++
		}
	}
	if extinctions > 0 {
		u.Touch()
	}
	return extinctions
}

// tryPromotion advances the Kardashev type when technology and luck allow.
// The draw happens only when the threshold is met, keeping replay stable.
func (m *Manager) tryPromotion(civ *universe.Civilization) {
	switch civ.Type {
	case universe.CivType0:
		if civ.Technology > 20 && m.rng.Float64() < 1e-3 {
			civ.Type = universe.CivType1
		}
	case universe.CivType1:
		if civ.Technology > 50 && m.rng.Float64() < 1e-4 {
			civ.Type = universe.CivType2
		}
	case universe.CivType2:
		if civ.Technology > 80 && m.rng.Float64() < 1e-5 {
			civ.Type = universe.CivType3
		}
	}
}

// extinctionRisk computes the per-step extinction probability, capped at 0.5.
func (m *Manager) extinctionRisk(civ *universe.Civilization, cosmicStability float64) float64 {
	risk := 1e-5

	switch {
	case civ.Stability < 0.1:
		risk *= 100
	case civ.Stability < 0.3:
		risk *= (1 - civ.Stability) * 50
	}
	if civ.ResourceDepletion > 0.8 {
		risk *= 20
	}
	if civ.Warlikeness > 0.8 {
		risk *= 10
	}
	switch civ.Type {
	case universe.CivType0:
		risk *= 5
	case universe.CivType3:
		risk *= 0.1
	}
	if cosmicStability < 0.5 {
		risk *= (1 - cosmicStability) * 3
	}
	if civ.Age < 1e7 {
		risk *= 2
	} else if civ.Age > 1e9 {
		risk *= 1.5
	}

	return math.Min(risk, 0.5)
}

// extinguish marks a civilization dead and records the cause.
func (m *Manager) extinguish(u *universe.Universe, civ *universe.Civilization) {
	now := time.Now().UTC()
	civ.Extinct = true
	civ.ExtinctionDate = &now
	civ.ExtinctionAge = u.CurrentState.Age
	civ.ExtinctionCause = extinctionCause(civ)

	u.AddEvent("civilization_extinct",
		fmt.Sprintf("A %s civilization perished (%s)", civ.Type, civ.ExtinctionCause), nil)
}

func extinctionCause(civ *universe.Civilization) string {
	switch {
	case civ.Stability < 0.3:
		return CauseSocietalCollapse
	case civ.ResourceDepletion > 0.8:
		return CauseResourceExhaustion
	case civ.Warlikeness > 0.8:
		return CauseSelfAnnihilation
	default:
		return CauseNaturalDecline
	}
}

// checkCatastrophe rolls the great-filter event: a one-shot mass extinction
// killing 50-90% of active civilizations.
func (m *Manager) checkCatastrophe(u *universe.Universe) int {
	if u.Milestones[universe.MilestoneGreatFilter] {
		return 0
	}
	if m.rng.Float64() >= 1e-6 {
		return 0
	}

	active := u.ActiveCivilizations()
	toKill := int(math.Floor(float64(active) * (0.5 + m.rng.Float64()*0.4)))
	killed := 0
	for _, civ := range u.Civilizations {
		if killed >= toKill {
			break
		}
		if civ.Extinct {
			continue
		}
		now := time.Now().UTC()
		civ.Extinct = true
		civ.ExtinctionDate = &now
		civ.ExtinctionAge = u.CurrentState.Age
		civ.ExtinctionCause = "great_filter"
		killed++
	}

	u.SetMilestone(universe.MilestoneGreatFilter)
	u.AddEvent("great_filter",
		fmt.Sprintf("A great filter event annihilated %d civilizations", killed),
		map[string]float64{"civilizationsLost": float64(killed)})
	m.log.Info().Int("killed", killed).Msg("great filter triggered")
	return killed
}

// cull discards extinct records beyond the 100 most recent extinctions.
// Living civilizations are always retained, in order.
func (m *Manager) cull(u *universe.Universe) {
	var extinct []*universe.Civilization
	for _, civ := range u.Civilizations {
		if civ.Extinct {
			extinct = append(extinct, civ)
		}
	}
	if len(extinct) <= universe.ExtinctRetention {
		return
	}

	sort.SliceStable(extinct, func(i, j int) bool {
		return extinct[i].ExtinctionAge > extinct[j].ExtinctionAge
	})
	keep := make(map[uuid.UUID]bool, universe.ExtinctRetention)
	for _, civ := range extinct[:universe.ExtinctRetention] {
		keep[civ.ID] = true
	}

	filtered := u.Civilizations[:0]
	for _, civ := range u.Civilizations {
		if !civ.Extinct || keep[civ.ID] {
			filtered = append(filtered, civ)
		}
	}
	u.Civilizations = filtered
	u.Touch()
}
