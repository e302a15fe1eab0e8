package anomaly

import (
	"math"
	"time"

	"github.com/aquilax/go-perlin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/apperr"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/sim/rng"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"
)

// chunkSize is the spatial quantum for anomaly placement.
const chunkSize = 1000.0

// cleanupKeepRecent is how long resolved anomalies survive the automatic
// overflow cleanup.
const cleanupKeepRecent = 5 * time.Minute

// Options configures a Generator for one run.
type Options struct {
	AnomalyProbabilityScale float64
	MaxPerStep              int
	DifficultyModifier      float64
	Seed                    string
	PlayerPosition          universe.Location
}

func (o Options) withDefaults() Options {
	if o.AnomalyProbabilityScale <= 0 {
		o.AnomalyProbabilityScale = 1
	}
	if o.MaxPerStep <= 0 {
		o.MaxPerStep = 3
	}
	if o.DifficultyModifier <= 0 {
		o.DifficultyModifier = 1
	}
	return o
}

// Generator creates and decays anomalies for one universe. It draws from its
// own sub-stream (seed + "_anomaly") so physics and anomaly randomness never
// interleave.
type Generator struct {
	u     *universe.Universe
	opts  Options
	rng   *rng.Stream
	noise *perlin.Perlin
	log   zerolog.Logger
}

// NewGenerator creates a generator over the given universe.
func NewGenerator(u *universe.Universe, opts Options, log zerolog.Logger) *Generator {
	opts = opts.withDefaults()
	if opts.Seed == "" {
		opts.Seed = u.Seed
	}
	stream := rng.NewSub(opts.Seed, "anomaly")
	// Spatial z-texture is a pure function of the seed, consuming no draws.
	noiseSeed := rng.NewSub(opts.Seed, "anomaly_noise")
	return &Generator{
		u:     u,
		opts:  opts,
		rng:   stream,
		noise: perlin.NewPerlin(2, 2, 3, int64(math.Floor(noiseSeed.Float64()*math.MaxInt32))),
		log:   log.With().Str("component", "anomaly").Logger(),
	}
}

// Generate runs one tick of anomaly generation: overflow cleanup first, then
// one probability roll per catalog entry whose condition holds, stopping at
// the per-step cap. Effects are NOT applied here; the orchestrator applies
// them per spawn so it can record events in order.
func (g *Generator) Generate() []*universe.Anomaly {
	if len(g.u.Anomalies) >= universe.MaxAnomalies {
		Cleanup(g.u, cleanupKeepRecent)
	}
	if len(g.u.Anomalies) >= universe.MaxAnomalies {
		return nil
	}

	st := &g.u.CurrentState
	ageGyr := g.u.AgeGyr()
	activity := math.Min(1, st.GalaxyCount/g.u.Constants.ObservableGalaxies)
	baseProb := g.opts.AnomalyProbabilityScale * activity

	var created []*universe.Anomaly
	for i := range Catalog {
		def := &Catalog[i]
		if !def.Condition(st, ageGyr) {
			continue
		}
		if g.rng.Float64() >= def.BaseProbability*baseProb*10000 {
			continue
		}

		created = append(created, g.spawn(def))
		if len(created) >= g.opts.MaxPerStep {
			break
		}
	}

	if len(created) > 0 {
		g.u.Anomalies = append(g.u.Anomalies, created...)
		g.u.Touch()
	}
	return created
}

// spawn materializes one anomaly from its definition. Draw order (severity,
// angle, distance, decay rate) is fixed.
func (g *Generator) spawn(def *Definition) *universe.Anomaly {
	severity := 1 + math.Floor(g.rng.Float64()*3)

	theta := g.rng.Float64() * 2 * math.Pi
	dist := g.rng.Range(1, 4)
	px := math.Floor(g.opts.PlayerPosition.X/chunkSize) * chunkSize
	py := math.Floor(g.opts.PlayerPosition.Y/chunkSize) * chunkSize
	x := px + math.Cos(theta)*dist*chunkSize
	y := py + math.Sin(theta)*dist*chunkSize
	z := g.opts.PlayerPosition.Z + g.noise.Noise2D(x/chunkSize, y/chunkSize)*5e3

	return &universe.Anomaly{
		ID:          uuid.New(),
		Type:        def.Type,
		Category:    def.Category,
		Severity:    severity,
		Timestamp:   time.Now().UTC(),
		EffectsRaw:  def.Effects(severity),
		Location:    universe.Location{X: x, Y: y, Z: z},
		Radius:      chunkSize * severity,
		Description: def.Description,
		DecayRate:   0.001 * g.rng.Float64(),
	}
}

// ApplyEffects applies an anomaly's effect map to the universe state, once,
// at generation time. Known keys apply in a fixed order; unknown keys are
// logged and skipped.
func (g *Generator) ApplyEffects(a *universe.Anomaly) {
	st := &g.u.CurrentState
	applied := make(map[string]bool, len(a.EffectsRaw))

	for _, key := range appliedEffectOrder {
		v, ok := a.EffectsRaw[key]
		if !ok {
			continue
		}
		applied[key] = true
		switch key {
		case EffectStability:
			st.StabilityIndex = universe.Clamp(st.StabilityIndex+v, 0, 1)
		case EffectEntropy:
			st.Entropy = universe.Clamp(st.Entropy+v, 0, 1e16)
		case EffectMetallicity:
			st.Metallicity = universe.Clamp(st.Metallicity+v, 0, 1)
		case EffectStarCount:
			st.StarCount = math.Max(0, st.StarCount+v)
		case EffectGalaxyCount:
			st.GalaxyCount = math.Max(0, st.GalaxyCount+v)
		case EffectBlackHoleCount:
			st.BlackHoleCount = math.Max(0, st.BlackHoleCount+v)
		case EffectHabitableSystems:
			st.HabitableSystemsCount = math.Max(0, st.HabitableSystemsCount+v)
		case EffectExpansionBoost:
			st.ExpansionRate += v
		case EffectScaleFactorBump:
			st.ScaleFactor = universe.Clamp(st.ScaleFactor*(1+v), 1e-10, 1e10)
		}
	}

	for key := range a.EffectsRaw {
		if !applied[key] {
			g.log.Warn().Str("effect", key).Str("anomaly", a.Type).
				Msg("unknown anomaly effect key ignored")
		}
	}
	g.u.Touch()
}

// Decay fractionally weakens unresolved anomalies. Each anomaly with a
// positive decay rate consumes exactly one draw per tick.
func (g *Generator) Decay() {
	st := &g.u.CurrentState
	for _, a := range g.u.Anomalies {
		if a.Resolved || a.DecayRate <= 0 {
			continue
		}
		if g.rng.Float64() < a.DecayRate && a.Severity > 1 {
			a.Severity -= 0.1
			st.StabilityIndex = universe.Clamp(st.StabilityIndex+0.001, 0, 1)
			g.u.Touch()
		}
	}
}

// Resolution reports what resolving an anomaly changed.
type Resolution struct {
	AnomalyID       uuid.UUID `json:"anomalyId"`
	Type            string    `json:"type"`
	Severity        float64   `json:"severity"`
	StabilityBoost  float64   `json:"stabilityBoost"`
	EntropyReduced  float64   `json:"entropyReduced"`
	EnergyRestored  float64   `json:"energyRestored"`
	StabilityIndex  float64   `json:"stabilityIndex"`
	AnomaliesActive int       `json:"anomaliesActive"`
}

// Resolve marks the anomaly resolved and applies the restorative effects.
// Resolving an already-resolved anomaly is a business-rule error; an unknown
// id is not found. Operator-invoked, so it needs no random stream.
func Resolve(u *universe.Universe, anomalyID uuid.UUID) (*Resolution, error) {
	var target *universe.Anomaly
	for _, a := range u.Anomalies {
		if a.ID == anomalyID {
			target = a
			break
		}
	}
	if target == nil {
		return nil, apperr.NotFound("anomaly %s not found", anomalyID)
	}
	if target.Resolved {
		return nil, apperr.BusinessRule("anomaly %s is already resolved", anomalyID)
	}

	now := time.Now().UTC()
	target.Resolved = true
	target.ResolvedAt = &now

	st := &u.CurrentState
	boost := 0.015 * target.Severity
	entropyReduction := 3e6 * target.Severity
	energyRestored := 0.002 * target.Severity

	st.StabilityIndex = universe.Clamp(st.StabilityIndex+boost, 0, 1)
	st.Entropy = universe.Clamp(st.Entropy-entropyReduction, 0, 1e16)
	st.EnergyBudget = universe.Clamp(st.EnergyBudget+energyRestored, 0, 1)

	u.Metrics.PlayerInterventions++
	u.Metrics.AnomaliesResolved++
	if len(u.Anomalies) > 0 {
		u.Metrics.AnomalyResolutionRate = float64(u.ResolvedAnomalies()) / float64(len(u.Anomalies))
	}

	u.AddEvent("anomaly_resolved", "An anomaly was stabilized: "+target.Description,
		map[string]float64{"stabilityBoost": boost})

	return &Resolution{
		AnomalyID:       target.ID,
		Type:            target.Type,
		Severity:        target.Severity,
		StabilityBoost:  boost,
		EntropyReduced:  entropyReduction,
		EnergyRestored:  energyRestored,
		StabilityIndex:  st.StabilityIndex,
		AnomaliesActive: u.UnresolvedAnomalies(),
	}, nil
}

// Cleanup removes resolved anomalies whose resolution is older than
// keepRecent. keepRecent of zero evicts every resolved anomaly. Returns how
// many were removed and how many remain.
func Cleanup(u *universe.Universe, keepRecent time.Duration) (removed, remaining int) {
	cutoff := time.Now().UTC().Add(-keepRecent)
	kept := u.Anomalies[:0]
	for _, a := range u.Anomalies {
		if a.Resolved && a.ResolvedAt != nil && !a.ResolvedAt.After(cutoff) {
			removed++
			continue
		}
		kept = append(kept, a)
	}
	u.Anomalies = kept
	if removed > 0 {
		u.Touch()
	}
	return removed, len(u.Anomalies)
}
