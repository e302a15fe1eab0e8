package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/apperr"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/events"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/locking"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/metrics"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/sim/anomaly"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/sim/endings"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/sim/physics"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/sim/predict"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"
)

// Store is the persistence surface the orchestrator needs. The Mongo
// repository implements it; tests use an in-memory fake.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*universe.Universe, error)
	Save(ctx context.Context, u *universe.Universe) error
}

// AnomalyStats splits the anomaly population for reporting.
type AnomalyStats struct {
	Active         int     `json:"active"`
	Resolved       int     `json:"resolved"`
	Total          int     `json:"total"`
	ResolutionRate float64 `json:"resolutionRate"`
}

// EndStatus reports whether and how a universe ended.
type EndStatus struct {
	Ended     bool    `json:"ended"`
	Condition string  `json:"condition,omitempty"`
	Reason    string  `json:"reason,omitempty"`
	FinalAge  float64 `json:"finalAge,omitempty"`
}

// Report is the result of one simulation run.
type Report struct {
	StepsRequested   int                 `json:"stepsRequested"`
	StepsExecuted    int                 `json:"stepsExecuted"`
	Stats            physics.Statistics  `json:"stats"`
	AnomalyStats     AnomalyStats        `json:"anomalyStats"`
	EndStatus        EndStatus           `json:"endStatus"`
	Warnings         []endings.Warning   `json:"warnings"`
	Predictions      *predict.Report     `json:"predictions"`
	CreatedAnomalies []*universe.Anomaly `json:"createdAnomalies"`
	Universe         *universe.Universe  `json:"universe"`
}

// CleanupResult reports an anomaly cleanup.
type CleanupResult struct {
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}

// Runner coordinates load -> simulate -> persist for one universe at a time.
// Per-universe exclusivity comes from the locker; within a run the kernel is
// single-threaded.
type Runner struct {
	store     Store
	locker    locking.Locker
	publisher *events.Publisher
	metrics   *metrics.Set
	log       zerolog.Logger
}

// NewRunner wires the orchestrator. publisher and metrics may be nil.
func NewRunner(store Store, locker locking.Locker, publisher *events.Publisher, m *metrics.Set, log zerolog.Logger) *Runner {
	if locker == nil {
		locker = locking.NoopLocker{}
	}
	return &Runner{
		store:     store,
		locker:    locker,
		publisher: publisher,
		metrics:   m,
		log:       log.With().Str("component", "orchestrator").Logger(),
	}
}

// loadOwned fetches a universe and enforces ownership. A non-owner read
// reports not-found rather than leaking existence.
func (r *Runner) loadOwned(ctx context.Context, id, ownerID uuid.UUID) (*universe.Universe, error) {
	u, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.OwnerID != ownerID {
		return nil, apperr.NotFound("universe %s not found", id)
	}
	return u, nil
}

// GetOwned is the read path shared by the query endpoints.
func (r *Runner) GetOwned(ctx context.Context, id, ownerID uuid.UUID) (*universe.Universe, error) {
	return r.loadOwned(ctx, id, ownerID)
}

// Simulate advances a universe by the requested number of ticks and persists
// the result atomically. A cancelled context between ticks aborts the run
// without persisting anything.
func (r *Runner) Simulate(ctx context.Context, universeID, ownerID uuid.UUID, requestedSteps int) (*Report, error) {
	start := time.Now()

	release, err := r.locker.Acquire(ctx, universeID.String())
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			r.log.Warn().Err(rerr).Str("universe", universeID.String()).Msg("releasing lock")
		}
	}()

	u, err := r.loadOwned(ctx, universeID, ownerID)
	if err != nil {
		return nil, err
	}
	if u.Ended() {
		return nil, apperr.BusinessRule("universe has ended (%s); it can no longer be simulated", u.EndCondition)
	}

	steps := clampSteps(requestedSteps)
	opts := OptionsForDifficulty(u.Difficulty)

	engine := physics.NewEngine(u, physics.Options{
		TimeStepYears:                opts.TimeStepYears,
		DifficultyModifier:           opts.DifficultyModifier,
		ObservableGalaxiesMultiplier: opts.ObservableGalaxiesMultiplier,
		Seed:                         u.Seed,
	}, r.log)
	generator := anomaly.NewGenerator(u, anomaly.Options{
		AnomalyProbabilityScale: opts.AnomalyProbabilityScale,
		MaxPerStep:              opts.MaxAnomalyPerStep,
		DifficultyModifier:      opts.DifficultyModifier,
		Seed:                    u.Seed,
	}, r.log)
	checker := endings.NewChecker(endings.Options{DifficultyModifier: opts.DifficultyModifier})

	eventMark := len(u.SignificantEvents)
	var created []*universe.Anomaly
	executed := 0
	var ended *endings.Ending

	for i := 0; i < steps; i++ {
		// Cancellation is honored between ticks only; a tick is atomic.
		if err := ctx.Err(); err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, err, "simulation cancelled after %d steps", executed)
		}

		engine.SimulateStep()

		for _, a := range generator.Generate() {
			generator.ApplyEffects(a)
			u.AddEvent("anomaly_detected",
				fmt.Sprintf("Anomaly detected: %s (severity %.0f)", a.Description, a.Severity),
				a.EffectsRaw)
			created = append(created, a)
		}
		generator.Decay()

		engine.UpdateStability()
		executed++

		checker.SetHistory(engine.StabilityHistory())
		if e := checker.Check(u); e != nil {
			endings.Terminate(u, e)
			ended = e
			break
		}
	}

	predictions := predict.Forecast(u, predict.Options{
		TimeStepYears:      opts.TimeStepYears,
		DifficultyModifier: opts.DifficultyModifier,
	})

	if err := r.store.Save(ctx, u); err != nil {
		return nil, err
	}

	r.publishNewEvents(u, eventMark)
	r.recordMetrics(executed, len(created), ended, time.Since(start))

	return &Report{
		StepsRequested:   requestedSteps,
		StepsExecuted:    executed,
		Stats:            engine.Statistics(),
		AnomalyStats:     anomalyStats(u),
		EndStatus:        endStatus(u),
		Warnings:         checker.Warnings(u),
		Predictions:      predictions,
		CreatedAnomalies: created,
		Universe:         u,
	}, nil
}

// ResolveAnomaly applies an operator resolution under the universe lock and
// persists it.
func (r *Runner) ResolveAnomaly(ctx context.Context, universeID, ownerID, anomalyID uuid.UUID) (*anomaly.Resolution, error) {
	release, err := r.locker.Acquire(ctx, universeID.String())
	if err != nil {
		return nil, err
	}
	defer release(context.WithoutCancel(ctx))

	u, err := r.loadOwned(ctx, universeID, ownerID)
	if err != nil {
		return nil, err
	}
	if u.Ended() {
		return nil, apperr.BusinessRule("universe has ended; anomalies can no longer be resolved")
	}

	eventMark := len(u.SignificantEvents)
	res, err := anomaly.Resolve(u, anomalyID)
	if err != nil {
		return nil, err
	}
	if err := r.store.Save(ctx, u); err != nil {
		return nil, err
	}

	r.publishNewEvents(u, eventMark)
	if r.metrics != nil {
		r.metrics.AnomaliesResolved.Inc()
	}
	return res, nil
}

// CleanupAnomalies evicts resolved anomalies older than keepRecent and
// persists the result.
func (r *Runner) CleanupAnomalies(ctx context.Context, universeID, ownerID uuid.UUID, keepRecent time.Duration) (*CleanupResult, error) {
	release, err := r.locker.Acquire(ctx, universeID.String())
	if err != nil {
		return nil, err
	}
	defer release(context.WithoutCancel(ctx))

	u, err := r.loadOwned(ctx, universeID, ownerID)
	if err != nil {
		return nil, err
	}

	removed, remaining := anomaly.Cleanup(u, keepRecent)
	if removed > 0 {
		if err := r.store.Save(ctx, u); err != nil {
			return nil, err
		}
	}
	return &CleanupResult{Removed: removed, Remaining: remaining}, nil
}

// SweepAnomalies is the maintenance path used by the background cron job:
// same eviction rule as the overflow cleanup, no ownership check.
func (r *Runner) SweepAnomalies(ctx context.Context, universeID uuid.UUID) (*CleanupResult, error) {
	release, err := r.locker.Acquire(ctx, universeID.String())
	if err != nil {
		return nil, err
	}
	defer release(context.WithoutCancel(ctx))

	u, err := r.store.Get(ctx, universeID)
	if err != nil {
		return nil, err
	}
	removed, remaining := anomaly.Cleanup(u, 5*time.Minute)
	if removed > 0 {
		if err := r.store.Save(ctx, u); err != nil {
			return nil, err
		}
	}
	return &CleanupResult{Removed: removed, Remaining: remaining}, nil
}

// Preview builds the read-only reports (stats, predictions, end status)
// without mutating or persisting anything.
func (r *Runner) Preview(ctx context.Context, universeID, ownerID uuid.UUID) (*universe.Universe, physics.Statistics, *predict.Report, []endings.Warning, error) {
	u, err := r.loadOwned(ctx, universeID, ownerID)
	if err != nil {
		return nil, physics.Statistics{}, nil, nil, err
	}
	opts := OptionsForDifficulty(u.Difficulty)
	engine := physics.NewEngine(u, physics.Options{
		TimeStepYears:                opts.TimeStepYears,
		DifficultyModifier:           opts.DifficultyModifier,
		ObservableGalaxiesMultiplier: opts.ObservableGalaxiesMultiplier,
		Seed:                         u.Seed,
	}, r.log)
	checker := endings.NewChecker(endings.Options{DifficultyModifier: opts.DifficultyModifier})
	predictions := predict.Forecast(u, predict.Options{
		TimeStepYears:      opts.TimeStepYears,
		DifficultyModifier: opts.DifficultyModifier,
	})
	return u, engine.Statistics(), predictions, checker.Warnings(u), nil
}

func (r *Runner) publishNewEvents(u *universe.Universe, mark int) {
	if r.publisher == nil || mark >= len(u.SignificantEvents) {
		return
	}
	for _, evt := range u.SignificantEvents[mark:] {
		r.publisher.PublishEvent(u.ID.String(), evt)
	}
}

func (r *Runner) recordMetrics(ticks, generated int, ended *endings.Ending, elapsed time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.TicksSimulated.Add(float64(ticks))
	r.metrics.AnomaliesGenerated.Add(float64(generated))
	if ended != nil {
		r.metrics.UniversesEnded.WithLabelValues(ended.Condition).Inc()
	}
	r.metrics.SimulationDuration.Observe(elapsed.Seconds())
}

func anomalyStats(u *universe.Universe) AnomalyStats {
	resolved := u.ResolvedAnomalies()
	total := len(u.Anomalies)
	rate := 0.0
	if total > 0 {
		rate = float64(resolved) / float64(total)
	}
	return AnomalyStats{
		Active:         total - resolved,
		Resolved:       resolved,
		Total:          total,
		ResolutionRate: rate,
	}
}

func endStatus(u *universe.Universe) EndStatus {
	return EndStatus{
		Ended:     u.Ended(),
		Condition: u.EndCondition,
		Reason:    u.EndReason,
		FinalAge:  u.FinalAge,
	}
}
