// Package endings evaluates universe termination predicates and emits
// threshold warnings ahead of them. Predicates form a closed, ordered set;
// the first match terminates the universe.
package endings

import (
	"fmt"
	"math"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"
)

// End condition identifiers.
const (
	InstabilityCollapse = "instability-collapse"
	HeatDeath           = "heat-death"
	StellarDeath        = "stellar-death"
	BigRip              = "big-rip"
	BigCrunch           = "big-crunch"
	MaximumEntropy      = "maximum-entropy"
)

// WarningSeverity ranks how urgent a warning is.
type WarningSeverity string

const (
	SeverityLow      WarningSeverity = "low"
	SeverityMedium   WarningSeverity = "medium"
	SeverityHigh     WarningSeverity = "high"
	SeverityCritical WarningSeverity = "critical"
)

// Warning is a non-fatal notice that an end condition is approaching.
type Warning struct {
	Type           string          `json:"type"`
	Severity       WarningSeverity `json:"severity"`
	Message        string          `json:"message"`
	Recommendation string          `json:"recommendation"`
}

// Ending describes a matched termination predicate.
type Ending struct {
	Condition string  `json:"condition"`
	Reason    string  `json:"reason"`
	FinalAge  float64 `json:"finalAge"`
}

// Options configures the checker for one run.
type Options struct {
	DifficultyModifier float64
	StabilityHistory   []float64
}

// Checker evaluates end conditions against a universe.
type Checker struct {
	mod     float64
	history []float64
}

// NewChecker creates a checker. A zero modifier defaults to 1.
func NewChecker(opts Options) *Checker {
	mod := opts.DifficultyModifier
	if mod <= 0 {
		mod = 1
	}
	return &Checker{mod: mod, history: opts.StabilityHistory}
}

// SetHistory replaces the stability history consulted by the instability
// predicate. The orchestrator refreshes it each tick.
func (c *Checker) SetHistory(history []float64) { c.history = history }

// Check evaluates the predicates in fixed order and returns the first match,
// or nil if the universe survives. Pure: no mutation.
func (c *Checker) Check(u *universe.Universe) *Ending {
	st := &u.CurrentState
	ageGyr := u.AgeGyr()

	if st.StabilityIndex < 0.05/c.mod && c.recentStabilityMean() < 0.10/c.mod {
		return &Ending{
			Condition: InstabilityCollapse,
			Reason:    "Cosmic stability collapsed beyond recovery",
			FinalAge:  st.Age,
		}
	}
	if ageGyr > 200/c.mod && st.EnergyBudget < 0.05 {
		return &Ending{
			Condition: HeatDeath,
			Reason:    "The universe exhausted its usable energy",
			FinalAge:  st.Age,
		}
	}
	if ageGyr > 80 && st.StarCount < 1e4 && st.EnergyBudget < 0.08 {
		return &Ending{
			Condition: StellarDeath,
			Reason:    "The last stars burned out",
			FinalAge:  st.Age,
		}
	}
	if st.ScaleFactor > 1e9 {
		return &Ending{
			Condition: BigRip,
			Reason:    "Runaway expansion tore spacetime apart",
			FinalAge:  st.Age,
		}
	}
	if st.ScaleFactor < 1e-8 {
		return &Ending{
			Condition: BigCrunch,
			Reason:    "The universe collapsed back into a singularity",
			FinalAge:  st.Age,
		}
	}
	if st.Entropy > 2e15 && st.EnergyBudget < 0.02 {
		return &Ending{
			Condition: MaximumEntropy,
			Reason:    "Entropy reached its maximum; no work remains possible",
			FinalAge:  st.Age,
		}
	}
	return nil
}

// recentStabilityMean averages the last 10 recorded stability values; with
// no history it reports 1 so a single bad tick cannot end a universe.
func (c *Checker) recentStabilityMean() float64 {
	if len(c.history) == 0 {
		return 1
	}
	n := len(c.history)
	start := int(math.Max(0, float64(n-10)))
	sum := 0.0
	for _, v := range c.history[start:] {
		sum += v
	}
	return sum / float64(n-start)
}

// Terminate applies an ending to the universe: status, condition fields and
// the terminal event. The terminal event is the only state mutation allowed
// once a universe has ended.
func Terminate(u *universe.Universe, e *Ending) {
	u.Status = universe.StatusEnded
	u.EndCondition = e.Condition
	u.EndReason = e.Reason
	u.FinalAge = e.FinalAge
	u.AddEvent("universe_end", e.Reason, map[string]float64{"finalAge": e.FinalAge})
}

// Warnings reports every approaching end condition with severity, message
// and a recommendation for the operator.
func (c *Checker) Warnings(u *universe.Universe) []Warning {
	st := &u.CurrentState
	ageGyr := u.AgeGyr()
	var out []Warning

	stabilityThreshold := 0.05 / c.mod
	if st.StabilityIndex >= stabilityThreshold && st.StabilityIndex < 3*stabilityThreshold {
		sev := SeverityHigh
		if st.StabilityIndex > 2*stabilityThreshold {
			sev = SeverityMedium
		}
		out = append(out, Warning{
			Type:     "stability_critical",
			Severity: sev,
			Message: fmt.Sprintf("Stability index %.3f is approaching the collapse threshold %.3f",
				st.StabilityIndex, stabilityThreshold),
			Recommendation: "Resolve unresolved anomalies to restore stability",
		})
	}

	heatDeathAge := 200 / c.mod
	if ageGyr > 0.8*heatDeathAge {
		out = append(out, Warning{
			Type:     "heat_death_approaching",
			Severity: SeverityMedium,
			Message: fmt.Sprintf("Universe age %.1f Gyr has passed 80%% of the heat-death horizon (%.1f Gyr)",
				ageGyr, heatDeathAge),
			Recommendation: "Conserve the remaining energy budget",
		})
	}

	if st.Entropy > 1.5e15 {
		out = append(out, Warning{
			Type:           "entropy_rising",
			Severity:       SeverityHigh,
			Message:        fmt.Sprintf("Entropy %.2e is nearing the maximum-entropy threshold", st.Entropy),
			Recommendation: "Resolve anomalies; each resolution reduces entropy",
		})
	}

	if st.EnergyBudget < 0.15 {
		sev := SeverityHigh
		if st.EnergyBudget < 0.08 {
			sev = SeverityCritical
		}
		out = append(out, Warning{
			Type:           "energy_depleted",
			Severity:       sev,
			Message:        fmt.Sprintf("Energy budget down to %.1f%%", st.EnergyBudget*100),
			Recommendation: "Anomaly resolutions restore a fraction of the budget",
		})
	}

	if st.ScaleFactor > 1e8 {
		out = append(out, Warning{
			Type:           "expansion_runaway",
			Severity:       SeverityCritical,
			Message:        fmt.Sprintf("Scale factor %.2e is within an order of magnitude of the big rip", st.ScaleFactor),
			Recommendation: "Dark energy surges accelerate this; resolve them promptly",
		})
	}

	return out
}
