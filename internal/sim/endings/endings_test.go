package endings

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"
)

func healthyUniverse() *universe.Universe {
	u := universe.New(uuid.New(), "end", "end-seed", universe.DifficultyBeginner, nil)
	u.CurrentState.StabilityIndex = 0.8
	return u
}

func TestHealthyUniverseSurvives(t *testing.T) {
	c := NewChecker(Options{})
	assert.Nil(t, c.Check(healthyUniverse()))
}

func TestInstabilityCollapse(t *testing.T) {
	u := healthyUniverse()
	u.CurrentState.StabilityIndex = 0.01

	c := NewChecker(Options{StabilityHistory: []float64{0.05, 0.04, 0.03}})
	e := c.Check(u)
	require.NotNil(t, e)
	assert.Equal(t, InstabilityCollapse, e.Condition)
}

func TestInstabilityNeedsSustainedHistory(t *testing.T) {
	u := healthyUniverse()
	u.CurrentState.StabilityIndex = 0.01

	// No history reads as a mean of 1: one bad tick cannot end a universe.
	c := NewChecker(Options{})
	assert.Nil(t, c.Check(u))

	c.SetHistory([]float64{0.9, 0.9, 0.9})
	assert.Nil(t, c.Check(u))
}

func TestHeatDeath(t *testing.T) {
	u := healthyUniverse()
	u.CurrentState.Age = 250e9
	u.CurrentState.EnergyBudget = 0.01

	e := NewChecker(Options{}).Check(u)
	require.NotNil(t, e)
	assert.Equal(t, HeatDeath, e.Condition)
	assert.Equal(t, 250e9, e.FinalAge)
}

func TestStellarDeath(t *testing.T) {
	u := healthyUniverse()
	u.CurrentState.Age = 100e9
	u.CurrentState.StarCount = 100
	u.CurrentState.EnergyBudget = 0.07

	e := NewChecker(Options{}).Check(u)
	require.NotNil(t, e)
	assert.Equal(t, StellarDeath, e.Condition)
}

func TestBigRip(t *testing.T) {
	u := healthyUniverse()
	u.CurrentState.ScaleFactor = 2e9

	e := NewChecker(Options{}).Check(u)
	require.NotNil(t, e)
	assert.Equal(t, BigRip, e.Condition)
}

func TestBigCrunch(t *testing.T) {
	u := healthyUniverse()
	u.CurrentState.ScaleFactor = 1e-9

	e := NewChecker(Options{}).Check(u)
	require.NotNil(t, e)
	assert.Equal(t, BigCrunch, e.Condition)
}

func TestMaximumEntropy(t *testing.T) {
	u := healthyUniverse()
	u.CurrentState.Entropy = 3e15
	u.CurrentState.EnergyBudget = 0.01

	e := NewChecker(Options{}).Check(u)
	require.NotNil(t, e)
	assert.Equal(t, MaximumEntropy, e.Condition)
}

func TestDifficultyModifierTightensThresholds(t *testing.T) {
	u := healthyUniverse()
	u.CurrentState.Age = 150e9 // short of 200 Gyr, past 200/2
	u.CurrentState.EnergyBudget = 0.01
	u.CurrentState.StarCount = 1e9

	assert.Nil(t, NewChecker(Options{DifficultyModifier: 1}).Check(u))

	e := NewChecker(Options{DifficultyModifier: 2}).Check(u)
	require.NotNil(t, e)
	assert.Equal(t, HeatDeath, e.Condition)
}

func TestTerminate(t *testing.T) {
	u := healthyUniverse()
	Terminate(u, &Ending{Condition: BigRip, Reason: "torn apart", FinalAge: 42e9})

	assert.Equal(t, universe.StatusEnded, u.Status)
	assert.True(t, u.Ended())
	assert.Equal(t, BigRip, u.EndCondition)
	assert.Equal(t, "torn apart", u.EndReason)
	assert.Equal(t, 42e9, u.FinalAge)

	last := u.SignificantEvents[len(u.SignificantEvents)-1]
	assert.Equal(t, "universe_end", last.Type)
}

func TestWarningsQuietWhenHealthy(t *testing.T) {
	u := healthyUniverse()
	assert.Empty(t, NewChecker(Options{}).Warnings(u))
}

func TestWarnings(t *testing.T) {
	u := healthyUniverse()
	st := &u.CurrentState
	st.StabilityIndex = 0.08
	st.Age = 170e9
	st.Entropy = 1.6e15
	st.EnergyBudget = 0.05
	st.ScaleFactor = 2e8

	warnings := NewChecker(Options{}).Warnings(u)
	types := make(map[string]WarningSeverity, len(warnings))
	for _, w := range warnings {
		types[w.Type] = w.Severity
	}

	assert.Contains(t, types, "stability_critical")
	assert.Contains(t, types, "heat_death_approaching")
	assert.Contains(t, types, "entropy_rising")
	assert.Equal(t, SeverityCritical, types["energy_depleted"])
	assert.Equal(t, SeverityCritical, types["expansion_runaway"])
}
