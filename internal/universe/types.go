// Package universe defines the persistent data model: the universe document,
// its embedded state, anomalies, civilizations and event log, plus the Mongo
// repository that stores them. Field names are part of the wire contract with
// stored data (including the `_scaleFactor` underscore prefix).
package universe

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty selects the simulation preset for a universe.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid reports whether d is a known difficulty.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Status is the lifecycle state of a universe.
type Status string

const (
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusEnded   Status = "ended"
)

// CosmicPhase is a discrete label derived from universe age.
type CosmicPhase string

const (
	PhaseDarkAges        CosmicPhase = "dark_ages"
	PhaseReionization    CosmicPhase = "reionization"
	PhaseGalaxyFormation CosmicPhase = "galaxy_formation"
	PhaseStellarPeak     CosmicPhase = "stellar_peak"
	PhaseGradualDecline  CosmicPhase = "gradual_decline"
	PhaseTwilightEra     CosmicPhase = "twilight_era"
	PhaseDegenerateEra   CosmicPhase = "degenerate_era"
)

// AnomalyCategory groups anomaly types for display and filtering.
type AnomalyCategory string

const (
	CategoryGravitational   AnomalyCategory = "gravitational"
	CategoryCosmological    AnomalyCategory = "cosmological"
	CategoryStellar         AnomalyCategory = "stellar"
	CategoryQuantum         AnomalyCategory = "quantum"
	CategoryStructural      AnomalyCategory = "structural"
	CategoryElectromagnetic AnomalyCategory = "electromagnetic"
)

// CivType is the Kardashev-style classification of a civilization.
type CivType string

const (
	CivType0 CivType = "Type0"
	CivType1 CivType = "Type1"
	CivType2 CivType = "Type2"
	CivType3 CivType = "Type3"
)

// Constants holds the physical parameters fixed at universe creation.
type Constants struct {
	H0KmSMpc              float64 `bson:"H0_km_s_Mpc" json:"H0_km_s_Mpc"`
	MatterDensity         float64 `bson:"matterDensity" json:"matterDensity"`
	DarkMatterDensity     float64 `bson:"darkMatterDensity" json:"darkMatterDensity"`
	DarkEnergyDensity     float64 `bson:"darkEnergyDensity" json:"darkEnergyDensity"`
	ObservableGalaxies    float64 `bson:"observableGalaxies" json:"observableGalaxies"`
	AverageStarsPerGalaxy float64 `bson:"averageStarsPerGalaxy" json:"averageStarsPerGalaxy"`
	InitialTemperature    float64 `bson:"initialTemperature" json:"initialTemperature"`
}

// DefaultConstants returns the standard cosmology used when the creator
// supplies none.
func DefaultConstants() Constants {
	return Constants{
		H0KmSMpc:              70,
		MatterDensity:         0.05,
		DarkMatterDensity:     0.27,
		DarkEnergyDensity:     0.68,
		ObservableGalaxies:    2e12,
		AverageStarsPerGalaxy: 1e11,
		InitialTemperature:    2.725,
	}
}

// InitialConditions records the seeded primordial perturbation signature
// sampled at creation. Purely descriptive after creation.
type InitialConditions struct {
	DensityVariance   float64   `bson:"densityVariance" json:"densityVariance"`
	PerturbationScale float64   `bson:"perturbationScale" json:"perturbationScale"`
	NoiseSignature    []float64 `bson:"noiseSignature" json:"noiseSignature"`
}

// CurrentState is the macroscopic observable state advanced by the physics
// engine each tick.
type CurrentState struct {
	Age                     float64     `bson:"age" json:"age"`
	ScaleFactor             float64     `bson:"_scaleFactor" json:"_scaleFactor"`
	ExpansionRate           float64     `bson:"expansionRate" json:"expansionRate"`
	Temperature             float64     `bson:"temperature" json:"temperature"`
	Entropy                 float64     `bson:"entropy" json:"entropy"`
	StabilityIndex          float64     `bson:"stabilityIndex" json:"stabilityIndex"`
	GalaxyCount             float64     `bson:"galaxyCount" json:"galaxyCount"`
	StarCount               float64     `bson:"starCount" json:"starCount"`
	BlackHoleCount          float64     `bson:"blackHoleCount" json:"blackHoleCount"`
	HabitableSystemsCount   float64     `bson:"habitableSystemsCount" json:"habitableSystemsCount"`
	LifeBearingPlanetsCount float64     `bson:"lifeBearingPlanetsCount" json:"lifeBearingPlanetsCount"`
	CivilizationCount       int         `bson:"civilizationCount" json:"civilizationCount"`
	Metallicity             float64     `bson:"metallicity" json:"metallicity"`
	CosmicPhase             CosmicPhase `bson:"cosmicPhase" json:"cosmicPhase"`
	StellarGenerations      float64     `bson:"stellarGenerations" json:"stellarGenerations"`
	EnergyBudget            float64     `bson:"energyBudget" json:"energyBudget"`
}

// Location is a point in the universe's abstract spatial frame.
type Location struct {
	X float64 `bson:"x" json:"x"`
	Y float64 `bson:"y" json:"y"`
	Z float64 `bson:"z" json:"z"`
}

// Anomaly is a discrete stochastic perturbation awaiting operator resolution.
// Severity starts integer-valued (1-3) and decays fractionally.
type Anomaly struct {
	ID          uuid.UUID          `bson:"id" json:"id"`
	Type        string             `bson:"type" json:"type"`
	Category    AnomalyCategory    `bson:"category" json:"category"`
	Severity    float64            `bson:"severity" json:"severity"`
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
	Resolved    bool               `bson:"resolved" json:"resolved"`
	ResolvedAt  *time.Time         `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	EffectsRaw  map[string]float64 `bson:"effectsRaw" json:"effectsRaw"`
	Location    Location           `bson:"location" json:"location"`
	Radius      float64            `bson:"radius" json:"radius"`
	Description string             `bson:"description" json:"description"`
	DecayRate   float64            `bson:"decayRate" json:"decayRate"`
}

// Civilization is one evolving population within a universe. Age and
// extinction age are in universe time (years); ExtinctionDate is wall clock.
type Civilization struct {
	ID                uuid.UUID  `bson:"id" json:"id"`
	Type              CivType    `bson:"type" json:"type"`
	CreatedAt         float64    `bson:"createdAt" json:"createdAt"` // universe age at spawn
	Age               float64    `bson:"age" json:"age"`
	DevelopmentLevel  float64    `bson:"developmentLevel" json:"developmentLevel"`
	Technology        float64    `bson:"technology" json:"technology"`
	Stability         float64    `bson:"stability" json:"stability"`
	Population        float64    `bson:"population" json:"population"`
	ResourceDepletion float64    `bson:"resourceDepletion" json:"resourceDepletion"`
	Warlikeness       float64    `bson:"warlikeness" json:"warlikeness"`
	Extinct           bool       `bson:"extinct" json:"extinct"`
	ExtinctionDate    *time.Time `bson:"extinctionDate,omitempty" json:"extinctionDate,omitempty"`
	ExtinctionAge     float64    `bson:"extinctionAge,omitempty" json:"extinctionAge,omitempty"`
	ExtinctionCause   string     `bson:"extinctionCause,omitempty" json:"extinctionCause,omitempty"`
}

// SignificantEvent is one entry in the bounded universe event log.
type SignificantEvent struct {
	Timestamp   time.Time          `bson:"timestamp" json:"timestamp"`
	Age         float64            `bson:"age" json:"age"`
	AgeGyr      string             `bson:"ageGyr" json:"ageGyr"` // formatted, 3 decimals
	Type        string             `bson:"type" json:"type"`
	Description string             `bson:"description" json:"description"`
	Effects     map[string]float64 `bson:"effects,omitempty" json:"effects,omitempty"`
}

// Metrics aggregates per-universe gameplay counters and derived indices.
type Metrics struct {
	PlayerInterventions   int     `bson:"playerInterventions" json:"playerInterventions"`
	AnomaliesResolved     int     `bson:"anomaliesResolved" json:"anomaliesResolved"`
	AnomalyResolutionRate float64 `bson:"anomalyResolutionRate" json:"anomalyResolutionRate"`
	ComplexityIndex       float64 `bson:"complexityIndex" json:"complexityIndex"`
	LifePotentialIndex    float64 `bson:"lifePotentialIndex" json:"lifePotentialIndex"`
	CosmicHealth          float64 `bson:"cosmicHealth" json:"cosmicHealth"`
}

// Universe is the root persisted entity. Mutated only by the step
// orchestrator and explicit anomaly-resolution calls; the seed is immutable
// after creation.
type Universe struct {
	ID                uuid.UUID          `bson:"_id" json:"id"`
	OwnerID           uuid.UUID          `bson:"ownerId" json:"ownerId"`
	Name              string             `bson:"name" json:"name"`
	Seed              string             `bson:"seed" json:"seed"`
	Difficulty        Difficulty         `bson:"difficulty" json:"difficulty"`
	Constants         Constants          `bson:"constants" json:"constants"`
	InitialConditions InitialConditions  `bson:"initialConditions" json:"initialConditions"`
	CurrentState      CurrentState       `bson:"currentState" json:"currentState"`
	Anomalies         []*Anomaly         `bson:"anomalies" json:"anomalies"`
	Civilizations     []*Civilization    `bson:"civilizations" json:"civilizations"`
	SignificantEvents []SignificantEvent `bson:"significantEvents" json:"significantEvents"`
	Milestones        map[string]bool    `bson:"milestones" json:"milestones"`
	Metrics           Metrics            `bson:"metrics" json:"metrics"`
	Status            Status             `bson:"status" json:"status"`
	EndCondition      string             `bson:"endCondition,omitempty" json:"endCondition,omitempty"`
	EndReason         string             `bson:"endReason,omitempty" json:"endReason,omitempty"`
	FinalAge          float64            `bson:"finalAge,omitempty" json:"finalAge,omitempty"`
	Version           int64              `bson:"version" json:"version"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	LastModified      time.Time          `bson:"lastModified" json:"lastModified"`
}

// Summary is the list-projection returned by GET /universe.
type Summary struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Difficulty     Difficulty `json:"difficulty"`
	Status         Status     `json:"status"`
	AgeGyr         float64    `json:"ageGyr"`
	StabilityIndex float64    `json:"stabilityIndex"`
	GalaxyCount    float64    `json:"galaxyCount"`
	Civilizations  int        `json:"civilizations"`
	Anomalies      int        `json:"anomalies"`
	CreatedAt      time.Time  `json:"createdAt"`
}
