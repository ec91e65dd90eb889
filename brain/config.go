// Package brain wires every leaf package (rng, symbol, csr, unit, group,
// dynamics, plasticity, structural, causal, action, persistence) into the
// single external-facing Brain type. It owns the tick ordering contract,
// configuration validation, and logging.
package brain

import (
	"math"

	"gopkg.in/yaml.v3"

	"github.com/maplumi/braine-sub000/braineerr"
	"github.com/maplumi/braine-sub000/dynamics"
)

// BackendKind selects which dynamics.Backend a Brain runs.
type BackendKind int

const (
	BackendScalar BackendKind = iota
	BackendVectorized
	BackendThreaded
	BackendOffloaded
)

// Config is every recognized configuration option, with `yaml` tags so a
// host can load one from a file via LoadConfigYAML in addition to the
// primary programmatic path (New/UpdateConfig).
type Config struct {
	UnitCount           int `yaml:"unit_count"`
	ConnectivityPerUnit int `yaml:"connectivity_per_unit"`

	Dt       float32 `yaml:"dt"`
	BaseFreq float32 `yaml:"base_freq"`

	GlobalInhibition float32                 `yaml:"global_inhibition"`
	InhibitionMode   dynamics.InhibitionMode `yaml:"inhibition_mode"`

	NoiseAmp   float32 `yaml:"noise_amp"`
	NoisePhase float32 `yaml:"noise_phase"`

	AmpSaturationBeta float32 `yaml:"amp_saturation_beta"`

	ActivityTraceDecay float32 `yaml:"activity_trace_decay"`

	CoactiveThreshold  float32 `yaml:"coactive_threshold"`
	PhaseLockThreshold float32 `yaml:"phase_lock_threshold"`
	CoactiveSoftness   float32 `yaml:"coactive_softness"`
	PhaseGateSoftness  float32 `yaml:"phase_gate_softness"`

	PhaseCouplingMode dynamics.PhaseCouplingMode `yaml:"phase_coupling_mode"`
	PhaseCouplingK    float32                    `yaml:"phase_coupling_k"`
	PhaseCouplingGain float32                    `yaml:"phase_coupling_gain"`

	HebbRate         float32 `yaml:"hebb_rate"`
	EligibilityDecay float32 `yaml:"eligibility_decay"`
	EligibilityGain  float32 `yaml:"eligibility_gain"`

	LearningDeadband float32 `yaml:"learning_deadband"`
	PlasticityBudget float32 `yaml:"plasticity_budget"`

	ForgetRate float32 `yaml:"forget_rate"`
	PruneBelow float32 `yaml:"prune_below"`

	ImprintRate float32 `yaml:"imprint_rate"`

	CausalDecay float32 `yaml:"causal_decay"`

	SalienceDecay float32 `yaml:"salience_decay"`
	SalienceGain  float32 `yaml:"salience_gain"`

	CompactAgeInterval    uint64  `yaml:"compact_age_interval"`
	CompactTombstoneRatio float64 `yaml:"compact_tombstone_ratio"`

	GlobalMeaningWeight float32 `yaml:"global_meaning_weight"`
	HabitWeight         float32 `yaml:"habit_weight"`
	ExplorationNoise    float32 `yaml:"exploration_noise"`
	Epsilon             float32 `yaml:"epsilon"`

	Backend    BackendKind `yaml:"-"`
	NumWorkers int         `yaml:"num_workers"`

	Seed uint64 `yaml:"seed"`
}

// DefaultConfig returns a small but internally consistent configuration.
func DefaultConfig() Config {
	return Config{
		UnitCount:           64,
		ConnectivityPerUnit: 8,

		Dt:       0.05,
		BaseFreq: 1.0,

		GlobalInhibition: 0.1,
		InhibitionMode:   dynamics.InhibitionSigned,

		NoiseAmp:   0.01,
		NoisePhase: 0.01,

		AmpSaturationBeta: 0.2,

		ActivityTraceDecay: 0.1,

		CoactiveThreshold:  0.2,
		PhaseLockThreshold: 0.5,
		CoactiveSoftness:   0,
		PhaseGateSoftness:  0,

		PhaseCouplingMode: dynamics.PhaseCouplingLinear,
		PhaseCouplingK:    1.0,
		PhaseCouplingGain: 0.1,

		HebbRate:         0.05,
		EligibilityDecay: 0.1,
		EligibilityGain:  1.0,

		LearningDeadband: 0.1,
		PlasticityBudget: 0,

		ForgetRate: 0.001,
		PruneBelow: 0.01,

		ImprintRate: 0.3,

		CausalDecay: 0.02,

		SalienceDecay: 0.05,
		SalienceGain:  0.2,

		CompactAgeInterval:    1000,
		CompactTombstoneRatio: 0.25,

		GlobalMeaningWeight: 0.15,
		HabitWeight:         0.5,
		ExplorationNoise:    0,
		Epsilon:             0,

		Backend:    BackendScalar,
		NumWorkers: 1,

		Seed: 1,
	}
}

// LoadConfigYAML parses a YAML document into a Config starting from
// DefaultConfig (so an omitted field keeps its default) and validates the
// result.
func LoadConfigYAML(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, braineerr.Wrap(braineerr.InvalidConfig, "brain: invalid config yaml", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every documented clamped range. It never mutates cfg.
func (c Config) Validate() error {
	fail := func(detail string) error { return braineerr.New(braineerr.InvalidConfig, detail) }

	if c.UnitCount <= 0 {
		return fail("brain: unit_count must be positive")
	}
	if c.ConnectivityPerUnit < 0 {
		return fail("brain: connectivity_per_unit must be non-negative")
	}
	if c.Dt <= 0 {
		return fail("brain: dt must be positive")
	}
	if c.AmpSaturationBeta < 0 {
		return fail("brain: amp_saturation_beta must be non-negative")
	}
	if c.ActivityTraceDecay < 0 || c.ActivityTraceDecay > 1 {
		return fail("brain: activity_trace_decay must be in [0,1]")
	}
	if c.PhaseLockThreshold < 0 || c.PhaseLockThreshold > 1 {
		return fail("brain: phase_lock_threshold must be in [0,1]")
	}
	if c.HebbRate < 0 {
		return fail("brain: hebb_rate must be non-negative")
	}
	if c.EligibilityDecay < 0 || c.EligibilityDecay > 1 {
		return fail("brain: eligibility_decay must be in [0,1]")
	}
	if c.LearningDeadband < 0 {
		return fail("brain: learning_deadband must be non-negative")
	}
	if c.PlasticityBudget < 0 {
		return fail("brain: plasticity_budget must be non-negative")
	}
	if c.ForgetRate < 0 || c.ForgetRate > 1 {
		return fail("brain: forget_rate must be in [0,1]")
	}
	if c.PruneBelow < 0 {
		return fail("brain: prune_below must be non-negative")
	}
	if c.ImprintRate < 0 {
		return fail("brain: imprint_rate must be non-negative")
	}
	if c.CausalDecay < 0 || c.CausalDecay > 1 {
		return fail("brain: causal_decay must be in [0,1]")
	}
	if c.SalienceDecay < 0 || c.SalienceDecay > 1 {
		return fail("brain: salience_decay must be in [0,1]")
	}
	if c.CompactTombstoneRatio < 0 || c.CompactTombstoneRatio > 1 {
		return fail("brain: compact_tombstone_ratio must be in [0,1]")
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fail("brain: epsilon must be in [0,1]")
	}
	if c.NumWorkers < 0 {
		return fail("brain: num_workers must be non-negative")
	}
	for _, v := range []float32{c.NoiseAmp, c.NoisePhase, c.CoactiveSoftness, c.PhaseGateSoftness, c.EligibilityGain, c.SalienceGain, c.ExplorationNoise} {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fail("brain: configuration scalar must be finite")
		}
	}
	return nil
}

func (c Config) dynamicsParams() dynamics.Params {
	return dynamics.Params{
		Dt:                 c.Dt,
		BaseFreq:           c.BaseFreq,
		GlobalInhibition:   c.GlobalInhibition,
		InhibitionMode:     c.InhibitionMode,
		NoiseAmp:           c.NoiseAmp,
		NoisePhase:         c.NoisePhase,
		AmpSaturationBeta:  c.AmpSaturationBeta,
		ActivityTraceDecay: c.ActivityTraceDecay,
		PhaseCouplingMode:  c.PhaseCouplingMode,
		PhaseCouplingK:     c.PhaseCouplingK,
		PhaseCouplingGain:  c.PhaseCouplingGain,
		SalienceDecay:      c.SalienceDecay,
		SalienceGain:       c.SalienceGain,
		CoactiveThreshold:  c.CoactiveThreshold,
	}
}
