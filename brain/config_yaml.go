package brain

import (
	"fmt"

	"github.com/maplumi/braine-sub000/dynamics"
)

func inhibitionModeName(m dynamics.InhibitionMode) string {
	switch m {
	case dynamics.InhibitionAbs:
		return "abs"
	case dynamics.InhibitionRectified:
		return "rectified"
	default:
		return "signed"
	}
}

func parseInhibitionMode(name string) (dynamics.InhibitionMode, error) {
	switch name {
	case "", "signed":
		return dynamics.InhibitionSigned, nil
	case "abs":
		return dynamics.InhibitionAbs, nil
	case "rectified":
		return dynamics.InhibitionRectified, nil
	default:
		return 0, fmt.Errorf("unknown inhibition_mode %q", name)
	}
}

func phaseCouplingModeName(m dynamics.PhaseCouplingMode) string {
	switch m {
	case dynamics.PhaseCouplingSin:
		return "sin"
	case dynamics.PhaseCouplingTanh:
		return "tanh"
	default:
		return "linear"
	}
}

func parsePhaseCouplingMode(name string) (dynamics.PhaseCouplingMode, error) {
	switch name {
	case "", "linear":
		return dynamics.PhaseCouplingLinear, nil
	case "sin":
		return dynamics.PhaseCouplingSin, nil
	case "tanh":
		return dynamics.PhaseCouplingTanh, nil
	default:
		return 0, fmt.Errorf("unknown phase_coupling_mode %q", name)
	}
}

// configYAML mirrors Config but represents its two enum fields as strings,
// the shape a hand-written YAML file actually uses (inhibition_mode in
// {signed, abs, rectified}, etc).
type configYAML struct {
	UnitCount           int `yaml:"unit_count"`
	ConnectivityPerUnit int `yaml:"connectivity_per_unit"`

	Dt       float32 `yaml:"dt"`
	BaseFreq float32 `yaml:"base_freq"`

	GlobalInhibition float32 `yaml:"global_inhibition"`
	InhibitionMode   string  `yaml:"inhibition_mode"`

	NoiseAmp   float32 `yaml:"noise_amp"`
	NoisePhase float32 `yaml:"noise_phase"`

	AmpSaturationBeta float32 `yaml:"amp_saturation_beta"`

	ActivityTraceDecay float32 `yaml:"activity_trace_decay"`

	CoactiveThreshold  float32 `yaml:"coactive_threshold"`
	PhaseLockThreshold float32 `yaml:"phase_lock_threshold"`
	CoactiveSoftness   float32 `yaml:"coactive_softness"`
	PhaseGateSoftness  float32 `yaml:"phase_gate_softness"`

	PhaseCouplingMode string  `yaml:"phase_coupling_mode"`
	PhaseCouplingK    float32 `yaml:"phase_coupling_k"`
	PhaseCouplingGain float32 `yaml:"phase_coupling_gain"`

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

	NumWorkers int    `yaml:"num_workers"`
	Seed       uint64 `yaml:"seed"`
}

func (c Config) toYAML() configYAML {
	return configYAML{
		UnitCount:             c.UnitCount,
		ConnectivityPerUnit:   c.ConnectivityPerUnit,
		Dt:                    c.Dt,
		BaseFreq:              c.BaseFreq,
		GlobalInhibition:      c.GlobalInhibition,
		InhibitionMode:        inhibitionModeName(c.InhibitionMode),
		NoiseAmp:              c.NoiseAmp,
		NoisePhase:            c.NoisePhase,
		AmpSaturationBeta:     c.AmpSaturationBeta,
		ActivityTraceDecay:    c.ActivityTraceDecay,
		CoactiveThreshold:     c.CoactiveThreshold,
		PhaseLockThreshold:    c.PhaseLockThreshold,
		CoactiveSoftness:      c.CoactiveSoftness,
		PhaseGateSoftness:     c.PhaseGateSoftness,
		PhaseCouplingMode:     phaseCouplingModeName(c.PhaseCouplingMode),
		PhaseCouplingK:        c.PhaseCouplingK,
		PhaseCouplingGain:     c.PhaseCouplingGain,
		HebbRate:              c.HebbRate,
		EligibilityDecay:      c.EligibilityDecay,
		EligibilityGain:       c.EligibilityGain,
		LearningDeadband:      c.LearningDeadband,
		PlasticityBudget:      c.PlasticityBudget,
		ForgetRate:            c.ForgetRate,
		PruneBelow:            c.PruneBelow,
		ImprintRate:           c.ImprintRate,
		CausalDecay:           c.CausalDecay,
		SalienceDecay:         c.SalienceDecay,
		SalienceGain:          c.SalienceGain,
		CompactAgeInterval:    c.CompactAgeInterval,
		CompactTombstoneRatio: c.CompactTombstoneRatio,
		GlobalMeaningWeight:   c.GlobalMeaningWeight,
		HabitWeight:           c.HabitWeight,
		ExplorationNoise:      c.ExplorationNoise,
		Epsilon:               c.Epsilon,
		NumWorkers:            c.NumWorkers,
		Seed:                  c.Seed,
	}
}

func (c *Config) fromYAML(y configYAML) error {
	inhib, err := parseInhibitionMode(y.InhibitionMode)
	if err != nil {
		return err
	}
	phase, err := parsePhaseCouplingMode(y.PhaseCouplingMode)
	if err != nil {
		return err
	}

	backend := c.Backend // preserve: not part of the YAML surface
	*c = Config{
		UnitCount:             y.UnitCount,
		ConnectivityPerUnit:   y.ConnectivityPerUnit,
		Dt:                    y.Dt,
		BaseFreq:              y.BaseFreq,
		GlobalInhibition:      y.GlobalInhibition,
		InhibitionMode:        inhib,
		NoiseAmp:              y.NoiseAmp,
		NoisePhase:            y.NoisePhase,
		AmpSaturationBeta:     y.AmpSaturationBeta,
		ActivityTraceDecay:    y.ActivityTraceDecay,
		CoactiveThreshold:     y.CoactiveThreshold,
		PhaseLockThreshold:    y.PhaseLockThreshold,
		CoactiveSoftness:      y.CoactiveSoftness,
		PhaseGateSoftness:     y.PhaseGateSoftness,
		PhaseCouplingMode:     phase,
		PhaseCouplingK:        y.PhaseCouplingK,
		PhaseCouplingGain:     y.PhaseCouplingGain,
		HebbRate:              y.HebbRate,
		EligibilityDecay:      y.EligibilityDecay,
		EligibilityGain:       y.EligibilityGain,
		LearningDeadband:      y.LearningDeadband,
		PlasticityBudget:      y.PlasticityBudget,
		ForgetRate:            y.ForgetRate,
		PruneBelow:            y.PruneBelow,
		ImprintRate:           y.ImprintRate,
		CausalDecay:           y.CausalDecay,
		SalienceDecay:         y.SalienceDecay,
		SalienceGain:          y.SalienceGain,
		CompactAgeInterval:    y.CompactAgeInterval,
		CompactTombstoneRatio: y.CompactTombstoneRatio,
		GlobalMeaningWeight:   y.GlobalMeaningWeight,
		HabitWeight:           y.HabitWeight,
		ExplorationNoise:      y.ExplorationNoise,
		Epsilon:               y.Epsilon,
		Backend:               backend,
		NumWorkers:            y.NumWorkers,
		Seed:                  y.Seed,
	}
	return nil
}

// MarshalYAML renders Config with its enum fields as their documented
// names rather than raw ints.
func (c Config) MarshalYAML() (interface{}, error) {
	return c.toYAML(), nil
}

// UnmarshalYAML parses a YAML document with string enum fields into c,
// keeping whatever Backend was already set (it is not part of the file
// format). y is seeded from c's current values before unmarshal so a key
// missing from the document leaves that field untouched rather than
// zeroing it.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	y := c.toYAML()
	if err := unmarshal(&y); err != nil {
		return err
	}
	return c.fromYAML(y)
}
