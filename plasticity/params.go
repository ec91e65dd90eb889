package plasticity

// Params is the subset of brain configuration the plasticity engine reads
// every tick.
type Params struct {
	CoactiveThreshold  float32 // theta
	CoactiveSoftness   float32 // sigma_c, 0 = hard ReLU
	PhaseLockThreshold float32 // kappa, in [0,1]
	PhaseGateSoftness  float32 // 0 = hard step

	HebbRate         float32 // eta
	EligibilityDecay float32 // rho_e
	EligibilityGain  float32 // gamma_e

	LearningDeadband float32 // d
	PlasticityBudget float32 // 0 = unbounded L1 cap on sum|delta w| per commit

	// ActiveSetTau gates eligibility updates: if both endpoints' activity
	// trace fall below it, the edge is skipped this tick. 0 disables the
	// gate (every edge participates).
	ActiveSetTau float32
}
