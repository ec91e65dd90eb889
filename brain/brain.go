package brain

import (
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/maplumi/braine-sub000/action"
	"github.com/maplumi/braine-sub000/braineerr"
	"github.com/maplumi/braine-sub000/causal"
	"github.com/maplumi/braine-sub000/csr"
	"github.com/maplumi/braine-sub000/dynamics"
	"github.com/maplumi/braine-sub000/group"
	"github.com/maplumi/braine-sub000/persistence"
	"github.com/maplumi/braine-sub000/plasticity"
	"github.com/maplumi/braine-sub000/rng"
	"github.com/maplumi/braine-sub000/structural"
	"github.com/maplumi/braine-sub000/symbol"
	"github.com/maplumi/braine-sub000/unit"
)

const (
	rewardPosName = "reward_pos"
	rewardNegName = "reward_neg"

	rewardPosThreshold = 0.2
	rewardNegThreshold = -0.2
)

// memberMark is the sentinel stored in SensorOf/ActionOf for "this unit
// belongs to some sensor/action group"; unit.Pool only ever tests its sign
// (>=0 means "is a member"), never the value itself, so one shared marker
// is enough.
const memberMark int32 = 0

// Brain is the single external-facing type wiring every leaf package into
// the tick/readout/persistence lifecycle. A Brain is single-owner,
// single-writer: every exported method assumes the caller serializes its
// own calls.
type Brain struct {
	cfg Config

	rnd     *rng.Source
	symbols *symbol.Table
	groups  *group.Table
	store   *csr.Store
	pool    *unit.Pool

	backend    dynamics.Backend
	plasticity *plasticity.Engine

	causalMem *causal.Memory

	neuromod       float32
	ageSteps       uint64
	prunedLastStep int
	birthsLastStep int
	lastCommit     plasticity.CommitResult

	obsSymbols []symbol.ID
	rewardPos  symbol.ID
	rewardNeg  symbol.ID

	topologyLocked bool

	logger *zap.Logger
	runID  uuid.UUID
}

// Option configures optional Brain construction behavior, following the
// functional-option convention zap.Option itself uses.
type Option func(*Brain)

// WithLogger injects a structured logger for maintenance/lifecycle events.
// If never supplied, Brain falls back to zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(b *Brain) { b.logger = l }
}

// New constructs a Brain from cfg, allocating its initial topology: a
// random sparse CSR graph over cfg.UnitCount units, each wired with
// cfg.ConnectivityPerUnit random outgoing edges. Returns InvalidConfig if
// cfg fails validation.
func New(cfg Config, opts ...Option) (*Brain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Brain{
		cfg:     cfg,
		rnd:     rng.NewSource(cfg.Seed),
		symbols: symbol.New(),
		groups:  group.New(),
		pool:    unit.New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	b.runID = uuid.New()

	b.store = csr.New(cfg.UnitCount, 0)
	for i := 0; i < cfg.UnitCount; i++ {
		phase := b.rnd.UniformF32(-3.14159265, 3.14159265)
		b.pool.AppendUnit(0, phase, 0, 1.0, 0)
	}
	for i := 0; i < cfg.UnitCount; i++ {
		for k := 0; k < cfg.ConnectivityPerUnit; k++ {
			tgt := uint32(b.rnd.IntN(cfg.UnitCount))
			if int(tgt) == i {
				continue
			}
			_ = b.store.AddOrBump(i, tgt, b.rnd.UniformF32(-0.1, 0.1))
		}
	}
	b.topologyLocked = true

	b.backend = newBackend(cfg)
	b.plasticity = &plasticity.Engine{}
	b.causalMem = causal.New(cfg.CausalDecay)

	b.rewardPos = b.symbols.Intern(rewardPosName)
	b.rewardNeg = b.symbols.Intern(rewardNegName)

	b.logger.Info("brain constructed",
		zap.String("run_id", b.runID.String()),
		zap.Int("unit_count", cfg.UnitCount),
		zap.Int("connectivity_per_unit", cfg.ConnectivityPerUnit),
	)
	return b, nil
}

func newBackend(cfg Config) dynamics.Backend {
	switch cfg.Backend {
	case BackendVectorized:
		return dynamics.NewVectorizedBackend()
	case BackendThreaded:
		return dynamics.NewThreadedBackend(cfg.NumWorkers)
	case BackendOffloaded:
		return dynamics.NewOffloadedBackend(nil)
	default:
		return dynamics.NewScalarBackend()
	}
}

// Close releases any resources a Brain's backend acquired (currently only
// the offloaded backend's device handle). Safe to call on a Brain built
// with any backend.
func (b *Brain) Close() {
	if ob, ok := b.backend.(*dynamics.OffloadedBackend); ok {
		ob.Close()
	}
}

// RunID returns the per-instance identifier used to correlate this Brain's
// log lines; it is runtime scratch and never persisted.
func (b *Brain) RunID() uuid.UUID { return b.runID }

func compoundName(parts ...string) string {
	return strings.Join(parts, "\x1f")
}

// ---------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------

// UpdateConfig applies mutate to a copy of the current configuration,
// validates it, and rejects any change to the structural fields
// (unit_count, connectivity_per_unit) once topology has been allocated.
func (b *Brain) UpdateConfig(mutate func(*Config)) error {
	next := b.cfg
	mutate(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	if b.topologyLocked && (next.UnitCount != b.cfg.UnitCount || next.ConnectivityPerUnit != b.cfg.ConnectivityPerUnit) {
		return braineerr.New(braineerr.TopologyLocked, "brain: unit_count/connectivity_per_unit cannot change after allocation")
	}
	b.cfg = next
	b.causalMem.Decay = next.CausalDecay
	return nil
}

// Config returns the current configuration snapshot.
func (b *Brain) Config() Config { return b.cfg }

// SaveImage writes the current brain state as a Brain Image.
// It compacts the connection store first so the UNIT chunk's CSR arrays
// contain no tombstones, per the format's "compacted" requirement.
func (b *Brain) SaveImage(w io.Writer, version uint32) error {
	b.store.Compact()

	cfgBytes, err := yaml.Marshal(b.cfg)
	if err != nil {
		return braineerr.Wrap(braineerr.IoError, "brain: marshal config", err)
	}

	base, edges, prevSymbols := b.causalMem.Snapshot()

	img := &persistence.Image{
		Version:  version,
		Config:   cfgBytes,
		PRNG:     b.rnd.State(),
		AgeSteps: b.ageSteps,
		Neuromod: b.neuromod,
		Units: persistence.UnitChunk{
			Amp:     b.pool.Amp,
			Phase:   b.pool.Phase,
			Bias:    b.pool.Bias,
			Decay:   b.pool.Decay,
			Offsets: b.store.Offsets,
			Targets: b.store.Targets,
			Weights: b.store.Weights,
		},
		Masks: persistence.MaskChunk{
			Reserved:        b.pool.Reserved,
			LearningEnabled: b.pool.LearningEnabled,
		},
		Salience: b.pool.Salience,
		Causal: persistence.CausalChunk{
			Decay:       b.causalMem.Decay,
			Base:        base,
			Edges:       edges,
			PrevSymbols: prevSymbols,
		},
	}
	for _, g := range b.groups.All() {
		img.Groups = append(img.Groups, *g)
	}
	img.Symbols = b.symbols.All()

	if err := persistence.WriteImage(w, img); err != nil {
		return err
	}
	b.logger.Info("brain image saved",
		zap.String("run_id", b.runID.String()),
		zap.Uint32("version", version),
		zap.Int("unit_count", b.pool.Len()),
		zap.Int("connection_count", b.store.ValidCount()),
	)
	return nil
}

// LoadImage reconstructs a Brain from a previously saved image. Runtime
// scratch (pending input, activity trace, eligibility trace) is reset to
// zero.
func LoadImage(r io.Reader, opts ...Option) (*Brain, error) {
	img, err := persistence.ReadImage(r)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(img.Config, &cfg); err != nil {
		return nil, braineerr.Wrap(braineerr.ImageCorrupt, "brain: invalid config chunk", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &Brain{cfg: cfg}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	b.runID = uuid.New()

	b.rnd = rng.NewSource(cfg.Seed)
	if !b.rnd.SetState(img.PRNG) {
		return nil, braineerr.New(braineerr.ImageCorrupt, "brain: malformed PRNG state")
	}

	n := len(img.Units.Amp)
	b.pool = &unit.Pool{
		Amp:             img.Units.Amp,
		Phase:           img.Units.Phase,
		Bias:            img.Units.Bias,
		Decay:           img.Units.Decay,
		Salience:        img.Salience,
		ActivTrace:      make([]float32, n),
		Reserved:        img.Masks.Reserved,
		LearningEnabled: img.Masks.LearningEnabled,
		SensorOf:        make([]int32, n),
		ActionOf:        make([]int32, n),
		Pending:         make([]float32, n),
	}
	if b.pool.Salience == nil {
		b.pool.Salience = make([]float32, n)
	}
	for i := range b.pool.SensorOf {
		b.pool.SensorOf[i] = -1
		b.pool.ActionOf[i] = -1
	}

	b.store = &csr.Store{
		Targets: img.Units.Targets,
		Weights: img.Units.Weights,
		Offsets: img.Units.Offsets,
		Elig:    make([]float32, len(img.Units.Targets)),
	}

	b.groups = group.LoadFrom(img.Groups)
	for _, g := range b.groups.All() {
		switch g.Kind {
		case group.Sensor:
			for _, id := range g.Ids {
				b.pool.SensorOf[id] = memberMark
			}
		case group.Action:
			for _, id := range g.Ids {
				b.pool.ActionOf[id] = memberMark
			}
		}
	}

	b.symbols = symbol.LoadFrom(img.Symbols)
	if id, ok := b.symbols.Lookup(rewardPosName); ok {
		b.rewardPos = id
	} else {
		b.rewardPos = b.symbols.Intern(rewardPosName)
	}
	if id, ok := b.symbols.Lookup(rewardNegName); ok {
		b.rewardNeg = id
	} else {
		b.rewardNeg = b.symbols.Intern(rewardNegName)
	}

	b.causalMem = causal.LoadFrom(img.Causal.Decay, img.Causal.Base, img.Causal.Edges, img.Causal.PrevSymbols, 0)
	b.ageSteps = img.AgeSteps
	b.neuromod = img.Neuromod
	b.topologyLocked = true
	b.backend = newBackend(cfg)
	b.plasticity = &plasticity.Engine{}

	b.logger.Info("brain image loaded",
		zap.String("run_id", b.runID.String()),
		zap.Uint32("version", img.Version),
		zap.Int("unit_count", n),
	)
	return b, nil
}

// ---------------------------------------------------------------------
// Topology
// ---------------------------------------------------------------------

func (b *Brain) allocUnitForGroup() int32 {
	ids := structural.GrowUnits(b.pool, b.store, 1, b.cfg.ConnectivityPerUnit, b.rnd)
	return ids[0]
}

// DefineSensor registers (or grows) a sensor group, idempotently. Fails
// with NameConflict if name is already a differently-kinded group; a
// smaller width than the group already has leaves it unchanged.
func (b *Brain) DefineSensor(name string, width int) error {
	g, err := b.groups.EnsureMinWidth(name, group.Sensor, width, b.allocUnitForGroup)
	if err != nil {
		return err
	}
	for _, id := range g.Ids {
		b.pool.SensorOf[id] = memberMark
	}
	return nil
}

// DefineAction registers (or grows) an action group, idempotently.
func (b *Brain) DefineAction(name string, width int) error {
	g, err := b.groups.EnsureMinWidth(name, group.Action, width, b.allocUnitForGroup)
	if err != nil {
		return err
	}
	for _, id := range g.Ids {
		b.pool.ActionOf[id] = memberMark
	}
	return nil
}

// EnsureSensorMinWidth grows an existing (or newly defined) sensor group
// to at least width members.
func (b *Brain) EnsureSensorMinWidth(name string, width int) error {
	return b.DefineSensor(name, width)
}

// ---------------------------------------------------------------------
// Stimulation & stepping
// ---------------------------------------------------------------------

func (b *Brain) sensorGroup(name string) (*group.Group, error) {
	g := b.groups.Get(name)
	if g == nil || g.Kind != group.Sensor {
		return nil, braineerr.New(braineerr.NameConflict, "brain: unknown sensor group "+name)
	}
	return g, nil
}

// ApplyStimulus injects strength into every unit of sensor group name,
// interns and records the group's symbol for the current observation, and
// checks the one-shot imprinting trigger.
func (b *Brain) ApplyStimulus(name string, strength float32) error {
	g, err := b.sensorGroup(name)
	if err != nil {
		return err
	}
	for _, id := range g.Ids {
		b.pool.AddStimulus(int(id), strength)
	}
	b.obsSymbols = append(b.obsSymbols, b.symbols.Intern(name))

	if structural.Imprint(b.pool, b.store, g.Ids, strength, b.cfg.ImprintRate, b.rnd) {
		b.birthsLastStep++
		b.logger.Debug("imprint claimed a unit",
			zap.String("group", name),
			zap.Float32("strength", strength),
		)
	}
	return nil
}

// ApplyStimulusInference injects strength into sensor group name without
// recording a symbol or checking the imprint trigger.
func (b *Brain) ApplyStimulusInference(name string, strength float32) error {
	g, err := b.sensorGroup(name)
	if err != nil {
		return err
	}
	for _, id := range g.Ids {
		b.pool.AddStimulus(int(id), strength)
	}
	return nil
}

func (b *Brain) structuralParams() structural.Params {
	return structural.Params{
		ForgetRate:            b.cfg.ForgetRate,
		PruneBelow:            b.cfg.PruneBelow,
		CompactAgeInterval:    b.cfg.CompactAgeInterval,
		CompactTombstoneRatio: b.cfg.CompactTombstoneRatio,
	}
}

func (b *Brain) plasticityParams() plasticity.Params {
	return plasticity.Params{
		CoactiveThreshold:   b.cfg.CoactiveThreshold,
		CoactiveSoftness:    b.cfg.CoactiveSoftness,
		PhaseLockThreshold:  b.cfg.PhaseLockThreshold,
		PhaseGateSoftness:   b.cfg.PhaseGateSoftness,
		HebbRate:            b.cfg.HebbRate,
		EligibilityDecay:    b.cfg.EligibilityDecay,
		EligibilityGain:     b.cfg.EligibilityGain,
		LearningDeadband:    b.cfg.LearningDeadband,
		PlasticityBudget:    b.cfg.PlasticityBudget,
	}
}

// Step runs one full tick: dynamics, eligibility update, neuromodulated
// commit, then structural maintenance and (if due) compaction.
func (b *Brain) Step() {
	b.backend.Step(b.pool, b.store, b.rnd, b.cfg.dynamicsParams())
	b.plasticity.UpdateEligibility(b.pool, b.store, b.plasticityParams())
	b.lastCommit = b.plasticity.Commit(b.pool, b.store, b.plasticityParams(), b.neuromod)

	res := structural.Maintain(b.pool, b.store, b.structuralParams())
	b.prunedLastStep = res.PrunedLastStep

	b.ageSteps++
	if structural.ShouldCompact(b.ageSteps, b.store, b.structuralParams()) {
		b.store.Compact()
		b.logger.Debug("connections compacted",
			zap.Uint64("age_steps", b.ageSteps),
			zap.Int("connection_count", b.store.ValidCount()),
		)
	}
}

// StepInference runs dynamics only, skipping plasticity and structural
// maintenance.
func (b *Brain) StepInference() {
	b.backend.Step(b.pool, b.store, b.rnd, b.cfg.dynamicsParams())
}

// ---------------------------------------------------------------------
// Readout
// ---------------------------------------------------------------------

func (b *Brain) actionParams() action.Params {
	return action.Params{
		GlobalMeaningWeight: b.cfg.GlobalMeaningWeight,
		HabitWeight:         b.cfg.HabitWeight,
		ExplorationNoise:    b.cfg.ExplorationNoise,
		Epsilon:             b.cfg.Epsilon,
	}
}

func (b *Brain) pairSymbolFor(ctxKey, actionName string) symbol.ID {
	id, ok := b.symbols.Lookup(compoundName(ctxKey, actionName))
	if !ok {
		return symbol.Invalid
	}
	return id
}

func (b *Brain) candidatesFor(allowedNames []string, ctxKey string) ([]action.Candidate, error) {
	out := make([]action.Candidate, 0, len(allowedNames))
	for _, name := range allowedNames {
		g := b.groups.Get(name)
		if g == nil || g.Kind != group.Action {
			return nil, braineerr.New(braineerr.NameConflict, "brain: unknown action group "+name)
		}
		// Lookup, not Intern: readout must not add symbols to the table. An
		// action name never noted yet has no causal history (Invalid).
		actionSym, _ := b.symbols.Lookup(name)
		out = append(out, action.Candidate{
			Name:       name,
			Group:      g,
			ActionSym:  actionSym,
			PairSymbol: b.pairSymbolFor(ctxKey, name),
		})
	}
	return out, nil
}

// SelectAction picks the highest habit-norm candidate among allowedNames,
// with no causal-memory bias (alpha=0 path).
func (b *Brain) SelectAction(allowedNames []string) (string, float32, error) {
	candidates, err := b.candidatesFor(allowedNames, "")
	if err != nil {
		return "", 0, err
	}
	name, score := action.SelectHabitOnly(b.pool, candidates, b.actionParams())
	return name, score, nil
}

// SelectActionWithMeaning combines habit and causal-memory meaning biases,
// with exploration noise and epsilon-greedy fallback.
func (b *Brain) SelectActionWithMeaning(allowedNames []string, ctxKey string, alpha float32) (string, float32, error) {
	candidates, err := b.candidatesFor(allowedNames, ctxKey)
	if err != nil {
		return "", 0, err
	}
	name, score := action.SelectWithMeaning(b.pool, b.causalMem, candidates, b.rewardPos, b.rewardNeg, alpha, b.actionParams(), b.rnd)
	return name, score, nil
}

// ActionScoreBreakdown returns each candidate's (habit_norm, meaning,
// score) without mutating any state.
func (b *Brain) ActionScoreBreakdown(allowedNames []string, ctxKey string, alpha float32) ([]action.Breakdown, error) {
	candidates, err := b.candidatesFor(allowedNames, ctxKey)
	if err != nil {
		return nil, err
	}
	return action.ScoreBreakdown(b.pool, b.causalMem, candidates, b.rewardPos, b.rewardNeg, alpha, b.actionParams()), nil
}

// ---------------------------------------------------------------------
// Symbols & observation
// ---------------------------------------------------------------------

// NoteSymbol interns name and records it in the current observation's
// symbol set.
func (b *Brain) NoteSymbol(name string) symbol.ID {
	id := b.symbols.Intern(name)
	b.obsSymbols = append(b.obsSymbols, id)
	return id
}

// NoteAction records an action name's symbol in the current observation,
// for causal-memory transitions between stimuli and chosen actions.
func (b *Brain) NoteAction(name string) symbol.ID {
	return b.NoteSymbol(name)
}

// NoteCompoundSymbol interns a symbol built from parts (joined with a
// delimiter that cannot appear in a caller-supplied name), e.g. the
// pair(ctx,action) symbols SelectActionWithMeaning looks up.
func (b *Brain) NoteCompoundSymbol(parts []string) symbol.ID {
	id := b.symbols.Intern(compoundName(parts...))
	b.obsSymbols = append(b.obsSymbols, id)
	return id
}

// SetNeuromodulator clamps m to [-1,1] and stores it as the scalar
// neuromodulator signal.
func (b *Brain) SetNeuromodulator(m float32) {
	if m > 1 {
		m = 1
	}
	if m < -1 {
		m = -1
	}
	b.neuromod = m
}

// ReinforceAction is a convenience combining NoteAction(name) with
// SetNeuromodulator(r): it records the reinforced action's symbol in the
// current observation and sets the reward signal that Step's next commit
// will gate on.
func (b *Brain) ReinforceAction(name string, r float32) {
	b.NoteAction(name)
	b.SetNeuromodulator(r)
}

// CommitObservation discretizes the current neuromodulator value into
// reward_pos/reward_neg symbols, feeds the accumulated observation symbol
// set to causal memory, and clears the buffer.
func (b *Brain) CommitObservation() {
	syms := b.obsSymbols
	if b.neuromod > rewardPosThreshold {
		syms = append(syms, b.rewardPos)
	} else if b.neuromod < rewardNegThreshold {
		syms = append(syms, b.rewardNeg)
	}
	b.causalMem.Observe(syms)
	b.obsSymbols = nil
}

// DiscardObservation skips the causal-memory update but still resets
// prev_symbols and the pending observation buffer, so the next tick sees a
// clean transition boundary.
func (b *Brain) DiscardObservation() {
	b.causalMem.ClearPrevSymbols()
	b.obsSymbols = nil
}

// ---------------------------------------------------------------------
// Maintenance
// ---------------------------------------------------------------------

// ShouldGrow reports whether mean |weight| exceeds threshold.
func (b *Brain) ShouldGrow(threshold float64) bool {
	return structural.ShouldGrow(b.store, threshold)
}

// GrowUnit appends a single fresh unit wired with connectivity random
// edges, returning its id.
func (b *Brain) GrowUnit(connectivity int) int32 {
	ids := structural.GrowUnits(b.pool, b.store, 1, connectivity, b.rnd)
	b.birthsLastStep += len(ids)
	return ids[0]
}

// GrowUnits appends count fresh units, returning their ids.
func (b *Brain) GrowUnits(count, connectivity int) []int32 {
	ids := structural.GrowUnits(b.pool, b.store, count, connectivity, b.rnd)
	b.birthsLastStep += len(ids)
	return ids
}

// GrowForGroup appends count fresh units wired preferentially to/from the
// named group's members.
func (b *Brain) GrowForGroup(name string, count, inN, outN int) ([]int32, error) {
	g := b.groups.Get(name)
	if g == nil {
		return nil, braineerr.New(braineerr.NameConflict, "brain: unknown group "+name)
	}
	ids := structural.GrowForGroup(b.pool, b.store, g.Ids, count, b.cfg.ConnectivityPerUnit, inN, outN, b.rnd)
	b.birthsLastStep += len(ids)
	return ids, nil
}

// MaybeNeurogenesis grows at most min(count, maxUnits-N) units if the
// graph is densely loaded, returning the number actually grown.
func (b *Brain) MaybeNeurogenesis(threshold float64, count, maxUnits int) int {
	grown := structural.MaybeNeurogenesis(b.pool, b.store, threshold, count, maxUnits, b.rnd, b.cfg.ConnectivityPerUnit)
	if grown > 0 {
		b.birthsLastStep += grown
		b.logger.Info("neurogenesis", zap.Int("grown", grown))
	}
	return grown
}

// CompactConnections rebuilds the CSR store with all tombstones removed.
func (b *Brain) CompactConnections() {
	b.store.Compact()
}

// AttentionGate restricts eligibility/commit to the top topFraction of
// units by activity trace, until ResetLearningGates is called.
func (b *Brain) AttentionGate(topFraction float32) {
	b.plasticity.AttentionGate(b.pool, topFraction)
}

// ResetLearningGates clears any active attention gate.
func (b *Brain) ResetLearningGates() {
	b.plasticity.ResetLearningGates()
}

// ---------------------------------------------------------------------
// Diagnostics
// ---------------------------------------------------------------------

// GroupDiagnostic is one group's size/mean-amplitude breakdown.
type GroupDiagnostic struct {
	Name     string
	Kind     string
	Size     int
	MeanAmp  float32
}

// Diagnostics is the full diagnostics() result.
type Diagnostics struct {
	UnitCount       int
	ConnectionCount int
	AvgAbsWeight    float32
	Saturated       bool
	PrunedLastStep  int
	BirthsLastStep  int
	SymbolCount     int
	EdgeCount       int
	BaseTotal       float32
	Groups          []GroupDiagnostic
}

// Diagnostics returns unit/connection counts, average |weight|, a
// saturation flag, structural maintenance counters, causal-memory stats,
// and a per-group size/mean-amplitude breakdown.
func (b *Brain) Diagnostics() Diagnostics {
	n := b.store.UnitCount()
	var sum float64
	var count int
	var saturated bool
	for i := 0; i < n; i++ {
		b.store.Each(i, func(slot int, target uint32, weight float32) {
			w := float64(weight)
			if w < 0 {
				w = -w
			}
			sum += w
			count++
			if w >= 1.5 {
				saturated = true
			}
		})
	}
	var avg float32
	if count > 0 {
		avg = float32(sum / float64(count))
	}

	d := Diagnostics{
		UnitCount:       b.pool.Len(),
		ConnectionCount: b.store.ValidCount(),
		AvgAbsWeight:    avg,
		Saturated:       saturated,
		PrunedLastStep:  b.prunedLastStep,
		BirthsLastStep:  b.birthsLastStep,
		SymbolCount:     b.causalMem.SymbolCount(),
		EdgeCount:       b.causalMem.EdgeCount(),
		BaseTotal:       b.causalMem.BaseTotal(),
	}
	for _, g := range b.groups.All() {
		var sumAmp float32
		for _, id := range g.Ids {
			sumAmp += b.pool.Amp[id]
		}
		var mean float32
		if len(g.Ids) > 0 {
			mean = sumAmp / float32(len(g.Ids))
		}
		d.Groups = append(d.Groups, GroupDiagnostic{
			Name:    g.Name,
			Kind:    g.Kind.String(),
			Size:    len(g.Ids),
			MeanAmp: mean,
		})
	}
	return d
}

// LearningStats is the learning_stats() result.
type LearningStats struct {
	PlasticityL1         float32
	PlasticityEdges      int
	PlasticityCommitted  bool
	PlasticityBudgetUsed float32
	EligibilityL1        float32
}

// LearningStats returns the most recent Step's plasticity commit summary.
func (b *Brain) LearningStats() LearningStats {
	return LearningStats{
		PlasticityL1:         b.lastCommit.PlasticityL1,
		PlasticityEdges:      b.lastCommit.PlasticityEdges,
		PlasticityCommitted:  b.lastCommit.Committed,
		PlasticityBudgetUsed: b.lastCommit.BudgetUsed,
		EligibilityL1:        b.lastCommit.EligibilityL1,
	}
}

// SizeReport returns a dry-run byte-size estimate of what SaveImage(version)
// would write, without writing anything.
func (b *Brain) SizeReport(version uint32) (persistence.SizeReport, error) {
	cfgBytes, err := yaml.Marshal(b.cfg)
	if err != nil {
		return persistence.SizeReport{}, braineerr.Wrap(braineerr.IoError, "brain: marshal config", err)
	}
	base, edges, prevSymbols := b.causalMem.Snapshot()
	img := &persistence.Image{
		Version:  version,
		Config:   cfgBytes,
		PRNG:     b.rnd.State(),
		AgeSteps: b.ageSteps,
		Neuromod: b.neuromod,
		Units: persistence.UnitChunk{
			Amp:     b.pool.Amp,
			Phase:   b.pool.Phase,
			Bias:    b.pool.Bias,
			Decay:   b.pool.Decay,
			Offsets: b.store.Offsets,
			Targets: b.store.Targets,
			Weights: b.store.Weights,
		},
		Masks: persistence.MaskChunk{
			Reserved:        b.pool.Reserved,
			LearningEnabled: b.pool.LearningEnabled,
		},
		Salience: b.pool.Salience,
		Causal: persistence.CausalChunk{
			Decay:       b.causalMem.Decay,
			Base:        base,
			Edges:       edges,
			PrevSymbols: prevSymbols,
		},
	}
	for _, g := range b.groups.All() {
		img.Groups = append(img.Groups, *g)
	}
	img.Symbols = b.symbols.All()
	return persistence.SizeReportFor(img, version), nil
}
