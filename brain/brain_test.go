package brain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.UnitCount = 16
	cfg.ConnectivityPerUnit = 3
	cfg.Seed = 7
	return cfg
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.UnitCount = 0
	_, err := New(cfg)
	require.Error(t, err)
}

func TestNewAllocatesTopology(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()

	assert.Equal(t, 16, b.pool.Len())
	assert.Equal(t, 16, b.store.UnitCount())
}

func TestUpdateConfigRejectsTopologyChange(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()

	err = b.UpdateConfig(func(c *Config) { c.UnitCount = 32 })
	require.Error(t, err)

	err = b.UpdateConfig(func(c *Config) { c.HebbRate = 0.2 })
	require.NoError(t, err)
	assert.InDelta(t, 0.2, float64(b.Config().HebbRate), 1e-6)
}

func TestUpdateConfigRejectsInvalidValue(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()

	err = b.UpdateConfig(func(c *Config) { c.Dt = -1 })
	require.Error(t, err)
}

func TestDefineSensorAndActionAreIdempotent(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.DefineSensor("eye", 3))
	require.NoError(t, b.DefineSensor("eye", 3))
	g := b.groups.Get("eye")
	require.NotNil(t, g)
	assert.Len(t, g.Ids, 3)
	for _, id := range g.Ids {
		assert.True(t, b.pool.SensorOf[id] >= 0)
	}

	require.NoError(t, b.DefineAction("move", 2))
	g2 := b.groups.Get("move")
	require.NotNil(t, g2)
	assert.Len(t, g2.Ids, 2)
	for _, id := range g2.Ids {
		assert.True(t, b.pool.ActionOf[id] >= 0)
	}
}

func TestDefineSensorRejectsKindConflict(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.DefineSensor("eye", 2))
	err = b.DefineAction("eye", 2)
	assert.Error(t, err)
}

func TestApplyStimulusInjectsAndRecordsSymbol(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.DefineSensor("eye", 2))

	require.NoError(t, b.ApplyStimulus("eye", 0.3))
	g := b.groups.Get("eye")
	for _, id := range g.Ids {
		assert.Greater(t, b.pool.Pending[id], float32(0))
	}
	assert.Contains(t, b.obsSymbols, b.symbols.Intern("eye"))
}

func TestApplyStimulusInferenceDoesNotRecordSymbol(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.DefineSensor("eye", 2))

	require.NoError(t, b.ApplyStimulusInference("eye", 0.3))
	assert.Empty(t, b.obsSymbols)
}

func TestApplyStimulusUnknownGroupFails(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()
	err = b.ApplyStimulus("nope", 1)
	assert.Error(t, err)
}

func TestStepRunsFullTickWithoutPanicking(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.DefineSensor("eye", 2))

	for i := 0; i < 20; i++ {
		require.NoError(t, b.ApplyStimulus("eye", 0.5))
		b.Step()
	}
	assert.Equal(t, uint64(20), b.ageSteps)
	for _, a := range b.pool.Amp {
		assert.GreaterOrEqual(t, a, float32(-2))
		assert.LessOrEqual(t, a, float32(2))
	}
}

func TestStepInferenceSkipsPlasticityAndMaintenance(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()

	before := b.ageSteps
	b.StepInference()
	assert.Equal(t, before, b.ageSteps)
}

func TestSelectActionPicksHighestHabit(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.DefineAction("left", 1))
	require.NoError(t, b.DefineAction("right", 1))

	leftID := b.groups.Get("left").Ids[0]
	b.pool.Amp[leftID] = 1.5

	name, score, err := b.SelectAction([]string{"left", "right"})
	require.NoError(t, err)
	assert.Equal(t, "left", name)
	assert.Greater(t, score, float32(0))
}

func TestSelectActionUnknownGroupFails(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()
	_, _, err = b.SelectAction([]string{"nope"})
	assert.Error(t, err)
}

func TestActionScoreBreakdownIsPure(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.DefineAction("left", 1))

	before := append([]float32(nil), b.pool.Amp...)
	_, err = b.ActionScoreBreakdown([]string{"left"}, "ctx", 0.5)
	require.NoError(t, err)
	assert.Equal(t, before, b.pool.Amp)
}

func TestCommitObservationFeedsCausalMemory(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()

	b.NoteSymbol("saw_red")
	b.SetNeuromodulator(0.5)
	b.CommitObservation()

	assert.Empty(t, b.obsSymbols)
	assert.Equal(t, 2, b.causalMem.SymbolCount()) // saw_red plus the discretized reward_pos symbol
	assert.Greater(t, b.causalMem.BaseTotal(), float32(0))
}

func TestDiscardObservationClearsWithoutCausalUpdate(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()

	b.NoteSymbol("saw_red")
	baseBefore := b.causalMem.BaseTotal()
	b.DiscardObservation()
	assert.Empty(t, b.obsSymbols)
	assert.Equal(t, baseBefore, b.causalMem.BaseTotal())
}

func TestReinforceActionSetsNeuromodulatorAndRecordsSymbol(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()

	b.ReinforceAction("left", 0.9)
	assert.InDelta(t, 0.9, float64(b.neuromod), 1e-6)
	assert.Contains(t, b.obsSymbols, b.symbols.Intern("left"))
}

func TestSetNeuromodulatorClamps(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()

	b.SetNeuromodulator(5)
	assert.Equal(t, float32(1), b.neuromod)
	b.SetNeuromodulator(-5)
	assert.Equal(t, float32(-1), b.neuromod)
}

func TestShouldGrowAndGrowUnits(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()

	// Fresh weights are drawn from (-0.1, 0.1), far below a 0.5 threshold.
	assert.False(t, b.ShouldGrow(0.5))

	before := b.pool.Len()
	ids := b.GrowUnits(2, 2)
	assert.Len(t, ids, 2)
	assert.Equal(t, before+2, b.pool.Len())
	assert.Equal(t, 2, b.birthsLastStep)
}

func TestGrowForGroupUnknownGroupFails(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()
	_, err = b.GrowForGroup("nope", 1, 1, 1)
	assert.Error(t, err)
}

func TestCompactConnectionsRemovesTombstones(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()

	b.store.Tombstone(0)
	before := b.store.Len()
	b.CompactConnections()
	assert.Less(t, b.store.Len(), before)
}

func TestAttentionGateAndReset(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()

	b.AttentionGate(0.25)
	b.ResetLearningGates()
}

func TestDiagnosticsReportsPerGroupBreakdown(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.DefineSensor("eye", 2))
	id := b.groups.Get("eye").Ids[0]
	b.pool.Amp[id] = 1.0

	d := b.Diagnostics()
	assert.Equal(t, b.pool.Len(), d.UnitCount)
	require.Len(t, d.Groups, 1)
	assert.Equal(t, "eye", d.Groups[0].Name)
	assert.Equal(t, 2, d.Groups[0].Size)
	assert.Greater(t, d.Groups[0].MeanAmp, float32(0))
}

func TestLearningStatsReflectsLastCommit(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()
	require.NoError(t, b.DefineSensor("eye", 2))

	require.NoError(t, b.ApplyStimulus("eye", 1.0))
	b.SetNeuromodulator(0.9)
	b.Step()

	stats := b.LearningStats()
	assert.GreaterOrEqual(t, stats.EligibilityL1, float32(0))
}

func TestSaveImageThenLoadImageRoundTripsState(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.DefineSensor("eye", 2))
	require.NoError(t, b.DefineAction("move", 2))
	for i := 0; i < 5; i++ {
		require.NoError(t, b.ApplyStimulus("eye", 0.5))
		b.Step()
	}
	b.SetNeuromodulator(0.5)
	b.CommitObservation()

	var buf bytes.Buffer
	require.NoError(t, b.SaveImage(&buf, 2))

	loaded, err := LoadImage(&buf)
	require.NoError(t, err)
	defer loaded.Close()

	assert.Equal(t, b.pool.Len(), loaded.pool.Len())
	assert.Equal(t, b.store.ValidCount(), loaded.store.ValidCount())
	assert.Equal(t, b.ageSteps, loaded.ageSteps)
	assert.InDelta(t, float64(b.neuromod), float64(loaded.neuromod), 1e-6)

	g := loaded.groups.Get("eye")
	require.NotNil(t, g)
	assert.Len(t, g.Ids, 2)
	for _, id := range g.Ids {
		assert.True(t, loaded.pool.SensorOf[id] >= 0)
	}
}

func TestSizeReportReturnsPositiveSize(t *testing.T) {
	b, err := New(smallConfig())
	require.NoError(t, err)
	defer b.Close()

	report, err := b.SizeReport(1)
	require.NoError(t, err)
	assert.Greater(t, uint64(report.TotalBytes), uint64(0))
}

func TestLoadConfigYAMLRoundTripsEnumFields(t *testing.T) {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	loaded, err := LoadConfigYAML(data)
	require.NoError(t, err)
	assert.Equal(t, cfg.InhibitionMode, loaded.InhibitionMode)
	assert.Equal(t, cfg.PhaseCouplingMode, loaded.PhaseCouplingMode)
}

func TestLoadConfigYAMLPartialDocumentKeepsDefaults(t *testing.T) {
	loaded, err := LoadConfigYAML([]byte("seed: 7\n"))
	require.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, uint64(7), loaded.Seed)
	assert.Equal(t, def.Dt, loaded.Dt)
	assert.Equal(t, def.UnitCount, loaded.UnitCount)
	assert.Equal(t, def.InhibitionMode, loaded.InhibitionMode)
	require.NoError(t, loaded.Validate())
}
