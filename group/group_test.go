package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefineIsIdempotent(t *testing.T) {
	tbl := New()
	_, err := tbl.Define("red", Sensor, []int32{0, 1, 2})
	require.NoError(t, err)
	g, err := tbl.Define("red", Sensor, []int32{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 1, 2}, g.Ids)
}

func TestDefineMergesWiderSet(t *testing.T) {
	tbl := New()
	_, err := tbl.Define("red", Sensor, []int32{0, 1})
	require.NoError(t, err)
	g, err := tbl.Define("red", Sensor, []int32{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 1, 2, 3}, g.Ids)
}

func TestDefineRejectsKindMismatch(t *testing.T) {
	tbl := New()
	_, err := tbl.Define("red", Sensor, []int32{0})
	require.NoError(t, err)
	_, err = tbl.Define("red", Action, []int32{0})
	assert.Error(t, err)
}

func TestDefineRejectsContraction(t *testing.T) {
	tbl := New()
	_, err := tbl.Define("red", Sensor, []int32{0, 1, 2})
	require.NoError(t, err)
	_, err = tbl.Define("red", Sensor, []int32{0})
	assert.Error(t, err)
}

func TestEnsureMinWidthGrows(t *testing.T) {
	tbl := New()
	next := int32(100)
	alloc := func() int32 {
		next++
		return next
	}
	g, err := tbl.EnsureMinWidth("go", Action, 3, alloc)
	require.NoError(t, err)
	assert.Len(t, g.Ids, 3)

	g, err = tbl.EnsureMinWidth("go", Action, 2, alloc)
	require.NoError(t, err)
	assert.Len(t, g.Ids, 3) // no shrink
}

func TestLoadFromPreservesOrder(t *testing.T) {
	groups := []Group{
		{Name: "red", Kind: Sensor, Ids: []int32{0, 1}},
		{Name: "brake", Kind: Action, Ids: []int32{2, 3}},
	}
	tbl := LoadFrom(groups)
	all := tbl.All()
	require.Len(t, all, 2)
	assert.Equal(t, "red", all[0].Name)
	assert.Equal(t, "brake", all[1].Name)
}
