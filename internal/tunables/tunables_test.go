package tunables

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSetRejectsOutOfRangeWithoutMutating(t *testing.T) {
	table := NewTable()
	before := table.Tick.ThresholdMult

	err := table.Set("threshold_multiplier", 99.0)
	require.Error(t, err)
	var rangeErr *RangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, before, table.Tick.ThresholdMult, "a rejected Set must not mutate state")
}

func TestSetUnknownParameterErrors(t *testing.T) {
	table := NewTable()
	err := table.Set("not_a_real_param", 1.0)
	assert.Error(t, err)
}

func TestGetReflectsSet(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Set("threshold_multiplier", 3.5))
	v, err := table.Get("threshold_multiplier")
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)
}

func TestSaveLoadRoundTripsValues(t *testing.T) {
	table := NewTable()
	require.NoError(t, table.Set("threshold_multiplier", 2.5))
	require.NoError(t, table.Set("weight_marker", 0.42))

	path := filepath.Join(t.TempDir(), "tunables.ini")
	require.NoError(t, table.Save(path))

	reloaded := NewTable()
	warnings, err := reloaded.Load(path)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 2.5, reloaded.Tick.ThresholdMult)
	assert.Equal(t, 0.42, reloaded.Sync.WeightMarker)
}

func TestSaveLoadSaveIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	iteration := 0
	rapid.Check(t, func(t *rapid.T) {
		iteration++
		table := NewTable()
		mult := rapid.Float64Range(1.0, 5.0).Draw(t, "mult")
		assert.NoError(t, table.Set("threshold_multiplier", mult))

		path1 := filepath.Join(dir, fmt.Sprintf("a-%d.ini", iteration))
		path2 := filepath.Join(dir, fmt.Sprintf("b-%d.ini", iteration))

		assert.NoError(t, table.Save(path1))
		reloaded := NewTable()
		_, err := reloaded.Load(path1)
		assert.NoError(t, err)
		assert.NoError(t, reloaded.Save(path2))

		v1, _ := table.Get("threshold_multiplier")
		v2, _ := reloaded.Get("threshold_multiplier")
		assert.InDelta(t, v1, v2, 1e-9)

		b1, err := os.ReadFile(path1)
		assert.NoError(t, err)
		b2, err := os.ReadFile(path2)
		assert.NoError(t, err)
		assert.Equal(t, string(b1), string(b2))
	})
}
