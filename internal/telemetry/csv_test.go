package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVSinkAppendsAndFlushes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.csv")
	sink, err := NewCSVSink(path)
	require.NoError(t, err)

	sink.Write("TICK,12:00:00.000,0,1,true")
	sink.Write("MARK,12:00:01.000,1,1,0.5,800,0")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "TICK,")
	assert.Contains(t, string(data), "MARK,")

	require.NoError(t, sink.Close())
}
