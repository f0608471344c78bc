package decimate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cwsl/wwvsync/internal/iq"
)

func TestNewChainRejectsNonIntegerRatio(t *testing.T) {
	_, err := NewChain(48000, 50000)
	assert.Error(t, err)
}

func TestChainDecimatesByExactRatio(t *testing.T) {
	c, err := NewChain(40000, 8000)
	require.NoError(t, err)

	produced := 0
	for i := 0; i < 4000; i++ {
		if _, ok := c.Process(iq.Sample{I: 1, Q: 0}); ok {
			produced++
		}
	}
	assert.Equal(t, 800, produced)
}

func TestChainIsDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 500).Draw(t, "n")
		samples := make([]iq.Sample, n)
		for i := range samples {
			samples[i] = iq.Sample{
				I: rapid.Float64Range(-1, 1).Draw(t, "i"),
				Q: rapid.Float64Range(-1, 1).Draw(t, "q"),
			}
		}

		c1, _ := NewChain(40000, 8000)
		c2, _ := NewChain(40000, 8000)

		var out1, out2 []iq.Sample
		for _, s := range samples {
			if o, ok := c1.Process(s); ok {
				out1 = append(out1, o)
			}
			if o, ok := c2.Process(s); ok {
				out2 = append(out2, o)
			}
		}
		assert.Equal(t, out1, out2, "identical input must produce bit-for-bit identical decimated output")
	})
}

func TestNormalizerConvergesTowardUnitMagnitude(t *testing.T) {
	n := NewNormalizer()
	var last iq.Sample
	for i := 0; i < 200000; i++ {
		last = n.Process(iq.Sample{I: 5.0, Q: 0})
	}
	mag := math.Hypot(last.I, last.Q)
	assert.InDelta(t, 1.0, mag, 0.05)
}

func TestSplitterPassesInBandTonesSuppressesOutOfBand(t *testing.T) {
	const rate = 50000.0
	sp := NewSplitter(rate)

	syncEnergy, dataEnergy := 0.0, 0.0
	n := 2000
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * 1000.0 * float64(i) / rate
		s := iq.Sample{I: math.Cos(theta), Q: math.Sin(theta)}
		sync, data := sp.Process(s)
		if i > n/2 { // past filter settling
			syncEnergy += sync.Mag2()
			dataEnergy += data.Mag2()
		}
	}
	assert.Greater(t, syncEnergy, dataEnergy*5, "a 1000 Hz tone should pass the sync band-pass, not the data low-pass")
}
