package transport

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeS16ScalesToUnitRange(t *testing.T) {
	out := NormalizeS16([]int16{32767, -32768, 0}, []int16{0, 32767, -32768})
	require.Len(t, out, 3)
	assert.InDelta(t, 1.0, out[0].I, 1e-4)
	assert.InDelta(t, -1.0, out[1].I, 1e-4)
	assert.InDelta(t, 0.0, out[2].I, 1e-4)
}

func TestNormalizeU8CentersAtZero(t *testing.T) {
	out := NormalizeU8([]uint8{128, 255, 0}, []uint8{128, 0, 255})
	require.Len(t, out, 3)
	assert.InDelta(t, 0.0, out[0].I, 1e-9)
	assert.InDelta(t, 1.0, out[1].I, 0.01)
	assert.InDelta(t, -1.0, out[2].I, 0.01)
}

func TestNormalizeF32PassesThrough(t *testing.T) {
	out := NormalizeF32([]float32{0.5, -0.25}, []float32{0.1, 0.2})
	require.Len(t, out, 2)
	assert.InDelta(t, 0.5, out[0].I, 1e-6)
	assert.InDelta(t, 0.2, out[1].Q, 1e-6)
}

func TestNormalizeTruncatesToShorterSlice(t *testing.T) {
	out := NormalizeS16([]int16{1, 2, 3}, []int16{1, 2})
	assert.Len(t, out, 2)
}

func buildFrame(buf *bytes.Buffer, i, q []int16) {
	binary.Write(buf, binary.LittleEndian, uint32(len(i)))
	for k := range i {
		binary.Write(buf, binary.LittleEndian, i[k])
		binary.Write(buf, binary.LittleEndian, q[k])
	}
}

func TestFrameReaderDecodesSuccessiveFrames(t *testing.T) {
	var buf bytes.Buffer
	buildFrame(&buf, []int16{100, 200}, []int16{-100, -200})
	buildFrame(&buf, []int16{300}, []int16{400})

	r := NewFrameReader(&buf, 48000)
	assert.Equal(t, uint32(48000), r.Header().SampleRateHz)

	f1, err := r.Next()
	require.NoError(t, err)
	require.Len(t, f1, 2)

	f2, err := r.Next()
	require.NoError(t, err)
	require.Len(t, f2, 1)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestGeneratorIsDeterministicAcrossInstances(t *testing.T) {
	p := DefaultSyntheticParams(48000)
	g1 := NewGenerator(p, 42)
	g2 := NewGenerator(p, 42)

	out1 := g1.Next(1000)
	out2 := g2.Next(1000)
	assert.Equal(t, out1, out2)
}

func TestGeneratorProducesStrongMarkerAtMinuteStart(t *testing.T) {
	p := DefaultSyntheticParams(48000)
	g := NewGenerator(p, 1)

	samples := g.Next(100) // well within the 800ms marker pulse
	var energy float64
	for _, s := range samples {
		energy += s.Mag2()
	}
	assert.Greater(t, energy, float64(len(samples))*0.5, "samples during the marker pulse should carry strong carrier energy")
}

func TestFadeRampsAmplitude(t *testing.T) {
	p := DefaultSyntheticParams(48000)
	p.NoiseAmp = 0
	g := NewGenerator(p, 7)

	out := g.Fade(48000, 1.0, 0.0)
	firstEnergy := out[0].Mag2()
	lastEnergy := out[len(out)-1].Mag2()
	assert.GreaterOrEqual(t, firstEnergy, lastEnergy)
}
