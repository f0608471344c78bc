// Package transport defines the callback-style contract the core expects
// from its SDR transport collaborator and the sample
// normalization rules for each wire format.
package transport

import "github.com/cwsl/wwvsync/internal/iq"

// SampleFormat identifies the wire encoding of each I/Q sample pair.
type SampleFormat int

const (
	FormatS16 SampleFormat = iota
	FormatF32
	FormatU8
)

// StreamHeader announces (or re-announces) the stream's sample rate,
// wire format, and tuned center frequency.
type StreamHeader struct {
	SampleRateHz uint32
	Format       SampleFormat
	CenterFreqHz uint64
}

// Metadata is an out-of-band update that may arrive mid-stream without a
// change in sample framing.
type Metadata struct {
	NewSampleRateHz uint32
	NewCenterFreqHz uint64
	GainReductionDB float64
	LNAState        int
}

// Consumer is the interface the core core implements to receive a
// transport's stream. Reset=true on Samples forces all DSP state clear
//.
type Consumer interface {
	OnStreamHeader(h StreamHeader)
	OnSamples(samples []iq.Sample, reset bool)
	OnMetadata(m Metadata)
}

// NormalizeS16 converts interleaved signed 16-bit I/Q pairs to [-1,1] iq.Samples.
func NormalizeS16(i, q []int16) []iq.Sample {
	n := len(i)
	if len(q) < n {
		n = len(q)
	}
	out := make([]iq.Sample, n)
	const scale = 1.0 / 32768.0
	for k := 0; k < n; k++ {
		out[k] = iq.Sample{I: float64(i[k]) * scale, Q: float64(q[k]) * scale}
	}
	return out
}

// NormalizeU8 converts interleaved unsigned 8-bit I/Q pairs (DC-biased at
// 128) to iq.Samples centered at zero.
func NormalizeU8(i, q []uint8) []iq.Sample {
	n := len(i)
	if len(q) < n {
		n = len(q)
	}
	out := make([]iq.Sample, n)
	const scale = 1.0 / 128.0
	for k := 0; k < n; k++ {
		out[k] = iq.Sample{I: (float64(i[k]) - 128) * scale, Q: (float64(q[k]) - 128) * scale}
	}
	return out
}

// NormalizeF32 passes float32 I/Q pairs through unchanged, widening to float64.
func NormalizeF32(i, q []float32) []iq.Sample {
	n := len(i)
	if len(q) < n {
		n = len(q)
	}
	out := make([]iq.Sample, n)
	for k := 0; k < n; k++ {
		out[k] = iq.Sample{I: float64(i[k]), Q: float64(q[k])}
	}
	return out
}
