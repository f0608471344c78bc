package transport

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cwsl/wwvsync/internal/iq"
)

// FrameReader decodes a length-prefixed stream of raw S16 I/Q frames:
// each frame is a uint32 sample count followed by that many interleaved
// (I,Q) int16 pairs, little-endian. It is a reference implementation of
// the transport.Consumer source side, used by cmd/wwvsync when reading
// from a recorded capture file instead of a live radiod collaborator.
type FrameReader struct {
	r            *bufio.Reader
	sampleRateHz uint32
}

// NewFrameReader wraps r, assuming sampleRateHz for the single
// StreamHeader it will report.
func NewFrameReader(r io.Reader, sampleRateHz uint32) *FrameReader {
	return &FrameReader{r: bufio.NewReaderSize(r, 1<<16), sampleRateHz: sampleRateHz}
}

// Header returns the stream header this reader would announce before
// the first frame.
func (f *FrameReader) Header() StreamHeader {
	return StreamHeader{SampleRateHz: f.sampleRateHz, Format: FormatS16}
}

// Next reads and normalizes the next frame. It returns io.EOF when the
// underlying stream is exhausted between frames.
func (f *FrameReader) Next() ([]iq.Sample, error) {
	var count uint32
	if err := binary.Read(f.r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	i := make([]int16, count)
	q := make([]int16, count)
	for k := uint32(0); k < count; k++ {
		if err := binary.Read(f.r, binary.LittleEndian, &i[k]); err != nil {
			return nil, fmt.Errorf("transport: short frame reading I[%d]: %w", k, err)
		}
		if err := binary.Read(f.r, binary.LittleEndian, &q[k]); err != nil {
			return nil, fmt.Errorf("transport: short frame reading Q[%d]: %w", k, err)
		}
	}
	return NormalizeS16(i, q), nil
}

// Run feeds every frame in the stream to c in order, calling
// OnStreamHeader once up front. Reset is only ever signaled true on the
// very first call, matching a transport that never itself disconnects
// mid-file.
func (f *FrameReader) Run(c Consumer) error {
	c.OnStreamHeader(f.Header())
	first := true
	for {
		samples, err := f.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		c.OnSamples(samples, first)
		first = false
	}
}
