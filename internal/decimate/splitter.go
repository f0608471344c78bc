package decimate

import "github.com/cwsl/wwvsync/internal/iq"

// Splitter separates the normalized detector-path stream into the sync
// channel (800-1400 Hz band-pass, carries the 1000 Hz tone/marker tones)
// and the data channel (0-150 Hz low-pass, carries the 100 Hz BCD
// subcarrier). Both channels are produced sample-by-sample from the same
// input.
type Splitter struct {
	syncI, syncQ *biquad
	dataI, dataQ *biquad
}

// NewSplitter builds a splitter for a detector-path stream sampled at
// rateHz. The sync band-pass is centered at 1100 Hz (the midpoint of
// 800-1400 Hz) with a Q chosen to give ~600 Hz bandwidth.
func NewSplitter(rateHz float64) *Splitter {
	const syncCenterHz = 1100.0
	const syncBandwidthHz = 600.0
	q := syncCenterHz / syncBandwidthHz
	return &Splitter{
		syncI: newBandpass(syncCenterHz, rateHz, q),
		syncQ: newBandpass(syncCenterHz, rateHz, q),
		dataI: newLowpass(150.0, rateHz, 0.7071),
		dataQ: newLowpass(150.0, rateHz, 0.7071),
	}
}

// Process returns (syncChannel, dataChannel) for one detector-path sample.
func (sp *Splitter) Process(s iq.Sample) (sync, data iq.Sample) {
	sync = iq.Sample{I: sp.syncI.Filter(s.I), Q: sp.syncQ.Filter(s.Q)}
	data = iq.Sample{I: sp.dataI.Filter(s.I), Q: sp.dataQ.Filter(s.Q)}
	return
}

// Reset clears both channels' filter state.
func (sp *Splitter) Reset() {
	sp.syncI.Reset()
	sp.syncQ.Reset()
	sp.dataI.Reset()
	sp.dataQ.Reset()
}
