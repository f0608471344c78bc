// Package constants collects the hard-coded delay offsets that are tied to
// specific filter designs across the detector bank. Design note: these are
// calibration values, not magic numbers, and they are reviewed together
// rather than scattered across the files that use them.
package constants

const (
	// FilterDelayMs is the group delay introduced by the sync-channel
	// band-pass ahead of the tick detector. A TickEvent's leading edge is
	// always trailing - duration - FilterDelayMs.
	FilterDelayMs = 2.5

	// TickFFTSize is the window size of the tick detector's and fast
	// marker detector's FFT, in samples at Fd.
	TickFFTSize = 256

	// SlowMarkerFFTSize is the window size of the slow marker detector's
	// overlapped FFT, in samples at Fw.
	SlowMarkerFFTSize = 2048

	// DecimatedRateHz is Fd, the detector-path sample rate.
	DecimatedRateHz = 50000.0

	// DisplayRateHz is Fw, the slow/display-path sample rate.
	DisplayRateHz = 12000.0

	// SlowMarkerDelayMs is the worst-case framing latency of the slow
	// marker detector's overlapped FFT on the 12 kHz display path: a new
	// frame can lag the samples that triggered it by up to one full
	// analysis window, since the window covers the trailing
	// SlowMarkerFFTSize samples ending at the frame's report time. The
	// marker correlator subtracts this from a slow-path span's start
	// before matching it against the fast path's pulse onset.
	SlowMarkerDelayMs = float64(SlowMarkerFFTSize) / DisplayRateHz * 1000.0

	// TargetToneHz is the 1000 Hz tick/marker subcarrier frequency.
	TargetToneHz = 1000.0

	// BCDSubcarrierHz is the 100 Hz BCD time-code subcarrier frequency.
	BCDSubcarrierHz = 100.0

	// SecondMs is the nominal broadcast second, in milliseconds.
	SecondMs = 1000.0

	// MinuteMs is the nominal broadcast minute, in milliseconds.
	MinuteMs = 60000.0
)
