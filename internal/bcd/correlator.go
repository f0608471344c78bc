package bcd

import (
	"math"

	"github.com/cwsl/wwvsync/internal/constants"
	"github.com/cwsl/wwvsync/internal/events"
)

// Correlator gates BCD symbol emission on the sync detector's LOCKED state
// and last_marker_ms anchor: symbols are never emitted while sync is not
// LOCKED. It partitions time into 1-second windows starting at
// anchor + k*1000ms and fuses whatever
// time/freq candidates land in each window.
type Correlator struct {
	locked    bool
	haveAnchor bool
	anchorMs  float64

	windowOpen    bool
	windowStartMs float64
	windowEndMs   float64
	timeSym       events.BCDSymbol
	haveTime      bool
	timeWidthMs   float64
	freqSym       events.BCDSymbol
	haveFreq      bool

	onSymbol func(events.BCDSymbolEvent)
}

// New creates a BCD correlator.
func New() *Correlator {
	return &Correlator{}
}

// SetSymbolCallback installs the consumer for fused BCDSymbolEvents.
func (c *Correlator) SetSymbolCallback(fn func(events.BCDSymbolEvent)) { c.onSymbol = fn }

// Reset clears all gating and window state, preserving the installed
// callback.
func (c *Correlator) Reset() {
	onSymbol := c.onSymbol
	*c = *New()
	c.onSymbol = onSymbol
}

// SetSyncStatus updates the gating state from the sync detector: whether
// it is LOCKED, and its current last_marker_ms anchor.
func (c *Correlator) SetSyncStatus(locked bool, lastMarkerMs float64) {
	if locked && !c.locked {
		c.anchorMs = lastMarkerMs
		c.haveAnchor = true
		c.windowOpen = false
	}
	if !locked {
		c.windowOpen = false
	}
	c.locked = locked
}

// ProcessTimeCandidate folds in a classified pulse from the time detector.
func (c *Correlator) ProcessTimeCandidate(sym events.BCDSymbol, tsMs, widthMs float64) {
	c.ensureWindow(tsMs)
	if !c.locked || !c.windowOpen || tsMs < c.windowStartMs || tsMs >= c.windowEndMs {
		return
	}
	c.timeSym = sym
	c.timeWidthMs = widthMs
	c.haveTime = true
}

// ProcessFreqCandidate folds in a classified pulse from the frequency
// detector.
func (c *Correlator) ProcessFreqCandidate(sym events.BCDSymbol, tsMs, widthMs float64) {
	c.ensureWindow(tsMs)
	if !c.locked || !c.windowOpen || tsMs < c.windowStartMs || tsMs >= c.windowEndMs {
		return
	}
	c.freqSym = sym
	c.haveFreq = true
}

// Tick drives window closure; call it regularly (e.g. every sample or
// every frame) with the current timestamp.
func (c *Correlator) Tick(nowMs float64) {
	if !c.locked || !c.haveAnchor {
		c.windowOpen = false
		return
	}
	c.ensureWindow(nowMs)
	if nowMs >= c.windowEndMs {
		c.closeWindow()
		c.windowStartMs = c.windowEndMs
		c.windowEndMs = c.windowStartMs + constants.SecondMs
	}
}

func (c *Correlator) ensureWindow(nowMs float64) {
	if c.windowOpen || !c.haveAnchor {
		return
	}
	k := math.Floor((nowMs - c.anchorMs) / constants.SecondMs)
	c.windowStartMs = c.anchorMs + k*constants.SecondMs
	c.windowEndMs = c.windowStartMs + constants.SecondMs
	c.windowOpen = true
	c.haveTime, c.haveFreq = false, false
}

func (c *Correlator) closeWindow() {
	if !c.windowOpen {
		return
	}
	sym := events.BCDUnknown
	if c.haveTime && c.haveFreq && c.timeSym == c.freqSym {
		sym = c.timeSym
	}
	if c.onSymbol != nil {
		c.onSymbol(events.BCDSymbolEvent{
			Symbol:       sym,
			TimestampMs:  c.windowStartMs,
			PulseWidthMs: c.timeWidthMs,
		})
	}
	c.haveTime, c.haveFreq = false, false
}
