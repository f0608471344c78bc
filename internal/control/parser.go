// Package control implements the control-plane command parser: a
// `CMD ARG` single-line grammar that updates one runtime-tunable
// parameter per command, rate-limited, with a structured response per
// outcome.
package control

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cwsl/wwvsync/internal/tunables"
)

// commandTable maps each recognized command name to the tunables.Table
// parameter it updates. ENABLE_TELEM/DISABLE_TELEM are handled separately
// since they don't address a numeric tunable.
var commandTable = map[string]string{
	"SET_TICK_THRESHOLD":         "threshold_multiplier",
	"SET_TICK_ADAPT_DOWN":        "noise_alpha_down",
	"SET_TICK_ADAPT_UP":          "noise_alpha_up",
	"SET_TICK_MIN_DURATION":      "min_duration_ms",
	"SET_CORR_CONFIDENCE":        "epoch_confidence_threshold",
	"SET_CORR_MAX_MISSES":        "max_consecutive_misses",
	"SET_MARKER_THRESHOLD":       "marker_threshold_multiplier",
	"SET_MARKER_ADAPT_RATE":      "marker_adapt_rate",
	"SET_MARKER_MIN_DURATION":    "marker_min_duration_ms",
	"SET_SYNC_WEIGHT_TICK":       "weight_tick",
	"SET_SYNC_WEIGHT_MARKER":     "weight_marker",
	"SET_SYNC_WEIGHT_P_MARKER":   "weight_p_marker",
	"SET_SYNC_WEIGHT_TICK_HOLE":  "weight_tick_hole",
	"SET_SYNC_WEIGHT_COMBINED":   "weight_combined",
	"SET_SYNC_LOCKED_THRESHOLD":  "locked_threshold",
	"SET_SYNC_MIN_RETAIN":        "min_retain",
	"SET_SYNC_TENTATIVE_INIT":    "tentative_init",
	"SET_SYNC_DECAY_NORMAL":      "decay_normal",
	"SET_SYNC_DECAY_RECOVERING":  "decay_recovering",
	"SET_SYNC_TICK_TOLERANCE":    "tick_tolerance_ms",
	"SET_SYNC_MARKER_TOLERANCE":  "marker_tolerance_ms",
	"SET_SYNC_P_MARKER_TOLERANCE": "p_marker_tolerance_ms",
}

// TelemetryToggle is implemented by whatever owns the enabled/disabled
// state of each telemetry channel.
type TelemetryToggle interface {
	EnableChannel(name string)
	DisableChannel(name string)
}

// Parser applies single-line control commands against a tunables.Table,
// rate-limiting to maxPerSecond and persisting to iniPath after every
// successful update.
type Parser struct {
	table      *tunables.Table
	telem      TelemetryToggle
	iniPath    string
	maxPerSec  int
	windowSize time.Duration

	recent []time.Time
}

// NewParser creates a command parser. iniPath may be empty to disable
// persistence (used by tests).
func NewParser(table *tunables.Table, telem TelemetryToggle, iniPath string, maxPerSecond int) *Parser {
	return &Parser{
		table:      table,
		telem:      telem,
		iniPath:    iniPath,
		maxPerSec:  maxPerSecond,
		windowSize: time.Second,
	}
}

// Handle parses and applies one command line, returning the response line
// to send back over the control channel.
func (p *Parser) Handle(line string, now time.Time) string {
	if !p.allow(now) {
		return fmt.Sprintf("ERR RATE_LIMIT exceeded (%d/sec)", p.maxPerSec)
	}

	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return "ERR PARSE empty command"
	}
	cmd := fields[0]

	switch cmd {
	case "ENABLE_TELEM", "DISABLE_TELEM":
		if len(fields) != 2 {
			return fmt.Sprintf("ERR PARSE %s requires exactly one channel argument", cmd)
		}
		if p.telem == nil {
			return "ERR PARSE telemetry not configured"
		}
		if cmd == "ENABLE_TELEM" {
			p.telem.EnableChannel(fields[1])
		} else {
			p.telem.DisableChannel(fields[1])
		}
		return fmt.Sprintf("OK %s", fields[1])
	}

	param, ok := commandTable[cmd]
	if !ok {
		return fmt.Sprintf("ERR UNKNOWN_CMD %s", cmd)
	}
	if len(fields) != 2 {
		return "ERR PARSE expected exactly one numeric argument"
	}
	value, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return fmt.Sprintf("ERR PARSE %v", err)
	}

	if err := p.table.Set(param, value); err != nil {
		if rangeErr, ok := err.(*tunables.RangeError); ok {
			return "ERR 400 " + rangeErr.Error()
		}
		return fmt.Sprintf("ERR PARSE %v", err)
	}

	if p.iniPath != "" {
		if err := p.table.Save(p.iniPath); err != nil {
			return fmt.Sprintf("ERR PARSE applied but failed to persist: %v", err)
		}
	}

	return fmt.Sprintf("OK %s=%.3f", param, value)
}

func (p *Parser) allow(now time.Time) bool {
	cutoff := now.Add(-p.windowSize)
	kept := p.recent[:0]
	for _, t := range p.recent {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	p.recent = kept
	if len(p.recent) >= p.maxPerSec {
		return false
	}
	p.recent = append(p.recent, now)
	return true
}
