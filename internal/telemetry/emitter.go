package telemetry

import (
	"fmt"
	"net"
	"sync"
)

// record is anything formattable to one telemetry line.
type record interface {
	Format() string
}

// channelOf extracts the leading channel tag from a formatted record,
// e.g. "TICK" from "TICK,12:00:00.000,...".
func channelOf(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == ',' {
			return line[:i]
		}
	}
	return line
}

// Sink receives every emitted telemetry line, already filtered by enabled
// channel.
type Sink interface {
	Write(line string)
}

// Emitter fans a record out to every attached Sink, honoring a
// per-channel enable/disable toggle. All six channels are enabled by
// default.
type Emitter struct {
	mu       sync.RWMutex
	enabled  map[string]bool
	sinks    []Sink
}

var allChannels = []string{"CHAN", "TICK", "MARK", "SYNC", "SUBC", "BCDS"}

// NewEmitter creates an emitter with every channel enabled.
func NewEmitter(sinks ...Sink) *Emitter {
	e := &Emitter{enabled: make(map[string]bool), sinks: sinks}
	for _, c := range allChannels {
		e.enabled[c] = true
	}
	return e
}

// EnableChannel turns a telemetry channel on. Implements control.TelemetryToggle.
func (e *Emitter) EnableChannel(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled[name] = true
}

// DisableChannel turns a telemetry channel off. Implements control.TelemetryToggle.
func (e *Emitter) DisableChannel(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.enabled[name] = false
}

// Emit formats and distributes one record to every attached sink, unless
// its channel has been disabled.
func (e *Emitter) Emit(r record) {
	line := r.Format()
	e.mu.RLock()
	on := e.enabled[channelOf(line)]
	e.mu.RUnlock()
	if !on {
		return
	}
	for _, s := range e.sinks {
		s.Write(line)
	}
}

// UDPSink writes each telemetry line as one UDP datagram to a fixed
// remote address, resolved once at construction and sent under a mutex
// so concurrent emitters don't interleave partial writes.
type UDPSink struct {
	conn      *net.UDPConn
	sendMutex sync.Mutex
}

// NewUDPSink resolves host:port once and dials a UDP socket to it.
func NewUDPSink(host string, port int) (*UDPSink, error) {
	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("telemetry: resolve %s:%d: %w", host, port, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("telemetry: dial %s:%d: %w", host, port, err)
	}
	return &UDPSink{conn: conn}, nil
}

// Write sends one line as a single datagram. Errors are swallowed: UDP
// telemetry is best-effort and must never stall the ingest loop.
func (s *UDPSink) Write(line string) {
	s.sendMutex.Lock()
	defer s.sendMutex.Unlock()
	s.conn.Write([]byte(line + "\n"))
}

// Close releases the underlying socket.
func (s *UDPSink) Close() error {
	return s.conn.Close()
}
