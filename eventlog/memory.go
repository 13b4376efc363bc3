package eventlog

import (
	"errors"
	"sync"

	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

// ErrClosed is returned by Append after the log has been closed.
var ErrClosed = errors.New("event log closed")

// MemoryLog is an in-memory event log. It satisfies interfaces.EventLog and
// is intended for tests and ephemeral deployments.
type MemoryLog struct {
	mu     sync.RWMutex
	events []interfaces.Event
	closed bool
}

// NewMemoryLog creates an empty in-memory log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

// Append stores the event and returns its sequence number, starting at 1.
func (m *MemoryLog) Append(ev interfaces.Event) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosed
	}

	ev.Seq = uint64(len(m.events)) + 1
	m.events = append(m.events, ev)
	return ev.Seq, nil
}

// EventsSince returns all events with Seq >= from, in sequence order.
func (m *MemoryLog) EventsSince(from uint64) ([]interfaces.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if from <= 1 {
		out := make([]interfaces.Event, len(m.events))
		copy(out, m.events)
		return out, nil
	}
	if from > uint64(len(m.events)) {
		return nil, nil
	}

	tail := m.events[from-1:]
	out := make([]interfaces.Event, len(tail))
	copy(out, tail)
	return out, nil
}

// LastSeq returns the highest assigned sequence number.
func (m *MemoryLog) LastSeq() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return uint64(len(m.events))
}

// Close marks the log closed; further appends fail.
func (m *MemoryLog) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var _ interfaces.EventLog = (*MemoryLog)(nil)
