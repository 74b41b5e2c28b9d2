package audit

import (
	"context"
	"strings"
	"sync"
)

// MemorySink is an in-memory Sink for tests and for running without a
// persistent audit store.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (m *MemorySink) Emit(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

// Events returns a copy of everything emitted so far, in emission order.
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// ByAction filters the captured events by exact action tag.
func (m *MemorySink) ByAction(action string) []Event {
	var out []Event
	for _, e := range m.Events() {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// Contains reports whether any captured event's detail holds the substring.
func (m *MemorySink) Contains(action, detail string) bool {
	for _, e := range m.ByAction(action) {
		if strings.Contains(e.Detail, detail) {
			return true
		}
	}
	return false
}
