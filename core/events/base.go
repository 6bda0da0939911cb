package events

import "time"

// Kind is the namespaced name of an event, e.g. "turn_state.completed".
type Kind string

func (k Kind) String() string { return string(k) }

type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the fields shared by every event. Embed it and construct with
// [NewBase].
type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

// Timestamp is the local receive time, not a remote clock.
func (b Base) Timestamp() time.Time {
	return b.timestamp
}

// IsTerminal reports whether event ends its connection. Nothing follows a
// terminal event on the same connection.
func IsTerminal(event Event) bool {
	switch event.Kind() {
	case KindClosed, KindError:
		return true
	default:
		return false
	}
}
