// Package consent persists the widget's one-time user opt-in. A store
// holds a single boolean flag per storage key; nothing else about a
// conversation is ever persisted.
package consent

import "context"

// Decision is a stored consent choice. Undecided means no value has
// been stored yet, which is distinct from an explicit decline.
type Decision int

const (
	Undecided Decision = iota
	Granted
	Declined
)

func (d Decision) String() string {
	switch d {
	case Granted:
		return "granted"
	case Declined:
		return "declined"
	default:
		return "undecided"
	}
}

// Store persists a single boolean consent flag under a storage key.
type Store interface {
	// Get returns the stored decision for key, Undecided when none
	// exists.
	Get(ctx context.Context, key string) (Decision, error)
	// Set records a decision for key.
	Set(ctx context.Context, key string, granted bool) error
	// Clear removes any stored decision for key. Clearing an absent key
	// is a no-op.
	Clear(ctx context.Context, key string) error
}

func decisionOf(granted bool) Decision {
	if granted {
		return Granted
	}
	return Declined
}
