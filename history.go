package widget

// History is the ordered, append-only conversation log shared by both
// interaction channels. Append order equals event-arrival order; no
// reordering ever happens. The history is owned exclusively by the
// widget controller, which serializes all mutation — the type itself
// carries no lock.
type History struct {
	messages []Message
}

// Append adds a message to the end of the log.
func (h *History) Append(msg Message) {
	h.messages = append(h.messages, msg)
}

// Clear drops all messages.
func (h *History) Clear() {
	h.messages = nil
}

// Len returns the number of messages in the log.
func (h *History) Len() int {
	return len(h.messages)
}

// Snapshot returns a copy of the log in insertion order. The returned
// slice is safe to hold across later appends.
func (h *History) Snapshot() []Message {
	if len(h.messages) == 0 {
		return []Message{}
	}
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}
