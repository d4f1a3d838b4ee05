package agents

// DefaultHistoryCapacity is the number of messages a consumer can see.
const DefaultHistoryCapacity = 8

// History is a fixed-capacity ring of messages. Pushing onto a full ring
// evicts the oldest entry. It is not safe for concurrent use; the Scheduler
// serializes access.
type History struct {
	buf  []Message
	next int
	size int
}

// NewHistory creates a ring holding at most capacity messages.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{buf: make([]Message, capacity)}
}

// Push records m as the most recent message.
func (h *History) Push(m Message) {
	h.buf[h.next] = m
	h.next = (h.next + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

// Len returns the number of stored messages.
func (h *History) Len() int { return h.size }

// Cap returns the ring capacity.
func (h *History) Cap() int { return len(h.buf) }

// Recent returns a copy of the stored messages, most recent first.
func (h *History) Recent() []Message {
	out := make([]Message, h.size)
	for i := range out {
		idx := (h.next - 1 - i + len(h.buf)) % len(h.buf)
		out[i] = h.buf[idx]
	}
	return out
}
