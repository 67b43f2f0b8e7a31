package netwrk

import "sync"

// Outgoing buffers tokens until the next send tick. Input handling and
// automatic protocol replies push; only the sender drains.
type Outgoing struct {
	mu     sync.Mutex
	tokens []string
}

func (q *Outgoing) Push(tokens ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tokens = append(q.tokens, tokens...)
}

// Drain takes every queued token in insertion order. Tokens pushed after the
// swap are kept for the next Drain.
func (q *Outgoing) Drain() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	tokens := q.tokens
	q.tokens = nil
	return tokens
}

func (q *Outgoing) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tokens)
}

// Reset drops anything left over from a previous session.
func (q *Outgoing) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tokens = nil
}
