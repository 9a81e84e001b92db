package order

import (
	"context"
	"sync"
)

// Sequencer orders concurrent fetches per key. Starting a new fetch cancels
// the previous one for the same key, and only the latest ticket may apply its
// result.
type Sequencer struct {
	mu      sync.Mutex
	next    uint64
	streams map[string]*stream
}

type stream struct {
	seq    uint64
	cancel context.CancelFunc
}

// Ticket identifies one fetch started through a Sequencer.
type Ticket struct {
	s      *Sequencer
	key    string
	seq    uint64
	cancel context.CancelFunc
}

// NewSequencer builds an empty Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{streams: make(map[string]*stream)}
}

// Begin starts a fetch for key. The returned context is canceled when a newer
// fetch begins for the same key or when the ticket is done.
func (s *Sequencer) Begin(ctx context.Context, key string) (context.Context, Ticket) {
	runCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.streams[key]
	if !ok {
		st = &stream{}
		s.streams[key] = st
	}
	if st.cancel != nil {
		st.cancel()
	}
	// sequence numbers are global so a dropped key never reuses one
	s.next++
	st.seq = s.next
	st.cancel = cancel

	return runCtx, Ticket{s: s, key: key, seq: st.seq, cancel: cancel}
}

// Current reports whether no newer fetch has begun for the ticket's key.
func (t Ticket) Current() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	st, ok := t.s.streams[t.key]
	return ok && st.seq == t.seq
}

// Done releases the ticket's context. The latest ticket also drops the key.
func (t Ticket) Done() {
	t.cancel()

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if st, ok := t.s.streams[t.key]; ok && st.seq == t.seq {
		delete(t.s.streams, t.key)
	}
}

// Guard rejects a second concurrent run of the same action.
type Guard struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// NewGuard builds an empty Guard.
func NewGuard() *Guard {
	return &Guard{busy: make(map[string]struct{})}
}

// Acquire marks key busy. ok is false when key is already held; otherwise
// release must be called when the action finishes.
func (g *Guard) Acquire(key string) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.busy[key]; held {
		return func() {}, false
	}
	g.busy[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.busy, key)
			g.mu.Unlock()
		})
	}, true
}
