// Package thread holds conversation history in process memory. Threads are
// created implicitly on first use and live for the process lifetime.
package thread

import (
	"errors"
	"strings"
	"sync"

	contractx "github.com/thanarat/shopagent/agent/contract"
)

var ErrInvalidThreadID = errors.New("thread id is empty")

// Store maps thread ids to their histories. Acquire hands out a locked
// handle: a second query on the same thread waits until the first releases,
// so at most one query is in flight per thread.
type Store struct {
	mu           sync.Mutex
	threads      map[string]*threadState
	historyLimit int
}

type threadState struct {
	mu    sync.Mutex
	turns []contractx.Turn
}

// NewStore creates a Store. historyLimit caps stored turns per thread
// (0 = unbounded); trimming drops oldest turns at user-turn boundaries so a
// tool-call turn is never separated from its results.
func NewStore(historyLimit int) *Store {
	if historyLimit < 0 {
		historyLimit = 0
	}
	return &Store{
		threads:      make(map[string]*threadState, 16),
		historyLimit: historyLimit,
	}
}

// Handle is exclusive access to one thread's history between Acquire and
// Release.
type Handle struct {
	state    *threadState
	limit    int
	released bool
}

func (s *Store) Acquire(threadID string) (*Handle, error) {
	id := strings.TrimSpace(threadID)
	if id == "" {
		return nil, ErrInvalidThreadID
	}

	s.mu.Lock()
	st, ok := s.threads[id]
	if !ok {
		st = &threadState{}
		s.threads[id] = st
	}
	s.mu.Unlock()

	st.mu.Lock()
	return &Handle{state: st, limit: s.historyLimit}, nil
}

// Turns returns a copy of the current history.
func (h *Handle) Turns() []contractx.Turn {
	out := make([]contractx.Turn, len(h.state.turns))
	copy(out, h.state.turns)
	return out
}

// Commit replaces the thread history with the given turns, applying the
// stored-history cap. The agent loop commits only completed queries, so a
// failed upstream call never lands a partial turn here.
func (h *Handle) Commit(turns []contractx.Turn) {
	h.state.turns = TrimToUserBoundary(turns, h.limit)
}

func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.state.mu.Unlock()
}

// TrimToUserBoundary keeps at most limit turns, dropping oldest first and
// advancing to the next user turn so the window never opens mid tool
// exchange. limit 0 means unbounded.
func TrimToUserBoundary(turns []contractx.Turn, limit int) []contractx.Turn {
	if limit <= 0 || len(turns) <= limit {
		return turns
	}
	start := len(turns) - limit
	for start < len(turns) && turns[start].Role != contractx.RoleUser {
		start++
	}
	if start >= len(turns) {
		// No user turn inside the window; keep the tail as-is rather than
		// dropping everything.
		start = len(turns) - limit
	}
	return turns[start:]
}
