package session

import (
	"sync"

	"immigrationiq/internal/domain"
)

// MemoryStore keeps per-session conversation history in process memory.
// History does not survive a restart; that is a stated limitation of
// the design, not a bug. The registry mutex only guards session
// creation and lookup, so turns on distinct sessions proceed fully in
// parallel, while a per-session mutex serializes turns on the same
// session so an append is never interleaved.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*state
}

type state struct {
	mu       sync.Mutex
	messages []domain.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*state),
	}
}

// get-or-insert under the registry lock; concurrent first references
// to the same id observe exactly one session.
func (s *MemoryStore) session(id string, create bool) *state {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.sessions[id]
	if !ok && create {
		st = &state{}
		s.sessions[id] = st
	}
	return st
}

// GetOrCreate returns a copy of the history for id, creating an empty
// session on first reference.
func (s *MemoryStore) GetOrCreate(id string) []domain.Message {
	st := s.session(id, true)

	st.mu.Lock()
	defer st.mu.Unlock()
	return copyMessages(st.messages)
}

// RecordTurn appends the human message then the assistant message
// atomically and returns the new message count.
func (s *MemoryStore) RecordTurn(id, humanText, assistantText string) int {
	st := s.session(id, true)

	st.mu.Lock()
	defer st.mu.Unlock()
	st.messages = append(st.messages,
		domain.Message{Role: domain.RoleHuman, Content: humanText},
		domain.Message{Role: domain.RoleAssistant, Content: assistantText},
	)
	return len(st.messages)
}

// Read returns the ordered message list, or an empty list for an
// unknown id. No conversation yet is not an error.
func (s *MemoryStore) Read(id string) []domain.Message {
	st := s.session(id, false)
	if st == nil {
		return []domain.Message{}
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	return copyMessages(st.messages)
}

// Clear removes the session entirely; a later GetOrCreate starts
// fresh. Clearing an unknown id is a no-op.
func (s *MemoryStore) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Count returns the number of live sessions.
func (s *MemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func copyMessages(msgs []domain.Message) []domain.Message {
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out
}
