package session

import (
	"fmt"
	"sync"
	"testing"

	"immigrationiq/internal/domain"
)

func TestGetOrCreateEmpty(t *testing.T) {
	s := NewMemoryStore()

	history := s.GetOrCreate("s1")
	if len(history) != 0 {
		t.Errorf("expected empty history, got %d messages", len(history))
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 session, got %d", s.Count())
	}
}

func TestRecordTurnOrdering(t *testing.T) {
	s := NewMemoryStore()

	s.RecordTurn("s1", "I am on H1B", "Noted.")
	n := s.RecordTurn("s1", "I want a green card through marriage", "You may file I-130 and I-485.")
	if n != 4 {
		t.Errorf("expected 4 messages after two turns, got %d", n)
	}

	history := s.Read("s1")
	wantRoles := []domain.Role{domain.RoleHuman, domain.RoleAssistant, domain.RoleHuman, domain.RoleAssistant}
	if len(history) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(history))
	}
	for i, m := range history {
		if m.Role != wantRoles[i] {
			t.Errorf("message %d: expected role %s, got %s", i, wantRoles[i], m.Role)
		}
	}
	if history[2].Content != "I want a green card through marriage" {
		t.Errorf("second turn's human message altered: %q", history[2].Content)
	}
}

func TestReadUnknownSession(t *testing.T) {
	s := NewMemoryStore()

	history := s.Read("never-seen")
	if history == nil || len(history) != 0 {
		t.Errorf("expected empty list for unknown id, got %v", history)
	}
	if s.Count() != 0 {
		t.Error("Read must not create sessions")
	}
}

func TestClear(t *testing.T) {
	s := NewMemoryStore()

	s.RecordTurn("s1", "hello", "hi")
	s.Clear("s1")
	if len(s.Read("s1")) != 0 {
		t.Error("expected empty history after clear")
	}

	// Clearing an unknown id is a no-op, not an error.
	s.Clear("never-seen")

	history := s.GetOrCreate("s1")
	if len(history) != 0 {
		t.Error("expected fresh session after clear")
	}
}

func TestConcurrentDistinctSessions(t *testing.T) {
	s := NewMemoryStore()

	const n = 1000
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", i)
			s.GetOrCreate(id)
			s.RecordTurn(id, "question", "answer")
		}(i)
	}
	wg.Wait()

	if s.Count() != n {
		t.Fatalf("expected %d sessions, got %d", n, s.Count())
	}
	for i := 0; i < n; i++ {
		history := s.Read(fmt.Sprintf("session-%d", i))
		if len(history) != 2 {
			t.Fatalf("session %d: expected exactly one turn, got %d messages", i, len(history))
		}
	}
}

func TestConcurrentSameSessionTurns(t *testing.T) {
	s := NewMemoryStore()

	const turns = 200
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RecordTurn("shared", "q", "a")
		}()
	}
	wg.Wait()

	history := s.Read("shared")
	if len(history) != 2*turns {
		t.Fatalf("expected %d messages, got %d", 2*turns, len(history))
	}
	// Appends must never interleave: even positions human, odd assistant.
	for i, m := range history {
		want := domain.RoleHuman
		if i%2 == 1 {
			want = domain.RoleAssistant
		}
		if m.Role != want {
			t.Fatalf("message %d: interleaved turn detected (role %s)", i, m.Role)
		}
	}
}

func TestSessionIsolation(t *testing.T) {
	s := NewMemoryStore()

	s.RecordTurn("a", "question about I-485", "answer a")
	s.RecordTurn("b", "question about N-400", "answer b")

	for _, m := range s.Read("a") {
		if m.Content == "question about N-400" {
			t.Error("session a observed session b's message")
		}
	}
}
