package llm

import (
	"context"
	"sync"

	"immigrationiq/internal/domain"
)

// MockLLM replays scripted responses in order, repeating the last one
// once the script is exhausted. Calls record the prompts they received.
type MockLLM struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int

	Prompts   []string
	Histories [][]domain.Message
}

func NewMockLLM(responses ...string) *MockLLM {
	return &MockLLM{responses: responses}
}

// Fail makes the next len(errs) calls return the given errors before
// the scripted responses resume.
func (m *MockLLM) Fail(errs ...error) *MockLLM {
	m.errs = errs
	return m
}

func (m *MockLLM) Complete(ctx context.Context, system string, history []domain.Message, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)
	m.Histories = append(m.Histories, append([]domain.Message(nil), history...))

	call := m.calls
	m.calls++

	if call < len(m.errs) {
		return "", m.errs[call]
	}
	idx := call - len(m.errs)
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	if idx < 0 {
		return "", nil
	}
	return m.responses[idx], nil
}

func (m *MockLLM) ModelName() string {
	return "mock"
}

// Calls returns how many times Complete was invoked.
func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
