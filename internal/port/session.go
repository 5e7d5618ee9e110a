package port

import "immigrationiq/internal/domain"

// SessionStore owns per-session conversation history. Session ids are
// opaque and client-chosen. Implementations must guarantee that
// concurrent first references to the same id create exactly one
// session, and that turns on the same session serialize while turns on
// distinct sessions proceed in parallel.
type SessionStore interface {
	// GetOrCreate returns the history for id, creating an empty
	// session on first reference.
	GetOrCreate(id string) []domain.Message

	// RecordTurn appends one human and one assistant message, in that
	// order, atomically with respect to other turns on the same
	// session. Returns the session's message count after the append.
	RecordTurn(id, humanText, assistantText string) int

	// Read returns the ordered message list, or an empty list for an
	// unknown id.
	Read(id string) []domain.Message

	// Clear removes the session entirely. Unknown ids are a no-op.
	Clear(id string)
}
