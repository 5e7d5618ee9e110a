package usecase

import (
	"context"
	"fmt"
	"strings"

	"immigrationiq/internal/domain"
	"immigrationiq/internal/port"
)

const chatSystemPrompt = `You are ImmigrationIQ, an AI assistant that helps people understand US immigration forms and processes. You are currently in a multi-turn conversation.

IMPORTANT RULES:
- Answer based on what the user has told you in this conversation and on the provided excerpts from official USCIS form instructions.
- Remember all details the user shares (visa type, family situation, goals).
- Never give legal advice. Explain processes and forms only. If the user asks for legal advice and you are confident about the answer, give a general response but always include a disclaimer that they should consult an attorney for legal advice specific to their situation.
- If you don't know something, say so clearly.
- When you use a provided excerpt, cite it by its source label, e.g. (USCIS Form I-485 Instructions, Page 3).
- Always add a citation for each USCIS form you reference, e.g. "I-485 (https://www.uscis.gov/i-485)".
- Always end with: "This is for educational purposes only. Consult an immigration attorney for legal advice specific to your situation."`

// TurnResult is what one completed conversation turn hands back to the
// caller: the assistant's reply, how long the session history now is,
// and which passages grounded the answer.
type TurnResult struct {
	Message   string
	TurnCount int
	Sources   []string
}

// ChatUseCase runs retrieval-grounded conversation turns against a
// session's history. History records only the user's own words, never
// the augmented prompt, so replays stay readable.
type ChatUseCase struct {
	sessions  port.SessionStore
	llm       port.LLM
	retriever port.Retriever
	retrieveK int
}

func NewChatUseCase(sessions port.SessionStore, llm port.LLM, retriever port.Retriever, retrieveK int) *ChatUseCase {
	if retrieveK <= 0 {
		retrieveK = 4
	}
	return &ChatUseCase{
		sessions:  sessions,
		llm:       llm,
		retriever: retriever,
		retrieveK: retrieveK,
	}
}

// Turn processes one user message in the given session. The turn is
// recorded only after the model answers; a failed or canceled turn
// leaves the session history untouched.
func (u *ChatUseCase) Turn(ctx context.Context, sessionID, userText string) (*TurnResult, error) {
	history := u.sessions.GetOrCreate(sessionID)

	passages, sources := u.lookup(userText)
	prompt := buildChatPrompt(userText, passages)

	reply, err := u.llm.Complete(ctx, chatSystemPrompt, history, prompt)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	count := u.sessions.RecordTurn(sessionID, userText, reply)
	return &TurnResult{
		Message:   reply,
		TurnCount: count,
		Sources:   sources,
	}, nil
}

// History returns the recorded messages for a session.
func (u *ChatUseCase) History(sessionID string) []domain.Message {
	return u.sessions.Read(sessionID)
}

// Clear forgets a session entirely.
func (u *ChatUseCase) Clear(sessionID string) {
	u.sessions.Clear(sessionID)
}

// lookup fetches supporting passages for the user's message. Retrieval
// problems degrade the turn to an ungrounded answer instead of failing
// it; an unbuilt index must not make chat unusable.
func (u *ChatUseCase) lookup(userText string) ([]domain.ScoredChunk, []string) {
	passages, err := u.retriever.Retrieve(userText, u.retrieveK, "")
	if err != nil || len(passages) == 0 {
		return nil, nil
	}

	sources := make([]string, 0, len(passages))
	seen := make(map[string]bool)
	for _, p := range passages {
		if !seen[p.Chunk.SourceLabel] {
			seen[p.Chunk.SourceLabel] = true
			sources = append(sources, p.Chunk.SourceLabel)
		}
	}
	return passages, sources
}

func buildChatPrompt(userText string, passages []domain.ScoredChunk) string {
	var sb strings.Builder
	if len(passages) == 0 {
		sb.WriteString("No supporting passages were found in the indexed USCIS instructions for this message. Answer from the conversation alone and say when you are unsure.\n\n")
	} else {
		sb.WriteString("Relevant excerpts from official USCIS form instructions:\n\n")
		for _, p := range passages {
			fmt.Fprintf(&sb, "[%s]\n%s\n\n", p.Chunk.SourceLabel, p.Chunk.Text)
		}
	}
	sb.WriteString("User message: ")
	sb.WriteString(userText)
	return sb.String()
}
