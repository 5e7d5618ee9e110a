package usecase

import (
	"immigrationiq/internal/domain"
	"immigrationiq/internal/port"
)

// RetrieveUseCase answers "show me the passages" queries directly,
// without any generation on top.
type RetrieveUseCase struct {
	retriever port.Retriever
	defaultK  int
}

func NewRetrieveUseCase(retriever port.Retriever, defaultK int) *RetrieveUseCase {
	if defaultK <= 0 {
		defaultK = 4
	}
	return &RetrieveUseCase{
		retriever: retriever,
		defaultK:  defaultK,
	}
}

func (u *RetrieveUseCase) Retrieve(query string, k int, formFilter string) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		k = u.defaultK
	}
	return u.retriever.Retrieve(query, k, formFilter)
}
