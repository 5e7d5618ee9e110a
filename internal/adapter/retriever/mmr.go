package retriever

import "immigrationiq/internal/port"

// MMRSelector implements maximal marginal relevance over embedding
// vectors: MMR(c) = λ·relevance(c) − (1−λ)·max_similarity(c, selected).
// Because stored vectors are unit-normalized, pairwise similarity is a
// dot product.
type MMRSelector struct {
	lambda float64
}

func NewMMRSelector(lambda float64) *MMRSelector {
	if lambda <= 0 || lambda > 1 {
		lambda = 0.7
	}
	return &MMRSelector{lambda: lambda}
}

// Select picks k candidates best-first, trading raw relevance against
// redundancy with previously chosen passages.
func (m *MMRSelector) Select(candidates []port.SearchResult, k int) []port.SearchResult {
	if len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	// Normalize relevance to [0, 1] so λ weighs comparable quantities.
	maxScore := candidates[0].Score
	for _, c := range candidates {
		if c.Score > maxScore {
			maxScore = c.Score
		}
	}
	if maxScore == 0 {
		maxScore = 1
	}

	selected := make([]port.SearchResult, 0, k)
	remaining := make([]port.SearchResult, len(candidates))
	copy(remaining, candidates)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestMMR := -1e9

		for i, candidate := range remaining {
			relevance := candidate.Score / maxScore

			maxSim := 0.0
			for _, sel := range selected {
				sim := dot(candidate.Vector, sel.Vector)
				if sim > maxSim {
					maxSim = sim
				}
			}

			mmr := m.lambda*relevance - (1-m.lambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			break
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

func dot(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
