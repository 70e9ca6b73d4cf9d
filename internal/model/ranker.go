package model

import (
	"container/heap"
	"math"
	"slices"
)

type candidate struct {
	index      int
	confidence float32
}

// before reports whether a ranks ahead of b: higher confidence first, lower
// class index on ties.
func (a candidate) before(b candidate) bool {
	if a.confidence != b.confidence {
		return a.confidence > b.confidence
	}
	return a.index < b.index
}

// topK is a min-heap whose root is the weakest kept candidate.
type topK []candidate

func (h topK) Len() int           { return len(h) }
func (h topK) Less(i, j int) bool { return h[j].before(h[i]) }
func (h topK) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *topK) Push(x any)        { *h = append(*h, x.(candidate)) }
func (h *topK) Pop() any {
	old := *h
	c := old[len(old)-1]
	*h = old[:len(old)-1]
	return c
}

// Rank returns at most cfg.MaxResults recognitions whose confidence is
// strictly above cfg.ConfidenceThreshold, best first. Non-finite scores are
// dropped. It keeps no state.
func Rank(scores RawScores, labels LabelList, cfg ClassifierConfig) []Recognition {
	cd, err := scores.Mode.codec()
	if err != nil || cfg.MaxResults <= 0 {
		return []Recognition{}
	}

	h := make(topK, 0, cfg.MaxResults)
	for i := 0; i < scores.Len(); i++ {
		c := candidate{index: i, confidence: cd.confidence(scores, i)}
		if !finite(c.confidence) || c.confidence <= cfg.ConfidenceThreshold {
			continue
		}
		if h.Len() < cfg.MaxResults {
			heap.Push(&h, c)
			continue
		}
		if c.before(h[0]) {
			h[0] = c
			heap.Fix(&h, 0)
		}
	}

	slices.SortFunc(h, func(a, b candidate) int {
		if a.before(b) {
			return -1
		}
		if b.before(a) {
			return 1
		}
		return 0
	})

	results := make([]Recognition, 0, len(h))
	for _, c := range h {
		results = append(results, newRecognition(c.index, labels.Name(c.index), c.confidence, scores.Mode))
	}
	return results
}

// finite rejects NaN and infinite scores, which have no place in the order.
func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
