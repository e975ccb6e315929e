package metric

import "context"

// Compile-time assertion that WER implements Metric.
var _ Metric = (*WER)(nil)

// WER is the word error rate: the word-level edit distance between reference
// and hypothesis divided by the reference length. 0 is a perfect match;
// values above 1 are possible when the hypothesis is much longer than the
// reference.
type WER struct{}

// NewWER returns the word error rate metric.
func NewWER() *WER { return &WER{} }

// Direction implements Metric.
func (*WER) Direction() Direction { return LowerIsBetter }

// Compute implements Metric. An empty reference scores 0 against an empty
// hypothesis; against a non-empty one every hypothesis word counts as an
// insertion.
func (*WER) Compute(_ context.Context, reference, hypothesis string) (float64, error) {
	ref := tokenize(reference)
	hyp := tokenize(hypothesis)
	if len(ref) == 0 && len(hyp) == 0 {
		return 0, nil
	}

	dist := levenshtein(ref, hyp)
	denom := len(ref)
	if denom == 0 {
		denom = 1
	}
	return float64(dist) / float64(denom), nil
}

// levenshtein computes the word-level edit distance with unit costs, using
// two rows instead of the full matrix.
func levenshtein(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j-1]+cost, min(prev[j]+1, curr[j-1]+1))
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
