package metric

import "context"

// Compile-time assertion that ROUGE implements Metric.
var _ Metric = (*ROUGE)(nil)

// ROUGE is the ROUGE-L F1 score: precision and recall of the longest common
// word subsequence between reference and hypothesis. Scores lie in [0, 1].
type ROUGE struct{}

// NewROUGE returns the ROUGE-L metric.
func NewROUGE() *ROUGE { return &ROUGE{} }

// Direction implements Metric.
func (*ROUGE) Direction() Direction { return HigherIsBetter }

// Compute implements Metric.
func (*ROUGE) Compute(_ context.Context, reference, hypothesis string) (float64, error) {
	ref := tokenize(reference)
	hyp := tokenize(hypothesis)
	if len(ref) == 0 && len(hyp) == 0 {
		return 1, nil
	}
	if len(ref) == 0 || len(hyp) == 0 {
		return 0, nil
	}

	lcs := lcsLength(ref, hyp)
	if lcs == 0 {
		return 0, nil
	}
	precision := float64(lcs) / float64(len(hyp))
	recall := float64(lcs) / float64(len(ref))
	return 2 * precision * recall / (precision + recall), nil
}

// lcsLength computes the longest common subsequence length with two rows.
func lcsLength(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
		for j := range curr {
			curr[j] = 0
		}
	}
	return prev[len(b)]
}
