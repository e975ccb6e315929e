package metric

import (
	"context"

	"github.com/antzucaro/matchr"
)

// Compile-time assertion that JaroWinkler implements Metric.
var _ Metric = (*JaroWinkler)(nil)

// JaroWinkler is a character-level similarity between the normalised texts.
// It rewards shared prefixes, which suits lyrics where models tend to get
// the opening lines right and drift later. Scores lie in [0, 1].
type JaroWinkler struct{}

// NewJaroWinkler returns the Jaro-Winkler similarity metric.
func NewJaroWinkler() *JaroWinkler { return &JaroWinkler{} }

// Direction implements Metric.
func (*JaroWinkler) Direction() Direction { return HigherIsBetter }

// Compute implements Metric.
func (*JaroWinkler) Compute(_ context.Context, reference, hypothesis string) (float64, error) {
	ref := normalize(reference)
	hyp := normalize(hypothesis)
	if ref == "" && hyp == "" {
		return 1, nil
	}
	return matchr.JaroWinkler(ref, hyp, false), nil
}
