// Package metric defines the benchmark metrics and the registry that resolves
// configured metric names to singleton instances.
//
// A metric compares a reference lyric text against a model's transcription
// and yields a score. Each metric declares a [Direction] so that callers can
// reduce the scores of several reference versions to the single best one
// without knowing what the metric measures.
package metric

import (
	"context"
	"math"
	"strings"
	"unicode"
)

// Direction states whether lower or higher scores are better for a metric.
type Direction int

const (
	// LowerIsBetter marks error-style metrics such as word error rate.
	LowerIsBetter Direction = iota

	// HigherIsBetter marks similarity-style metrics.
	HigherIsBetter
)

// Best reduces a set of scores to the most favourable one for this
// direction. Best of an empty slice is NaN.
func (d Direction) Best(scores []float64) float64 {
	if len(scores) == 0 {
		return math.NaN()
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if d == LowerIsBetter && s < best {
			best = s
		}
		if d == HigherIsBetter && s > best {
			best = s
		}
	}
	return best
}

// Metric scores a hypothesis transcription against a reference lyric text.
type Metric interface {
	// Compute returns the score of hypothesis against reference.
	Compute(ctx context.Context, reference, hypothesis string) (float64, error)

	// Direction reports which end of the scale is better.
	Direction() Direction
}

// normalize lower-cases text, strips punctuation and collapses whitespace.
// All text metrics share it so that formatting noise in either the reference
// files or the model output does not show up as errors.
func normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
		case r == '\'':
			// Keep apostrophes: "don't" and "dont" should not differ by a word.
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenize returns the normalised word tokens of text.
func tokenize(text string) []string {
	norm := normalize(text)
	if norm == "" {
		return nil
	}
	return strings.Split(norm, " ")
}
