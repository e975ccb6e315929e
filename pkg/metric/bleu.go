package metric

import (
	"context"
	"math"
	"strings"
)

// bleuMaxOrder is the highest n-gram order scored.
const bleuMaxOrder = 4

// Compile-time assertion that BLEU implements Metric.
var _ Metric = (*BLEU)(nil)

// BLEU is a smoothed sentence-level BLEU score over n-grams up to order 4,
// with the standard brevity penalty. Scores lie in [0, 1]; identical texts
// score 1.
type BLEU struct{}

// NewBLEU returns the BLEU metric.
func NewBLEU() *BLEU { return &BLEU{} }

// Direction implements Metric.
func (*BLEU) Direction() Direction { return HigherIsBetter }

// Compute implements Metric.
func (*BLEU) Compute(_ context.Context, reference, hypothesis string) (float64, error) {
	ref := tokenize(reference)
	hyp := tokenize(hypothesis)
	if len(hyp) == 0 {
		if len(ref) == 0 {
			return 1, nil
		}
		return 0, nil
	}
	if len(ref) == 0 {
		return 0, nil
	}

	// Short sentences cannot produce high-order n-grams; cap the order so a
	// two-word hypothesis is not punished for having no 4-grams at all.
	maxOrder := bleuMaxOrder
	if len(hyp) < maxOrder {
		maxOrder = len(hyp)
	}

	logSum := 0.0
	for n := 1; n <= maxOrder; n++ {
		matched, total := ngramOverlap(ref, hyp, n)
		var precision float64
		if n == 1 {
			if matched == 0 {
				return 0, nil
			}
			precision = float64(matched) / float64(total)
		} else {
			// Add-one smoothing keeps a single missing n-gram from zeroing
			// the whole score.
			precision = float64(matched+1) / float64(total+1)
		}
		logSum += math.Log(precision)
	}
	geoMean := math.Exp(logSum / float64(maxOrder))

	brevity := 1.0
	if len(hyp) < len(ref) {
		brevity = math.Exp(1 - float64(len(ref))/float64(len(hyp)))
	}
	return brevity * geoMean, nil
}

// ngramOverlap returns the clipped n-gram match count and the number of
// hypothesis n-grams.
func ngramOverlap(ref, hyp []string, n int) (matched, total int) {
	refCounts := countNgrams(ref, n)
	for gram, count := range countNgrams(hyp, n) {
		total += count
		if rc := refCounts[gram]; rc < count {
			matched += rc
		} else {
			matched += count
		}
	}
	return matched, total
}

func countNgrams(tokens []string, n int) map[string]int {
	counts := make(map[string]int)
	for i := 0; i+n <= len(tokens); i++ {
		counts[strings.Join(tokens[i:i+n], " ")]++
	}
	return counts
}
