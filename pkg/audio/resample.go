package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts c to the target sample rate using a high-quality pure-Go
// resampler. When the clip is already at targetRate it is returned unchanged.
func Resample(c *Clip, targetRate int) (*Clip, error) {
	if targetRate <= 0 {
		return nil, fmt.Errorf("audio: invalid target rate %d", targetRate)
	}
	if c.Rate == targetRate {
		return c, nil
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(c.Rate),
		OutputRate: float64(targetRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("audio: create resampler %d→%d Hz: %w", c.Rate, targetRate, err)
	}

	input := make([]float64, len(c.Samples))
	for i, s := range c.Samples {
		input[i] = float64(s)
	}

	output, err := rs.Process(input)
	if err != nil {
		return nil, fmt.Errorf("audio: resample %d→%d Hz: %w", c.Rate, targetRate, err)
	}

	out := make([]float32, len(output))
	for i, s := range output {
		switch {
		case s > 1.0:
			s = 1.0
		case s < -1.0:
			s = -1.0
		}
		out[i] = float32(s)
	}
	return &Clip{Samples: out, Rate: targetRate}, nil
}
