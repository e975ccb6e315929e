// Package audio provides the file-level audio plumbing for the evaluation
// harness: decoding benchmark recordings (WAV, MP3) into normalised mono
// sample buffers, resampling them to whatever rate a model requires, and
// re-encoding them as WAV for upload to inference servers.
//
// All clips are represented as mono float32 samples in [-1.0, 1.0]. Models
// that are rate-sensitive (e.g. CTC models trained on 16 kHz speech) call
// [Resample] before encoding; models whose serving layer resamples internally
// receive the clip at its native rate.
package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrMalformed is returned when an audio container cannot be parsed.
var ErrMalformed = errors.New("audio: malformed file")

// Clip is a decoded audio recording: mono samples normalised to [-1, 1]
// at the given sample rate.
type Clip struct {
	Samples []float32
	Rate    int
}

// Duration returns the clip length in seconds.
func (c *Clip) Duration() float64 {
	if c.Rate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.Rate)
}

// Load decodes the audio file at path into a mono Clip. The container is
// chosen by file extension; multi-channel audio is down-mixed by averaging
// all channels per frame.
func Load(path string) (*Clip, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return loadWAV(path)
	case ".mp3":
		return loadMP3(path)
	default:
		return nil, fmt.Errorf("%w: unsupported extension %q", ErrMalformed, filepath.Ext(path))
	}
}

// pcm16ToFloat32Mono down-mixes interleaved 16-bit little-endian PCM to mono
// float32 by averaging all channels per frame.
func pcm16ToFloat32Mono(pcm []byte, channels int) []float32 {
	if channels < 1 {
		channels = 1
	}
	frames := len(pcm) / (2 * channels)
	mono := make([]float32, frames)
	for i := range frames {
		var sum float32
		for ch := range channels {
			idx := (i*channels + ch) * 2
			sample := int16(uint16(pcm[idx]) | uint16(pcm[idx+1])<<8)
			sum += float32(sample) / 32768.0
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}
