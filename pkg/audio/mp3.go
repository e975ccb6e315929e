package audio

import (
	"fmt"
	"io"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// loadMP3 decodes an MP3 file into a mono Clip. go-mp3 always emits 16-bit
// stereo PCM at the stream's sample rate, so the two channels are averaged.
func loadMP3(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audio: open %q: %w", path, err)
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrMalformed, path, err)
	}

	pcm, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: decode: %v", ErrMalformed, path, err)
	}

	return &Clip{Samples: pcm16ToFloat32Mono(pcm, 2), Rate: dec.SampleRate()}, nil
}
