package audio

import (
	"encoding/binary"
	"fmt"
	"os"
)

// loadWAV parses a RIFF/WAVE file containing 16-bit signed little-endian PCM
// and returns it as a mono Clip. Non-PCM encodings (float, ADPCM, µ-law) are
// rejected with [ErrMalformed].
func loadWAV(path string) (*Clip, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("audio: read %q: %w", path, err)
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: %q is not a RIFF/WAVE file", ErrMalformed, path)
	}

	var (
		sampleRate int
		channels   int
		bits       int
		pcm        []byte
		haveFmt    bool
	)

	// Walk the chunk list. Chunks are word-aligned; a chunk with an odd size
	// is followed by one pad byte.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if size < 0 || body+size > len(data) {
			return nil, fmt.Errorf("%w: %q chunk %q overruns file", ErrMalformed, path, id)
		}
		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: %q fmt chunk too short", ErrMalformed, path)
			}
			format := binary.LittleEndian.Uint16(data[body : body+2])
			if format != 1 { // PCM
				return nil, fmt.Errorf("%w: %q has non-PCM format %d", ErrMalformed, path, format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			pcm = data[body : body+size]
		}
		off = body + size
		if size%2 == 1 {
			off++
		}
	}

	if !haveFmt || pcm == nil {
		return nil, fmt.Errorf("%w: %q is missing fmt or data chunk", ErrMalformed, path)
	}
	if bits != 16 {
		return nil, fmt.Errorf("%w: %q has %d-bit samples, want 16", ErrMalformed, path, bits)
	}
	if channels < 1 || sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %q has invalid fmt (channels=%d rate=%d)", ErrMalformed, path, channels, sampleRate)
	}

	return &Clip{Samples: pcm16ToFloat32Mono(pcm, channels), Rate: sampleRate}, nil
}

// EncodeWAV wraps a mono Clip in a standard 44-byte RIFF/WAV container with
// 16-bit signed little-endian PCM samples. Samples outside [-1, 1] are
// clipped.
func EncodeWAV(c *Clip) []byte {
	const (
		channels = 1
		bps      = 16
	)
	byteRate := c.Rate * channels * bps / 8
	blockAlign := channels * bps / 8
	dataSize := len(c.Samples) * 2

	buf := make([]byte, 44+dataSize)

	// RIFF chunk descriptor
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")

	// fmt sub-chunk
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], channels)
	binary.LittleEndian.PutUint32(buf[24:28], uint32(c.Rate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(buf[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(buf[34:36], bps)

	// data sub-chunk
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))
	for i, s := range c.Samples {
		switch {
		case s > 1.0:
			s = 1.0
		case s < -1.0:
			s = -1.0
		}
		binary.LittleEndian.PutUint16(buf[44+i*2:46+i*2], uint16(int16(s*32767.0)))
	}
	return buf
}
