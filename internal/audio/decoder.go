package audio

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// bytesPerSampleFrame is the size of one decoded 16-bit stereo sample frame
const bytesPerSampleFrame = 4

// Decoder turns synthesizer output into a segment
type Decoder interface {
	Decode(data []byte) (Segment, error)
}

// MP3Decoder validates mp3 clips and measures their duration
type MP3Decoder struct{}

// NewMP3Decoder creates a new mp3 decoder
func NewMP3Decoder() *MP3Decoder {
	return &MP3Decoder{}
}

// Decode parses the mp3 stream headers and returns a segment with its duration
func (d *MP3Decoder) Decode(data []byte) (Segment, error) {
	if len(data) == 0 {
		return Segment{}, errors.New("empty audio data")
	}

	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return Segment{}, fmt.Errorf("failed to decode mp3: %w", err)
	}

	rate := dec.SampleRate()
	if rate <= 0 {
		return Segment{}, fmt.Errorf("invalid sample rate %d", rate)
	}

	var duration time.Duration
	if length := dec.Length(); length > 0 {
		samples := length / bytesPerSampleFrame
		duration = time.Duration(samples) * time.Second / time.Duration(rate)
	}

	return Segment{Data: data, SampleRate: rate, Duration: duration}, nil
}
