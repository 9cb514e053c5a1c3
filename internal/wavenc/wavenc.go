// Package wavenc frames raw sample buffers into WAV containers and parses
// them back. Encoding is deterministic and touches nothing but an in-memory
// buffer.
package wavenc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/book-expert/pocket-tts-web/internal/core"
)

// Container parameters. The service always emits 16-bit mono linear PCM.
const (
	bitDepth    = 16
	numChannels = 1
	pcmFormat   = 1

	maxSampleValue = 1<<(bitDepth-1) - 1
)

// Static errors.
var (
	ErrNoSamples         = errors.New("no samples to encode")
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	ErrNotPCM            = errors.New("data does not contain a PCM payload")
)

// Encode frames mono float samples in [-1, 1] into a 16-bit PCM WAV byte
// stream. Samples outside the range are clamped.
func Encode(samples []float64, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	if sampleRate <= 0 {
		return nil, ErrInvalidSampleRate
	}

	intData := make([]int, len(samples))
	for sampleIndex, sample := range samples {
		clamped := math.Max(-1.0, math.Min(1.0, sample))
		intData[sampleIndex] = int(math.Round(clamped * maxSampleValue))
	}

	sink := &memWriteSeeker{buf: nil, pos: 0}
	encoder := wav.NewEncoder(sink, sampleRate, bitDepth, numChannels, pcmFormat)

	buffer := &audio.IntBuffer{
		Data: intData,
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: bitDepth,
	}

	writeErr := encoder.Write(buffer)
	if writeErr != nil {
		return nil, fmt.Errorf("failed to write WAV payload: %w", writeErr)
	}

	closeErr := encoder.Close()
	if closeErr != nil {
		return nil, fmt.Errorf("failed to finalize WAV header: %w", closeErr)
	}

	return sink.buf, nil
}

// Decode parses a WAV byte stream back into a raw sample buffer scaled to
// [-1, 1]. The engine adapter uses it to recover samples from CLI output.
func Decode(data []byte) (core.GeneratedAudio, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))

	buffer, err := decoder.FullPCMBuffer()
	if err != nil {
		return core.GeneratedAudio{}, fmt.Errorf("failed to decode WAV data: %w", err)
	}

	if buffer == nil || buffer.Format == nil || len(buffer.Data) == 0 {
		return core.GeneratedAudio{}, ErrNotPCM
	}

	scale := float64(int(1)<<(decoder.BitDepth-1)) - 1
	if scale <= 0 {
		return core.GeneratedAudio{}, ErrNotPCM
	}

	samples := make([]float64, len(buffer.Data))
	for sampleIndex, sample := range buffer.Data {
		samples[sampleIndex] = float64(sample) / scale
	}

	return core.GeneratedAudio{
		Samples:    samples,
		SampleRate: buffer.Format.SampleRate,
	}, nil
}

// memWriteSeeker is an in-memory io.WriteSeeker. The WAV encoder seeks back
// to patch chunk sizes into the header once the payload length is known, so a
// plain bytes.Buffer is not enough.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	if needed := m.pos + len(p); needed > len(m.buf) {
		grown := make([]byte, needed)
		copy(grown, m.buf)
		m.buf = grown
	}

	copy(m.buf[m.pos:], p)
	m.pos += len(p)

	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int

	switch whence {
	case io.SeekStart:
		next = int(offset)
	case io.SeekCurrent:
		next = m.pos + int(offset)
	case io.SeekEnd:
		next = len(m.buf) + int(offset)
	default:
		return 0, fmt.Errorf("unsupported seek whence: %d", whence)
	}

	if next < 0 {
		return 0, errors.New("seek before start of buffer")
	}

	m.pos = next

	return int64(next), nil
}
