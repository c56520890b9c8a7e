// Package audio implements the local microphone used by the terminal client:
// PCM capture through malgo, streamed into an MP3 encoder.
package audio

import (
	"errors"

	"github.com/gen2brain/malgo"
)

const (
	// DefaultBufferThreshold is 4KB = 2048 mono samples = 128ms @ 16kHz.
	DefaultBufferThreshold = 4096
	// DefaultSampleRate is 16kHz, plenty for speech.
	DefaultSampleRate = 16000
	// DefaultChannels is mono (1 channel).
	DefaultChannels = 1
)

// Config describes the capture device and the encoder fed by it.
type Config struct {
	// SampleRate is the audio sample rate in Hz.
	SampleRate int

	// Channels is the number of captured channels. Only mono is supported;
	// the encoder duplicates it to stereo internally.
	Channels int

	// BufferThreshold is the number of PCM bytes to accumulate before
	// encoding a batch.
	BufferThreshold int

	// LockPath is the file locked while the microphone is held. Empty
	// disables cross-process locking.
	LockPath string
}

// Validate returns an error if the config is invalid.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}

	if c.Channels != 1 {
		return errors.New("only mono (1 channel) is supported")
	}

	if c.BufferThreshold <= 0 {
		return errors.New("buffer threshold must be positive")
	}

	return nil
}

// WithDefaults returns a config with default values applied to zero fields.
func (c Config) WithDefaults() Config {
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}

	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}

	if c.BufferThreshold == 0 {
		c.BufferThreshold = DefaultBufferThreshold
	}

	return c
}

// pcmFormat is the sample format requested from the device (S16LE).
const pcmFormat = malgo.FormatS16
