package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	mp3encoder "github.com/braheezy/shine-mp3/pkg/mp3"
	"github.com/pluma/prontuario/internal/capture"
)

// StreamingEncoder reads raw PCM bytes from a channel, buffers them to a
// threshold, then batch-encodes to MP3 and hands each encoded batch to a sink.
//
// The encoder finishes when the input channel is closed (flushing what is
// left) or when the context is cancelled.
type StreamingEncoder struct {
	config Config
	input  <-chan []byte
	sink   capture.ChunkSink

	encoder *mp3encoder.Encoder
	pending []byte
	frame   bytes.Buffer

	wg      sync.WaitGroup
	errOnce sync.Once
	err     error
}

// NewStreamingEncoder creates a streaming MP3 encoder over S16LE mono PCM.
func NewStreamingEncoder(config Config, input <-chan []byte, sink capture.ChunkSink) (*StreamingEncoder, error) {
	if input == nil {
		return nil, errors.New("input channel cannot be nil")
	}

	if sink == nil {
		return nil, errors.New("chunk sink cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid encoder config: %w", err)
	}

	return &StreamingEncoder{
		config:  config,
		input:   input,
		sink:    sink,
		pending: make([]byte, 0, config.BufferThreshold),
	}, nil
}

// Start launches the encoding goroutine. Returns error if already started.
func (e *StreamingEncoder) Start(ctx context.Context) error {
	if e.encoder != nil {
		return errors.New("encoder already started")
	}

	// stereo: shine-mp3 mis-advances its input for mono
	e.encoder = mp3encoder.NewEncoder(e.config.SampleRate, 2)

	e.wg.Go(func() {
		for {
			select {
			case pcm, ok := <-e.input:
				if !ok {
					if err := e.encodeBatch(); err != nil {
						e.setError(fmt.Errorf("failed to flush encoder: %w", err))
					}
					return
				}

				e.pending = append(e.pending, pcm...)
				if len(e.pending) < e.config.BufferThreshold {
					continue
				}
				if err := e.encodeBatch(); err != nil {
					e.setError(err)
					return
				}

			case <-ctx.Done():
				e.setError(fmt.Errorf("encoder context cancelled: %w", ctx.Err()))
				return
			}
		}
	})

	return nil
}

// Wait blocks until encoding completes and returns the first error.
func (e *StreamingEncoder) Wait() error {
	e.wg.Wait()

	return e.err
}

// encodeBatch converts the pending PCM to MP3 and emits the encoded bytes.
func (e *StreamingEncoder) encodeBatch() error {
	// odd trailing byte waits for its pair
	usable := len(e.pending) &^ 1
	if usable == 0 {
		return nil
	}

	mono := make([]int16, usable/2)
	if err := binary.Read(bytes.NewReader(e.pending[:usable]), binary.LittleEndian, mono); err != nil {
		return fmt.Errorf("failed to read PCM samples: %w", err)
	}

	stereo := make([]int16, len(mono)*2)
	for i, sample := range mono {
		stereo[i*2] = sample
		stereo[i*2+1] = sample
	}

	e.frame.Reset()
	if err := e.encoder.Write(&e.frame, stereo); err != nil {
		return fmt.Errorf("failed to encode audio to MP3: %w", err)
	}

	if e.frame.Len() > 0 {
		e.sink(e.frame.Bytes())
	}

	rest := copy(e.pending, e.pending[usable:])
	e.pending = e.pending[:rest]

	return nil
}

// setError records the first error that occurs.
func (e *StreamingEncoder) setError(err error) {
	e.errOnce.Do(func() {
		e.err = err
		slog.Debug("streaming encoder error", "error", err)
	})
}
