package capture_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pluma/prontuario/internal/capture"
	"github.com/pluma/prontuario/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice feeds synthetic chunks instead of touching hardware.
type fakeDevice struct {
	openErr  error
	closeErr error
	sink     capture.ChunkSink
	flush    []byte
	opened   int
	closed   int
}

func (d *fakeDevice) Open(_ context.Context, sink capture.ChunkSink) error {
	d.opened++
	if d.openErr != nil {
		return d.openErr
	}
	d.sink = sink
	return nil
}

func (d *fakeDevice) Encoding() capture.Encoding { return capture.EncodingWebM }

func (d *fakeDevice) Close(_ context.Context) error {
	d.closed++
	if d.sink != nil && d.flush != nil {
		d.sink(d.flush)
	}
	d.sink = nil
	return d.closeErr
}

func (d *fakeDevice) feed(chunks ...string) {
	for _, c := range chunks {
		d.sink([]byte(c))
	}
}

func TestUnit_StartStop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dev := &fakeDevice{flush: []byte("-tail")}
	unit := capture.New(dev, nil)
	require.Equal(t, capture.StateIdle, unit.State())

	require.NoError(t, unit.Start(ctx))
	assert.Equal(t, capture.StateRecording, unit.State())

	dev.feed("chunk1", "-chunk2")
	assert.Equal(t, int64(len("chunk1-chunk2")), unit.BytesCaptured())

	blob, err := unit.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, capture.StateStopped, unit.State())
	assert.Equal(t, "chunk1-chunk2-tail", string(blob.Data))
	assert.Equal(t, "audio/webm", blob.ContentType)
	assert.Equal(t, "gravacao.webm", blob.Filename)
	assert.Equal(t, 1, dev.closed, "device released on stop")

	input, ok := unit.Input()
	require.True(t, ok)
	assert.Equal(t, domain.InputAudio, input.Type)
	assert.Same(t, blob, input.Audio)
}

func TestUnit_StopWhenNotRecording(t *testing.T) {
	t.Parallel()

	unit := capture.New(&fakeDevice{}, nil)

	_, err := unit.Stop(context.Background())
	assert.ErrorIs(t, err, capture.ErrNotRecording)
}

func TestUnit_StartTwice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	unit := capture.New(&fakeDevice{}, nil)
	require.NoError(t, unit.Start(ctx))

	assert.ErrorIs(t, unit.Start(ctx), capture.ErrAlreadyRecording)
}

func TestUnit_StartFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		openErr  error
		wantKind domain.Kind
	}{
		{
			name:     "permission denied",
			openErr:  fmt.Errorf("os refused: %w", domain.ErrPermissionDenied),
			wantKind: domain.KindPermissionDenied,
		},
		{
			name:     "no capture device",
			openErr:  errors.New("no capture devices found"),
			wantKind: domain.KindDeviceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dev := &fakeDevice{openErr: tt.openErr}
			unit := capture.New(dev, nil)

			err := unit.Start(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, domain.KindOf(err))
			assert.Equal(t, capture.StateIdle, unit.State())
			assert.Equal(t, 1, dev.closed, "device released after failed open")
		})
	}
}

func TestUnit_NoDevice(t *testing.T) {
	t.Parallel()

	unit := capture.New(nil, nil)

	err := unit.Start(context.Background())
	assert.ErrorIs(t, err, domain.ErrDeviceUnavailable)
}

func TestUnit_ResetIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dev := &fakeDevice{}
	unit := capture.New(dev, nil)
	require.NoError(t, unit.Start(ctx))
	dev.feed("abc")
	_, err := unit.Stop(ctx)
	require.NoError(t, err)

	for range 2 {
		unit.Reset(ctx)
		assert.Equal(t, capture.StateIdle, unit.State())
		assert.Nil(t, unit.Blob())
		_, ok := unit.Input()
		assert.False(t, ok)
	}
}

func TestUnit_ResetWhileRecordingReleasesDevice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dev := &fakeDevice{}
	unit := capture.New(dev, nil)
	require.NoError(t, unit.Start(ctx))
	dev.feed("abc")

	unit.Reset(ctx)

	assert.Equal(t, 1, dev.closed)
	assert.Equal(t, int64(0), unit.BytesCaptured())
	assert.Equal(t, capture.StateIdle, unit.State())
}

func TestUnit_CloseReleasesDevice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dev := &fakeDevice{}
	unit := capture.New(dev, nil)
	require.NoError(t, unit.Start(ctx))

	unit.Close(ctx)
	unit.Close(ctx)

	assert.Equal(t, 1, dev.closed)
	assert.Equal(t, capture.StateIdle, unit.State())
}

func TestUnit_StopCloseFailureDiscards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dev := &fakeDevice{closeErr: errors.New("device gone")}
	unit := capture.New(dev, nil)
	require.NoError(t, unit.Start(ctx))
	dev.feed("abc")

	_, err := unit.Stop(ctx)
	assert.ErrorIs(t, err, domain.ErrDeviceUnavailable)
	assert.Equal(t, capture.StateIdle, unit.State())
	assert.Nil(t, unit.Blob())
}

func TestUnit_AcceptFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dev := &fakeDevice{}
	unit := capture.New(dev, nil)
	require.NoError(t, unit.Start(ctx))

	file := &domain.Blob{Data: []byte("RIFF"), ContentType: "audio/wav", Filename: "sessao.wav"}
	require.NoError(t, unit.AcceptFile(ctx, file))

	assert.Equal(t, capture.StateStopped, unit.State())
	assert.Same(t, file, unit.Blob())
	assert.Equal(t, 1, dev.closed, "recording abandoned in favour of the file")

	err := unit.AcceptFile(ctx, &domain.Blob{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
