// Package capture owns the microphone lifecycle and turns recorded or
// user-supplied audio into a finalized blob.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pluma/prontuario/internal/domain"
)

// State is the capture lifecycle position.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrNotRecording     = errors.New("capture: not recording")
	ErrAlreadyRecording = errors.New("capture: already recording")
)

// Unit wraps a Device into a start/stop/reset lifecycle.
type Unit struct {
	mu     sync.Mutex
	device Device
	logger *slog.Logger
	state  State
	acc    Accumulator
	blob   *domain.Blob
}

// New creates an idle capture unit. device may be nil when only file input
// is available; Start then fails with DeviceUnavailable.
func New(device Device, logger *slog.Logger) *Unit {
	if logger == nil {
		logger = slog.Default()
	}
	return &Unit{
		device: device,
		logger: logger.With("component", "capture"),
	}
}

// Start opens the device and begins buffering chunks. Any previous blob is
// discarded.
func (u *Unit) Start(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state == StateRecording {
		return ErrAlreadyRecording
	}
	if u.device == nil {
		return domain.NewError(domain.KindDeviceUnavailable,
			"Nenhum microfone disponível neste dispositivo.", nil)
	}

	u.blob = nil
	u.acc.Reset()
	u.state = StateIdle

	if err := u.device.Open(ctx, u.acc.Append); err != nil {
		// a partially opened device must not stay held
		u.release(ctx)
		u.acc.Reset()
		return classifyOpenError(err)
	}

	u.state = StateRecording
	u.logger.Debug("recording started", "encoding", u.device.Encoding().ContentType)

	return nil
}

// Stop finalizes the buffered chunks into a blob and releases the device.
func (u *Unit) Stop(ctx context.Context) (*domain.Blob, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != StateRecording {
		return nil, ErrNotRecording
	}

	// Close flushes pending audio into the accumulator before we finalize.
	if err := u.device.Close(ctx); err != nil {
		u.acc.Reset()
		u.state = StateIdle
		return nil, domain.NewError(domain.KindDeviceUnavailable,
			"Falha ao finalizar a gravação. Tente novamente.",
			fmt.Errorf("close device: %w", err))
	}

	u.blob = u.acc.Finalize(u.device.Encoding())
	u.state = StateStopped
	u.logger.Debug("recording stopped", "bytes", u.blob.Size())

	return u.blob, nil
}

// Reset discards any blob and returns to idle. Calling it repeatedly is safe.
func (u *Unit) Reset(ctx context.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state == StateRecording {
		u.release(ctx)
	}
	u.acc.Reset()
	u.blob = nil
	u.state = StateIdle
}

// AcceptFile takes a user-supplied file as the blob, skipping the device.
func (u *Unit) AcceptFile(ctx context.Context, blob *domain.Blob) error {
	if blob == nil || blob.Size() == 0 {
		return domain.Errorf(domain.KindValidation, "Nenhum arquivo de áudio fornecido.")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state == StateRecording {
		u.release(ctx)
		u.acc.Reset()
	}
	u.blob = blob
	u.state = StateStopped

	return nil
}

// Close tears the unit down, releasing the device if it is still held.
func (u *Unit) Close(ctx context.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state == StateRecording {
		u.release(ctx)
		u.acc.Reset()
		u.state = StateIdle
	}
}

// State returns the current lifecycle state.
func (u *Unit) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Blob returns the finalized blob, nil unless stopped.
func (u *Unit) Blob() *domain.Blob {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.blob
}

// BytesCaptured returns how much audio is buffered in the current recording.
func (u *Unit) BytesCaptured() int64 {
	return u.acc.Len()
}

// Input returns the audio submission for the finalized blob.
func (u *Unit) Input() (domain.CaptureInput, bool) {
	blob := u.Blob()
	if blob == nil {
		return domain.CaptureInput{}, false
	}
	return domain.AudioInput(blob), true
}

// release closes the device, logging failures. Callers hold u.mu.
func (u *Unit) release(ctx context.Context) {
	if err := u.device.Close(ctx); err != nil {
		u.logger.Warn("failed to release audio device", "error", err)
	}
}

func classifyOpenError(err error) error {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return domain.NewError(domain.KindPermissionDenied,
			"Permissão de microfone negada. Verifique as permissões e tente novamente.", err)
	default:
		return domain.NewError(domain.KindDeviceUnavailable,
			fmt.Sprintf("Erro ao acessar microfone: %v. Verifique as permissões e tente novamente.", err), err)
	}
}
