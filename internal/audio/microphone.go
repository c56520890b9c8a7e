package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"
	"github.com/gofrs/flock"
	"github.com/pluma/prontuario/internal/capture"
	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/pkg/collections"
)

// Microphone is the local capture device. It records S16LE mono PCM and
// emits MP3 chunks to the sink passed to Open.
type Microphone struct {
	config Config
	logger *slog.Logger

	mu       sync.Mutex
	lock     *flock.Flock
	mgCtx    *malgo.AllocatedContext
	mgDevice *malgo.Device
	pcm      chan []byte
	encoder  *StreamingEncoder
	cancel   context.CancelFunc
}

var _ capture.Device = (*Microphone)(nil)

// NewMicrophone returns a closed microphone. Nothing is allocated until Open.
func NewMicrophone(config Config, logger *slog.Logger) *Microphone {
	if logger == nil {
		logger = slog.Default()
	}

	return &Microphone{config: config.WithDefaults(), logger: logger}
}

func (m *Microphone) Encoding() capture.Encoding {
	return capture.EncodingMP3
}

// Open acquires the microphone and starts streaming encoded chunks to sink.
func (m *Microphone) Open(ctx context.Context, sink capture.ChunkSink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mgDevice != nil {
		return errors.New("microphone already open")
	}

	if err := m.acquireLock(); err != nil {
		return err
	}

	pcm := make(chan []byte, 64)
	encoder, err := NewStreamingEncoder(m.config, pcm, sink)
	if err != nil {
		m.releaseLock()
		return err
	}

	mgCtx, mgDevice, err := m.allocDevice(pcm)
	if err != nil {
		m.releaseLock()
		return classifyDeviceError(err)
	}

	// the encoder outlives the request that opened the device
	encCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	if err := encoder.Start(encCtx); err != nil {
		cancel()
		freeDevice(mgCtx, mgDevice)
		m.releaseLock()
		return err
	}

	if err := mgDevice.Start(); err != nil {
		cancel()
		close(pcm)
		_ = encoder.Wait()
		freeDevice(mgCtx, mgDevice)
		m.releaseLock()
		return classifyDeviceError(fmt.Errorf("failed to start malgo device: %w", err))
	}

	m.mgCtx, m.mgDevice = mgCtx, mgDevice
	m.pcm, m.encoder, m.cancel = pcm, encoder, cancel

	m.logger.Debug("microphone opened",
		"sample_rate", m.config.SampleRate,
		"buffer_threshold", m.config.BufferThreshold)

	return nil
}

// Close stops capture, flushes the encoder into the sink and releases the
// device. Closing a closed microphone is a no-op.
func (m *Microphone) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.mgDevice == nil {
		return nil
	}

	var errs []error
	if err := m.mgDevice.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop malgo device: %w", err))
	}

	// the data callback cannot fire after Stop, so closing pcm is safe
	close(m.pcm)
	if err := m.encoder.Wait(); err != nil {
		errs = append(errs, err)
	}
	m.cancel()

	freeDevice(m.mgCtx, m.mgDevice)
	m.releaseLock()

	m.mgCtx, m.mgDevice = nil, nil
	m.pcm, m.encoder, m.cancel = nil, nil, nil

	m.logger.Debug("microphone closed")

	return errors.Join(errs...)
}

func (m *Microphone) acquireLock() error {
	if m.config.LockPath == "" {
		return nil
	}

	lock := flock.New(m.config.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return domain.NewError(domain.KindDeviceUnavailable,
			"Não foi possível reservar o microfone.", err)
	}
	if !locked {
		return domain.NewError(domain.KindDeviceUnavailable,
			"O microfone está em uso por outra gravação.", nil)
	}

	m.lock = lock
	return nil
}

func (m *Microphone) releaseLock() {
	if m.lock == nil {
		return
	}

	if err := m.lock.Unlock(); err != nil {
		m.logger.Warn("failed to release microphone lock", "error", err)
	}
	m.lock = nil
}

func (m *Microphone) allocDevice(pcm chan<- []byte) (*malgo.AllocatedContext, *malgo.Device, error) {
	mgCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	devCnf := malgo.DefaultDeviceConfig(malgo.Capture)
	devCnf.Capture.Format = pcmFormat
	devCnf.Capture.Channels = uint32(m.config.Channels)
	devCnf.SampleRate = uint32(m.config.SampleRate)

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, samples []byte, _ uint32) {
			// malgo reuses the buffer between callbacks
			pcm <- append([]byte(nil), samples...)
		},
	}

	mgDevice, err := malgo.InitDevice(mgCtx.Context, devCnf, callbacks)
	if err != nil {
		uninitializeContext(mgCtx)
		return nil, nil, fmt.Errorf("failed to initialize malgo device: %w", err)
	}

	return mgCtx, mgDevice, nil
}

func freeDevice(mgCtx *malgo.AllocatedContext, mgDevice *malgo.Device) {
	if mgDevice != nil {
		mgDevice.Uninit()
	}
	uninitializeContext(mgCtx)
}

func uninitializeContext(mgCtx *malgo.AllocatedContext) {
	if mgCtx == nil {
		return
	}

	if err := mgCtx.Uninit(); err != nil {
		slog.Error("failed to uninitialize malgo context", "error", err)
	}
	mgCtx.Free()
}

// classifyDeviceError maps backend failures onto the capture error kinds.
func classifyDeviceError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "permission") || strings.Contains(msg, "access denied") ||
		strings.Contains(msg, "not allowed") {
		return domain.NewError(domain.KindPermissionDenied,
			"Permissão para acessar o microfone foi negada.", err)
	}

	return domain.NewError(domain.KindDeviceUnavailable,
		"Nenhum microfone disponível neste dispositivo.", err)
}

// Info describes a capture device reported by the audio backend.
type Info struct {
	Name        string
	IsDefault   bool
	FormatCount int
	Formats     []string
}

// EnumerateDevices lists the capture devices known to the audio backend.
func EnumerateDevices(_ context.Context) ([]Info, error) {
	mgCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize malgo context: %w", err)
	}
	defer uninitializeContext(mgCtx)

	captureDevices, err := mgCtx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to get capture devices: %w", err)
	}

	return collections.Apply(captureDevices, toInfo), nil
}

func toInfo(mdi malgo.DeviceInfo) Info {
	count := collections.Clamp(int(mdi.FormatCount), 0, len(mdi.Formats))
	formats := make([]string, count)
	for i, mf := range mdi.Formats[:count] {
		formats[i] = fmt.Sprintf("%d-byte samples, %d ch, %d Hz",
			malgo.SampleSizeInBytes(mf.Format), mf.Channels, mf.SampleRate)
	}

	return Info{
		Name:        mdi.Name(),
		IsDefault:   mdi.IsDefault != 0,
		FormatCount: int(mdi.FormatCount),
		Formats:     formats,
	}
}
