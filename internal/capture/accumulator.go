package capture

import (
	"sync"

	"github.com/pluma/prontuario/internal/domain"
)

// Accumulator buffers encoded chunks until the recording is finalized.
// Append is safe to call from the device goroutine while the owner reads Len.
type Accumulator struct {
	mu     sync.Mutex
	chunks [][]byte
	size   int64
}

// Append copies chunk into the buffer. Empty chunks are ignored.
func (a *Accumulator) Append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}

	c := make([]byte, len(chunk))
	copy(c, chunk)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.chunks = append(a.chunks, c)
	a.size += int64(len(c))
}

// Len returns the number of buffered bytes.
func (a *Accumulator) Len() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.size
}

// Finalize concatenates the buffered chunks into a blob tagged with enc and
// empties the buffer.
func (a *Accumulator) Finalize(enc Encoding) *domain.Blob {
	a.mu.Lock()
	defer a.mu.Unlock()

	data := make([]byte, 0, a.size)
	for _, c := range a.chunks {
		data = append(data, c...)
	}
	a.chunks = nil
	a.size = 0

	return &domain.Blob{
		Data:        data,
		ContentType: enc.ContentType,
		Filename:    "gravacao." + enc.Extension,
	}
}

// Reset drops everything buffered.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.chunks = nil
	a.size = 0
}
