package capture

import "context"

// Encoding is the negotiated container of the chunks a device delivers.
type Encoding struct {
	ContentType string
	Extension   string
}

var (
	// EncodingWebM is the browser recorder's webm/opus container.
	EncodingWebM = Encoding{ContentType: "audio/webm", Extension: "webm"}
	// EncodingMP3 is produced by the local microphone encoder.
	EncodingMP3 = Encoding{ContentType: "audio/mpeg", Extension: "mp3"}
)

// ChunkSink receives encoded audio as the device produces it. It may be
// called from a device-owned goroutine.
type ChunkSink func(chunk []byte)

// Device is a recording primitive.
type Device interface {
	// Open acquires the hardware and starts delivering encoded chunks to sink.
	// Errors should wrap domain.ErrPermissionDenied or
	// domain.ErrDeviceUnavailable when the platform refuses or lacks the
	// capability.
	Open(ctx context.Context, sink ChunkSink) error

	// Encoding reports the encoding of delivered chunks.
	Encoding() Encoding

	// Close stops delivery, flushes any pending audio into the sink and
	// releases the hardware. Closing a closed device is a no-op.
	Close(ctx context.Context) error
}
