package upload

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/pluma/prontuario/internal/domain"
)

// defaultExtension is used when neither the file name nor the content type
// yield one.
const defaultExtension = "wav"

// Strategy decides the stored content type and extension for a blob, and
// whether the blob's declared type is acceptable.
type Strategy interface {
	Name() string
	Describe(blob *domain.Blob) (contentType, extension string, err *domain.Error)
}

// ClientStrategy trusts the browser recorder: everything is stored as
// webm/opus.
type ClientStrategy struct{}

func (ClientStrategy) Name() string { return "client" }

func (ClientStrategy) Describe(*domain.Blob) (string, string, *domain.Error) {
	return "audio/webm", "webm", nil
}

// ServerStrategy checks the declared media type and keeps the uploaded
// file's own extension.
type ServerStrategy struct{}

func (ServerStrategy) Name() string { return "server" }

func (ServerStrategy) Describe(blob *domain.Blob) (string, string, *domain.Error) {
	contentType := mediaType(blob.ContentType)
	if !strings.HasPrefix(contentType, "audio/") {
		return "", "", domain.Errorf(domain.KindInvalidMediaType, "Arquivo deve ser um áudio válido.")
	}

	return blob.ContentType, extensionFor(blob.Filename, contentType), nil
}

// EncodingStrategy trusts the capture device's negotiated encoding, as the
// terminal client does for its MP3 recordings.
type EncodingStrategy struct{}

func (EncodingStrategy) Name() string { return "encoding" }

func (EncodingStrategy) Describe(blob *domain.Blob) (string, string, *domain.Error) {
	contentType := blob.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	return contentType, extensionFor(blob.Filename, mediaType(contentType)), nil
}

func mediaType(contentType string) string {
	parsed, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return parsed
}

// knownExtensions covers the types mime's table leaves out or maps oddly.
var knownExtensions = map[string]string{
	"audio/webm":  "webm",
	"audio/mpeg":  "mp3",
	"audio/mp3":   "mp3",
	"audio/wav":   "wav",
	"audio/x-wav": "wav",
	"audio/ogg":   "ogg",
	"audio/mp4":   "m4a",
	"audio/x-m4a": "m4a",
	"audio/aac":   "aac",
	"audio/flac":  "flac",
}

func extensionFor(filename, contentType string) string {
	if ext := strings.TrimPrefix(filepath.Ext(filename), "."); ext != "" {
		return strings.ToLower(ext)
	}

	if ext, ok := knownExtensions[contentType]; ok {
		return ext
	}

	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}

	return defaultExtension
}
