// Package domain holds the prontuário data model shared by the capture,
// upload, workflow, review and listing components.
package domain

import (
	"strings"
	"time"
)

const (
	// MaxAudioBytes is the largest audio blob accepted for upload (50 MiB).
	MaxAudioBytes = 50 * 1024 * 1024

	// AudioBucket is the object storage namespace for session audio.
	AudioBucket = "prontuario-audios"

	// SessionDateLayout is the wire format of a session date.
	SessionDateLayout = time.DateOnly
)

// InputType is how the session content was captured.
type InputType string

const (
	InputText  InputType = "texto"
	InputAudio InputType = "audio"
)

// Valid reports whether t is a known input type.
func (t InputType) Valid() bool {
	return t == InputText || t == InputAudio
}

// Status is the lifecycle state of a persisted record.
type Status string

const (
	StatusProcessing Status = "processando"
	StatusDone       Status = "concluido"
	StatusError      Status = "erro"
)

// Label returns the badge text for the status.
func (s Status) Label() string {
	switch s {
	case StatusProcessing:
		return "Processando"
	case StatusDone:
		return "Concluído"
	case StatusError:
		return "Erro"
	default:
		return string(s)
	}
}

// Blob is a finalized piece of audio, either recorded or user supplied.
type Blob struct {
	Data        []byte
	ContentType string
	// Filename is the original name for uploaded files, empty for recordings.
	Filename string
}

// Size returns the blob length in bytes.
func (b *Blob) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.Data))
}

// AudioPlaceholder is the original-content text stored for audio inputs.
const AudioPlaceholder = "Áudio gravado"

// CaptureInput is one submission from the capture surface.
type CaptureInput struct {
	Content string
	Type    InputType
	Audio   *Blob
}

// TextInput builds a text submission.
func TextInput(content string) CaptureInput {
	return CaptureInput{Content: content, Type: InputText}
}

// AudioInput builds an audio submission.
func AudioInput(blob *Blob) CaptureInput {
	return CaptureInput{Content: AudioPlaceholder, Type: InputAudio, Audio: blob}
}

// Validate checks that the input can be submitted.
func (in CaptureInput) Validate() error {
	switch in.Type {
	case InputText:
		if strings.TrimSpace(in.Content) == "" {
			return Errorf(KindValidation, "Digite o conteúdo da sessão antes de processar.")
		}
	case InputAudio:
		if in.Audio == nil || in.Audio.Size() == 0 {
			return Errorf(KindValidation, "Nenhum arquivo de áudio fornecido.")
		}
	default:
		return Errorf(KindValidation, "Tipo de entrada inválido: %q", in.Type)
	}
	return nil
}

// UploadResult is the tagged outcome of an audio upload.
type UploadResult struct {
	Success  bool   `json:"success"`
	AudioURL string `json:"audioUrl,omitempty"`
	Path     string `json:"filePath,omitempty"`
	Err      *Error `json:"-"`
}

// ErrorMessage returns the localized failure text, empty on success.
func (r UploadResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Message
}

// UploadFailed wraps err into a failed result.
func UploadFailed(err *Error) UploadResult {
	return UploadResult{Err: err}
}

// ProcessedRecord is the webhook output awaiting review.
type ProcessedRecord struct {
	OriginalContent  string    `json:"input_original"`
	Type             InputType `json:"input_tipo"`
	AudioURL         string    `json:"audio_url,omitempty"`
	ProcessedContent string    `json:"conteudo_processado"`
}

// Record is a persisted prontuário.
type Record struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	PatientName      string    `json:"paciente_nome"`
	SessionDate      string    `json:"data_sessao"`
	InputOriginal    string    `json:"input_original"`
	InputType        InputType `json:"input_tipo"`
	AudioURL         string    `json:"audio_url,omitempty"`
	ProcessedContent string    `json:"conteudo_processado"`
	Status           Status    `json:"status"`
	ErrorMessage     string    `json:"erro_mensagem,omitempty"`
	Keywords         []string  `json:"palavras_chave"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewRecord is a creation request for the persistence collaborator.
type NewRecord struct {
	UserID           string
	PatientName      string
	SessionDate      string
	InputOriginal    string
	InputType        InputType
	AudioURL         string
	ProcessedContent string
	Status           Status
	Keywords         []string
}

// RecordUpdate carries the editable fields of an existing record. Nil
// fields are left unchanged.
type RecordUpdate struct {
	PatientName      *string `json:"paciente_nome"`
	SessionDate      *string `json:"data_sessao"`
	ProcessedContent *string `json:"conteudo_processado"`
}
