// Package review holds processed content while the user edits it and
// persists the finished record.
package review

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/session"
)

// ErrFrozen is returned when editing a form whose record was already saved.
var ErrFrozen = errors.New("review: record already saved")

// Creator is the persistence collaborator.
type Creator interface {
	CreateRecord(ctx context.Context, rec domain.NewRecord) (domain.Record, error)
}

// Fields is a snapshot of the editable values.
type Fields struct {
	PatientName      string
	SessionDate      string
	ProcessedContent string
}

// Form is the review step for one processed record.
type Form struct {
	source domain.ProcessedRecord
	logger *slog.Logger

	mu     sync.Mutex
	fields Fields
	saved  *domain.Record
}

// New seeds a form from the processed record. The session date defaults to
// today according to now.
func New(record domain.ProcessedRecord, now func() time.Time) *Form {
	if now == nil {
		now = time.Now
	}

	return &Form{
		source: record,
		logger: slog.Default().With("component", "review"),
		fields: Fields{
			SessionDate:      now().Format(domain.SessionDateLayout),
			ProcessedContent: record.ProcessedContent,
		},
	}
}

// Source returns the processed record the form was seeded from.
func (f *Form) Source() domain.ProcessedRecord {
	return f.source
}

// Fields returns the current values.
func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.fields
}

// Saved returns the persisted record once Submit has succeeded.
func (f *Form) Saved() (domain.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saved == nil {
		return domain.Record{}, false
	}
	return *f.saved, true
}

func (f *Form) SetPatientName(name string) error {
	return f.edit(func(fields *Fields) { fields.PatientName = name })
}

func (f *Form) SetSessionDate(date string) error {
	return f.edit(func(fields *Fields) { fields.SessionDate = date })
}

func (f *Form) EditContent(content string) error {
	return f.edit(func(fields *Fields) { fields.ProcessedContent = content })
}

func (f *Form) edit(apply func(*Fields)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.saved != nil {
		return ErrFrozen
	}
	apply(&f.fields)

	return nil
}

// Submit validates the form and creates the record. Validation and
// persistence failures leave the form editable.
func (f *Form) Submit(ctx context.Context, sess session.Source, creator Creator) (domain.Record, error) {
	f.mu.Lock()
	if f.saved != nil {
		f.mu.Unlock()
		return domain.Record{}, ErrFrozen
	}
	fields := f.fields
	f.mu.Unlock()

	req, err := f.request(fields)
	if err != nil {
		return domain.Record{}, err
	}

	current, err := sess.Current(ctx)
	if err != nil {
		return domain.Record{}, domain.NewError(domain.KindUnauthenticated, "Usuário não autenticado", err)
	}
	req.UserID = current.UserID

	record, err := creator.CreateRecord(ctx, req)
	if err != nil {
		f.logger.Error("failed to create record", "error", err)
		return domain.Record{}, domain.NewError(domain.KindPersistenceFailed, "Erro ao salvar prontuário", err)
	}

	f.mu.Lock()
	f.saved = &record
	f.mu.Unlock()

	f.logger.Info("record saved", "record_id", record.ID)

	return record, nil
}

func (f *Form) request(fields Fields) (domain.NewRecord, error) {
	name := strings.TrimSpace(fields.PatientName)
	content := strings.TrimSpace(fields.ProcessedContent)

	switch {
	case name == "" && content == "":
		return domain.NewRecord{}, domain.Errorf(domain.KindValidation, "Dados obrigatórios não fornecidos")
	case name == "":
		return domain.NewRecord{}, domain.Errorf(domain.KindValidation, "Informe o nome do paciente.")
	case content == "":
		return domain.NewRecord{}, domain.Errorf(domain.KindValidation, "O conteúdo processado não pode ficar vazio.")
	}

	date := strings.TrimSpace(fields.SessionDate)
	if date != "" {
		if _, err := time.Parse(domain.SessionDateLayout, date); err != nil {
			return domain.NewRecord{}, domain.Errorf(domain.KindValidation, "Data da sessão inválida. Use o formato AAAA-MM-DD.")
		}
	}

	inputType := f.source.Type
	if !inputType.Valid() {
		inputType = domain.InputText
	}

	return domain.NewRecord{
		PatientName:      name,
		SessionDate:      date,
		InputOriginal:    f.source.OriginalContent,
		InputType:        inputType,
		AudioURL:         f.source.AudioURL,
		ProcessedContent: fields.ProcessedContent,
		Status:           domain.StatusDone,
		Keywords:         domain.ExtractKeywords(name, fields.ProcessedContent),
	}, nil
}
