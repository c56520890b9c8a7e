package review_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/review"
	"github.com/pluma/prontuario/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCreator captures the creation request.
type fakeCreator struct {
	got   []domain.NewRecord
	err   error
	clock time.Time
}

func (f *fakeCreator) CreateRecord(_ context.Context, rec domain.NewRecord) (domain.Record, error) {
	f.got = append(f.got, rec)
	if f.err != nil {
		return domain.Record{}, f.err
	}
	return domain.Record{
		ID:               "rec-1",
		UserID:           rec.UserID,
		PatientName:      rec.PatientName,
		SessionDate:      rec.SessionDate,
		InputOriginal:    rec.InputOriginal,
		InputType:        rec.InputType,
		AudioURL:         rec.AudioURL,
		ProcessedContent: rec.ProcessedContent,
		Status:           rec.Status,
		Keywords:         rec.Keywords,
		CreatedAt:        f.clock,
		UpdatedAt:        f.clock,
	}, nil
}

var signedIn = session.SourceFunc(func(context.Context) (session.Session, error) {
	return session.Session{UserID: "user-1"}, nil
})

var today = func() time.Time { return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC) }

func audioRecord() domain.ProcessedRecord {
	return domain.ProcessedRecord{
		OriginalContent:  domain.AudioPlaceholder,
		Type:             domain.InputAudio,
		AudioURL:         "https://cdn/u/a.webm",
		ProcessedContent: "Paciente relatou melhora significativa no sono.",
	}
}

func TestNew_SeedsFields(t *testing.T) {
	form := review.New(audioRecord(), today)

	fields := form.Fields()
	assert.Equal(t, "2025-03-10", fields.SessionDate)
	assert.Equal(t, "Paciente relatou melhora significativa no sono.", fields.ProcessedContent)
	assert.Empty(t, fields.PatientName)
}

func TestSubmit_Success(t *testing.T) {
	form := review.New(audioRecord(), today)
	require.NoError(t, form.SetPatientName("  Maria Souza "))
	require.NoError(t, form.EditContent("Paciente relatou melhora significativa."))

	creator := &fakeCreator{}
	record, err := form.Submit(context.Background(), signedIn, creator)
	require.NoError(t, err)

	require.Len(t, creator.got, 1)
	req := creator.got[0]
	assert.Equal(t, "user-1", req.UserID)
	assert.Equal(t, "Maria Souza", req.PatientName)
	assert.Equal(t, "2025-03-10", req.SessionDate)
	assert.Equal(t, domain.AudioPlaceholder, req.InputOriginal)
	assert.Equal(t, domain.InputAudio, req.InputType)
	assert.Equal(t, "https://cdn/u/a.webm", req.AudioURL)
	assert.Equal(t, "Paciente relatou melhora significativa.", req.ProcessedContent)
	assert.Equal(t, domain.StatusDone, req.Status)
	assert.Equal(t, []string{"maria souza", "sessão", "atendimento", "paciente", "relatou", "melhora", "significativa"}, req.Keywords)

	assert.Equal(t, "rec-1", record.ID)
	saved, ok := form.Saved()
	require.True(t, ok)
	assert.Equal(t, record, saved)
}

func TestSubmit_FreezesForm(t *testing.T) {
	form := review.New(audioRecord(), today)
	require.NoError(t, form.SetPatientName("Maria"))

	_, err := form.Submit(context.Background(), signedIn, &fakeCreator{})
	require.NoError(t, err)

	require.ErrorIs(t, form.SetPatientName("Outra"), review.ErrFrozen)
	require.ErrorIs(t, form.SetSessionDate("2025-01-01"), review.ErrFrozen)
	require.ErrorIs(t, form.EditContent("novo"), review.ErrFrozen)

	creator := &fakeCreator{}
	_, err = form.Submit(context.Background(), signedIn, creator)
	require.ErrorIs(t, err, review.ErrFrozen)
	assert.Empty(t, creator.got)
	assert.Equal(t, "Maria", form.Fields().PatientName)
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name        string
		patient     string
		content     string
		date        string
		wantMessage string
	}{
		{"nothing", "", "  ", "2025-03-10", "Dados obrigatórios não fornecidos"},
		{"no patient", " ", "texto", "2025-03-10", "Informe o nome do paciente."},
		{"no content", "Maria", "", "2025-03-10", "O conteúdo processado não pode ficar vazio."},
		{"bad date", "Maria", "texto", "10/03/2025", "Data da sessão inválida. Use o formato AAAA-MM-DD."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := review.New(audioRecord(), today)
			require.NoError(t, form.SetPatientName(tt.patient))
			require.NoError(t, form.EditContent(tt.content))
			require.NoError(t, form.SetSessionDate(tt.date))

			creator := &fakeCreator{}
			_, err := form.Submit(context.Background(), signedIn, creator)

			require.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tt.wantMessage, domain.UserMessage(err))
			assert.Empty(t, creator.got)

			require.NoError(t, form.SetPatientName("still editable"))
		})
	}
}

func TestSubmit_EmptyDateAllowed(t *testing.T) {
	form := review.New(audioRecord(), today)
	require.NoError(t, form.SetPatientName("Maria"))
	require.NoError(t, form.SetSessionDate(""))

	creator := &fakeCreator{}
	_, err := form.Submit(context.Background(), signedIn, creator)
	require.NoError(t, err)
	assert.Empty(t, creator.got[0].SessionDate)
}

func TestSubmit_PersistenceFailureKeepsEdits(t *testing.T) {
	form := review.New(audioRecord(), today)
	require.NoError(t, form.SetPatientName("Maria"))
	require.NoError(t, form.EditContent("editado"))

	_, err := form.Submit(context.Background(), signedIn, &fakeCreator{err: errors.New("db down")})

	require.ErrorIs(t, err, domain.ErrPersistenceFailed)
	assert.Equal(t, "Erro ao salvar prontuário", domain.UserMessage(err))
	assert.Equal(t, "editado", form.Fields().ProcessedContent)

	_, saved := form.Saved()
	assert.False(t, saved)

	record, err := form.Submit(context.Background(), signedIn, &fakeCreator{})
	require.NoError(t, err, "resubmission after a failure")
	assert.Equal(t, "editado", record.ProcessedContent)
}

func TestSubmit_Unauthenticated(t *testing.T) {
	form := review.New(audioRecord(), today)
	require.NoError(t, form.SetPatientName("Maria"))

	noSession := session.SourceFunc(func(context.Context) (session.Session, error) {
		return session.Session{}, session.ErrNoSession
	})

	creator := &fakeCreator{}
	_, err := form.Submit(context.Background(), noSession, creator)

	require.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Empty(t, creator.got)
}
