package records_test

import (
	"context"
	"testing"
	"time"

	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStore(t *testing.T) (*records.Store, *clock) {
	t.Helper()

	store, err := records.Open(context.Background(), records.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	c := &clock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	store.WithClock(c.now)

	return store, c
}

func textRecord(userID, patient string) domain.NewRecord {
	return domain.NewRecord{
		UserID:           userID,
		PatientName:      patient,
		InputOriginal:    "nota original",
		InputType:        domain.InputText,
		ProcessedContent: "Conteúdo processado de " + patient,
		Keywords:         []string{"maria", "sessão"},
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := records.Open(context.Background(), "mysql", "x")
	require.ErrorContains(t, err, "unsupported database driver")
}

func TestCreateRecord_Defaults(t *testing.T) {
	store, _ := newStore(t)

	record, err := store.CreateRecord(context.Background(), textRecord("user-1", "Maria"))
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, domain.StatusDone, record.Status)
	assert.Equal(t, "2025-03-10", record.SessionDate)
	assert.Equal(t, []string{"maria", "sessão"}, record.Keywords)

	got, err := store.GetRecord(context.Background(), "user-1", record.ID)
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestCreateRecord_KeepsAudioAndDate(t *testing.T) {
	store, _ := newStore(t)

	req := textRecord("user-1", "Maria")
	req.InputType = domain.InputAudio
	req.AudioURL = "https://cdn/u/a.webm"
	req.SessionDate = "2025-02-01"
	req.Status = domain.StatusProcessing
	req.Keywords = nil

	record, err := store.CreateRecord(context.Background(), req)
	require.NoError(t, err)

	got, err := store.GetRecord(context.Background(), "user-1", record.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/u/a.webm", got.AudioURL)
	assert.Equal(t, "2025-02-01", got.SessionDate)
	assert.Equal(t, domain.StatusProcessing, got.Status)
	assert.Empty(t, got.Keywords)
}

func TestCreateRecord_Validation(t *testing.T) {
	store, _ := newStore(t)

	missing := textRecord("user-1", " ")
	_, err := store.CreateRecord(context.Background(), missing)
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Dados obrigatórios não fornecidos", domain.UserMessage(err))

	badType := textRecord("user-1", "Maria")
	badType.InputType = "video"
	_, err = store.CreateRecord(context.Background(), badType)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestListRecords_NewestFirstAndScoped(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	first, err := store.CreateRecord(ctx, textRecord("user-1", "Ana"))
	require.NoError(t, err)
	second, err := store.CreateRecord(ctx, textRecord("user-1", "Bruno"))
	require.NoError(t, err)
	_, err = store.CreateRecord(ctx, textRecord("user-2", "Carla"))
	require.NoError(t, err)

	list, err := store.ListRecords(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	empty, err := store.ListRecords(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestGetRecord_OtherUser(t *testing.T) {
	store, _ := newStore(t)

	record, err := store.CreateRecord(context.Background(), textRecord("user-1", "Ana"))
	require.NoError(t, err)

	_, err = store.GetRecord(context.Background(), "user-2", record.ID)
	require.ErrorIs(t, err, records.ErrNotFound)
}

func TestUpdateRecord(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	record, err := store.CreateRecord(ctx, textRecord("user-1", "Ana"))
	require.NoError(t, err)

	name, content, date := "Ana Lima", "Revisado", "2025-01-31"
	updated, err := store.UpdateRecord(ctx, "user-1", record.ID, domain.RecordUpdate{
		PatientName:      &name,
		ProcessedContent: &content,
		SessionDate:      &date,
	})
	require.NoError(t, err)

	assert.Equal(t, "Ana Lima", updated.PatientName)
	assert.Equal(t, "Revisado", updated.ProcessedContent)
	assert.Equal(t, "2025-01-31", updated.SessionDate)
	assert.True(t, updated.UpdatedAt.After(record.UpdatedAt))
	assert.Equal(t, record.CreatedAt, updated.CreatedAt)

	_, err = store.UpdateRecord(ctx, "user-2", record.ID, domain.RecordUpdate{PatientName: &name})
	require.ErrorIs(t, err, records.ErrNotFound)

	bad := "31/01/2025"
	_, err = store.UpdateRecord(ctx, "user-1", record.ID, domain.RecordUpdate{SessionDate: &bad})
	require.ErrorIs(t, err, domain.ErrValidation)

	unchanged, err := store.UpdateRecord(ctx, "user-1", record.ID, domain.RecordUpdate{})
	require.NoError(t, err)
	assert.Equal(t, updated, unchanged)
}

func TestDeleteRecord(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	record, err := store.CreateRecord(ctx, textRecord("user-1", "Ana"))
	require.NoError(t, err)

	require.ErrorIs(t, store.DeleteRecord(ctx, "user-2", record.ID), records.ErrNotFound)
	require.NoError(t, store.DeleteRecord(ctx, "user-1", record.ID))
	require.ErrorIs(t, store.DeleteRecord(ctx, "user-1", record.ID), records.ErrNotFound)

	_, err = store.GetRecord(ctx, "user-1", record.ID)
	require.ErrorIs(t, err, records.ErrNotFound)
}

func TestOpen_FileDatabaseReopens(t *testing.T) {
	path := t.TempDir() + "/prontuarios.db"
	ctx := context.Background()

	store, err := records.Open(ctx, records.DriverSQLite, path)
	require.NoError(t, err)
	record, err := store.CreateRecord(ctx, textRecord("user-1", "Ana"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := records.Open(ctx, records.DriverSQLite, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetRecord(ctx, "user-1", record.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.PatientName)
}
