package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pluma/prontuario/internal/domain"
)

const recordColumns = `id, user_id, paciente_nome, data_sessao, input_original, input_tipo,
	audio_url, conteudo_processado, status, erro_mensagem, palavras_chave, created_at, updated_at`

// CreateRecord inserts a record. Status defaults to concluido and the
// session date to today.
func (s *Store) CreateRecord(ctx context.Context, rec domain.NewRecord) (domain.Record, error) {
	if rec.UserID == "" || strings.TrimSpace(rec.PatientName) == "" || rec.InputOriginal == "" ||
		strings.TrimSpace(rec.ProcessedContent) == "" {
		return domain.Record{}, domain.Errorf(domain.KindValidation, "Dados obrigatórios não fornecidos")
	}
	if !rec.InputType.Valid() {
		return domain.Record{}, domain.Errorf(domain.KindValidation, "Tipo de entrada inválido: %q", rec.InputType)
	}

	now := s.now()
	if rec.Status == "" {
		rec.Status = domain.StatusDone
	}
	if rec.SessionDate == "" {
		rec.SessionDate = now.Format(domain.SessionDateLayout)
	}
	if rec.Keywords == nil {
		rec.Keywords = []string{}
	}

	keywords, err := json.Marshal(rec.Keywords)
	if err != nil {
		return domain.Record{}, fmt.Errorf("encode keywords: %w", err)
	}

	record := domain.Record{
		ID:               s.newID(),
		UserID:           rec.UserID,
		PatientName:      strings.TrimSpace(rec.PatientName),
		SessionDate:      rec.SessionDate,
		InputOriginal:    rec.InputOriginal,
		InputType:        rec.InputType,
		AudioURL:         rec.AudioURL,
		ProcessedContent: rec.ProcessedContent,
		Status:           rec.Status,
		Keywords:         rec.Keywords,
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}

	timestamp := formatTime(now)
	_, err = s.db.ExecContext(ctx, s.rebind(`INSERT INTO prontuarios (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		record.ID,
		record.UserID,
		record.PatientName,
		record.SessionDate,
		record.InputOriginal,
		string(record.InputType),
		nullableString(record.AudioURL),
		record.ProcessedContent,
		string(record.Status),
		nullableString(""),
		string(keywords),
		timestamp,
		timestamp,
	)
	if err != nil {
		return domain.Record{}, fmt.Errorf("insert record: %w", err)
	}

	return record, nil
}

// ListRecords returns the user's records, newest first.
func (s *Store) ListRecords(ctx context.Context, userID string) ([]domain.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+recordColumns+`
		FROM prontuarios WHERE user_id = ? ORDER BY created_at DESC, id DESC`), userID)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// GetRecord returns one of the user's records.
func (s *Store) GetRecord(ctx context.Context, userID, id string) (domain.Record, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+recordColumns+`
		FROM prontuarios WHERE id = ? AND user_id = ?`), id, userID)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Record{}, ErrNotFound
	}

	return record, err
}

// UpdateRecord changes the editable fields of one of the user's records.
func (s *Store) UpdateRecord(ctx context.Context, userID, id string, upd domain.RecordUpdate) (domain.Record, error) {
	var (
		sets []string
		args []any
	)

	if upd.PatientName != nil {
		name := strings.TrimSpace(*upd.PatientName)
		if name == "" {
			return domain.Record{}, domain.Errorf(domain.KindValidation, "Informe o nome do paciente.")
		}
		sets = append(sets, "paciente_nome = ?")
		args = append(args, name)
	}
	if upd.SessionDate != nil {
		if _, err := time.Parse(domain.SessionDateLayout, *upd.SessionDate); err != nil {
			return domain.Record{}, domain.Errorf(domain.KindValidation, "Data da sessão inválida. Use o formato AAAA-MM-DD.")
		}
		sets = append(sets, "data_sessao = ?")
		args = append(args, *upd.SessionDate)
	}
	if upd.ProcessedContent != nil {
		if strings.TrimSpace(*upd.ProcessedContent) == "" {
			return domain.Record{}, domain.Errorf(domain.KindValidation, "O conteúdo processado não pode ficar vazio.")
		}
		sets = append(sets, "conteudo_processado = ?")
		args = append(args, *upd.ProcessedContent)
	}

	if len(sets) == 0 {
		return s.GetRecord(ctx, userID, id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(s.now()), id, userID)

	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE prontuarios SET `+strings.Join(sets, ", ")+`
		WHERE id = ? AND user_id = ?`), args...)
	if err != nil {
		return domain.Record{}, fmt.Errorf("update record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.Record{}, ErrNotFound
	}

	return s.GetRecord(ctx, userID, id)
}

// DeleteRecord removes one of the user's records.
func (s *Store) DeleteRecord(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM prontuarios WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.Record, error) {
	var (
		record             domain.Record
		inputType, status  string
		audioURL, errMsg   sql.NullString
		keywords           string
		createdAt, updated string
	)

	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.PatientName,
		&record.SessionDate,
		&record.InputOriginal,
		&inputType,
		&audioURL,
		&record.ProcessedContent,
		&status,
		&errMsg,
		&keywords,
		&createdAt,
		&updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Record{}, err
		}
		return domain.Record{}, fmt.Errorf("scan record: %w", err)
	}

	record.InputType = domain.InputType(inputType)
	record.Status = domain.Status(status)
	record.AudioURL = audioURL.String
	record.ErrorMessage = errMsg.String

	if err := json.Unmarshal([]byte(keywords), &record.Keywords); err != nil {
		return domain.Record{}, fmt.Errorf("decode keywords for %s: %w", record.ID, err)
	}

	if record.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Record{}, fmt.Errorf("parse created_at for %s: %w", record.ID, err)
	}
	if record.UpdatedAt, err = parseTime(updated); err != nil {
		return domain.Record{}, fmt.Errorf("parse updated_at for %s: %w", record.ID, err)
	}

	return record, nil
}
