// Package listing renders the signed-in user's records for the library view.
package listing

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/session"
	"github.com/pluma/prontuario/pkg/collections"
)

const (
	// PreviewRunes is the length of the content preview.
	PreviewRunes = 150
	// MaxKeywordBadges is how many keywords each entry shows.
	MaxKeywordBadges = 3

	displayDateLayout = "02/01/2006"
)

// Lister is the persistence collaborator. Records come back newest first.
type Lister interface {
	ListRecords(ctx context.Context, userID string) ([]domain.Record, error)
}

// Entry is one row of the library.
type Entry struct {
	Record      domain.Record `json:"record"`
	StatusLabel string        `json:"status_label"`
	Preview     string        `json:"preview"`
	Keywords    []string      `json:"keywords"`
	SessionDate string        `json:"session_date"`
}

// Page is the library view. Pagination and filtering are not supported.
type Page struct {
	Entries []Entry `json:"entries"`
}

// Empty reports whether the user has no records yet.
func (p Page) Empty() bool {
	return len(p.Entries) == 0
}

// Load resolves the current user and fetches their records.
func Load(ctx context.Context, sess session.Source, lister Lister) (Page, error) {
	current, err := sess.Current(ctx)
	if err != nil {
		return Page{}, domain.NewError(domain.KindUnauthenticated, "Usuário não autenticado", err)
	}

	records, err := lister.ListRecords(ctx, current.UserID)
	if err != nil {
		return Page{}, domain.NewError(domain.KindPersistenceFailed, "Erro ao carregar prontuários", err)
	}

	return Page{Entries: collections.Apply(records, NewEntry)}, nil
}

// NewEntry derives the display fields of a record.
func NewEntry(record domain.Record) Entry {
	return Entry{
		Record:      record,
		StatusLabel: record.Status.Label(),
		Preview:     Preview(record.ProcessedContent),
		Keywords:    append([]string{}, collections.Take(record.Keywords, MaxKeywordBadges)...),
		SessionDate: displayDate(record.SessionDate),
	}
}

// Preview returns the first PreviewRunes runes of content, with an
// ellipsis when it was cut.
func Preview(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= PreviewRunes {
		return content
	}

	runes := []rune(content)
	return strings.TrimRightFunc(string(runes[:PreviewRunes]), func(r rune) bool { return r == ' ' }) + "…"
}

func displayDate(date string) string {
	t, err := time.Parse(domain.SessionDateLayout, date)
	if err != nil {
		return date
	}
	return t.Format(displayDateLayout)
}
