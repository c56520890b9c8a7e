package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/pluma/prontuario/internal/listing"
)

// ListCmd prints the signed-in user's prontuários.
type ListCmd struct{}

// Run executes the list command.
func (c *ListCmd) Run(g *Globals) error {
	ctx := context.Background()

	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := listing.Load(ctx, a.session, a.records)
	if err != nil {
		return err
	}

	if page.Empty() {
		fmt.Println("Nenhum prontuário salvo ainda.")
		return nil
	}

	fmt.Println(renderTable(
		[]string{"Data", "Paciente", "Status", "Palavras-chave", "Prévia"},
		entryRows(page.Entries),
		[]columnAlignment{alignRight},
	))

	return nil
}

func entryRows(entries []listing.Entry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.SessionDate,
			e.Record.PatientName,
			e.StatusLabel,
			strings.Join(e.Keywords, ", "),
			e.Preview,
		})
	}

	return rows
}
