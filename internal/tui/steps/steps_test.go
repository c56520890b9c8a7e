package steps

import (
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/pluma/prontuario/internal/capture"
	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/listing"
	"github.com/pluma/prontuario/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512, 0))
	assert.Equal(t, "1.0 MiB / 50 MiB", formatBytes(1<<20, 50<<20))
}

func TestRenderHelpLine_SkipsDisabled(t *testing.T) {
	keys := DefaultInputKeyMap()
	keys.Record.SetEnabled(false)

	line := renderHelpLine(keys.Submit, keys.Record)

	assert.Contains(t, line, "[ctrl+s] processar")
	assert.NotContains(t, line, "gravar")
	assert.True(t, strings.HasSuffix(line, "[ctrl+c] sair"))
}

func TestLibrary_RenderEntry(t *testing.T) {
	entry := listing.NewEntry(domain.Record{
		PatientName:      "Maria Souza",
		SessionDate:      "2026-10-19",
		Status:           domain.StatusDone,
		Keywords:         []string{"ansiedade", "sono"},
		ProcessedContent: "Paciente relatou melhora do sono.",
	})
	m := NewLibrary(Deps{})

	collapsed := m.renderEntry(entry, true)
	assert.Contains(t, collapsed, "▸ Maria Souza")
	assert.Contains(t, collapsed, "19/10/2026")
	assert.Contains(t, collapsed, "[Concluído]")
	assert.Contains(t, collapsed, "#ansiedade #sono")

	m.expanded = true
	expanded := m.renderEntry(entry, true)
	assert.Contains(t, expanded, "Paciente relatou melhora do sono.")
	assert.Contains(t, expanded, "╭", "expanded content is framed")

	other := m.renderEntry(entry, false)
	assert.NotContains(t, other, "▸")
}

// stoppedRecorder holds a finished recording until Reset.
type stoppedRecorder struct {
	blob   *domain.Blob
	resets int
}

func (r *stoppedRecorder) Start(context.Context) error { return nil }

func (r *stoppedRecorder) Stop(context.Context) (*domain.Blob, error) { return r.blob, nil }

func (r *stoppedRecorder) Reset(context.Context) {
	r.resets++
	r.blob = nil
}

func (r *stoppedRecorder) State() capture.State {
	if r.blob == nil {
		return capture.StateIdle
	}
	return capture.StateStopped
}

func (r *stoppedRecorder) BytesCaptured() int64 { return 0 }

func (r *stoppedRecorder) Blob() *domain.Blob { return r.blob }

func (r *stoppedRecorder) Input() (domain.CaptureInput, bool) {
	if r.blob == nil {
		return domain.CaptureInput{}, false
	}
	return domain.AudioInput(r.blob), true
}

func TestInput_FailureDiscardsCapture(t *testing.T) {
	rec := &stoppedRecorder{blob: &domain.Blob{Data: []byte("abc"), ContentType: "audio/mpeg"}}
	m := NewInput(Deps{Ctx: context.Background(), Recorder: rec})
	m.text.SetValue("Paciente relatou melhora.")

	next, _ := m.onState(workflow.State{
		Step: workflow.StepInput,
		Err:  domain.Errorf(domain.KindUpstreamProcessingFailed, "Falha ao processar prontuário. Status: 500. Erro: boom"),
	})
	got, ok := next.(Input)
	require.True(t, ok)

	assert.Empty(t, got.text.Value())
	assert.Equal(t, 1, rec.resets)
	assert.Nil(t, rec.Blob())
}

func TestInput_OtherStepsKeepCapture(t *testing.T) {
	rec := &stoppedRecorder{blob: &domain.Blob{Data: []byte("abc"), ContentType: "audio/mpeg"}}
	m := NewInput(Deps{Ctx: context.Background(), Recorder: rec})
	m.text.SetValue("Rascunho.")

	next, _ := m.onState(workflow.State{Step: workflow.StepProcessing})
	got, ok := next.(Input)
	require.True(t, ok)

	assert.Equal(t, "Rascunho.", got.text.Value())
	assert.Zero(t, rec.resets)
}
