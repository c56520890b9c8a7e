package steps

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/tui/components/labeledspinner"
	"github.com/pluma/prontuario/internal/workflow"
)

const (
	processingTitle = "Processando prontuário..."
	subtitleText    = "Aguardando o processamento do texto."
	subtitleAudio   = "Enviando o áudio e aguardando o processamento."
)

// Processing waits for the external processing to finish.
type Processing struct {
	deps    Deps
	back    key.Binding
	spinner labeledspinner.Model
}

// NewProcessing creates the processing screen.
func NewProcessing(deps Deps) Processing {
	back := key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "voltar"),
	)

	return Processing{
		deps:    deps,
		back:    back,
		spinner: labeledspinner.New(spinner.Dot, processingTitle, subtitleText, ""),
	}
}

func (m Processing) Init() tea.Cmd {
	return m.spinner.Init()
}

func (m Processing) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		if msg.State.Step == workflow.StepProcessing {
			m.spinner.Subtitle = subtitleText
			if in := msg.State.Input; in != nil && in.Type == domain.InputAudio {
				m.spinner.Subtitle = subtitleAudio
			}
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.back) {
			m.deps.Workflow.Back()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m Processing) View() string {
	return m.spinner.ViewWithHelp(renderHelpLine(m.back))
}
