// Package tui is the terminal front end of the prontuário workflow.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pluma/prontuario/internal/tui/components/phases"
	"github.com/pluma/prontuario/internal/tui/steps"
	"github.com/pluma/prontuario/internal/tui/style"
	"github.com/pluma/prontuario/internal/workflow"
)

// Config wires the TUI to the workflow.
type Config struct {
	Deps steps.Deps
	// Updates delivers workflow state changes. Closing it stops delivery.
	Updates <-chan workflow.State
	// User is shown in the header.
	User   string
	Cancel context.CancelFunc
}

var stepLabels = map[workflow.Step]string{
	workflow.StepInput:      "Captura",
	workflow.StepProcessing: "Processamento",
	workflow.StepSave:       "Revisão",
	workflow.StepLibrary:    "Biblioteca",
}

type model struct {
	config Config
	keys   steps.KeyMap
	phases phases.Model
	width  int
}

// New creates the root model. The first screen shown is the one for the
// workflow's current step.
func New(config Config) tea.Model {
	deps := config.Deps
	ph := phases.New([]phases.Phase{
		phases.NewPhase(string(workflow.StepInput), steps.NewInput(deps)),
		phases.NewPhase(string(workflow.StepProcessing), steps.NewProcessing(deps)),
		phases.NewPhase(string(workflow.StepSave), steps.NewReview(deps)),
		phases.NewPhase(string(workflow.StepLibrary), steps.NewLibrary(deps)),
	})

	return &model{
		config: config,
		keys:   steps.DefaultKeyMap(),
		phases: ph,
		width:  80,
	}
}

func (m *model) Init() tea.Cmd {
	current := m.config.Deps.Workflow.State()

	return tea.Batch(
		m.phases.Init(),
		func() tea.Msg { return steps.StateMsg{State: current} },
		waitForState(m.config.Updates),
	)
}

func (m *model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := teaMsg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			if m.config.Cancel != nil {
				m.config.Cancel()
			}
			return m, tea.Quit
		}

	case stateUpdateMsg:
		ph, switchCmd := m.phases.Switch(string(msg.state.Step))
		updated, cmd := ph.Update(steps.StateMsg{State: msg.state})
		m.phases = updated.(phases.Model) //nolint:forcetypeassert // phases.Model always returns phases.Model

		return m, tea.Batch(switchCmd, cmd, waitForState(m.config.Updates))

	case steps.StateMsg:
		ph, switchCmd := m.phases.Switch(string(msg.State.Step))
		updated, cmd := ph.Update(msg)
		m.phases = updated.(phases.Model) //nolint:forcetypeassert // phases.Model always returns phases.Model

		return m, tea.Batch(switchCmd, cmd)
	}

	updated, cmd := m.phases.Update(teaMsg)
	m.phases = updated.(phases.Model) //nolint:forcetypeassert // phases.Model always returns phases.Model

	return m, cmd
}

func (m *model) View() string {
	var sb strings.Builder

	sb.WriteString(style.Subtitle.Render("Prontuário · " + stepLabels[workflow.Step(m.phases.CurrentPhaseName())]))
	if m.config.User != "" {
		sb.WriteString(style.Muted.Render("  " + m.config.User))
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.phases.View())
	sb.WriteString("\n")

	return sb.String()
}

// stateUpdateMsg is a state received from the subscription; handling it
// re-arms the wait.
type stateUpdateMsg struct {
	state workflow.State
}

func waitForState(updates <-chan workflow.State) tea.Cmd {
	if updates == nil {
		return nil
	}

	return func() tea.Msg {
		state, ok := <-updates
		if !ok {
			return nil
		}
		return stateUpdateMsg{state: state}
	}
}
