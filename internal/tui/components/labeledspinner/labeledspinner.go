// Package labeledspinner shows a spinner with a title, a subtitle and the
// time spent waiting.
package labeledspinner

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/stopwatch"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pluma/prontuario/internal/tui/style"
)

// Model displays a spinner with title, subtitle, elapsed time and help text.
type Model struct {
	Spinner  spinner.Model
	Elapsed  stopwatch.Model
	Title    string
	Subtitle string
	Help     string
}

// New creates a new labeled spinner with the given configuration.
func New(s spinner.Spinner, title, subtitle, help string) Model {
	sp := spinner.New()
	sp.Spinner = s

	return Model{
		Spinner:  sp,
		Elapsed:  stopwatch.New(),
		Title:    title,
		Subtitle: subtitle,
		Help:     help,
	}
}

// Init starts the spinner and restarts the elapsed time.
func (ls Model) Init() tea.Cmd {
	return tea.Batch(ls.Spinner.Tick, ls.Elapsed.Reset(), ls.Elapsed.Start())
}

// Update handles spinner ticks and stopwatch messages.
func (ls Model) Update(teaMsg tea.Msg) (Model, tea.Cmd) {
	if tickMsg, ok := teaMsg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		ls.Spinner, cmd = ls.Spinner.Update(tickMsg)

		return ls, cmd
	}

	var cmd tea.Cmd
	ls.Elapsed, cmd = ls.Elapsed.Update(teaMsg)

	return ls, cmd
}

// View renders the labeled spinner with static help text.
func (ls Model) View() string {
	return ls.ViewWithHelp(ls.Help)
}

// ViewWithHelp renders the labeled spinner with dynamic help text.
func (ls Model) ViewWithHelp(help string) string {
	var sb strings.Builder

	sb.WriteString(ls.Spinner.View())
	sb.WriteString(" ")
	sb.WriteString(style.Title.Render(ls.Title))
	sb.WriteString(" ")
	sb.WriteString(style.Muted.Render(ls.Elapsed.View()))
	sb.WriteString("\n\n")

	sb.WriteString(style.Subtitle.Render(ls.Subtitle))
	sb.WriteString("\n\n")

	sb.WriteString(style.Help.Render(help))

	return sb.String()
}
