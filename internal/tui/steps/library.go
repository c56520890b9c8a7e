package steps

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/listing"
	"github.com/pluma/prontuario/internal/tui/style"
	"github.com/pluma/prontuario/internal/workflow"
)

// LibraryKeyMap defines the bindings of the library screen.
type LibraryKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Expand  key.Binding
	Refresh key.Binding
	New     key.Binding
}

// DefaultLibraryKeyMap returns the default bindings of the library screen.
func DefaultLibraryKeyMap() LibraryKeyMap {
	return LibraryKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "anterior"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "próximo"),
		),
		Expand: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "ver conteúdo"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "atualizar"),
		),
		New: key.NewBinding(
			key.WithKeys("n", "ctrl+n"),
			key.WithHelp("n", "nova sessão"),
		),
	}
}

type pageMsg struct {
	page listing.Page
	err  error
}

// Library lists the signed-in user's prontuários.
type Library struct {
	deps     Deps
	keys     LibraryKeyMap
	page     listing.Page
	loading  bool
	selected int
	expanded bool
	errMsg   string
}

// NewLibrary creates the library screen.
func NewLibrary(deps Deps) Library {
	return Library{
		deps: deps,
		keys: DefaultLibraryKeyMap(),
	}
}

func (m Library) Init() tea.Cmd {
	return nil
}

func (m Library) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		if msg.State.Step != workflow.StepLibrary {
			return m, nil
		}
		return m.load()

	case pageMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = domain.UserMessage(msg.err)
			return m, nil
		}
		m.errMsg = ""
		m.page = msg.page
		m.selected = min(m.selected, max(len(m.page.Entries)-1, 0))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.New):
			m.deps.Workflow.NewRecord()
		case key.Matches(msg, m.keys.Refresh):
			if !m.loading {
				return m.load()
			}
		case key.Matches(msg, m.keys.Up):
			if m.selected > 0 {
				m.selected--
				m.expanded = false
			}
		case key.Matches(msg, m.keys.Down):
			if m.selected < len(m.page.Entries)-1 {
				m.selected++
				m.expanded = false
			}
		case key.Matches(msg, m.keys.Expand):
			m.expanded = !m.expanded
		}
	}

	return m, nil
}

func (m Library) load() (tea.Model, tea.Cmd) {
	m.loading = true
	deps := m.deps

	return m, func() tea.Msg {
		page, err := listing.Load(deps.Ctx, deps.Session, deps.Records)
		return pageMsg{page: page, err: err}
	}
}

func (m Library) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Meus prontuários"))
	sb.WriteString("\n\n")
	sb.WriteString(renderError(m.errMsg))

	switch {
	case m.loading && m.page.Empty():
		sb.WriteString(style.Muted.Render("Carregando..."))
	case m.page.Empty():
		sb.WriteString(style.Muted.Render("Nenhum prontuário salvo ainda."))
	default:
		for i, entry := range m.page.Entries {
			sb.WriteString(m.renderEntry(entry, i == m.selected))
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")

	sb.WriteString(renderHelpLine(m.keys.Up, m.keys.Down, m.keys.Expand, m.keys.Refresh, m.keys.New))

	return sb.String()
}

func (m Library) renderEntry(entry listing.Entry, selected bool) string {
	var sb strings.Builder

	name := entry.Record.PatientName
	if selected {
		sb.WriteString(style.Selected.Render("▸ " + name))
	} else {
		sb.WriteString("  " + name)
	}
	sb.WriteString("  ")
	sb.WriteString(style.Muted.Render(entry.SessionDate))
	sb.WriteString(" ")
	sb.WriteString(style.Status(string(entry.Record.Status), entry.StatusLabel))
	sb.WriteString("\n")

	if selected && m.expanded {
		sb.WriteString(style.Panel.Render(entry.Record.ProcessedContent))
	} else {
		sb.WriteString("  " + style.Muted.Render(entry.Preview))
	}
	sb.WriteString("\n")

	if len(entry.Keywords) > 0 {
		badges := make([]string, 0, len(entry.Keywords))
		for _, kw := range entry.Keywords {
			badges = append(badges, style.Keyword.Render("#"+kw))
		}
		sb.WriteString("  " + strings.Join(badges, " "))
		sb.WriteString("\n")
	}

	return sb.String()
}
