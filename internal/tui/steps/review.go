package steps

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/editor"
	"github.com/pluma/prontuario/internal/review"
	"github.com/pluma/prontuario/internal/tui/style"
	"github.com/pluma/prontuario/internal/workflow"
)

const (
	fieldName = iota
	fieldDate
	fieldContent
	fieldCount
)

// ReviewKeyMap defines the bindings of the review screen.
type ReviewKeyMap struct {
	Save    key.Binding
	Next    key.Binding
	Edit    key.Binding
	Discard key.Binding
	New     key.Binding
	Library key.Binding
}

// DefaultReviewKeyMap returns the default bindings of the review screen.
func DefaultReviewKeyMap() ReviewKeyMap {
	return ReviewKeyMap{
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "salvar"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "próximo campo"),
		),
		Edit: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "abrir no editor"),
		),
		Discard: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "descartar"),
		),
		New: key.NewBinding(
			key.WithKeys("n", "ctrl+n"),
			key.WithHelp("n", "nova sessão"),
		),
		Library: key.NewBinding(
			key.WithKeys("l", "ctrl+l"),
			key.WithHelp("l", "meus prontuários"),
		),
	}
}

type savedMsg struct {
	record domain.Record
	err    error
}

type editedMsg struct {
	content string
	err     error
}

// Review lets the user name, date and edit the processed content before
// saving it.
type Review struct {
	deps       Deps
	keys       ReviewKeyMap
	form       *review.Form
	generation uint64
	name       textinput.Model
	date       textinput.Model
	content    textarea.Model
	focus      int
	saving     bool
	saved      *domain.Record
	errMsg     string
}

// NewReview creates the review screen.
func NewReview(deps Deps) Review {
	name := textinput.New()
	name.Placeholder = "Nome do paciente"
	name.Prompt = ""
	name.Width = 40

	date := textinput.New()
	date.Placeholder = domain.SessionDateLayout
	date.Prompt = ""
	date.CharLimit = len(domain.SessionDateLayout)
	date.Width = 12

	content := textarea.New()
	content.ShowLineNumbers = false
	content.CharLimit = 0
	content.SetWidth(72)
	content.SetHeight(10)

	return Review{
		deps:    deps,
		keys:    DefaultReviewKeyMap(),
		name:    name,
		date:    date,
		content: content,
	}
}

func (m Review) Init() tea.Cmd {
	return textinput.Blink
}

func (m Review) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		return m.onState(msg.State), nil

	case savedMsg:
		m.saving = false
		if msg.err != nil {
			m.errMsg = domain.UserMessage(msg.err)
			return m, nil
		}
		m.saved = &msg.record
		m.blurAll()
		m.deps.Workflow.MarkSaved(m.generation, msg.record)
		return m, nil

	case editedMsg:
		if msg.err != nil {
			m.errMsg = "Falha ao abrir o editor: " + msg.err.Error()
			return m, nil
		}
		m.content.SetValue(msg.content)
		m.focus = fieldContent
		return m, m.focusCurrent()

	case tea.KeyMsg:
		if m.saving || m.form == nil {
			return m, nil
		}
		if m.saved != nil {
			switch {
			case key.Matches(msg, m.keys.New):
				m.deps.Workflow.NewRecord()
			case key.Matches(msg, m.keys.Library):
				m.deps.Workflow.ViewLibrary()
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Save):
			return m.save()
		case key.Matches(msg, m.keys.Discard):
			m.deps.Workflow.NewRecord()
			return m, nil
		case key.Matches(msg, m.keys.Edit):
			return m, openEditor(m.content.Value())
		case key.Matches(msg, m.keys.Next):
			m.focus = (m.focus + 1) % fieldCount
			return m, m.focusCurrent()
		}
	}

	if m.saved != nil {
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldName:
		m.name, cmd = m.name.Update(msg)
	case fieldDate:
		m.date, cmd = m.date.Update(msg)
	case fieldContent:
		m.content, cmd = m.content.Update(msg)
	}

	return m, cmd
}

func (m Review) onState(st workflow.State) Review {
	if st.Step != workflow.StepSave || st.Record == nil || st.Generation == m.generation {
		return m
	}

	m.generation = st.Generation
	m.form = review.New(*st.Record, m.deps.Now)
	m.saved = nil
	m.saving = false
	m.errMsg = ""

	fields := m.form.Fields()
	m.name.SetValue(fields.PatientName)
	m.date.SetValue(fields.SessionDate)
	m.content.SetValue(fields.ProcessedContent)
	m.focus = fieldName
	m.focusCurrent()

	return m
}

func (m Review) save() (tea.Model, tea.Cmd) {
	// The form is only edited here so it never sees half-typed values.
	for _, err := range []error{
		m.form.SetPatientName(m.name.Value()),
		m.form.SetSessionDate(m.date.Value()),
		m.form.EditContent(m.content.Value()),
	} {
		if err != nil {
			m.errMsg = domain.UserMessage(err)
			return m, nil
		}
	}

	m.saving = true
	m.errMsg = ""
	form, deps := m.form, m.deps

	return m, func() tea.Msg {
		record, err := form.Submit(deps.Ctx, deps.Session, deps.Records)
		return savedMsg{record: record, err: err}
	}
}

// openEditor suspends the TUI while $EDITOR edits the content.
func openEditor(content string) tea.Cmd {
	draft, err := editor.NewDraft(content)
	if err != nil {
		return func() tea.Msg { return editedMsg{err: err} }
	}

	return tea.ExecProcess(editor.Command(draft.Path()), func(err error) tea.Msg {
		defer func() { _ = draft.Remove() }()
		if err != nil {
			return editedMsg{err: err}
		}

		edited, err := draft.Read()
		return editedMsg{content: edited, err: err}
	})
}

func (m *Review) focusCurrent() tea.Cmd {
	m.blurAll()
	switch m.focus {
	case fieldName:
		return m.name.Focus()
	case fieldDate:
		return m.date.Focus()
	default:
		return m.content.Focus()
	}
}

func (m *Review) blurAll() {
	m.name.Blur()
	m.date.Blur()
	m.content.Blur()
}

func (m Review) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Revisar prontuário"))
	sb.WriteString("\n\n")

	if m.form == nil {
		sb.WriteString(style.Muted.Render("Nenhum prontuário aguardando revisão."))
		return sb.String()
	}

	if m.saved != nil {
		sb.WriteString(style.Success.Render("✓ Prontuário salvo"))
		sb.WriteString(" ")
		sb.WriteString(style.Muted.Render(m.saved.PatientName))
		sb.WriteString("\n\n")
		sb.WriteString(style.Panel.Render(m.saved.ProcessedContent))
		sb.WriteString("\n\n")
		sb.WriteString(renderHelpLine(m.keys.New, m.keys.Library))
		return sb.String()
	}

	sb.WriteString(renderError(m.errMsg))

	sb.WriteString(style.Label.Render("Paciente: "))
	sb.WriteString(m.name.View())
	sb.WriteString("\n")
	sb.WriteString(style.Label.Render("Data: "))
	sb.WriteString(m.date.View())
	sb.WriteString("\n\n")
	sb.WriteString(m.content.View())
	sb.WriteString("\n\n")

	if m.saving {
		sb.WriteString(style.Muted.Render("Salvando..."))
		sb.WriteString("\n\n")
	}

	sb.WriteString(renderHelpLine(m.keys.Save, m.keys.Next, m.keys.Edit, m.keys.Discard))

	return sb.String()
}
