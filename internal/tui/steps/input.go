package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/pluma/prontuario/internal/capture"
	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/tui/style"
	"github.com/pluma/prontuario/internal/workflow"
	"github.com/pluma/prontuario/pkg/uictl"
)

const recordingRefresh = 200 * time.Millisecond

type inputMode int

const (
	modeText inputMode = iota
	modeAudio
)

// InputKeyMap defines the bindings of the capture screen.
type InputKeyMap struct {
	Submit  key.Binding
	Mode    key.Binding
	Record  key.Binding
	Discard key.Binding
	Library key.Binding
}

// DefaultInputKeyMap returns the default bindings of the capture screen.
func DefaultInputKeyMap() InputKeyMap {
	return InputKeyMap{
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "processar"),
		),
		Mode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "texto/áudio"),
		),
		Record: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("espaço", "gravar/parar"),
		),
		Discard: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "descartar áudio"),
		),
		Library: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "meus prontuários"),
		),
	}
}

type (
	submittedMsg  struct{ err error }
	recordTickMsg struct{}
	recorderMsg   struct{ err error }
)

// recorderKnob exposes the capture unit as an on/off control.
type recorderKnob struct {
	ctx context.Context
	rec Recorder
}

func (k recorderKnob) Read() bool {
	return k.rec.State() == capture.StateRecording
}

func (k recorderKnob) Toggle() error {
	if k.Read() {
		_, err := k.rec.Stop(k.ctx)
		return err
	}
	return k.rec.Start(k.ctx)
}

// Input is the capture screen: free text or a microphone recording.
type Input struct {
	deps     Deps
	keys     InputKeyMap
	mode     inputMode
	text     textarea.Model
	progress progress.Model
	knob     uictl.Knob
	size     uictl.CappedDial[int64]
	busy     bool
	errMsg   string
}

// NewInput creates the capture screen.
func NewInput(deps Deps) Input {
	ta := textarea.New()
	ta.Placeholder = "Descreva a sessão..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(72)
	ta.SetHeight(8)
	ta.Focus()

	m := Input{
		deps: deps,
		keys: DefaultInputKeyMap(),
		text: ta,
		progress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
	}

	if deps.Recorder != nil {
		m.knob = recorderKnob{ctx: deps.Ctx, rec: deps.Recorder}
		m.size = uictl.CappedFunc[int64]{ReadFunc: recordedBytes(deps.Recorder), Max: deps.MaxBytes}
	} else {
		m.keys.Mode.SetEnabled(false)
	}
	m.applyMode()

	return m
}

func (m Input) Init() tea.Cmd {
	return textarea.Blink
}

func (m Input) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case StateMsg:
		return m.onState(msg.State)

	case submittedMsg:
		m.busy = false
		if msg.err != nil {
			m.errMsg = domain.UserMessage(msg.err)
		}
		return m, nil

	case recorderMsg:
		if msg.err != nil {
			m.errMsg = domain.UserMessage(msg.err)
			return m, nil
		}
		if m.knob.Read() {
			return m, tickRecording()
		}
		return m, nil

	case recordTickMsg:
		if m.knob != nil && m.knob.Read() {
			return m, tickRecording()
		}
		return m, nil

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Submit):
			return m.submit()
		case key.Matches(msg, m.keys.Library):
			m.deps.Workflow.ViewLibrary()
			return m, nil
		case key.Matches(msg, m.keys.Mode):
			if m.knob != nil && m.knob.Read() {
				return m, nil
			}
			if m.mode == modeText {
				m.mode = modeAudio
			} else {
				m.mode = modeText
			}
			m.applyMode()
			return m, nil
		case m.mode == modeAudio && key.Matches(msg, m.keys.Record):
			m.errMsg = ""
			knob := m.knob
			return m, func() tea.Msg { return recorderMsg{err: knob.Toggle()} }
		case m.mode == modeAudio && key.Matches(msg, m.keys.Discard):
			if !m.knob.Read() {
				m.deps.Recorder.Reset(m.deps.Ctx)
			}
			return m, nil
		}
	}

	if m.mode != modeText {
		return m, nil
	}

	var cmd tea.Cmd
	m.text, cmd = m.text.Update(msg)

	return m, cmd
}

func (m Input) onState(st workflow.State) (tea.Model, tea.Cmd) {
	if st.Step != workflow.StepInput {
		return m, nil
	}

	// A failed submission discards the capture too; the error stays visible
	// through the workflow state.
	m.busy = false
	m.errMsg = ""
	m.text.Reset()
	if m.deps.Recorder != nil {
		m.deps.Recorder.Reset(m.deps.Ctx)
	}

	return m, nil
}

func (m Input) submit() (tea.Model, tea.Cmd) {
	var input domain.CaptureInput
	if m.mode == modeAudio {
		if m.knob.Read() {
			m.errMsg = "Pare a gravação antes de processar."
			return m, nil
		}
		in, ok := m.deps.Recorder.Input()
		if !ok {
			m.errMsg = "Nenhum arquivo de áudio fornecido."
			return m, nil
		}
		input = in
	} else {
		input = domain.TextInput(m.text.Value())
	}

	if err := input.Validate(); err != nil {
		m.errMsg = domain.UserMessage(err)
		return m, nil
	}

	m.busy = true
	m.errMsg = ""
	deps := m.deps

	return m, func() tea.Msg {
		_, err := deps.Workflow.Submit(deps.Ctx, deps.Session, input)
		return submittedMsg{err: err}
	}
}

func (m *Input) applyMode() {
	audio := m.mode == modeAudio
	m.keys.Record.SetEnabled(audio)
	m.keys.Discard.SetEnabled(audio)
	if audio {
		m.text.Blur()
	} else {
		m.text.Focus()
	}
}

func (m Input) View() string {
	var sb strings.Builder

	sb.WriteString(style.Title.Render("Nova sessão"))
	sb.WriteString("\n\n")

	failure := m.errMsg
	if failure == "" {
		failure = m.deps.Workflow.State().ErrorMessage()
	}
	sb.WriteString(renderError(failure))

	if m.mode == modeAudio {
		sb.WriteString(m.audioView())
	} else {
		sb.WriteString(m.text.View())
	}
	sb.WriteString("\n\n")

	if m.busy {
		sb.WriteString(style.Muted.Render("Enviando..."))
		sb.WriteString("\n\n")
	}

	sb.WriteString(renderHelpLine(m.keys.Submit, m.keys.Mode, m.keys.Record, m.keys.Discard, m.keys.Library))

	return sb.String()
}

func (m Input) audioView() string {
	var sb strings.Builder

	switch m.deps.Recorder.State() {
	case capture.StateRecording:
		sb.WriteString(style.Error.Render("● Gravando"))
	case capture.StateStopped:
		sb.WriteString(style.Success.Render("■ Gravação pronta para processar"))
	default:
		sb.WriteString(style.Subtitle.Render("Pressione espaço para gravar"))
	}
	sb.WriteString("\n\n")

	current, maxBytes := m.size.Cap()
	sb.WriteString(m.progress.ViewAs(uictl.Fraction(m.size)))
	sb.WriteString("\n")
	sb.WriteString(style.Subtitle.Render(formatBytes(current, maxBytes)))
	if maxBytes > 0 && current > maxBytes {
		sb.WriteString("\n")
		sb.WriteString(style.Warning.Render("A gravação excede o tamanho máximo de envio."))
	}

	return sb.String()
}

// recordedBytes reads the live buffer while recording and the finalized
// blob afterwards.
func recordedBytes(rec Recorder) func() int64 {
	return func() int64 {
		if blob := rec.Blob(); blob != nil {
			return blob.Size()
		}
		return rec.BytesCaptured()
	}
}

func tickRecording() tea.Cmd {
	return tea.Tick(recordingRefresh, func(time.Time) tea.Msg { return recordTickMsg{} })
}

func formatBytes(current, maxBytes int64) string {
	if maxBytes <= 0 {
		return humanize.IBytes(uint64(current))
	}
	return fmt.Sprintf("%s / %s", humanize.IBytes(uint64(current)), humanize.IBytes(uint64(maxBytes)))
}
