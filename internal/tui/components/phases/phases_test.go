package phases_test

import (
	"bytes"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/muesli/termenv"
	"github.com/pluma/prontuario/internal/tui/components/phases"
	"github.com/pluma/prontuario/pkg/collections"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//nolint:gochecknoinits // recommend for CI by bubbletea folks
func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestPhases(t *testing.T) {
	checker := outputChecker{
		intervl: 100 * time.Millisecond,
		timeout: 1 * time.Second,
	}

	input := &modelMock{t: t, name: "screen-input"}
	processing := &modelMock{t: t, name: "screen-processing"}
	save := &modelMock{t: t, name: "screen-save"}
	library := &modelMock{t: t, name: "screen-library"}
	all := []*modelMock{input, processing, save, library}

	inits := func() []bool {
		return collections.Apply(all, func(m *modelMock) bool { return m.initCalled.Load() })
	}
	updates := func() []bool {
		return collections.Apply(all, func(m *modelMock) bool { return m.updated.Load() })
	}

	ph := phases.New([]phases.Phase{
		phases.NewPhase("input", input),
		phases.NewPhase("processing", processing),
		phases.NewPhase("save", save),
		phases.NewPhase("library", library),
	})

	tm := teatest.NewTestModel(t, ph, teatest.WithInitialTermSize(300, 100))

	t.Run("initial phase is input", func(t *testing.T) {
		checker.CheckString(t, tm, "screen-input")
		require.Equal(t, []bool{true, false, false, false}, inits(), "check state of inits across phases")
		require.Equal(t, []bool{false, false, false, false}, updates(), "check state of updates across phases")
	})

	t.Run("jump to library", func(t *testing.T) {
		tm.Send(phases.GotoMsg{Name: "library"})
		checker.CheckString(t, tm, "screen-library")
		require.Equal(t, []bool{true, false, false, true}, inits(), "check state of inits across phases")
	})

	t.Run("phase requests a switch", func(t *testing.T) {
		tm.Send(mockMsg{gotoName: "save"})
		checker.CheckString(t, tm, "screen-save")
		require.Equal(t, []bool{true, false, true, true}, inits(), "check state of inits across phases")
		require.Equal(t, []bool{false, false, false, true}, updates(), "only the current phase sees messages")
	})

	require.NoError(t, tm.Quit())
}

func TestSwitch(t *testing.T) {
	a := &modelMock{t: t, name: "a"}
	b := &modelMock{t: t, name: "b"}
	m := phases.New([]phases.Phase{phases.NewPhase("a", a), phases.NewPhase("b", b)})

	m, _ = m.Switch("a")
	assert.Equal(t, "a", m.CurrentPhaseName())
	assert.False(t, a.initCalled.Load(), "switching to the current phase does not re-init")

	m, _ = m.Switch("b")
	assert.Equal(t, "b", m.CurrentPhaseName())
	assert.True(t, b.initCalled.Load())
	assert.Equal(t, "b", m.View())

	m, cmd := m.Switch("nowhere")
	assert.Nil(t, cmd)
	assert.Equal(t, "b", m.CurrentPhaseName())
}

type modelMock struct {
	t          *testing.T
	name       string
	updated    atomic.Bool
	initCalled atomic.Bool
}

func (m *modelMock) Init() tea.Cmd {
	m.initCalled.Store(true)
	return nil
}

func (m *modelMock) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.t.Logf("modelMock Update called: %s, msg: %#v\n", m.name, msg)

	if msg, ok := msg.(mockMsg); ok {
		m.updated.Store(true)
		if msg.gotoName != "" {
			return m, phases.Goto(msg.gotoName)
		}
	}

	return m, nil
}

func (m *modelMock) View() string { return m.name }

type outputChecker struct {
	intervl, timeout time.Duration
}

func (o outputChecker) Check(t *testing.T, tm *teatest.TestModel, check func(buf []byte) bool) {
	teatest.WaitFor(t, tm.Output(), check,
		teatest.WithCheckInterval(o.intervl),
		teatest.WithDuration(o.timeout))
}

func (o outputChecker) CheckString(t *testing.T, tm *teatest.TestModel, substr string) {
	o.Check(t, tm, func(buf []byte) bool {
		return bytes.Contains(buf, []byte(substr))
	})
}

type mockMsg struct {
	gotoName string
}
