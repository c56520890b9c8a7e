// Package phases switches between named screens, initializing each one as
// it becomes current.
package phases

import (
	tea "github.com/charmbracelet/bubbletea"
)

// GotoMsg asks the container to make the named phase current.
type GotoMsg struct {
	Name string
}

// Goto returns a command that switches to the named phase.
func Goto(name string) tea.Cmd {
	return func() tea.Msg { return GotoMsg{Name: name} }
}

type Phase struct {
	Name string
	mdl  tea.Model
}

func (p Phase) Init() tea.Cmd {
	return p.mdl.Init()
}

func (p Phase) Update(msg tea.Msg) (Phase, tea.Cmd) {
	updatedMdl, cmd := p.mdl.Update(msg)
	p.mdl = updatedMdl
	return p, cmd
}

func (p Phase) View() string {
	return p.mdl.View()
}

func NewPhase(name string, mdl tea.Model) Phase {
	return Phase{
		Name: name,
		mdl:  mdl,
	}
}

// Model holds the phases; the first one is current initially.
type Model struct {
	phases []Phase
	curr   int
}

func New(phases []Phase) Model {
	return Model{
		phases: phases,
		curr:   0,
	}
}

func (m Model) currentPhase() Phase {
	return m.phases[m.curr]
}

func (m Model) Init() tea.Cmd {
	return m.currentPhase().Init()
}

// Switch makes the named phase current and initializes it. Switching to
// the current phase or an unknown name does nothing.
func (m Model) Switch(name string) (Model, tea.Cmd) {
	for i, ph := range m.phases {
		if ph.Name != name {
			continue
		}
		if i == m.curr {
			return m, nil
		}
		m.curr = i
		return m, m.currentPhase().Init()
	}

	return m, nil
}

func (m Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	if gotoMsg, ok := teaMsg.(GotoMsg); ok {
		return m.Switch(gotoMsg.Name)
	}

	ph, cmd := m.currentPhase().Update(teaMsg)
	m.phases[m.curr] = ph

	return m, cmd
}

func (m Model) View() string {
	return m.currentPhase().View()
}

// CurrentPhaseName returns the name of the current phase.
func (m Model) CurrentPhaseName() string {
	return m.currentPhase().Name
}
