package steps

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/pluma/prontuario/internal/tui/style"
)

// KeyMap holds the bindings available on every screen.
type KeyMap struct {
	ForceQuit key.Binding
}

// DefaultKeyMap returns the global bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "sair"),
		),
	}
}

func renderKeyHelp(keyBinding key.Binding, suffix ...string) string {
	s := style.Help.Render("[") + style.Key.Render(keyBinding.Help().Key) +
		style.Help.Render("] ") +
		style.Help.Render(keyBinding.Help().Desc)

	s += strings.Join(suffix, "")

	return s
}

func renderHelpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings)+1)
	for _, b := range bindings {
		if b.Enabled() {
			parts = append(parts, renderKeyHelp(b))
		}
	}
	parts = append(parts, renderKeyHelp(DefaultKeyMap().ForceQuit))

	return strings.Join(parts, "  ")
}

func renderError(message string) string {
	if message == "" {
		return ""
	}
	return style.Error.Render("✗ "+message) + "\n\n"
}
