// Package editor hands a piece of text to the user's $EDITOR.
package editor

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const defaultEditor = "vi"

// Command returns the command that opens filePath in the user's preferred
// editor. $EDITOR may carry arguments, as in "code --wait"; it defaults to
// "vi" if not set.
func Command(filePath string) *exec.Cmd {
	fields := strings.Fields(os.Getenv("EDITOR"))
	if len(fields) == 0 {
		fields = []string{defaultEditor}
	}

	//nolint:gosec // the editor is chosen by the user running the client
	return exec.Command(fields[0], append(fields[1:], filePath)...)
}

// Draft is text written to a temporary file while it is being edited.
type Draft struct {
	path string
}

// NewDraft writes content to a new temporary file.
func NewDraft(content string) (*Draft, error) {
	f, err := os.CreateTemp("", "prontuario-*.md")
	if err != nil {
		return nil, fmt.Errorf("failed to create draft file: %w", err)
	}

	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write draft file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write draft file: %w", err)
	}

	return &Draft{path: f.Name()}, nil
}

// Path returns the draft file location.
func (d *Draft) Path() string {
	return d.path
}

// Read returns the edited text. The single trailing newline most editors
// append is dropped.
func (d *Draft) Read() (string, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		return "", fmt.Errorf("failed to read draft file: %w", err)
	}

	content := strings.TrimSuffix(string(data), "\n")
	return strings.TrimSuffix(content, "\r"), nil
}

// Remove deletes the draft file.
func (d *Draft) Remove() error {
	if err := os.Remove(d.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove draft file: %w", err)
	}
	return nil
}
