// Package steps implements the TUI screens for each workflow step.
package steps

import (
	"context"
	"time"

	"github.com/pluma/prontuario/internal/capture"
	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/listing"
	"github.com/pluma/prontuario/internal/review"
	"github.com/pluma/prontuario/internal/session"
	"github.com/pluma/prontuario/internal/workflow"
)

// Workflow is the orchestrator the screens drive.
type Workflow interface {
	State() workflow.State
	Submit(ctx context.Context, sess session.Source, input domain.CaptureInput) (workflow.State, error)
	Back() workflow.State
	ViewLibrary() workflow.State
	NewRecord() workflow.State
	MarkSaved(generation uint64, record domain.Record) workflow.State
}

// Records persists and lists prontuários.
type Records interface {
	review.Creator
	listing.Lister
}

// Recorder is the microphone capture lifecycle.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (*domain.Blob, error)
	Reset(ctx context.Context)
	State() capture.State
	BytesCaptured() int64
	Blob() *domain.Blob
	Input() (domain.CaptureInput, bool)
}

// Deps are the collaborators shared by every screen.
type Deps struct {
	Ctx      context.Context
	Workflow Workflow
	Session  session.Source
	Records  Records
	// Recorder is nil when no microphone is available; audio input is
	// then disabled.
	Recorder Recorder
	MaxBytes int64
	Now      func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// StateMsg carries a workflow state change to the current screen.
type StateMsg struct {
	State workflow.State
}
