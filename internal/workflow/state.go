// Package workflow drives one submission at a time from capture through
// external processing to the review step.
package workflow

import (
	"github.com/pluma/prontuario/internal/domain"
)

// Step is the position of the workflow.
type Step string

const (
	StepInput      Step = "input"
	StepProcessing Step = "processing"
	StepSave       Step = "save"
	StepLibrary    Step = "library"
)

// State is an immutable snapshot of the workflow.
//
// Generation increases every time a submission starts or in-flight work is
// abandoned. Results carry the generation they were started under and are
// dropped when it no longer matches.
type State struct {
	Step       Step
	Generation uint64
	// Err is the failure of the last submission, shown above the input.
	Err *domain.Error
	// Input is the submission being processed.
	Input *domain.CaptureInput
	// Record is the processed content awaiting review.
	Record *domain.ProcessedRecord
	// Saved is set once the reviewed record has been persisted.
	Saved *domain.Record
}

// Initial is the state of a fresh workflow.
func Initial() State {
	return State{Step: StepInput}
}

// ErrorMessage returns the localized failure text, empty when none.
func (s State) ErrorMessage() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Message
}

// Event is something that happened to the workflow.
type Event interface {
	event()
}

type (
	// Submitted starts processing input.
	Submitted struct{ Input domain.CaptureInput }

	// UploadFailed reports that the audio could not be stored.
	UploadFailed struct {
		Generation uint64
		Err        *domain.Error
	}

	// ProcessingFailed reports a failed call to the processing endpoint.
	ProcessingFailed struct {
		Generation uint64
		Err        *domain.Error
	}

	// ProcessingSucceeded carries the processed content.
	ProcessingSucceeded struct {
		Generation uint64
		Record     domain.ProcessedRecord
	}

	// Back abandons whatever is in progress and returns to input.
	Back struct{}

	// Saved records that the review started under Generation was persisted.
	Saved struct {
		Generation uint64
		Record     domain.Record
	}

	// ViewLibrary opens the record list.
	ViewLibrary struct{}

	// NewRecord starts over from an empty input.
	NewRecord struct{}
)

func (Submitted) event()           {}
func (UploadFailed) event()        {}
func (ProcessingFailed) event()    {}
func (ProcessingSucceeded) event() {}
func (Back) event()                {}
func (Saved) event()               {}
func (ViewLibrary) event()         {}
func (NewRecord) event()           {}

// Transition returns the state after e. Events that do not apply to s leave
// it unchanged.
func Transition(s State, e Event) State {
	switch e := e.(type) {
	case Submitted:
		if s.Step != StepInput {
			return s
		}
		input := e.Input
		return State{Step: StepProcessing, Generation: s.Generation + 1, Input: &input}

	case UploadFailed:
		if !s.awaiting(e.Generation) {
			return s
		}
		return State{Step: StepInput, Generation: s.Generation, Err: e.Err}

	case ProcessingFailed:
		if !s.awaiting(e.Generation) {
			return s
		}
		return State{Step: StepInput, Generation: s.Generation, Err: e.Err}

	case ProcessingSucceeded:
		if !s.awaiting(e.Generation) {
			return s
		}
		record := e.Record
		return State{Step: StepSave, Generation: s.Generation, Record: &record}

	case Back:
		return State{Step: StepInput, Generation: s.Generation + 1}

	case Saved:
		if s.Step != StepSave || s.Saved != nil || s.Generation != e.Generation {
			return s
		}
		record := e.Record
		s.Saved = &record
		return s

	case ViewLibrary:
		return State{Step: StepLibrary, Generation: s.Generation + 1}

	case NewRecord:
		return State{Step: StepInput, Generation: s.Generation + 1}
	}

	return s
}

func (s State) awaiting(generation uint64) bool {
	return s.Step == StepProcessing && s.Generation == generation
}
