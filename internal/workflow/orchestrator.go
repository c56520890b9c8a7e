package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/session"
	"github.com/pluma/prontuario/internal/upload"
	"github.com/pluma/prontuario/internal/webhook"
)

// DefaultDelay is the pause before showing processed content, so a fast
// response does not flash past.
const DefaultDelay = 1500 * time.Millisecond

// ErrBusy is returned by Submit while a submission is in flight.
var ErrBusy = errors.New("workflow: a submission is already being processed")

// Orchestrator owns the workflow state for one user.
type Orchestrator struct {
	uploader  upload.Uploader
	processor webhook.Processor
	delay     time.Duration
	logger    *slog.Logger

	mu        sync.Mutex
	state     State
	listeners []func(State)

	// notifyMu orders publication so listeners see states in the order
	// they were reached. Listeners must not call back into the orchestrator.
	notifyMu sync.Mutex
}

// Option customizes the orchestrator.
type Option func(*Orchestrator)

// WithDelay sets the pause before entering the save step. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.delay = d
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New returns an orchestrator in the input step.
func New(uploader upload.Uploader, processor webhook.Processor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		uploader:  uploader,
		processor: processor,
		delay:     DefaultDelay,
		logger:    slog.Default(),
		state:     Initial(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("component", "workflow")

	return o
}

// State returns the current snapshot.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state
}

// OnChange registers fn to be called with every new state. fn runs on the
// goroutine that caused the change and must not block.
func (o *Orchestrator) OnChange(fn func(State)) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.listeners = append(o.listeners, fn)
}

// Submit runs input through upload (for audio) and processing, blocking
// until the workflow leaves the processing step or the submission is
// abandoned. Workflow failures are reported in the returned state; the
// error is only set when the submission was rejected outright.
func (o *Orchestrator) Submit(ctx context.Context, sess session.Source, input domain.CaptureInput) (State, error) {
	if err := input.Validate(); err != nil {
		return o.State(), err
	}

	o.mu.Lock()
	if o.state.Step == StepProcessing {
		o.mu.Unlock()
		return o.State(), ErrBusy
	}
	if o.state.Step != StepInput {
		// a fresh submission implies leaving review or library
		o.state = Transition(o.state, NewRecord{})
	}
	o.state = Transition(o.state, Submitted{Input: input})
	generation := o.state.Generation
	o.mu.Unlock()
	o.notify()

	logger := o.logger.With("generation", generation, "input", input.Type)
	logger.Info("submission started")

	o.apply(o.run(ctx, sess, input, generation, logger))

	return o.State(), nil
}

func (o *Orchestrator) run(ctx context.Context, sess session.Source, input domain.CaptureInput, generation uint64, logger *slog.Logger) Event {
	payload := webhook.TextPayload(input.Content)
	record := domain.ProcessedRecord{OriginalContent: input.Content, Type: input.Type}

	if input.Type == domain.InputAudio {
		result := o.uploader.Upload(ctx, sess, input.Audio)
		if !result.Success {
			logger.Warn("upload failed", "error", result.ErrorMessage())
			return UploadFailed{Generation: generation, Err: uploadError(result)}
		}

		payload = webhook.AudioPayload(result.AudioURL)
		record.AudioURL = result.AudioURL
	}

	if !o.current(generation) {
		logger.Debug("submission abandoned before processing")
		return nil
	}

	content, err := o.processor.Process(ctx, payload)
	if err != nil {
		logger.Warn("processing failed", "error", err)
		return ProcessingFailed{Generation: generation, Err: processingError(err)}
	}
	record.ProcessedContent = content

	if o.delay > 0 {
		timer := time.NewTimer(o.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}

	logger.Info("submission processed", "bytes", len(content))

	return ProcessingSucceeded{Generation: generation, Record: record}
}

// Back abandons the current step and returns to input. Results of an
// abandoned submission are dropped when they arrive.
func (o *Orchestrator) Back() State {
	return o.apply(Back{})
}

// Cancel is Back.
func (o *Orchestrator) Cancel() State {
	return o.Back()
}

// ViewLibrary moves to the record list.
func (o *Orchestrator) ViewLibrary() State {
	return o.apply(ViewLibrary{})
}

// NewRecord clears everything and returns to an empty input.
func (o *Orchestrator) NewRecord() State {
	return o.apply(NewRecord{})
}

// MarkSaved records that the review of generation was persisted. It is a
// no-op once the workflow has moved past that review.
func (o *Orchestrator) MarkSaved(generation uint64, record domain.Record) State {
	return o.apply(Saved{Generation: generation, Record: record})
}

func (o *Orchestrator) apply(e Event) State {
	if e == nil {
		return o.State()
	}

	o.mu.Lock()
	before := o.state
	o.state = Transition(o.state, e)
	after := o.state
	o.mu.Unlock()

	if stateChanged(before, after) {
		o.notify()
	} else {
		o.logger.Debug("event dropped", "event", eventName(e), "step", before.Step, "generation", before.Generation)
	}

	return after
}

func (o *Orchestrator) current(generation uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state.awaiting(generation)
}

func (o *Orchestrator) notify() {
	o.notifyMu.Lock()
	defer o.notifyMu.Unlock()

	o.mu.Lock()
	state := o.state
	listeners := append([]func(State){}, o.listeners...)
	o.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func stateChanged(a, b State) bool {
	return a.Step != b.Step || a.Generation != b.Generation || a.Err != b.Err ||
		a.Record != b.Record || a.Saved != b.Saved || a.Input != b.Input
}

func uploadError(result domain.UploadResult) *domain.Error {
	kind := domain.KindStorageUnavailable
	var cause error
	if result.Err != nil {
		kind = result.Err.Kind
		cause = result.Err
	}

	return domain.NewError(kind, "Erro no upload do áudio: "+result.ErrorMessage(), cause)
}

func processingError(err error) *domain.Error {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return derr
	}

	return domain.NewError(domain.KindUpstreamProcessingFailed,
		"Falha ao processar prontuário. Status: N/A. Erro: "+err.Error(), err)
}

func eventName(e Event) string {
	switch e.(type) {
	case Submitted:
		return "submitted"
	case UploadFailed:
		return "upload_failed"
	case ProcessingFailed:
		return "processing_failed"
	case ProcessingSucceeded:
		return "processing_succeeded"
	case Back:
		return "back"
	case Saved:
		return "saved"
	case ViewLibrary:
		return "view_library"
	case NewRecord:
		return "new_record"
	default:
		return "unknown"
	}
}
