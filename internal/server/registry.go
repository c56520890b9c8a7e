package server

import (
	"log/slog"
	"sync"

	"github.com/pluma/prontuario/internal/config"
	"github.com/pluma/prontuario/internal/review"
	"github.com/pluma/prontuario/internal/storage"
	"github.com/pluma/prontuario/internal/upload"
	"github.com/pluma/prontuario/internal/webhook"
	"github.com/pluma/prontuario/internal/workflow"
	"github.com/pluma/prontuario/pkg/channels"
)

// workspace is one user's workflow and the review form of its current
// processed record.
type workspace struct {
	orch   *workflow.Orchestrator
	states *channels.Hub[workflow.State]

	mu      sync.Mutex
	form    *review.Form
	formGen uint64
}

// formFor returns the review form for state, seeding a new one whenever a
// new submission reached the save step.
func (w *workspace) formFor(state workflow.State) *review.Form {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.form == nil || w.formGen != state.Generation {
		w.form = review.New(*state.Record, nil)
		w.formGen = state.Generation
	}

	return w.form
}

type registry struct {
	uploader  upload.Uploader
	processor webhook.Processor
	delay     workflow.Option
	logger    *slog.Logger

	mu     sync.Mutex
	byUser map[string]*workspace
}

func newRegistry(objects storage.Store, processor webhook.Processor, cfg *config.Config, logger *slog.Logger) *registry {
	return &registry{
		uploader:  upload.New(objects, upload.ClientStrategy{}, cfg.MaxUploadBytes, logger),
		processor: processor,
		delay:     workflow.WithDelay(cfg.ProcessingDelay),
		logger:    logger,
		byUser:    make(map[string]*workspace),
	}
}

func (r *registry) get(userID string) *workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.byUser[userID]
	if !ok {
		ws = &workspace{
			orch: workflow.New(r.uploader, r.processor, r.delay,
				workflow.WithLogger(r.logger.With("user_id", userID))),
			states: channels.NewHub[workflow.State](),
		}
		ws.orch.OnChange(ws.states.Publish)
		r.byUser[userID] = ws
	}

	return ws
}
