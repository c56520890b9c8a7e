package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pluma/prontuario/internal/audio"
	"github.com/pluma/prontuario/internal/capture"
	"github.com/pluma/prontuario/internal/tui"
	"github.com/pluma/prontuario/internal/tui/steps"
	"github.com/pluma/prontuario/internal/upload"
	"github.com/pluma/prontuario/internal/workflow"
	"github.com/pluma/prontuario/pkg/channels"
)

// TUICmd is the default command that runs the terminal client.
type TUICmd struct {
	NoMic bool `flag:"" help:"Disable microphone capture (text input only)"`
}

// Run executes the TUI command.
func (c *TUICmd) Run(g *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	current, err := a.signedIn(ctx)
	if err != nil {
		return err
	}

	uploader := upload.New(a.objects.Store, upload.EncodingStrategy{}, a.cfg.MaxUploadBytes, a.logger)
	orch := workflow.New(uploader, a.processor,
		workflow.WithDelay(a.cfg.ProcessingDelay),
		workflow.WithLogger(a.logger.With("user_id", current.UserID)),
	)

	hub := channels.NewHub[workflow.State]()
	defer hub.Close()
	orch.OnChange(hub.Publish)

	deps := steps.Deps{
		Ctx:      ctx,
		Workflow: orch,
		Session:  a.session,
		Records:  a.records,
		MaxBytes: uploader.MaxBytes(),
	}

	if !c.NoMic {
		unit := capture.New(newMicrophone(a), a.logger)
		// always release the device when we're done
		defer unit.Close(context.WithoutCancel(ctx))
		deps.Recorder = unit
	}

	p := tea.NewProgram(tui.New(tui.Config{
		Deps:    deps,
		Updates: hub.Subscribe(ctx),
		User:    current.Email,
		Cancel:  cancel,
	}), tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to start TUI: %w", err)
	}

	return nil
}

func newMicrophone(a *app) *audio.Microphone {
	return audio.NewMicrophone(audio.Config{
		SampleRate: a.cfg.SampleRate,
		Channels:   audio.DefaultChannels,
		LockPath:   a.cfg.MicLockPath,
	}.WithDefaults(), a.logger)
}
