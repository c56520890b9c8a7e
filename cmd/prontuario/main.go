package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/pluma/prontuario/internal/bootstrap"
	"github.com/pluma/prontuario/internal/config"
	"github.com/pluma/prontuario/internal/logger"
	"github.com/pluma/prontuario/internal/records"
	"github.com/pluma/prontuario/internal/session"
	"github.com/pluma/prontuario/internal/webhook"
)

// CLI defines the prontuario command structure.
type CLI struct {
	Globals

	// Default TUI command (runs when no subcommand given)
	TUI TUICmd `cmd:"" default:"withargs" help:"Launch the terminal client"`

	// Subcommands
	Login   LoginCmd   `cmd:"" help:"Sign in and store the session in the system keychain"`
	Logout  LogoutCmd  `cmd:"" help:"Remove the stored session"`
	Record  RecordCmd  `cmd:"" help:"Record or upload audio, process it and optionally save the prontuário"`
	List    ListCmd    `cmd:"" help:"List your prontuários"`
	Devices DevicesCmd `cmd:"" help:"List available audio devices"`
}

// Globals are flags shared by every command.
type Globals struct {
	Config string `flag:"" type:"path" env:"PRONTUARIO_CONFIG" help:"Path to the TOML config file (default: user config dir)"`
}

// load reads configuration and sets up the file logger. The returned
// closer flushes the log file.
func (g *Globals) load() (*config.Config, *slog.Logger, io.Closer, error) {
	path := g.Config
	if path == "" {
		defaultPath, err := config.DefaultFilePath()
		if err != nil {
			return nil, nil, nil, err
		}
		path = defaultPath
	}

	cfg, err := config.LoadWithFile(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, closer, err := logger.SetupCLILogger(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	return cfg, log, closer, nil
}

// app holds the collaborators of commands that run the workflow.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	records   *records.Store
	objects   bootstrap.Objects
	processor *webhook.Client
	signer    *session.Signer
	session   session.Source
	closers   []io.Closer
}

func (g *Globals) open(ctx context.Context) (*app, error) {
	cfg, log, closer, err := g.load()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: log, closers: []io.Closer{closer}}

	if err := cfg.Validate(); err != nil {
		a.Close()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if a.signer, err = bootstrap.NewSigner(cfg); err != nil {
		a.Close()
		return nil, err
	}
	a.session = session.KeyringSource(a.signer)

	if a.records, err = bootstrap.OpenRecords(ctx, cfg); err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, a.records)

	if a.objects, err = bootstrap.OpenObjects(cfg, log); err != nil {
		a.Close()
		return nil, err
	}
	a.processor = bootstrap.NewProcessor(cfg, log)

	return a, nil
}

// signedIn returns the stored session or a hint to log in.
func (a *app) signedIn(ctx context.Context) (session.Session, error) {
	current, err := a.session.Current(ctx)
	if err != nil {
		return session.Session{}, fmt.Errorf("not signed in (%w); run 'prontuario login <email>'", err)
	}

	return current, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("failed to close resource", "error", err)
		}
	}
}

func main() {
	cli := &CLI{} //nolint:exhaustruct // Kong fills in command fields
	ctx := kong.Parse(cli,
		kong.Name("prontuario"),
		kong.Description("Capture, process and save clinical session notes."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
	os.Exit(0)
}
