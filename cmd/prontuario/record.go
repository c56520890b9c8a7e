package main

import (
	"bufio"
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/pluma/prontuario/internal/capture"
	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/review"
	"github.com/pluma/prontuario/internal/upload"
	"github.com/pluma/prontuario/internal/workflow"
)

// RecordCmd runs one submission without the TUI.
type RecordCmd struct {
	File    string `flag:"" type:"existingfile" xor:"source" help:"Audio file to submit instead of recording"`
	Text    string `flag:"" xor:"source" help:"Submit typed notes instead of audio"`
	Patient string `flag:"" help:"Patient name; when set the processed record is saved"`
	Date    string `flag:"" help:"Session date (YYYY-MM-DD, default today)"`
}

// Run executes the record command.
func (c *RecordCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	current, err := a.signedIn(ctx)
	if err != nil {
		return err
	}

	input, strategy, err := c.capture(ctx, a)
	if err != nil {
		return err
	}

	uploader := upload.New(a.objects.Store, strategy, a.cfg.MaxUploadBytes, a.logger)
	orch := workflow.New(uploader, a.processor,
		workflow.WithDelay(0),
		workflow.WithLogger(a.logger.With("user_id", current.UserID)),
	)

	fmt.Fprintln(os.Stderr, "Processando prontuário...")
	state, err := orch.Submit(ctx, a.session, input)
	if err != nil {
		return err
	}
	if state.Err != nil {
		return state.Err
	}
	if state.Record == nil {
		return fmt.Errorf("processing was interrupted")
	}

	fmt.Println(state.Record.ProcessedContent)

	if c.Patient == "" {
		fmt.Fprintln(os.Stderr, "\nNot saved. Pass --patient to save the processed record.")
		return nil
	}

	form := review.New(*state.Record, nil)
	if err := form.SetPatientName(c.Patient); err != nil {
		return err
	}
	if c.Date != "" {
		if err := form.SetSessionDate(c.Date); err != nil {
			return err
		}
	}

	record, err := form.Submit(ctx, a.session, a.records)
	if err != nil {
		return err
	}
	orch.MarkSaved(state.Generation, record)

	fmt.Fprintf(os.Stderr, "\nSaved prontuário %s for %s (%s)\n", record.ID, record.PatientName, record.SessionDate)

	return nil
}

// capture builds the submission: typed text, an audio file or a fresh
// microphone recording.
func (c *RecordCmd) capture(ctx context.Context, a *app) (domain.CaptureInput, upload.Strategy, error) {
	if c.Text != "" {
		return domain.TextInput(c.Text), upload.EncodingStrategy{}, nil
	}

	if c.File != "" {
		blob, err := readAudioFile(c.File, a.cfg.MaxUploadBytes)
		if err != nil {
			return domain.CaptureInput{}, nil, err
		}

		unit := capture.New(nil, a.logger)
		if err := unit.AcceptFile(ctx, blob); err != nil {
			return domain.CaptureInput{}, nil, err
		}
		input, _ := unit.Input()

		return input, upload.ServerStrategy{}, nil
	}

	unit := capture.New(newMicrophone(a), a.logger)
	defer unit.Close(context.WithoutCancel(ctx))

	if err := unit.Start(ctx); err != nil {
		return domain.CaptureInput{}, nil, err
	}
	fmt.Fprintln(os.Stderr, "Gravando... pressione Enter para parar.")

	waitForEnter(ctx)

	blob, err := unit.Stop(context.WithoutCancel(ctx))
	if err != nil {
		return domain.CaptureInput{}, nil, err
	}
	if ctx.Err() != nil {
		return domain.CaptureInput{}, nil, ctx.Err()
	}
	fmt.Fprintf(os.Stderr, "Gravação finalizada: %s\n", humanize.IBytes(uint64(blob.Size())))

	input, ok := unit.Input()
	if !ok {
		return domain.CaptureInput{}, nil, domain.Errorf(domain.KindValidation, "Nenhum arquivo de áudio fornecido.")
	}

	return input, upload.EncodingStrategy{}, nil
}

// readAudioFile loads path, refusing files over maxBytes before reading them.
func readAudioFile(path string, maxBytes int64) (*domain.Blob, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	if info.Size() > maxBytes {
		return nil, upload.TooLarge(maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &domain.Blob{Data: data, ContentType: contentType, Filename: filepath.Base(path)}, nil
}

// waitForEnter returns when a line is read from stdin or ctx is done.
func waitForEnter(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
	}
}
