// Package webhook calls the external processing endpoint that turns session
// text or audio into the processed prontuário content.
//
// Requests carry no authentication; the endpoint is trusted by URL only.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pluma/prontuario/internal/domain"
)

const (
	// DefaultTimeout bounds a single processing call.
	DefaultTimeout = 60 * time.Second

	// maxResponseBytes caps the response body. Larger bodies are failures,
	// never truncated content.
	maxResponseBytes = 10 << 20
)

// ErrResponseTooLarge reports a processed body above the size limit.
var ErrResponseTooLarge = fmt.Errorf("resposta excede %d bytes", maxResponseBytes)

// Payload is the request body. Exactly one field is set.
type Payload struct {
	Text     string `json:"text,omitempty"`
	AudioURL string `json:"audioUrl,omitempty"`
}

// TextPayload builds a payload for typed notes.
func TextPayload(text string) Payload {
	return Payload{Text: text}
}

// AudioPayload builds a payload for an uploaded recording.
func AudioPayload(audioURL string) Payload {
	return Payload{AudioURL: audioURL}
}

func (p Payload) validate() error {
	if (p.Text == "") == (p.AudioURL == "") {
		return errors.New("webhook payload needs exactly one of text or audioUrl")
	}
	return nil
}

// Processor is the contract the workflow depends on.
type Processor interface {
	Process(ctx context.Context, payload Payload) (string, error)
}

// Client posts payloads to a fixed URL.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ Processor = (*Client)(nil)

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout, Transport: c.httpClient.Transport}
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient returns a client for the endpoint at url.
func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        strings.TrimSpace(url),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "webhook")

	return c
}

// Process sends payload and returns the response body verbatim. Any
// transport failure or non-2xx status is an UpstreamProcessingFailed error.
// No retries: the endpoint makes no idempotency promise.
func (c *Client) Process(ctx context.Context, payload Payload) (string, error) {
	if err := payload.validate(); err != nil {
		return "", domain.NewError(domain.KindValidation, "Conteúdo inválido para processamento.", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", failed(0, "", fmt.Errorf("failed to encode payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", failed(0, "", fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	kind := "text"
	if payload.AudioURL != "" {
		kind = "audio"
	}
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("processing request failed", "input", kind, "error", err)
		return "", failed(0, err.Error(), err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		c.logger.Error("failed to read processing response", "input", kind, "status", resp.StatusCode, "error", err)
		return "", failed(resp.StatusCode, err.Error(), err)
	}
	oversized := len(content) > maxResponseBytes
	if oversized {
		content = content[:maxResponseBytes]
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("processing endpoint returned error",
			"input", kind,
			"status", resp.StatusCode,
			"duration", time.Since(start))
		return "", failed(resp.StatusCode, string(content), nil)
	}

	if oversized {
		c.logger.Error("processing response too large", "input", kind, "limit", maxResponseBytes)
		return "", failed(resp.StatusCode, ErrResponseTooLarge.Error(), ErrResponseTooLarge)
	}

	c.logger.Info("processing completed",
		"input", kind,
		"status", resp.StatusCode,
		"bytes", len(content),
		"duration", time.Since(start))

	return string(content), nil
}

// failed renders the processing failure the way users see it. status 0
// means the endpoint was never reached.
func failed(status int, detail string, cause error) *domain.Error {
	code := "N/A"
	if status != 0 {
		code = fmt.Sprint(status)
	}

	return &domain.Error{
		Kind:    domain.KindUpstreamProcessingFailed,
		Message: fmt.Sprintf("Falha ao processar prontuário. Status: %s. Erro: %s", code, detail),
		Status:  status,
		Err:     cause,
	}
}
