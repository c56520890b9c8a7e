// Package upload stores finalized audio blobs and hands back a public URL.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/session"
	"github.com/pluma/prontuario/internal/storage"
)

// Uploader is the contract the workflow depends on.
type Uploader interface {
	Upload(ctx context.Context, sess session.Source, blob *domain.Blob) domain.UploadResult
}

// Client uploads blobs to a Store. Failures come back as tagged results;
// Upload never returns a Go error.
type Client struct {
	store    storage.Store
	strategy Strategy
	logger   *slog.Logger
	maxBytes int64
	newName  func() string
}

var _ Uploader = (*Client)(nil)

// New returns a client using strategy. maxBytes <= 0 selects the 50 MiB
// default.
func New(store storage.Store, strategy Strategy, maxBytes int64, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = domain.MaxAudioBytes
	}

	return &Client{
		store:    store,
		strategy: strategy,
		logger:   logger.With("component", "upload", "strategy", strategy.Name()),
		maxBytes: maxBytes,
		newName:  func() string { return uuid.NewString() },
	}
}

func (c *Client) Upload(ctx context.Context, sess session.Source, blob *domain.Blob) domain.UploadResult {
	// never cached: the token may have expired since capture
	current, err := sess.Current(ctx)
	if err != nil {
		c.logger.Warn("upload rejected: no session", "error", err)
		if errors.Is(err, session.ErrNoSession) {
			return domain.UploadFailed(domain.NewError(domain.KindUnauthenticated,
				"Usuário não autenticado. Faça login para continuar.", err))
		}
		return domain.UploadFailed(domain.NewError(domain.KindUnauthenticated,
			"Erro de autenticação. Tente fazer login novamente.", err))
	}

	if blob.Size() == 0 {
		return domain.UploadFailed(domain.Errorf(domain.KindInvalidMediaType, "Nenhum arquivo de áudio fornecido."))
	}

	if blob.Size() > c.maxBytes {
		c.logger.Info("upload rejected: too large",
			"size", humanize.IBytes(uint64(blob.Size())),
			"limit", humanize.IBytes(uint64(c.maxBytes)))
		return domain.UploadFailed(TooLarge(c.maxBytes))
	}

	contentType, ext, derr := c.strategy.Describe(blob)
	if derr != nil {
		return domain.UploadFailed(derr)
	}

	objectPath := fmt.Sprintf("%s/%s.%s", current.UserID, c.newName(), ext)
	c.logger.Debug("uploading audio", "path", objectPath, "size", blob.Size(), "content_type", contentType)

	err = c.store.Put(ctx, objectPath, bytes.NewReader(blob.Data), blob.Size(), storage.PutOptions{
		ContentType:  contentType,
		CacheControl: storage.DefaultCacheControl,
	})
	if err != nil {
		c.logger.Error("failed to store audio", "path", objectPath, "error", err)
		return domain.UploadFailed(domain.NewError(domain.KindStorageUnavailable,
			"Falha no upload do áudio: "+err.Error(), err))
	}

	url, err := c.store.PublicURL(ctx, objectPath)
	if err != nil || url == "" {
		c.logger.Error("failed to resolve public url", "path", objectPath, "error", err)
		return domain.UploadFailed(domain.NewError(domain.KindStorageUnavailable,
			"Não foi possível obter a URL pública do áudio.", err))
	}

	c.logger.Info("audio uploaded", "path", objectPath)

	return domain.UploadResult{Success: true, AudioURL: url, Path: objectPath}
}

// TooLarge is the failure for a blob over maxBytes.
func TooLarge(maxBytes int64) *domain.Error {
	return domain.Errorf(domain.KindPayloadTooLarge, "Arquivo de áudio muito grande. Máximo %s.", limitLabel(maxBytes))
}

// MaxBytes returns the configured size limit.
func (c *Client) MaxBytes() int64 {
	return c.maxBytes
}

// limitLabel renders the limit the way users see it ("50MB").
func limitLabel(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return humanize.IBytes(uint64(n))
}
