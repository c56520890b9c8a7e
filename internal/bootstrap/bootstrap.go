// Package bootstrap builds the collaborators shared by the server and the
// terminal client from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pluma/prontuario/internal/config"
	"github.com/pluma/prontuario/internal/records"
	"github.com/pluma/prontuario/internal/session"
	"github.com/pluma/prontuario/internal/storage"
	"github.com/pluma/prontuario/internal/webhook"
)

// Objects is the configured object store. Media is set for the local
// backend, whose links are served and validated by the server.
type Objects struct {
	Store storage.Store
	Media *storage.URLSigner
}

// OpenRecords opens the configured record store.
func OpenRecords(ctx context.Context, cfg *config.Config) (*records.Store, error) {
	store, err := records.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s record store: %w", cfg.DatabaseDriver, err)
	}

	return store, nil
}

// OpenObjects builds the configured object store.
func OpenObjects(cfg *config.Config, logger *slog.Logger) (Objects, error) {
	switch cfg.StorageBackend {
	case "s3":
		awsSession, err := storage.NewAWSSession(cfg.S3Region, cfg.S3Endpoint)
		if err != nil {
			return Objects{}, fmt.Errorf("failed to create AWS session: %w", err)
		}
		logger.Info("Using S3 object storage", "bucket", cfg.StorageBucket, "region", cfg.S3Region)

		return Objects{Store: storage.NewS3(awsSession, cfg.StorageBucket, "", cfg.SignedURLTTL)}, nil

	default:
		media := storage.NewURLSigner(cfg.PublicBaseURL, cfg.SigningSecret, cfg.SignedURLTTL)
		local, err := storage.NewLocal(cfg.StorageDir, cfg.StorageBucket, media)
		if err != nil {
			return Objects{}, err
		}
		logger.Info("Using local object storage", "dir", cfg.StorageDir, "bucket", cfg.StorageBucket)

		return Objects{Store: local, Media: media}, nil
	}
}

// NewProcessor returns the processing endpoint client.
func NewProcessor(cfg *config.Config, logger *slog.Logger) *webhook.Client {
	return webhook.NewClient(cfg.WebhookURL,
		webhook.WithTimeout(cfg.WebhookTimeout),
		webhook.WithLogger(logger),
	)
}

// NewSigner returns the session token signer.
func NewSigner(cfg *config.Config) (*session.Signer, error) {
	signer, err := session.NewSigner(cfg.SigningSecret, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid session configuration: %w", err)
	}

	return signer, nil
}

// NewAuthenticator parses the configured user list.
func NewAuthenticator(cfg *config.Config) (*session.Authenticator, error) {
	users, err := session.ParseUsers(cfg.AuthUsers)
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_USERS: %w", err)
	}

	return session.NewAuthenticator(users), nil
}
