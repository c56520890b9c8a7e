package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "prontuario"
	keyringUser    = "session-token"
)

// SaveToken stores the CLI session token in the system keychain.
func SaveToken(token string) error {
	if err := keyring.Set(keyringService, keyringUser, token); err != nil {
		return fmt.Errorf("failed to store session in keychain: %w", err)
	}

	return nil
}

// ClearToken removes the CLI session token. Removing a missing token is not
// an error.
func ClearToken() error {
	err := keyring.Delete(keyringService, keyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to remove session from keychain: %w", err)
	}

	return nil
}

// KeyringSource reads the CLI session token from the keychain on every call.
func KeyringSource(signer *Signer) *TokenSource {
	return NewTokenSource(signer, func(context.Context) (string, error) {
		token, err := keyring.Get(keyringService, keyringUser)
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNoSession
		}
		if err != nil {
			return "", fmt.Errorf("failed to read session from keychain: %w", err)
		}

		return token, nil
	})
}
