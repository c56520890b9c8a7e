package session

import (
	"context"
	"errors"
	"net/http"
)

// CookieName is the HTTP cookie carrying the session token.
const CookieName = "prontuario_session"

// RequestSource reads the session cookie from r on every call.
func RequestSource(signer *Signer, r *http.Request) *TokenSource {
	return NewTokenSource(signer, func(context.Context) (string, error) {
		cookie, err := r.Cookie(CookieName)
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNoSession
		}
		if err != nil {
			return "", err
		}

		return cookie.Value, nil
	})
}
