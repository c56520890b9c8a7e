package session

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 32

// Signer issues and verifies HMAC-SHA256 signed session tokens of the form
// base64url(payload).base64url(mac).
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a signer whose tokens live for ttl.
func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("signing secret must be at least %d bytes", MinSecretLength)
	}
	if ttl <= 0 {
		return nil, errors.New("session ttl must be positive")
	}

	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock returns a copy of the signer reading time from now.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	c := *s
	c.now = now
	return &c
}

// TTL is the lifetime of issued tokens.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Issue signs a new session for the user.
func (s *Signer) Issue(userID, email string) (string, Session, error) {
	sess := Session{
		UserID:    userID,
		Email:     email,
		ExpiresAt: s.now().Add(s.ttl).UTC().Truncate(time.Second),
	}

	payload, err := json.Marshal(sess)
	if err != nil {
		return "", Session{}, fmt.Errorf("failed to encode session: %w", err)
	}

	enc := base64.RawURLEncoding
	token := enc.EncodeToString(payload) + "." + enc.EncodeToString(s.mac(payload))

	return token, sess, nil
}

// Verify checks the token signature and expiry. Expired tokens yield
// ErrNoSession, tampered or malformed ones ErrInvalidToken.
func (s *Signer) Verify(token string) (Session, error) {
	encPayload, encMAC, ok := strings.Cut(token, ".")
	if !ok {
		return Session{}, ErrInvalidToken
	}

	enc := base64.RawURLEncoding
	payload, err := enc.DecodeString(encPayload)
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	mac, err := enc.DecodeString(encMAC)
	if err != nil {
		return Session{}, ErrInvalidToken
	}

	if !hmac.Equal(mac, s.mac(payload)) {
		return Session{}, ErrInvalidToken
	}

	var sess Session
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sess); err != nil || sess.UserID == "" {
		return Session{}, ErrInvalidToken
	}

	if sess.Expired(s.now()) {
		return Session{}, ErrNoSession
	}

	return sess, nil
}

func (s *Signer) mac(payload []byte) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write(payload)
	return h.Sum(nil)
}
