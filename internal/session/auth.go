package session

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/pluma/prontuario/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown email or wrong password.
// The two cases are deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("session: invalid credentials")

// userNamespace derives stable user ids from email addresses.
var userNamespace = uuid.MustParse("6f1d8c52-3b0e-4a0f-9a57-3c2e9a1d4b60")

// passwordSymbols are the symbols a password must draw from.
const passwordSymbols = "@$!%*?&"

// Authenticator checks email/password pairs against bcrypt hashes.
type Authenticator struct {
	users map[string][]byte
}

// ParseUsers reads a comma separated list of email:bcrypt-hash pairs.
func ParseUsers(list string) (map[string]string, error) {
	users := make(map[string]string)
	for entry := range strings.SplitSeq(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		email, hash, ok := strings.Cut(entry, ":")
		if !ok || email == "" || hash == "" {
			return nil, fmt.Errorf("malformed user entry %q", entry)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("user %s: invalid bcrypt hash: %w", email, err)
		}

		users[strings.ToLower(email)] = hash
	}

	return users, nil
}

// NewAuthenticator builds an authenticator over email → bcrypt hash.
func NewAuthenticator(users map[string]string) *Authenticator {
	a := &Authenticator{users: make(map[string][]byte, len(users))}
	for email, hash := range users {
		a.users[strings.ToLower(email)] = []byte(hash)
	}
	return a
}

// Authenticate returns the user id for valid credentials.
func (a *Authenticator) Authenticate(_ context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, ok := a.users[email]
	if !ok {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return UserID(email), nil
}

// UserID is the stable identifier for an email address.
func UserID(email string) string {
	return uuid.NewSHA1(userNamespace, []byte(strings.ToLower(strings.TrimSpace(email)))).String()
}

// CredentialProblem names which login field failed validation.
type CredentialProblem string

const (
	ProblemNone            CredentialProblem = ""
	ProblemMissingFields   CredentialProblem = "missing_fields"
	ProblemInvalidEmail    CredentialProblem = "invalid_email"
	ProblemInvalidPassword CredentialProblem = "weak_password"
)

// ValidateCredentials applies the login form rules before any lookup.
func ValidateCredentials(email, password string) (CredentialProblem, error) {
	if email == "" || password == "" {
		return ProblemMissingFields, domain.Errorf(domain.KindValidation, "Email e senha são obrigatórios")
	}

	if !validEmail(email) {
		return ProblemInvalidEmail, domain.Errorf(domain.KindValidation, "Email inválido")
	}

	if !validPassword(password) {
		return ProblemInvalidPassword, domain.Errorf(domain.KindValidation, "Formato de senha inválido")
	}

	return ProblemNone, nil
}

func validEmail(email string) bool {
	if len(email) < 5 || len(email) > 100 || strings.Contains(email, "<script") {
		return false
	}

	addr, err := mail.ParseAddress(email)

	return err == nil && addr.Address == email
}

func validPassword(password string) bool {
	if len(password) < 8 || len(password) > 128 {
		return false
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}

	return upper && lower && digit && symbol
}
