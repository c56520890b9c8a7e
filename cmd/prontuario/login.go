package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/pluma/prontuario/internal/bootstrap"
	"github.com/pluma/prontuario/internal/session"
)

// LoginCmd signs in and stores the session token in the keychain.
type LoginCmd struct {
	Email    string `arg:"" help:"Account email"`
	Password string `flag:"" env:"PRONTUARIO_PASSWORD" help:"Password (prompted when omitted)"`
}

// Run executes the login command.
func (c *LoginCmd) Run(g *Globals) error {
	cfg, log, closer, err := g.load()
	if err != nil {
		return err
	}
	defer closer.Close()

	password := c.Password
	if password == "" {
		if password, err = promptPassword(); err != nil {
			return err
		}
	}

	if problem, err := session.ValidateCredentials(c.Email, password); err != nil {
		log.Warn("login rejected", "reason", problem)
		return err
	}

	signer, err := bootstrap.NewSigner(cfg)
	if err != nil {
		return err
	}
	auth, err := bootstrap.NewAuthenticator(cfg)
	if err != nil {
		return err
	}

	userID, err := auth.Authenticate(context.Background(), c.Email, password)
	if errors.Is(err, session.ErrInvalidCredentials) {
		log.Warn("login failed", "email", c.Email)
		return errors.New("credenciais inválidas")
	}
	if err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	token, sess, err := signer.Issue(userID, c.Email)
	if err != nil {
		return fmt.Errorf("failed to issue session: %w", err)
	}
	if err := session.SaveToken(token); err != nil {
		return err
	}

	log.Info("login succeeded", "user_id", userID)
	fmt.Printf("Signed in as %s until %s\n", sess.Email, sess.ExpiresAt.Local().Format("2006-01-02 15:04"))

	return nil
}

func promptPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Senha: ")

	if term.IsTerminal(os.Stdin.Fd()) {
		secret, err := term.ReadPassword(os.Stdin.Fd())
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

// LogoutCmd removes the stored session.
type LogoutCmd struct{}

// Run executes the logout command.
func (c *LogoutCmd) Run() error {
	if err := session.ClearToken(); err != nil {
		return err
	}

	fmt.Println("Signed out")

	return nil
}
