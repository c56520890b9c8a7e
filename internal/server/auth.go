package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pluma/prontuario/internal/audit"
	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	// a malformed body is reported as missing fields
	_ = c.ShouldBindJSON(&req)
	req.Email = strings.TrimSpace(req.Email)

	event := s.securityEvent(c)
	event.Details = map[string]string{"email": req.Email}

	problem, err := session.ValidateCredentials(req.Email, req.Password)
	if err != nil {
		event.Name = "login_attempt_" + string(problem)
		s.audit.Log(c.Request.Context(), event)
		respondMessage(c, http.StatusBadRequest, domain.UserMessage(err))
		return
	}

	userID, err := s.auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, session.ErrInvalidCredentials) {
		event.Name, event.Severity = "login_failed", audit.SeverityMedium
		event.Details["error"] = err.Error()
		s.audit.Log(c.Request.Context(), event)
		// never reveal whether the account exists
		respondMessage(c, http.StatusUnauthorized, "Credenciais inválidas")
		return
	}
	if err != nil {
		s.loginError(c, event, err)
		return
	}

	token, current, err := s.sessions.Issue(userID, req.Email)
	if err != nil {
		s.loginError(c, event, err)
		return
	}

	s.setSessionCookie(c, token, int(s.sessions.TTL().Seconds()))

	event.Name, event.Severity, event.UserID = "login_success", audit.SeverityLow, userID
	s.audit.Log(c.Request.Context(), event)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"user_id":    current.UserID,
		"email":      current.Email,
		"expires_at": current.ExpiresAt,
	})
}

func (s *Server) loginError(c *gin.Context, event audit.Event, err error) {
	event.Name, event.Severity = "login_error", audit.SeverityHigh
	event.Details = map[string]string{"error": err.Error()}
	s.audit.Log(c.Request.Context(), event)
	respondMessage(c, http.StatusInternalServerError, "Erro interno do servidor")
}

func (s *Server) handleLogout(c *gin.Context) {
	event := s.securityEvent(c)
	if current, err := s.source(c).Current(c.Request.Context()); err == nil {
		event.UserID = current.UserID
	}

	s.setSessionCookie(c, "", -1)

	event.Name, event.Severity = "logout_success", audit.SeverityLow
	s.audit.Log(c.Request.Context(), event)

	c.Status(http.StatusNoContent)
}

func (s *Server) setSessionCookie(c *gin.Context, token string, maxAge int) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) securityEvent(c *gin.Context) audit.Event {
	return audit.Event{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
