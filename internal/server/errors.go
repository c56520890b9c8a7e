package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/records"
	"github.com/pluma/prontuario/internal/review"
	"github.com/pluma/prontuario/internal/session"
	"github.com/pluma/prontuario/internal/workflow"
)

// statusFor maps a failure to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, records.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrBusy), errors.Is(err, review.ErrFrozen):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrInvalidToken):
		return http.StatusUnauthorized
	}

	switch domain.KindOf(err) {
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindPermissionDenied:
		return http.StatusForbidden
	case domain.KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case domain.KindInvalidMediaType:
		return http.StatusUnsupportedMediaType
	case domain.KindValidation:
		return http.StatusUnprocessableEntity
	case domain.KindStorageUnavailable, domain.KindUpstreamProcessingFailed:
		return http.StatusBadGateway
	case domain.KindDeviceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the text shown to the user for err.
func messageFor(err error) string {
	switch {
	case errors.Is(err, records.ErrNotFound):
		return "Prontuário não encontrado"
	case errors.Is(err, workflow.ErrBusy):
		return "Já existe um prontuário em processamento."
	case errors.Is(err, review.ErrFrozen):
		return "Este prontuário já foi salvo."
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrInvalidToken):
		return "Usuário não autenticado. Faça login para continuar."
	}

	return domain.UserMessage(err)
}

func respondError(c *gin.Context, err error) {
	respondMessage(c, statusFor(err), messageFor(err))
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
