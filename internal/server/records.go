package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/listing"
	"github.com/pluma/prontuario/internal/storage"
)

func (s *Server) handleListRecords(c *gin.Context) {
	page, err := listing.Load(c.Request.Context(), s.source(c), s.records)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (s *Server) handleGetRecord(c *gin.Context) {
	record, err := s.records.GetRecord(c.Request.Context(), currentSession(c).UserID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, listing.NewEntry(record))
}

func (s *Server) handleUpdateRecord(c *gin.Context) {
	var upd domain.RecordUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		respondMessage(c, http.StatusBadRequest, "Requisição inválida.")
		return
	}

	record, err := s.records.UpdateRecord(c.Request.Context(), currentSession(c).UserID, c.Param("id"), upd)
	if err != nil {
		s.logRecordError(c, "update", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) handleDeleteRecord(c *gin.Context) {
	if err := s.records.DeleteRecord(c.Request.Context(), currentSession(c).UserID, c.Param("id")); err != nil {
		s.logRecordError(c, "delete", err)
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) logRecordError(c *gin.Context, op string, err error) {
	if domain.KindOf(err) == domain.KindValidation {
		return
	}
	s.logger.Error("record operation failed", "op", op, "record_id", c.Param("id"), "error", err)
}

// handleMedia serves locally stored audio behind expiring signed links.
func (s *Server) handleMedia(c *gin.Context) {
	if s.media == nil {
		c.Status(http.StatusNotFound)
		return
	}

	p, err := storage.CleanPath(c.Param("path"))
	if err != nil || !s.media.Validate(p, c.Query("exp"), c.Query("sig")) {
		respondMessage(c, http.StatusForbidden, "Link de mídia inválido ou expirado.")
		return
	}

	body, info, err := s.objects.Open(c.Request.Context(), p)
	if errors.Is(err, storage.ErrNoObject) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("failed to open media", "path", p, "error", err)
		c.Status(http.StatusBadGateway)
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, info.Size, info.ContentType, body, map[string]string{
		"Cache-Control": info.CacheControl,
	})
}
