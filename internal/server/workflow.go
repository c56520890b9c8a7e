package server

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pluma/prontuario/internal/domain"
	"github.com/pluma/prontuario/internal/upload"
	"github.com/pluma/prontuario/internal/workflow"
)

// stateView is the JSON form of a workflow state.
type stateView struct {
	Step       workflow.Step           `json:"step"`
	Generation uint64                  `json:"generation"`
	Error      string                  `json:"error,omitempty"`
	ErrorKind  domain.Kind             `json:"error_kind,omitempty"`
	InputType  domain.InputType        `json:"input_tipo,omitempty"`
	Record     *domain.ProcessedRecord `json:"record,omitempty"`
	Saved      *domain.Record          `json:"saved,omitempty"`
}

func viewOf(state workflow.State) stateView {
	view := stateView{
		Step:       state.Step,
		Generation: state.Generation,
		Error:      state.ErrorMessage(),
		Record:     state.Record,
		Saved:      state.Saved,
	}
	if state.Err != nil {
		view.ErrorKind = state.Err.Kind
	}
	if state.Input != nil {
		view.InputType = state.Input.Type
	}

	return view
}

func (s *Server) workspace(c *gin.Context) *workspace {
	return s.workspaces.get(currentSession(c).UserID)
}

func (s *Server) handleWorkflowState(c *gin.Context) {
	c.JSON(http.StatusOK, viewOf(s.workspace(c).orch.State()))
}

func (s *Server) handleWorkflowSubmit(c *gin.Context) {
	input, err := s.captureInput(c)
	if err != nil {
		respondError(c, err)
		return
	}

	// processing outlives a dropped connection; the result is read back
	// through GET /api/workflow
	ctx := context.WithoutCancel(c.Request.Context())

	state, err := s.workspace(c).orch.Submit(ctx, s.source(c), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, viewOf(state))
}

type textSubmission struct {
	Text string `json:"text"`
}

// captureInput reads either a multipart "audio" file or a JSON text body.
func (s *Server) captureInput(c *gin.Context) (domain.CaptureInput, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		blob, err := s.readAudio(c)
		if err != nil {
			return domain.CaptureInput{}, err
		}
		return domain.AudioInput(blob), nil
	}

	var body textSubmission
	if err := c.ShouldBindJSON(&body); err != nil {
		return domain.CaptureInput{}, domain.NewError(domain.KindValidation, "Requisição inválida.", err)
	}

	return domain.TextInput(body.Text), nil
}

// readAudio loads the "audio" form file. Files over the limit are read only
// up to limit+1 bytes so the upload client rejects them without storing.
func (s *Server) readAudio(c *gin.Context) (*domain.Blob, error) {
	header, err := c.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, upload.TooLarge(s.config.MaxUploadBytes)
		}
		return nil, domain.NewError(domain.KindInvalidMediaType, "Nenhum arquivo de áudio fornecido.", err)
	}

	data, err := readLimited(header, s.config.MaxUploadBytes+1)
	if err != nil {
		return nil, domain.NewError(domain.KindValidation, "Não foi possível ler o arquivo de áudio.", err)
	}

	return &domain.Blob{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		Filename:    header.Filename,
	}, nil
}

func readLimited(header *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, limit))
}

// handleWorkflowEvents streams the workflow state as server-sent events,
// starting with the current one.
func (s *Server) handleWorkflowEvents(c *gin.Context) {
	ws := s.workspace(c)
	updates := ws.states.Subscribe(c.Request.Context())

	c.SSEvent("state", viewOf(ws.orch.State()))
	c.Writer.Flush()

	c.Stream(func(io.Writer) bool {
		state, ok := <-updates
		if !ok {
			return false
		}
		c.SSEvent("state", viewOf(state))
		return true
	})
}

func (s *Server) handleWorkflowBack(c *gin.Context) {
	c.JSON(http.StatusOK, viewOf(s.workspace(c).orch.Back()))
}

func (s *Server) handleWorkflowNew(c *gin.Context) {
	c.JSON(http.StatusOK, viewOf(s.workspace(c).orch.NewRecord()))
}

func (s *Server) handleWorkflowLibrary(c *gin.Context) {
	c.JSON(http.StatusOK, viewOf(s.workspace(c).orch.ViewLibrary()))
}

type saveRequest struct {
	PatientName      string  `json:"paciente_nome"`
	SessionDate      *string `json:"data_sessao"`
	ProcessedContent *string `json:"conteudo_processado"`
}

func (s *Server) handleWorkflowSave(c *gin.Context) {
	var req saveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "Requisição inválida.")
		return
	}

	ws := s.workspace(c)
	state := ws.orch.State()
	if state.Step != workflow.StepSave || state.Record == nil {
		respondMessage(c, http.StatusConflict, "Nenhum prontuário aguardando revisão.")
		return
	}

	form := ws.formFor(state)
	edits := []func() error{
		func() error { return form.SetPatientName(req.PatientName) },
	}
	if req.SessionDate != nil {
		edits = append(edits, func() error { return form.SetSessionDate(*req.SessionDate) })
	}
	if req.ProcessedContent != nil {
		edits = append(edits, func() error { return form.EditContent(*req.ProcessedContent) })
	}
	for _, edit := range edits {
		if err := edit(); err != nil {
			respondError(c, err)
			return
		}
	}

	record, err := form.Submit(c.Request.Context(), s.source(c), s.records)
	if err != nil {
		respondError(c, err)
		return
	}

	if after := ws.orch.MarkSaved(state.Generation, record); after.Saved == nil || after.Saved.ID != record.ID {
		s.logger.Warn("record saved after the workflow moved on",
			"record_id", record.ID,
			"generation", state.Generation,
			"step", after.Step)
	}

	c.JSON(http.StatusCreated, record)
}

// handleUpload stores a user-supplied audio file with the server strategy.
func (s *Server) handleUpload(c *gin.Context) {
	ctx := c.Request.Context()
	src := s.source(c)

	// session problems are reported before anything about the file
	if _, err := src.Current(ctx); err != nil {
		respondUpload(c, s.uploads.Upload(ctx, src, nil))
		return
	}

	blob, err := s.readAudio(c)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"success": false, "error": messageFor(err)})
		return
	}

	respondUpload(c, s.uploads.Upload(ctx, src, blob))
}

func respondUpload(c *gin.Context, result domain.UploadResult) {
	if !result.Success {
		c.JSON(statusFor(result.Err), gin.H{"success": false, "error": result.ErrorMessage()})
		return
	}

	c.JSON(http.StatusOK, result)
}
