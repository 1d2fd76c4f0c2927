package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/sellershield/intake-backend/internal/pkg/formatter"
	"github.com/sellershield/intake-backend/internal/pkg/logger"
	"github.com/sellershield/intake-backend/internal/pkg/response"
	"go.uber.org/zap"
)

const maxBodyBytes = 16 << 10

type Handler struct {
	usecase    IntakeUsecase
	validator  RequestValidator
	formatters *formatter.Factory
}

func NewHandler(usecase IntakeUsecase, validator RequestValidator) *Handler {
	return &Handler{
		usecase:    usecase,
		validator:  validator,
		formatters: formatter.NewFactory(),
	}
}

// StartSession handles POST /intake-session - Start new session
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "StartSession")

	var req entity.StartSessionRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateStartSession(&req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	view, err := h.usecase.StartSession(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "intake session created", zap.String("session_id", view.ID))
	response.Created(w, view)
}

// GetSession handles GET /intake-session/{id} - Current screen of a session
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(r.Context(), sessionID, "GetSession")

	view, err := h.usecase.GetSession(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, view)
}

// SubmitAnswer handles POST /intake-session/{id}/answer/{question_id}
func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	questionID := chi.URLParam(r, "question_id")
	ctx := logger.WithSession(r.Context(), sessionID, "SubmitAnswer")
	ctxzap.AddFields(ctx, zap.String("question_id", questionID))

	var req entity.SubmitAnswerRequest
	if err := decodeBody(r, &req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := h.validator.ValidateSubmitAnswer(&req); err != nil {
		response.Error(ctx, w, http.StatusBadRequest, "validation failed", err)
		return
	}

	view, err := h.usecase.SubmitAnswer(ctx, sessionID, questionID, req.ToAnswer())
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Debug(ctx, "answer recorded")
	response.Success(w, view)
}

// Advance handles POST /intake-session/{id}/advance
func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, "Advance", h.usecase.Advance)
}

// Retreat handles POST /intake-session/{id}/retreat
func (h *Handler) Retreat(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, "Retreat", h.usecase.Retreat)
}

// Restart handles POST /intake-session/{id}/restart
func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, "Restart", h.usecase.Restart)
}

func (h *Handler) navigate(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	fn func(ctx context.Context, sessionID string) (*entity.SessionView, error),
) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(r.Context(), sessionID, action)

	view, err := fn(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Debug(ctx, "navigation applied",
		zap.String("phase", string(view.Phase)),
	)
	response.Success(w, view)
}

// GetSessionResult handles GET /intake-session/{id}/result?format=json|markdown|pdf|docx
func (h *Handler) GetSessionResult(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(r.Context(), sessionID, "GetSessionResult")

	formatParam := r.URL.Query().Get("format")
	if formatParam == "" {
		formatParam = string(entity.FormatJSON)
	}

	format := entity.ResultFormat(formatParam)
	if !format.IsValid() {
		response.Error(ctx, w, http.StatusBadRequest, "invalid format parameter",
			fmt.Errorf("%w: format must be one of: json, markdown, docx, pdf", entity.ErrInvalidParameter))
		return
	}

	result, err := h.usecase.GetResult(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	if format == entity.FormatJSON {
		response.Success(w, result)
		return
	}

	fmtr, err := h.formatters.Create(format)
	if err != nil {
		response.Error(ctx, w, http.StatusNotImplemented, "format not implemented", err)
		return
	}

	body, err := fmtr.Format(result)
	if err != nil {
		response.Error(ctx, w, http.StatusInternalServerError, "failed to format result", err)
		return
	}

	ctxzap.Info(ctx, "session result rendered", zap.String("format", string(format)))
	response.Attachment(w, fmtr.ContentType(), "assessment-"+sessionID+fmtr.FileExtension(), body)
}

// CancelSession handles POST /intake-session/{id}/cancel
func (h *Handler) CancelSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	ctx := logger.WithSession(r.Context(), sessionID, "CancelSession")

	if err := h.usecase.CancelSession(ctx, sessionID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, map[string]string{
		"message": "session cancelled successfully",
	})
}

// GetCatalog handles GET /catalog - List all questions
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.usecase.Catalog())
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound), errors.Is(err, entity.ErrFlowClosed):
		response.Error(ctx, w, http.StatusNotFound, "session not found", err)
	case errors.Is(err, entity.ErrUnknownQuestion):
		response.Error(ctx, w, http.StatusNotFound, "question not found", err)
	case errors.Is(err, entity.ErrInvalidOption),
		errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrInvalidFormat),
		errors.Is(err, entity.ErrMissingField):
		response.Error(ctx, w, http.StatusBadRequest, "invalid answer", err)
	case errors.Is(err, entity.ErrStepIncomplete):
		response.Error(ctx, w, http.StatusUnprocessableEntity, "step incomplete", err)
	case errors.Is(err, entity.ErrFlowBusy),
		errors.Is(err, entity.ErrFlowFinished),
		errors.Is(err, entity.ErrNoResult):
		response.Error(ctx, w, http.StatusConflict, "invalid session state", err)
	default:
		response.Error(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// decodeOptionalBody accepts an empty body as the zero request
func decodeOptionalBody(r *http.Request, dst any) error {
	err := decodeBody(r, dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
