package handle

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"sheet-grader/api/internal/answers"
	"sheet-grader/api/internal/grader"
	"sheet-grader/api/internal/ocr"
)

// Corrector reads answers from a sheet image.
type Corrector interface {
	Correct(ctx context.Context, in grader.Input) ([]answers.Token, error)
}

type Handle struct {
	svc Corrector
	log *slog.Logger

	maxUploadBytes int64
	staticDir      string
}

type Options struct {
	MaxUploadBytes int64
	StaticDir      string
}

func New(svc Corrector, logger *slog.Logger, opts Options) *Handle {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	return &Handle{
		svc:            svc,
		log:            logger,
		maxUploadBytes: opts.MaxUploadBytes,
		staticDir:      opts.StaticDir,
	}
}

type correctResponse struct {
	Success bool            `json:"success"`
	Answers []answers.Token `json:"answers,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func (h *Handle) writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= 500 {
		h.log.Error("api.correct.failed", "status", code, "error", err)
	} else {
		h.log.Info("api.correct.rejected", "status", code, "error", err)
	}
	writeJSON(w, code, correctResponse{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	var fe *answers.FieldError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, answers.ErrMissingImage),
		errors.Is(err, ocr.ErrUnknownEngine),
		errors.As(err, &fe):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, answers.ErrInferenceTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
