package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/edit"
	"github.com/aretw0/switchboard/pkg/session"
)

// errBadRequest marks malformed request bodies and parameters.
var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error   string `json:"error"`
	Command *int   `json:"command,omitempty"`
}

// rejections are edit errors; the session is left unchanged.
var rejections = []error{
	domain.ErrBlankName,
	domain.ErrDuplicateName,
	domain.ErrStateNotFound,
	domain.ErrEdgeNotFound,
	domain.ErrLastState,
	domain.ErrUnknownOp,
	domain.ErrInvalidCommand,
}

func statusFor(err error) int {
	var batchErr *edit.BatchError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, session.ErrAgentIDRequired):
		return http.StatusBadRequest
	case errors.As(err, &batchErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrDefinitionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNothingToUndo):
		return http.StatusConflict
	}
	for _, r := range rejections {
		if errors.Is(err, r) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var batchErr *edit.BatchError
	if errors.As(err, &batchErr) {
		resp.Command = &batchErr.Index
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "err", err)
	} else {
		logger.Debug("Request rejected", "status", status, "err", err)
	}
	writeJSON(w, logger, status, resp)
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}
