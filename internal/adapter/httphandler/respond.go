package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "op", "respondJSON", "err", err)
	}
}

func respondError(w http.ResponseWriter, log *slog.Logger, err error, fallback int) {
	status, resp := errorResponse(log, err, fallback)
	respondJSON(w, status, resp)
}

// errorResponse maps domain errors to statuses. Unknown errors answer with
// fallback.
func errorResponse(log *slog.Logger, err error, fallback int) (int, ErrorResponse) {
	var verr *domain.ValidationError

	switch {
	case errors.As(err, &verr):
		fields := make(map[string]string, len(verr.Fields))
		for _, f := range verr.Fields {
			fields[f.Field] = f.Message
		}
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:  domain.ErrValidation.Error(),
			Fields: fields,
		}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: domain.ErrNotFound.Error()}
	case errors.Is(err, domain.ErrTooManyImages),
		errors.Is(err, domain.ErrInvalidImage):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.Is(err, domain.ErrNoImagesUploaded):
		return http.StatusUnprocessableEntity, ErrorResponse{
			Error:   domain.ErrNoImagesUploaded.Error(),
			Details: err.Error(),
		}
	case errors.Is(err, domain.ErrSubmitInProgress):
		return http.StatusConflict, ErrorResponse{Error: domain.ErrSubmitInProgress.Error()}
	case errors.Is(err, domain.ErrConfiguration):
		log.Error("storage misconfigured", "err", err)
		return http.StatusInternalServerError, ErrorResponse{
			Error: configurationMessage(err),
		}
	default:
		log.Error("request failed", "err", err)
		return fallback, ErrorResponse{
			Error:   http.StatusText(fallback),
			Details: err.Error(),
		}
	}
}

func configurationMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrMissingCredential, domain.ErrCredentialRejected,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return domain.ErrConfiguration.Error()
}

func decodeJSON(w http.ResponseWriter, r *http.Request, log *slog.Logger, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		log.Warn("failed to parse JSON", "err", err)
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON data"})
		return false
	}
	return true
}
