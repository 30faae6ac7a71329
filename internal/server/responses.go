package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alejandrodnm/profitcalc/internal/calculator"
	"github.com/alejandrodnm/profitcalc/internal/domain"
)

type apiError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("encode response failed", "err", err)
	}
}

// writeError mapea errores de dominio a status codes. Los de validación son
// input rechazado y no se loguean como fallos.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidationError(err):
		body := apiError{Code: "validation", Message: rootMessage(err)}
		var verr *calculator.ValidationError
		if errors.As(err, &verr) {
			body.Message = domain.ErrInvalidRecord.Error()
			body.Fields = verr.Fields
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorEnvelope{Error: body})
	case errors.Is(err, domain.ErrStorageFailure):
		slog.Warn("storage failure", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, errorEnvelope{Error: apiError{
			Code:    "storage",
			Message: domain.ErrStorageFailure.Error(),
		}})
	default:
		slog.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: apiError{
			Code:    "internal",
			Message: "unexpected error",
		}})
	}
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: apiError{
		Code:    "bad_request",
		Message: "invalid request body: " + err.Error(),
	}})
}

// rootMessage quita los prefijos "pkg.Func:" y deja el texto del sentinel.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		domain.ErrInvalidRange,
		domain.ErrMissingPrice,
		domain.ErrInvalidCost,
		domain.ErrInvalidProfitTarget,
		domain.ErrUnsolvable,
		domain.ErrInvalidRecord,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func decodeJSON(r *http.Request, dest any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dest)
}
