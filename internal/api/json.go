package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/surveyor-app/surveyor/internal/middleware"
	"github.com/surveyor-app/surveyor/internal/services"
	"github.com/surveyor-app/surveyor/internal/utils"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = &services.ServiceError{Code: services.ErrorInvalid, Reason: services.ReasonInvalidBody, Message: "invalid JSON body"}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("api.encode", "err", err)
	}
}

func writeOK(w http.ResponseWriter, extra map[string]any) {
	body := map[string]any{"ok": true}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// decodeBody reads one JSON value of at most maxBodyBytes. An empty body is
// an error unless allowEmpty is set, in which case dst is left untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) error {
	if r.Body == nil {
		if allowEmpty {
			return nil
		}
		return errInvalidBody
	}
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return errInvalidBody
	}
	if dec.More() {
		return errInvalidBody
	}
	return nil
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid, services.ErrorState:
		return http.StatusBadRequest
	case services.ErrorUnauthorized:
		return http.StatusUnauthorized
	case services.ErrorForbidden:
		return http.StatusForbidden
	case services.ErrorNotFound:
		return http.StatusNotFound
	case services.ErrorConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError maps service errors to their status and a localized message.
// Validation errors keep their specific message. Anything else is logged
// under op and reported as a generic 500.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	se, ok := services.AsServiceError(err)
	if !ok {
		rt.log.Error("api.internal", "op", op, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: utils.T(locale, "err.internal"), Code: "internal"})
		return
	}
	msg := se.Message
	if se.Reason != services.ReasonValidation {
		if v, found := utils.Lookup(locale, "err."+se.Reason); found {
			msg = v
		}
	}
	writeJSON(w, statusFor(se.Code), errorBody{Error: msg, Code: se.Reason})
}

// principal converts bearer claims into the service-level caller.
func principal(r *http.Request) *services.Principal {
	c, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return nil
	}
	return &services.Principal{ID: c.UID, Role: c.Role, Email: c.Email}
}
