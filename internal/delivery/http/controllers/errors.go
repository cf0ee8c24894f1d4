package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"meetnet/internal/delivery/http/helpers"
	"meetnet/internal/domain"
)

// writeServiceError translates a service error into the API envelope.
// Known domain sentinels map to 4xx codes; anything else is logged and
// returned as 500. Transient storage conflicts come back as 503 so the
// client knows a retry is safe.
func writeServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrNoJoinRequest),
		errors.Is(err, domain.ErrNoPendingRequest):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrCreatorMembership):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupportedAction),
		errors.Is(err, domain.ErrBadNotificationData):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case domain.IsConflict(err):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrTransient):
		// The wrapped cause carries storage detail; log it, keep it out of
		// the response body.
		logger.WarnContext(r.Context(), "transient storage conflict", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeInternalError, "temporarily unavailable, please retry")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal server error")
	}
}
