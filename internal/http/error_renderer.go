package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/briefq/briefq/internal/errors"
)

// StatusFor maps an error onto the HTTP status its code implies.
// Database errors that reach it without an AppError code are mapped first.
func StatusFor(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}
	if apperrors.GetCode(err) == "" {
		err = apperrors.MapDBError(err)
	}

	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation:
		return http.StatusBadRequest, string(apperrors.ErrCodeValidation)
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound, string(apperrors.ErrCodeNotFound)
	case apperrors.ErrCodeConflict:
		return http.StatusConflict, string(apperrors.ErrCodeConflict)
	case apperrors.ErrCodeQueueUnavailable:
		return http.StatusServiceUnavailable, string(apperrors.ErrCodeQueueUnavailable)
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout, string(apperrors.ErrCodeTimeout)
	case apperrors.ErrCodePersistence:
		return http.StatusInternalServerError, string(apperrors.ErrCodePersistence)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, string(apperrors.ErrCodeTimeout)
	case errors.Is(err, context.Canceled):
		// 499 is the de facto "client closed request" status.
		return 499, string(apperrors.ErrCodeCanceled)
	}
	return http.StatusInternalServerError, string(apperrors.ErrCodeInternal)
}

// RenderError writes err as {"error": code, "message": ...}. Server-side failures are
// logged with the request context and their message is replaced by a generic one.
func RenderError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := StatusFor(err)
	msg := err
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.ErrorContext(r.Context(), "request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("code", code),
				slog.Any("error", err),
			)
		}
		msg = errors.New(serverErrorMessage(code))
	}
	WriteError(w, ErrorParams{Code: status, ErrCode: code, Err: msg, Field: apperrors.GetField(err)})
}

func serverErrorMessage(code string) string {
	switch apperrors.ErrorCode(code) {
	case apperrors.ErrCodeQueueUnavailable:
		return "queue is unavailable, try again later"
	case apperrors.ErrCodeTimeout:
		return "request timed out"
	case apperrors.ErrCodePersistence:
		return "storage is unavailable, try again later"
	default:
		return "internal server error"
	}
}
