package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/recruit-portal/internal/account"
	"github.com/hongminglow/recruit-portal/internal/http/respond"
	"github.com/hongminglow/recruit-portal/internal/records"
	"github.com/hongminglow/recruit-portal/internal/validation"
)

// respondError maps a service error onto a status code and envelope. Anything
// unrecognised is logged and reported as a 500 with a generic message.
func respondError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, fallback string) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		respond.Validation(w, verrs)
	case errors.Is(err, records.ErrDuplicateNationalID):
		respond.Error(w, http.StatusConflict, "An account with this national ID already exists")
	case errors.Is(err, account.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, "Invalid national ID or password")
	case errors.Is(err, account.ErrUnauthenticated):
		respond.Error(w, http.StatusUnauthorized, account.ErrUnauthenticated.Error())
	case errors.Is(err, records.ErrConflict):
		logger.WarnContext(r.Context(), fallback, slog.Any("error", err))
		respond.Error(w, http.StatusServiceUnavailable, "the service is busy, please retry")
	default:
		logger.ErrorContext(r.Context(), fallback, slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, fallback)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
