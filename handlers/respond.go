// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/danielhkuo/pollcast/middleware"
	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/voting"
)

// Pagination limits
const (
	DefaultPollLimit = 10
	DefaultVoteLimit = 50
	MaxPageLimit     = 100
)

// writeServiceError maps a service error onto a status code. Transient and
// internal failures are logged and answered with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError

	switch voting.KindOf(err) {
	case voting.KindValidation:
		errors.As(err, &verr)
		middleware.ValidationErrorResponse(w, verr)
	case voting.KindNotFound:
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
	case voting.KindPollClosed:
		middleware.ErrorResponse(w, http.StatusBadRequest, "Poll is not active or has expired")
	case voting.KindInvalidOption:
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid option selected")
	case voting.KindDuplicateVote:
		middleware.ErrorResponse(w, http.StatusBadRequest, "You have already voted on this poll")
	case voting.KindTransient:
		slog.Warn("storage unavailable", "method", r.Method, "path", r.URL.Path, "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Service temporarily unavailable, please retry")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal server error")
	}
}

// parsePage reads the page and limit query parameters. Missing values use
// page 1 and defaultLimit; limit is capped at MaxPageLimit.
func parsePage(r *http.Request, defaultLimit int) (page, limit int, err error) {
	page, limit = 1, defaultLimit
	q := r.URL.Query()

	if v := q.Get("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page < 1 {
			return 0, 0, models.NewValidationError("page", "must be a positive integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 {
			return 0, 0, models.NewValidationError("limit", "must be a positive integer")
		}
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	// The row offset (page-1)*limit must fit in an int
	if page-1 > math.MaxInt/limit {
		return 0, 0, models.NewValidationError("page", "is out of range")
	}
	return page, limit, nil
}
