// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/middleware"
	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/voting"
)

type PollHandler struct {
	svc *voting.Service
	cfg cliparse.Config
}

// NewPollHandler creates a handler for the poll CRUD routes.
func NewPollHandler(svc *voting.Service, cfg cliparse.Config) *PollHandler {
	return &PollHandler{svc: svc, cfg: cfg}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.svc.CreatePoll(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.PollResponse{
		Message: "Poll created successfully",
		Poll:    poll,
	})
}

// ListPolls handles GET /polls
// Query: page, limit, category (enum or "all"), isActive (true, false or all)
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePage(r, DefaultPollLimit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	filter := models.PollFilter{Page: page, Limit: limit}

	switch category := r.URL.Query().Get("category"); {
	case category == "" || category == "all":
	case models.IsValidCategory(category):
		filter.Category = category
	default:
		writeServiceError(w, r, models.NewValidationError("category", "must be one of: all, general, politics, sports, entertainment, technology, other"))
		return
	}

	switch r.URL.Query().Get("isActive") {
	case "", "true":
		active := true
		filter.IsActive = &active
	case "false":
		active := false
		filter.IsActive = &active
	case "all":
	default:
		writeServiceError(w, r, models.NewValidationError("isActive", "must be one of: true, false, all"))
		return
	}

	polls, total, err := h.svc.ListPolls(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollListResponse{
		Polls:       polls,
		TotalPages:  models.TotalPages(total, limit),
		CurrentPage: page,
		Total:       total,
	})
}

// GetPoll handles GET /polls/{id}
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.svc.GetPoll(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, poll)
}

// UpdatePoll handles PUT /polls/{id}
// Only question, description, isActive and expiresAt can change.
func (h *PollHandler) UpdatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	poll, err := h.svc.UpdatePoll(r.Context(), r.PathValue("id"), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollResponse{
		Message: "Poll updated successfully",
		Poll:    poll,
	})
}

// DeletePoll handles DELETE /polls/{id}
func (h *PollHandler) DeletePoll(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.svc.DeletePoll(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.DeletePollResponse{
		Message:      "Poll deleted successfully",
		DeletedVotes: deleted,
	})
}
