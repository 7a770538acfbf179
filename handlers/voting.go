// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/middleware"
	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/origin"
	"github.com/danielhkuo/pollcast/voting"
)

type VotingHandler struct {
	svc *voting.Service
	cfg cliparse.Config
}

// NewVotingHandler creates a handler for the vote routes.
func NewVotingHandler(svc *voting.Service, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{svc: svc, cfg: cfg}
}

// SubmitVote handles POST /votes
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := req.Validate(); err != nil {
		writeServiceError(w, r, err)
		return
	}

	receipt, err := h.svc.SubmitVote(r.Context(), voting.SubmitVoteRequest{
		PollID:      req.PollID,
		OptionIndex: *req.OptionIndex,
		VoterID:     req.VoterID,
		Origin:      origin.FromRequest(r, h.cfg.IPHashSalt),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitVoteResponse{
		Message: "Vote submitted successfully",
		Vote:    receipt,
	})
}

// ListVotes handles GET /votes/poll/{pollId}
// Newest first; origin metadata is never included.
func (h *VotingHandler) ListVotes(w http.ResponseWriter, r *http.Request) {
	page, limit, err := parsePage(r, DefaultVoteLimit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	votes, total, err := h.svc.ListVotes(r.Context(), r.PathValue("pollId"), page, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteListResponse{
		Votes:       votes,
		TotalPages:  models.TotalPages(total, limit),
		CurrentPage: page,
		Total:       total,
	})
}

// CheckVote handles GET /votes/check/{pollId}/{voterId}
func (h *VotingHandler) CheckVote(w http.ResponseWriter, r *http.Request) {
	vote, found, err := h.svc.CheckVote(r.Context(), r.PathValue("pollId"), r.PathValue("voterId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := models.CheckVoteResponse{HasVoted: found}
	if found {
		resp.Vote = &models.VoteCheck{
			OptionIndex: vote.OptionIndex,
			Timestamp:   vote.Timestamp,
		}
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetStats handles GET /votes/stats/{pollId}
func (h *VotingHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), r.PathValue("pollId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, stats)
}
