// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/middleware"
	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/voting"
)

type ResultsHandler struct {
	svc *voting.Service
	cfg cliparse.Config
}

// NewResultsHandler creates a handler for the JSON and CSV result routes.
func NewResultsHandler(svc *voting.Service, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{svc: svc, cfg: cfg}
}

// GetResults handles GET /polls/{id}/results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	poll, results, err := h.svc.Results(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PollResultsResponse{
		Poll:    voting.Summary(poll),
		Results: results,
	})
}

// ExportCSV handles GET /polls/{id}/results.csv
// One row per option followed by a total row.
func (h *ResultsHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	poll, results, err := h.svc.Results(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="poll-`+poll.ID+`-results.csv"`)
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	cw.Write([]string{"option", "votes", "percentage"})
	for _, res := range results {
		cw.Write([]string{res.Text, strconv.Itoa(res.Votes), strconv.Itoa(res.Percentage)})
	}
	cw.Write([]string{"total", strconv.Itoa(poll.TotalVotes), ""})
	cw.Flush()

	if err := cw.Error(); err != nil {
		slog.Error("failed to write results csv", "poll_id", poll.ID, "error", err)
	}
}
