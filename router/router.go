// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/pollcast/broadcast"
	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/handlers"
	"github.com/danielhkuo/pollcast/middleware"
	"github.com/danielhkuo/pollcast/voting"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter registers every route. gatherer backs /metrics and may be nil
// to serve the default registry.
func NewRouter(svc *voting.Service, hub *broadcast.Hub, cfg cliparse.Config, gatherer prometheus.Gatherer) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(svc, cfg)
	resultsHandler := handlers.NewResultsHandler(svc, cfg)
	votingHandler := handlers.NewVotingHandler(svc, cfg)
	streamHandler := handlers.NewStreamHandler(svc, hub, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// Poll management
	mux.HandleFunc("POST /polls", middleware.WithLogging(pollHandler.CreatePoll))
	mux.HandleFunc("GET /polls", middleware.WithLogging(pollHandler.ListPolls))
	mux.HandleFunc("GET /polls/{id}", middleware.WithLogging(pollHandler.GetPoll))
	mux.HandleFunc("PUT /polls/{id}", middleware.WithLogging(pollHandler.UpdatePoll))
	mux.HandleFunc("DELETE /polls/{id}", middleware.WithLogging(pollHandler.DeletePoll))

	// Results
	mux.HandleFunc("GET /polls/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /polls/{id}/results.csv", middleware.WithLogging(resultsHandler.ExportCSV))

	// Live results
	mux.HandleFunc("GET /polls/{id}/stream", middleware.WithLogging(streamHandler.Stream))

	// Voting
	mux.HandleFunc("POST /votes", middleware.WithLogging(votingHandler.SubmitVote))
	mux.HandleFunc("GET /votes/poll/{pollId}", middleware.WithLogging(votingHandler.ListVotes))
	mux.HandleFunc("GET /votes/check/{pollId}/{voterId}", middleware.WithLogging(votingHandler.CheckVote))
	mux.HandleFunc("GET /votes/stats/{pollId}", middleware.WithLogging(votingHandler.GetStats))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pollcast API v1"))
	})

	return mux
}
