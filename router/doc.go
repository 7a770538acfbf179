// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the pollcast API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(svc, hub, cfg, prometheus.DefaultGatherer)

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Polls:

	POST   /polls      - Create poll
	GET    /polls      - List polls (page, limit, category, isActive)
	GET    /polls/{id} - Poll with options and tallies
	PUT    /polls/{id} - Edit question, description, isActive, expiresAt
	DELETE /polls/{id} - Delete poll and its votes

Results:

	GET /polls/{id}/results     - Per-option votes and percentages
	GET /polls/{id}/results.csv - Same, as a CSV download
	GET /polls/{id}/stream      - Server-Sent Events, one vote-update per vote

Votes:

	POST /votes                            - Submit a vote
	GET  /votes/poll/{pollId}              - List votes, newest first
	GET  /votes/check/{pollId}/{voterId}   - Has this voter voted?
	GET  /votes/stats/{pollId}             - Totals, unique voters, per option

# Handler Initialization

The router creates handler instances with dependency injection:

	pollHandler := handlers.NewPollHandler(svc, cfg)
	resultsHandler := handlers.NewResultsHandler(svc, cfg)
	votingHandler := handlers.NewVotingHandler(svc, cfg)
	streamHandler := handlers.NewStreamHandler(svc, hub, cfg)

Every route except /health, /metrics and / is wrapped with
middleware.WithLogging.
*/
package router
