// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the pollcast API.

# Handler Types

Each handler is a struct holding the voting service and config:

  - PollHandler: Create, list, get, update and delete polls
  - ResultsHandler: Result percentages as JSON or CSV
  - VotingHandler: Vote submission, listing, checks and statistics
  - StreamHandler: Live result updates over Server-Sent Events

Handlers are created via constructor functions:

	pollHandler := handlers.NewPollHandler(svc, cfg)

# Error Mapping

Service errors map onto status codes by voting.KindOf:

	validation, closed poll, bad option, repeat vote → 400
	unknown poll                                    → 404
	storage timeout or outage                       → 503
	anything else                                   → 500

Validation failures list each rejected field:

	{"error": "Bad Request", "message": "Validation failed",
	 "fields": [{"field": "question", "message": "must have at least 5 characters"}]}

# Pagination

GET /polls defaults to 10 per page and GET /votes/poll/{pollId} to 50.
limit is capped at 100. Responses carry totalPages, currentPage and total.

# Live Results

GET /polls/{id}/stream sends the current tally as a vote-update event, then
one vote-update per accepted vote:

	event:vote-update
	data:{"pollId":"...","results":[{"text":"Go","votes":3,"percentage":75}],"totalVotes":4}

A ping event is sent every STREAM_KEEPALIVE. Updates are best effort: a
client that falls too far behind misses updates rather than slowing others
down, and every update is a full snapshot.
*/
package handlers
