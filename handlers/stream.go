// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/pollcast/broadcast"
	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/voting"
	"github.com/gin-contrib/sse"
)

// SSE event names
const (
	EventVoteUpdate = "vote-update"
	EventPing       = "ping"
)

type StreamHandler struct {
	svc *voting.Service
	hub *broadcast.Hub
	cfg cliparse.Config
}

// NewStreamHandler creates a handler that streams tallies from hub.
func NewStreamHandler(svc *voting.Service, hub *broadcast.Hub, cfg cliparse.Config) *StreamHandler {
	return &StreamHandler{svc: svc, hub: hub, cfg: cfg}
}

// Stream handles GET /polls/{id}/stream
// Sends the current tally, then one vote-update event per accepted vote
// until the client disconnects. Pings keep idle proxies from closing the
// connection.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	poll, err := h.svc.GetPoll(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Subscribe before writing the snapshot so no update falls in between
	id, updates := h.hub.Subscribe(poll.ID)
	defer h.hub.Unsubscribe(poll.ID, id)

	w.Header().Set("Content-Type", sse.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	send := func(event string, data any) bool {
		if err := sse.Encode(w, sse.Event{Event: event, Data: data}); err != nil {
			slog.Debug("stream write failed", "poll_id", poll.ID, "error", err)
			return false
		}
		if err := rc.Flush(); err != nil {
			slog.Debug("stream flush failed", "poll_id", poll.ID, "error", err)
			return false
		}
		return true
	}

	if !send(EventVoteUpdate, voting.UpdateFor(poll)) {
		return
	}

	keepalive := h.cfg.StreamKeepalive
	if keepalive <= 0 {
		keepalive = 25 * time.Second
	}
	ticker := time.NewTicker(keepalive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if !send(EventVoteUpdate, u) {
				return
			}
		case <-ticker.C:
			if !send(EventPing, "keepalive") {
				return
			}
		}
	}
}
