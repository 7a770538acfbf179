// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/pollcast/broadcast"
	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/store"
	"github.com/danielhkuo/pollcast/testutil"
	"github.com/danielhkuo/pollcast/voting"
)

type testEnv struct {
	db  *sql.DB
	cfg cliparse.Config
	hub *broadcast.Hub
	svc *voting.Service
}

// setupTestEnv wires a service over a fresh SQLite database and hub
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	hub := broadcast.NewHub(nil, nil)
	t.Cleanup(hub.Stop)

	cfg := testutil.GetTestConfig()
	svc := voting.NewService(store.NewSQLStore(db), hub, voting.WithTimeout(cfg.StoreTimeout))

	return &testEnv{db: db, cfg: cfg, hub: hub, svc: svc}
}

func TestCreatePoll(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewPollHandler(env.svc, env.cfg)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedFields []string
	}{
		{
			name: "valid poll",
			body: map[string]interface{}{
				"question":    "What is your favorite color?",
				"description": "Pick one",
				"options":     []string{"Red", "Blue", "Green"},
				"creator":     "Alice",
				"category":    "general",
				"tags":        []string{"colors"},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "expiry without zone",
			body: map[string]interface{}{
				"question":  "Lunch on Friday?",
				"options":   []string{"Yes", "No"},
				"creator":   "Bob",
				"expiresAt": "2030-01-02T15:04",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "question too short",
			body: map[string]interface{}{
				"question": "Hm?",
				"options":  []string{"Yes", "No"},
				"creator":  "Alice",
			},
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"question"},
		},
		{
			name: "too few options",
			body: map[string]interface{}{
				"question": "Is this a question?",
				"options":  []string{"Only"},
				"creator":  "Alice",
			},
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"options"},
		},
		{
			name: "too many options",
			body: map[string]interface{}{
				"question": "Is this a question?",
				"options":  []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"},
				"creator":  "Alice",
			},
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"options"},
		},
		{
			name: "blank option and missing creator",
			body: map[string]interface{}{
				"question": "Is this a question?",
				"options":  []string{"Yes", "   "},
				"creator":  "",
			},
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"options[1]", "creator"},
		},
		{
			name: "unknown category",
			body: map[string]interface{}{
				"question": "Is this a question?",
				"options":  []string{"Yes", "No"},
				"creator":  "Alice",
				"category": "cooking",
			},
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"category"},
		},
		{
			name: "too many tags",
			body: map[string]interface{}{
				"question": "Is this a question?",
				"options":  []string{"Yes", "No"},
				"creator":  "Alice",
				"tags":     []string{"a", "b", "c", "d", "e", "f"},
			},
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"tags"},
		},
		{
			name: "bad expiry",
			body: map[string]interface{}{
				"question":  "Is this a question?",
				"options":   []string{"Yes", "No"},
				"creator":   "Alice",
				"expiresAt": "next tuesday",
			},
			expectedStatus: http.StatusBadRequest,
			expectedFields: []string{"expiresAt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/polls", tt.body, nil)
			w := httptest.NewRecorder()

			handler.CreatePoll(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var resp models.PollResponse
				testutil.AssertJSON(t, w, &resp)
				if resp.Poll.ID == "" {
					t.Error("Expected poll ID to be set")
				}
				if !resp.Poll.IsActive {
					t.Error("Expected new poll to be active")
				}
				if resp.Poll.TotalVotes != 0 {
					t.Errorf("Expected 0 votes, got %d", resp.Poll.TotalVotes)
				}
				return
			}

			var resp models.ErrorResponse
			testutil.AssertJSON(t, w, &resp)
			got := map[string]bool{}
			for _, f := range resp.Fields {
				got[f.Field] = true
			}
			for _, field := range tt.expectedFields {
				if !got[field] {
					t.Errorf("Expected field error for %q, got %+v", field, resp.Fields)
				}
			}
		})
	}
}

func TestCreatePoll_InvalidJSON(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewPollHandler(env.svc, env.cfg)

	req := httptest.NewRequest("POST", "/polls", nil)
	w := httptest.NewRecorder()
	handler.CreatePoll(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestListPolls(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewPollHandler(env.svc, env.cfg)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 12; i++ {
		p := testutil.NewTestPoll()
		p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if i%4 == 0 {
			p.Category = models.CategorySports
		}
		testutil.InsertTestPoll(t, env.db, p)
	}
	closed := testutil.NewTestPoll()
	closed.IsActive = false
	closedID := testutil.InsertTestPoll(t, env.db, closed)

	tests := []struct {
		name          string
		query         string
		expectedCount int
		expectedTotal int
		expectedPages int
	}{
		{"defaults", "", 10, 12, 2},
		{"second page", "?page=2", 2, 12, 2},
		{"custom limit", "?limit=5", 5, 12, 3},
		{"category filter", "?category=sports", 3, 3, 1},
		{"category all", "?category=all", 10, 12, 2},
		{"inactive only", "?isActive=false", 1, 1, 1},
		{"all states", "?isActive=all&limit=100", 13, 13, 1},
		{"limit capped", "?isActive=all&limit=1000", 13, 13, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/polls"+tt.query, nil)
			w := httptest.NewRecorder()

			handler.ListPolls(w, req)

			testutil.AssertStatus(t, w, http.StatusOK)

			var resp models.PollListResponse
			testutil.AssertJSON(t, w, &resp)

			if len(resp.Polls) != tt.expectedCount {
				t.Errorf("Expected %d polls, got %d", tt.expectedCount, len(resp.Polls))
			}
			if resp.Total != tt.expectedTotal {
				t.Errorf("Expected total %d, got %d", tt.expectedTotal, resp.Total)
			}
			if resp.TotalPages != tt.expectedPages {
				t.Errorf("Expected %d pages, got %d", tt.expectedPages, resp.TotalPages)
			}
		})
	}

	// Newest first
	req := httptest.NewRequest("GET", "/polls?isActive=all", nil)
	w := httptest.NewRecorder()
	handler.ListPolls(w, req)

	var resp models.PollListResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Polls) == 0 || resp.Polls[0].ID != closedID {
		t.Error("Expected most recently created poll first")
	}
	for i := 1; i < len(resp.Polls); i++ {
		if resp.Polls[i].CreatedAt.After(resp.Polls[i-1].CreatedAt) {
			t.Errorf("Polls not sorted newest first at index %d", i)
		}
	}
}

func TestListPolls_BadQuery(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewPollHandler(env.svc, env.cfg)

	for _, query := range []string{
		"?page=0",
		"?page=abc",
		"?limit=-1",
		"?category=cooking",
		"?isActive=maybe",
		"?page=9223372036854775807&limit=100",
		"?page=92233720368547760&limit=100",
	} {
		t.Run(query, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/polls"+query, nil)
			w := httptest.NewRecorder()

			handler.ListPolls(w, req)

			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestGetPoll(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewPollHandler(env.svc, env.cfg)

	pollID := testutil.CreateTestPoll(t, env.db, "Cats", "Dogs")
	testutil.CastTestVote(t, env.db, pollID, "v1", 1)

	t.Run("existing poll", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/polls/"+pollID, nil)
		req.SetPathValue("id", pollID)
		w := httptest.NewRecorder()

		handler.GetPoll(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var poll models.Poll
		testutil.AssertJSON(t, w, &poll)
		if poll.ID != pollID {
			t.Errorf("Expected poll %s, got %s", pollID, poll.ID)
		}
		if len(poll.Options) != 2 || poll.Options[1].Votes != 1 || poll.TotalVotes != 1 {
			t.Errorf("Unexpected tallies: %+v", poll)
		}
	})

	t.Run("missing poll", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/polls/nope", nil)
		req.SetPathValue("id", "nope")
		w := httptest.NewRecorder()

		handler.GetPoll(w, req)

		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("expired poll is deactivated", func(t *testing.T) {
		p := testutil.NewTestPoll()
		past := time.Now().UTC().Add(-time.Hour)
		p.ExpiresAt = &past
		expiredID := testutil.InsertTestPoll(t, env.db, p)

		req := httptest.NewRequest("GET", "/polls/"+expiredID, nil)
		req.SetPathValue("id", expiredID)
		w := httptest.NewRecorder()

		handler.GetPoll(w, req)

		testutil.AssertStatus(t, w, http.StatusOK)

		var poll models.Poll
		testutil.AssertJSON(t, w, &poll)
		if poll.IsActive {
			t.Error("Expected expired poll to be inactive")
		}
	})
}

func TestUpdatePoll(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewPollHandler(env.svc, env.cfg)

	pollID := testutil.CreateTestPoll(t, env.db)
	testutil.CastTestVote(t, env.db, pollID, "v1", 0)

	tests := []struct {
		name           string
		id             string
		body           interface{}
		expectedStatus int
	}{
		{
			name:           "change question",
			id:             pollID,
			body:           map[string]interface{}{"question": "An updated question?"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "blank question keeps stored value",
			id:             pollID,
			body:           map[string]interface{}{"question": "", "isActive": false},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "blank expiry keeps stored value",
			id:             pollID,
			body:           map[string]interface{}{"expiresAt": ""},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "deactivate",
			id:             pollID,
			body:           map[string]interface{}{"isActive": false},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "options are ignored",
			id:             pollID,
			body:           map[string]interface{}{"options": []string{"X", "Y", "Z"}, "totalVotes": 99},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "question too short",
			id:             pollID,
			body:           map[string]interface{}{"question": "Eh"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing poll",
			id:             "nope",
			body:           map[string]interface{}{"isActive": true},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("PUT", "/polls/"+tt.id, tt.body, nil)
			req.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()

			handler.UpdatePoll(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	req := httptest.NewRequest("GET", "/polls/"+pollID, nil)
	req.SetPathValue("id", pollID)
	w := httptest.NewRecorder()
	handler.GetPoll(w, req)

	var poll models.Poll
	testutil.AssertJSON(t, w, &poll)
	if poll.Question != "An updated question?" {
		t.Errorf("Expected updated question, got %q", poll.Question)
	}
	if poll.IsActive {
		t.Error("Expected poll to be inactive")
	}
	if poll.ExpiresAt != nil {
		t.Errorf("Expected no expiry, got %v", poll.ExpiresAt)
	}
	if len(poll.Options) != 2 || poll.TotalVotes != 1 || poll.Options[0].Votes != 1 {
		t.Errorf("Options or tallies changed: %+v", poll)
	}
}

func TestDeletePoll(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewPollHandler(env.svc, env.cfg)

	pollID := testutil.CreateTestPoll(t, env.db)
	testutil.CastTestVote(t, env.db, pollID, "v1", 0)
	testutil.CastTestVote(t, env.db, pollID, "v2", 1)

	req := httptest.NewRequest("DELETE", "/polls/"+pollID, nil)
	req.SetPathValue("id", pollID)
	w := httptest.NewRecorder()

	handler.DeletePoll(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.DeletePollResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.DeletedVotes != 2 {
		t.Errorf("Expected 2 deleted votes, got %d", resp.DeletedVotes)
	}

	var count int
	env.db.QueryRow(`SELECT COUNT(*) FROM vote WHERE poll_id = $1`, pollID).Scan(&count)
	if count != 0 {
		t.Errorf("Expected no votes left, got %d", count)
	}

	// Second delete is a 404
	req = httptest.NewRequest("DELETE", "/polls/"+pollID, nil)
	req.SetPathValue("id", pollID)
	w = httptest.NewRecorder()
	handler.DeletePoll(w, req)

	testutil.AssertStatus(t, w, http.StatusNotFound)
}
