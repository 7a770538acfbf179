// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/pollcast/cliparse"
	"github.com/danielhkuo/pollcast/db"
	"github.com/danielhkuo/pollcast/models"
	"github.com/google/uuid"
)

// SetupTestDB creates a fresh SQLite database in a temp dir with the full
// schema. The database is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pollcast_test.db")
	conn, err := db.Open(db.TypeSQLite, "file:"+path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:               3318,
		DatabaseURL:        "file:pollcast_test.db",
		DatabaseType:       cliparse.DatabaseSQLite,
		RedisChannelPrefix: "pollcast:test:",
		IPHashSalt:         "test-ip-salt",
		StoreTimeout:       5 * time.Second,
		StreamKeepalive:    25 * time.Second,
	}
}

// NewTestPoll returns an active single-vote poll with the given options
// ("Yes" and "No" if none are given). It is not persisted.
func NewTestPoll(options ...string) models.Poll {
	if len(options) == 0 {
		options = []string{"Yes", "No"}
	}
	opts := make([]models.Option, len(options))
	for i, text := range options {
		opts[i] = models.Option{Text: text}
	}

	now := time.Now().UTC()
	return models.Poll{
		ID:        uuid.NewString(),
		Question:  "Which option is best?",
		Options:   opts,
		Creator:   "TestUser",
		IsActive:  true,
		Category:  models.CategoryGeneral,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// InsertTestPoll writes poll and its options directly to the database and
// returns the poll ID
func InsertTestPoll(t *testing.T, conn *sql.DB, poll models.Poll) string {
	t.Helper()

	if poll.ID == "" {
		poll.ID = uuid.NewString()
	}
	tags, _ := json.Marshal(poll.Tags)
	if poll.Tags == nil {
		tags = []byte("[]")
	}

	var expiresAt *time.Time
	if poll.ExpiresAt != nil {
		e := poll.ExpiresAt.UTC()
		expiresAt = &e
	}

	_, err := conn.Exec(`
		INSERT INTO poll (id, question, description, creator, is_active, expires_at,
			allow_multiple_votes, total_votes, category, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, poll.ID, poll.Question, poll.Description, poll.Creator, poll.IsActive, nullTime(expiresAt),
		poll.AllowMultipleVotes, poll.TotalVotes, poll.Category, string(tags),
		poll.CreatedAt.UTC(), poll.UpdatedAt.UTC())
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	for i, opt := range poll.Options {
		_, err := conn.Exec(`
			INSERT INTO poll_option (poll_id, position, text, votes)
			VALUES ($1, $2, $3, $4)
		`, poll.ID, i, opt.Text, opt.Votes)
		if err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
	}

	return poll.ID
}

// CreateTestPoll creates an active single-vote poll and returns its ID
func CreateTestPoll(t *testing.T, conn *sql.DB, options ...string) string {
	t.Helper()
	return InsertTestPoll(t, conn, NewTestPoll(options...))
}

// CastTestVote appends a vote to the ledger and bumps the tallies, bypassing
// duplicate checks. Returns the vote ID.
func CastTestVote(t *testing.T, conn *sql.DB, pollID, voterID string, optionIndex int) string {
	t.Helper()

	voteID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO vote (id, poll_id, option_index, voter_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, voteID, pollID, optionIndex, voterID, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}

	_, err = conn.Exec(`UPDATE poll_option SET votes = votes + 1 WHERE poll_id = $1 AND position = $2`, pollID, optionIndex)
	if err != nil {
		t.Fatalf("Failed to update test option: %v", err)
	}
	_, err = conn.Exec(`UPDATE poll SET total_votes = total_votes + 1 WHERE id = $1`, pollID)
	if err != nil {
		t.Fatalf("Failed to update test poll: %v", err)
	}

	return voteID
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
