// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/testutil"
)

// submitVote posts a vote through the handler and returns the status code
func submitVote(h *VotingHandler, pollID string, optionIndex int, voterID string) int {
	req := testutil.MakeRequest("POST", "/votes", map[string]interface{}{
		"pollId":      pollID,
		"optionIndex": optionIndex,
		"voterId":     voterID,
	}, nil)
	w := httptest.NewRecorder()
	h.SubmitVote(w, req)
	return w.Code
}

// tallies returns the poll total, the sum of option tallies and the ledger
// count for pollID
func tallies(t *testing.T, env *testEnv, pollID string) (total, optionSum, ledger int) {
	t.Helper()
	env.db.QueryRow(`SELECT total_votes FROM poll WHERE id = $1`, pollID).Scan(&total)
	env.db.QueryRow(`SELECT COALESCE(SUM(votes), 0) FROM poll_option WHERE poll_id = $1`, pollID).Scan(&optionSum)
	env.db.QueryRow(`SELECT COUNT(*) FROM vote WHERE poll_id = $1`, pollID).Scan(&ledger)
	return total, optionSum, ledger
}

// TestConcurrentVoteSubmissions verifies that many voters voting at once
// never lose an increment
func TestConcurrentVoteSubmissions(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewVotingHandler(env.svc, env.cfg)

	pollID := testutil.CreateTestPoll(t, env.db, "A", "B", "C", "D")

	numVoters := 40
	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(voterIdx int) {
			defer wg.Done()
			if submitVote(handler, pollID, voterIdx%4, fmt.Sprintf("voter-%d", voterIdx)) == http.StatusCreated {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numVoters {
		t.Errorf("Expected %d successful submissions, got %d", numVoters, successCount.Load())
	}

	total, optionSum, ledger := tallies(t, env, pollID)
	if total != numVoters || optionSum != numVoters || ledger != numVoters {
		t.Errorf("Tallies diverged: total=%d options=%d ledger=%d", total, optionSum, ledger)
	}
}

// TestConcurrentDuplicateVotes verifies that one voter hammering a
// single-vote poll is counted once
func TestConcurrentDuplicateVotes(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewVotingHandler(env.svc, env.cfg)

	pollID := testutil.CreateTestPoll(t, env.db)

	attempts := 25
	var created, rejected atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch submitVote(handler, pollID, i%2, "the-same-voter") {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusBadRequest:
				rejected.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if created.Load() != 1 {
		t.Errorf("Expected exactly 1 accepted vote, got %d", created.Load())
	}
	if int(rejected.Load()) != attempts-1 {
		t.Errorf("Expected %d rejections, got %d", attempts-1, rejected.Load())
	}

	total, optionSum, ledger := tallies(t, env, pollID)
	if total != 1 || optionSum != 1 || ledger != 1 {
		t.Errorf("Tallies diverged: total=%d options=%d ledger=%d", total, optionSum, ledger)
	}
}

// TestConcurrentRepeatVotes verifies that a multi-vote poll counts every
// vote from the same voter
func TestConcurrentRepeatVotes(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewVotingHandler(env.svc, env.cfg)

	poll := testutil.NewTestPoll()
	poll.AllowMultipleVotes = true
	pollID := testutil.InsertTestPoll(t, env.db, poll)

	attempts := 20
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if code := submitVote(handler, pollID, 0, "enthusiast"); code != http.StatusCreated {
				t.Errorf("Expected 201, got %d", code)
			}
		}()
	}
	wg.Wait()

	total, optionSum, ledger := tallies(t, env, pollID)
	if total != attempts || optionSum != attempts || ledger != attempts {
		t.Errorf("Tallies diverged: total=%d options=%d ledger=%d", total, optionSum, ledger)
	}
}

// TestParallelPolls verifies votes on different polls stay isolated
func TestParallelPolls(t *testing.T) {
	env := setupTestEnv(t)
	handler := NewVotingHandler(env.svc, env.cfg)

	numPolls := 5
	votesPerPoll := 6
	pollIDs := make([]string, numPolls)
	for i := range pollIDs {
		pollIDs[i] = testutil.CreateTestPoll(t, env.db)
	}

	var wg sync.WaitGroup
	for p := 0; p < numPolls; p++ {
		for v := 0; v < votesPerPoll; v++ {
			wg.Add(1)
			go func(p, v int) {
				defer wg.Done()
				submitVote(handler, pollIDs[p], v%2, fmt.Sprintf("voter-%d", v))
			}(p, v)
		}
	}
	wg.Wait()

	for _, pollID := range pollIDs {
		poll, err := env.svc.GetPoll(t.Context(), pollID)
		if err != nil {
			t.Fatalf("GetPoll failed: %v", err)
		}
		if poll.TotalVotes != votesPerPoll {
			t.Errorf("Poll %s: expected %d votes, got %d", pollID, votesPerPoll, poll.TotalVotes)
		}
		if poll.Options[0].Votes != votesPerPoll/2 || poll.Options[1].Votes != votesPerPoll/2 {
			t.Errorf("Poll %s: unexpected split %+v", pollID, poll.Options)
		}
	}

	var stats models.VoteStats
	req := httptest.NewRequest("GET", "/votes/stats/"+pollIDs[0], nil)
	req.SetPathValue("pollId", pollIDs[0])
	w := httptest.NewRecorder()
	handler.GetStats(w, req)
	testutil.AssertJSON(t, w, &stats)
	if stats.UniqueVoters != votesPerPoll {
		t.Errorf("Expected %d unique voters, got %d", votesPerPoll, stats.UniqueVoters)
	}
}
