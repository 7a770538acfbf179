// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"testing"

	"github.com/danielhkuo/pollcast/models"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		votes, total int
		want         int
	}{
		{3, 4, 75},
		{1, 4, 25},
		{0, 0, 0},
		{0, 5, 0},
		{5, 5, 100},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},   // 12.5 rounds up
		{1, 200, 1},  // 0.5 rounds up
		{1, 201, 0},  // just under 0.5
		{7, 7000, 0}, // 0.1
	}

	for _, tt := range tests {
		if got := Percentage(tt.votes, tt.total); got != tt.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tt.votes, tt.total, got, tt.want)
		}
	}
}

func TestResults(t *testing.T) {
	poll := models.Poll{
		ID:         "poll-1",
		Options:    []models.Option{{Text: "A", Votes: 3}, {Text: "B", Votes: 1}},
		TotalVotes: 4,
	}

	results := Results(poll)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Text != "A" || results[0].Votes != 3 || results[0].Percentage != 75 {
		t.Errorf("Unexpected result for A: %+v", results[0])
	}
	if results[1].Text != "B" || results[1].Votes != 1 || results[1].Percentage != 25 {
		t.Errorf("Unexpected result for B: %+v", results[1])
	}

	u := UpdateFor(poll)
	if u.PollID != "poll-1" || u.TotalVotes != 4 || len(u.Results) != 2 {
		t.Errorf("Unexpected update: %+v", u)
	}
}

func TestResults_NoVotes(t *testing.T) {
	poll := models.Poll{Options: []models.Option{{Text: "A"}, {Text: "B"}, {Text: "C"}}}

	for i, r := range Results(poll) {
		if r.Votes != 0 || r.Percentage != 0 {
			t.Errorf("option %d: expected 0 votes and 0%%, got %+v", i, r)
		}
	}
}

func TestResults_NotNormalised(t *testing.T) {
	poll := models.Poll{
		Options:    []models.Option{{Text: "A", Votes: 1}, {Text: "B", Votes: 1}, {Text: "C", Votes: 1}},
		TotalVotes: 3,
	}

	sum := 0
	for _, r := range Results(poll) {
		sum += r.Percentage
	}
	if sum != 99 {
		t.Errorf("Expected percentages to sum to 99, got %d", sum)
	}
}
