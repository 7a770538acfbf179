// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/danielhkuo/pollcast/models"
)

var (
	// ErrNotFound means the poll (or vote) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate means a uniqueness constraint rejected the write.
	ErrDuplicate = errors.New("duplicate")

	// ErrUnavailable wraps timeouts and connection failures.
	ErrUnavailable = errors.New("store unavailable")
)

// PollStore persists polls and their options.
type PollStore interface {
	CreatePoll(ctx context.Context, poll models.Poll) error
	GetPoll(ctx context.Context, id string) (models.Poll, error)
	// ListPolls returns one page of polls, newest first, and the total
	// number of polls matching the filter.
	ListPolls(ctx context.Context, filter models.PollFilter) ([]models.Poll, int, error)
	UpdatePoll(ctx context.Context, id string, update models.PollUpdate, now time.Time) (models.Poll, error)
	DeactivatePoll(ctx context.Context, id string, now time.Time) error
	// DeletePoll removes the poll together with its votes and reports how
	// many votes were removed.
	DeletePoll(ctx context.Context, id string) (int64, error)
}

// VoteLedger persists votes.
type VoteLedger interface {
	// RecordVote appends the vote and increments the chosen option's count
	// and the poll total as one unit. When unique is set, a second vote by
	// the same voter on the same poll fails with ErrDuplicate. It returns
	// the poll as it stands after the increment.
	RecordVote(ctx context.Context, vote models.Vote, unique bool) (models.Poll, error)
	// LatestVote returns the most recent vote by voterID on pollID.
	LatestVote(ctx context.Context, pollID, voterID string) (models.Vote, bool, error)
	// ListVotes returns one page of a poll's votes, newest first.
	ListVotes(ctx context.Context, pollID string, page, limit int) ([]models.Vote, int, error)
	Stats(ctx context.Context, pollID string) (models.VoteStats, error)
}

// Store is the full persistence surface used by the service.
type Store interface {
	PollStore
	VoteLedger
	Close() error
}

// VoterKey returns the value the ledger's unique constraint is keyed on:
// the voter id for polls that forbid repeat votes, nothing otherwise.
func VoterKey(voterID string, unique bool) *string {
	if !unique {
		return nil
	}
	return &voterID
}
