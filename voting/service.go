// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/pollcast/broadcast"
	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/store"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultTimeout bounds each storage call when no other timeout is set.
const DefaultTimeout = 5 * time.Second

// SubmitVoteRequest is a vote as received from a client, plus the audit
// metadata of the request that carried it.
type SubmitVoteRequest struct {
	PollID      string
	OptionIndex int
	VoterID     string
	Origin      models.Origin
}

// Service applies poll and vote operations against a store and publishes
// refreshed tallies after every accepted vote.
type Service struct {
	store     store.Store
	publisher broadcast.Publisher
	now       func() time.Time
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *serviceMetrics
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTimeout sets the per-operation storage timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used for lifecycle and failure messages.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics registers the service's counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *Service) {
		if reg != nil {
			s.metrics = newServiceMetrics(reg)
		}
	}
}

// NewService creates a service. publisher may be nil, in which case
// accepted votes are not broadcast.
func NewService(st store.Store, publisher broadcast.Publisher, opts ...Option) *Service {
	s := &Service{
		store:     st,
		publisher: publisher,
		now:       time.Now,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// Polls

// CreatePoll validates req and stores a new active poll.
func (s *Service) CreatePoll(ctx context.Context, req *models.CreatePollRequest) (models.Poll, error) {
	if err := req.Validate(); err != nil {
		return models.Poll{}, err
	}

	poll := req.Poll(s.clock())
	poll.ID = uuid.NewString()

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.store.CreatePoll(sctx, poll); err != nil {
		return models.Poll{}, translate("create poll", err)
	}

	s.logger.Info("poll created", "poll_id", poll.ID, "options", len(poll.Options))
	return poll, nil
}

// GetPoll returns the poll, deactivating it first if its expiry has passed.
func (s *Service) GetPoll(ctx context.Context, id string) (models.Poll, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	poll, err := s.store.GetPoll(sctx, id)
	if err != nil {
		return models.Poll{}, translate("get poll", err)
	}

	now := s.clock()
	if poll.IsActive && poll.IsExpired(now) {
		s.expire(ctx, poll.ID, now)
		poll.IsActive = false
	}
	return poll, nil
}

// expire persists the deactivation of an expired poll. Failures are logged
// only; readers see the poll as inactive either way.
func (s *Service) expire(ctx context.Context, id string, now time.Time) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if err := s.store.DeactivatePoll(sctx, id, now); err != nil {
		s.logger.Warn("failed to deactivate expired poll", "poll_id", id, "error", err)
		return
	}
	s.metrics.observeExpired()
	s.logger.Info("poll expired", "poll_id", id)
}

// ListPolls returns one page of polls, newest first, and the match count.
func (s *Service) ListPolls(ctx context.Context, filter models.PollFilter) ([]models.Poll, int, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	polls, total, err := s.store.ListPolls(sctx, filter)
	if err != nil {
		return nil, 0, translate("list polls", err)
	}
	return polls, total, nil
}

// UpdatePoll applies an administrative edit. Options and tallies are
// never changed.
func (s *Service) UpdatePoll(ctx context.Context, id string, req *models.UpdatePollRequest) (models.Poll, error) {
	if err := req.Validate(); err != nil {
		return models.Poll{}, err
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	poll, err := s.store.UpdatePoll(sctx, id, req.Update(), s.clock())
	if err != nil {
		return models.Poll{}, translate("update poll", err)
	}
	return poll, nil
}

// DeletePoll removes a poll and its votes, returning the number of votes
// removed.
func (s *Service) DeletePoll(ctx context.Context, id string) (int64, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	deleted, err := s.store.DeletePoll(sctx, id)
	if err != nil {
		return 0, translate("delete poll", err)
	}

	s.logger.Info("poll deleted", "poll_id", id, "deleted_votes", deleted)
	return deleted, nil
}

// Results returns the poll and its current per-option tally.
func (s *Service) Results(ctx context.Context, id string) (models.Poll, []models.OptionResult, error) {
	poll, err := s.GetPoll(ctx, id)
	if err != nil {
		return models.Poll{}, nil, err
	}
	return poll, Results(poll), nil
}

// Votes

// SubmitVote validates and records a vote. The checks run in a fixed
// order: the poll must exist, accept votes, have the chosen option and,
// unless repeat votes are allowed, not already hold a vote from the voter.
// The storage unique constraint has the final say on duplicates.
func (s *Service) SubmitVote(ctx context.Context, req SubmitVoteRequest) (receipt models.VoteReceipt, err error) {
	defer func() { s.metrics.observeVote(err) }()

	req.PollID = strings.TrimSpace(req.PollID)
	req.VoterID = strings.TrimSpace(req.VoterID)
	if err := validateVote(req); err != nil {
		return models.VoteReceipt{}, err
	}

	sctx, cancel := s.storeCtx(ctx)
	poll, err := s.store.GetPoll(sctx, req.PollID)
	cancel()
	if err != nil {
		return models.VoteReceipt{}, translate("submit vote", err)
	}

	now := s.clock()
	if !poll.AcceptsVotes(now) {
		if poll.IsActive {
			s.expire(ctx, poll.ID, now)
		}
		return models.VoteReceipt{}, ErrPollClosed
	}

	if req.OptionIndex >= len(poll.Options) {
		return models.VoteReceipt{}, ErrInvalidOption
	}

	unique := !poll.AllowMultipleVotes
	if unique {
		sctx, cancel := s.storeCtx(ctx)
		_, found, err := s.store.LatestVote(sctx, poll.ID, req.VoterID)
		cancel()
		if err != nil {
			return models.VoteReceipt{}, translate("submit vote", err)
		}
		if found {
			return models.VoteReceipt{}, ErrDuplicateVote
		}
	}

	vote := models.Vote{
		ID:          uuid.NewString(),
		PollID:      poll.ID,
		OptionIndex: req.OptionIndex,
		VoterID:     req.VoterID,
		Timestamp:   now,
		Origin:      req.Origin,
	}

	sctx, cancel = s.storeCtx(ctx)
	updated, err := s.store.RecordVote(sctx, vote, unique)
	cancel()
	if err != nil {
		return models.VoteReceipt{}, translate("submit vote", err)
	}

	s.publish(ctx, updated)

	return models.VoteReceipt{
		ID:          vote.ID,
		PollID:      vote.PollID,
		OptionIndex: vote.OptionIndex,
		Timestamp:   vote.Timestamp,
	}, nil
}

func validateVote(req SubmitVoteRequest) error {
	var fields []models.FieldError
	if req.PollID == "" {
		fields = append(fields, models.FieldError{Field: "pollId", Message: "is required"})
	}
	if req.OptionIndex < 0 {
		fields = append(fields, models.FieldError{Field: "optionIndex", Message: "must be at least 0"})
	}
	if req.VoterID == "" {
		fields = append(fields, models.FieldError{Field: "voterId", Message: "is required"})
	} else if len(req.VoterID) > models.MaxVoterIDLength {
		fields = append(fields, models.FieldError{Field: "voterId", Message: "must not exceed 100 characters"})
	}
	if len(fields) > 0 {
		return &models.ValidationError{Fields: fields}
	}
	return nil
}

// publish broadcasts the refreshed tally. The vote is already committed, so
// a failure here is logged and counted but not returned.
func (s *Service) publish(ctx context.Context, poll models.Poll) {
	if s.publisher == nil {
		return
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.publisher.Publish(pctx, UpdateFor(poll)); err != nil {
		s.metrics.observePublishError()
		s.logger.Warn("failed to publish vote update", "poll_id", poll.ID, "error", err)
	}
}

// ListVotes returns one page of a poll's votes, newest first.
func (s *Service) ListVotes(ctx context.Context, pollID string, page, limit int) ([]models.Vote, int, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	votes, total, err := s.store.ListVotes(sctx, pollID, page, limit)
	if err != nil {
		return nil, 0, translate("list votes", err)
	}
	return votes, total, nil
}

// CheckVote reports the voter's most recent vote on the poll, if any.
func (s *Service) CheckVote(ctx context.Context, pollID, voterID string) (models.Vote, bool, error) {
	voterID = strings.TrimSpace(voterID)
	if voterID == "" {
		return models.Vote{}, false, models.NewValidationError("voterId", "is required")
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	vote, found, err := s.store.LatestVote(sctx, pollID, voterID)
	if err != nil {
		return models.Vote{}, false, translate("check vote", err)
	}
	return vote, found, nil
}

// Stats summarises the ledger of an existing poll.
func (s *Service) Stats(ctx context.Context, pollID string) (models.VoteStats, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	if _, err := s.store.GetPoll(sctx, pollID); err != nil {
		return models.VoteStats{}, translate("vote stats", err)
	}

	stats, err := s.store.Stats(sctx, pollID)
	if err != nil {
		return models.VoteStats{}, translate("vote stats", err)
	}
	return stats, nil
}
