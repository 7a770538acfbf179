// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting implements poll management and vote submission on top of a
store.Store, and broadcasts refreshed tallies after each accepted vote.

# Submitting Votes

	svc := voting.NewService(st, hub,
		voting.WithTimeout(cfg.StoreTimeout),
		voting.WithMetrics(prometheus.DefaultRegisterer),
	)

	receipt, err := svc.SubmitVote(ctx, voting.SubmitVoteRequest{
		PollID:      pollID,
		OptionIndex: 1,
		VoterID:     voterID,
		Origin:      origin.FromRequest(r, cfg.IPHashSalt),
	})

A submission is checked in this order, and the first failure wins:

 1. the poll exists (ErrNotFound)
 2. the poll is active and not past its expiry (ErrPollClosed)
 3. the option index is in range (ErrInvalidOption)
 4. the voter has not voted yet, unless the poll allows repeat votes
    (ErrDuplicateVote)

The duplicate check in step 4 only saves a write. Concurrent submissions by
the same voter can all pass it; the store's unique constraint then accepts
exactly one and the rest fail with ErrDuplicateVote.

The vote record and both tally increments are committed by the store as one
unit. The refreshed tally is then published; publish failures are logged
and counted but never fail the vote.

# Expiry

Polls are not closed by a timer. A poll whose expiry has passed is
deactivated the next time it is read or voted on.

# Errors

KindOf maps any error returned by the service, or by a store, onto a Kind
for transport mapping:

	switch voting.KindOf(err) {
	case voting.KindNotFound:
		// 404
	case voting.KindTransient:
		// 503
	}

Timeouts and connection failures surface as ErrTransient. The service does
not retry.

# Results

Percentages are whole numbers rounded half up and are not normalised, so
three options with one vote each report 33% each.
*/
package voting
