// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store defines the persistence interfaces for polls and votes and
implements them on database/sql.

# Interfaces

  - PollStore: poll CRUD, listing and lazy deactivation
  - VoteLedger: append-only votes, per-voter lookup, listing and statistics
  - Store: both, plus Close

SQLStore runs on PostgreSQL (github.com/lib/pq) and SQLite
(modernc.org/sqlite) with the same statements. The MongoDB implementation
lives in package mongostore.

# Recording Votes

RecordVote inserts the vote and increments the option and poll counters in
one transaction:

	INSERT INTO vote (...) VALUES (...)
	UPDATE poll_option SET votes = votes + 1 WHERE poll_id = $1 AND position = $2
	UPDATE poll SET total_votes = total_votes + 1 WHERE id = $1

Counters are never read, modified and written back by the application.

# Errors

Driver errors are wrapped with a sentinel:

  - ErrNotFound: no such poll, or an insert referenced a missing poll
  - ErrDuplicate: unique constraint violation (a repeat vote)
  - ErrUnavailable: timeouts, cancelled contexts, lost connections,
    SQLite busy or locked

Use errors.Is to test for them; the driver error stays in the chain.
*/
package store
