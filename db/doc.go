// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens SQL connections and creates the schema.

# Connections

Open accepts the database type and URL from configuration:

	conn, err := db.Open(db.TypeSQLite, "file:pollcast.db")

PostgreSQL uses github.com/lib/pq. SQLite uses the pure Go modernc.org/sqlite
driver, limited to a single open connection, with foreign keys and a busy
timeout enabled through DSN pragmas (see SQLiteDSN).

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
The same statements run on both PostgreSQL and SQLite.

# Tables

  - poll: question, metadata, lifecycle state and the denormalized total
  - poll_option: option text and tally, keyed by (poll_id, position)
  - vote: append-only vote ledger with origin metadata

# Relationships

	poll 1──* poll_option
	poll 1──* vote

# Duplicate Votes

vote.voter_key holds the voter id only for polls that forbid repeat votes.
UNIQUE (poll_id, voter_key) then rejects a second vote by the same voter,
while NULL keys on multi-vote polls never collide.

# Indexes

  - poll.created_at (listing, newest first)
  - poll.is_active
  - poll.category
  - vote.(poll_id, created_at)
  - vote.(poll_id, voter_id)
*/
package db
