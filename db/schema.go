// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The schema sticks to the subset of SQL shared by PostgreSQL and SQLite.
// Timestamps are always supplied by the application in UTC.
const schema = `
-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    question TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    creator TEXT NOT NULL,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    expires_at TIMESTAMP,
    allow_multiple_votes BOOLEAN NOT NULL DEFAULT FALSE,
    total_votes INTEGER NOT NULL DEFAULT 0 CHECK (total_votes >= 0),
    category TEXT NOT NULL DEFAULT 'general' CHECK (category IN ('general', 'politics', 'sports', 'entertainment', 'technology', 'other')),
    tags TEXT NOT NULL DEFAULT '[]',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_poll_created_at ON poll(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_poll_is_active ON poll(is_active);
CREATE INDEX IF NOT EXISTS idx_poll_category ON poll(category);

-- Options (count and order fixed at creation, only votes mutate)
CREATE TABLE IF NOT EXISTS poll_option (
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    position INTEGER NOT NULL CHECK (position >= 0),
    text TEXT NOT NULL,
    votes INTEGER NOT NULL DEFAULT 0 CHECK (votes >= 0),
    PRIMARY KEY (poll_id, position)
);

-- Vote ledger
-- voter_key is the voter id for single-vote polls and NULL otherwise,
-- so the unique constraint only binds polls that forbid repeat votes.
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    option_index INTEGER NOT NULL CHECK (option_index >= 0),
    voter_id TEXT NOT NULL,
    voter_key TEXT,
    ip_hash TEXT,
    user_agent TEXT,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (poll_id, voter_key)
);

CREATE INDEX IF NOT EXISTS idx_vote_poll_created ON vote(poll_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_vote_poll_voter ON vote(poll_id, voter_id);
`
