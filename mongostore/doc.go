// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package mongostore implements store.Store on MongoDB. A vote is inserted
// first and the poll's counters are then bumped with a single $inc; if that
// fails the vote is deleted again. Repeat votes are rejected by a partial
// unique index on {pollId, voterKey}.
package mongostore
