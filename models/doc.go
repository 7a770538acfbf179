// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

All JSON uses camelCase keys.

# Request Types

Types for parsing incoming JSON, validated with go-playground/validator:

  - CreatePollRequest: question, description, options, creator, expiresAt,
    allowMultipleVotes, category, tags
  - UpdatePollRequest: question, description, isActive, expiresAt
  - SubmitVoteRequest: pollId, optionIndex, voterId

Each request has a Validate method that trims input and returns a
*ValidationError listing every rejected field.

# Response Types

  - PollResponse, PollListResponse, PollResultsResponse, DeletePollResponse
  - SubmitVoteResponse, VoteListResponse, CheckVoteResponse
  - VoteStats
  - ErrorResponse: error, message, fields

# Domain Types

  - Poll: question, ordered options with tallies, lifecycle state
  - Option: text and vote count
  - Vote: one ledger entry; Origin (hashed IP, user agent) is never serialized
  - OptionResult: tally plus rounded percentage

# Constants

Categories:

	CategoryGeneral       = "general"
	CategoryPolitics      = "politics"
	CategorySports        = "sports"
	CategoryEntertainment = "entertainment"
	CategoryTechnology    = "technology"
	CategoryOther         = "other"
*/
package models
