// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Poll categories
const (
	CategoryGeneral       = "general"
	CategoryPolitics      = "politics"
	CategorySports        = "sports"
	CategoryEntertainment = "entertainment"
	CategoryTechnology    = "technology"
	CategoryOther         = "other"
)

// Categories lists every accepted category in display order.
var Categories = []string{
	CategoryGeneral,
	CategoryPolitics,
	CategorySports,
	CategoryEntertainment,
	CategoryTechnology,
	CategoryOther,
}

// MaxVoterIDLength bounds the client-supplied voter token.
const MaxVoterIDLength = 100

// IsValidCategory reports whether c is one of Categories.
func IsValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Domain types

type Option struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

type Poll struct {
	ID                 string     `json:"id"`
	Question           string     `json:"question"`
	Description        string     `json:"description"`
	Options            []Option   `json:"options"`
	Creator            string     `json:"creator"`
	IsActive           bool       `json:"isActive"`
	ExpiresAt          *time.Time `json:"expiresAt"`
	AllowMultipleVotes bool       `json:"allowMultipleVotes"`
	TotalVotes         int        `json:"totalVotes"`
	Category           string     `json:"category"`
	Tags               []string   `json:"tags"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// IsExpired reports whether the poll has an expiry strictly before now. A
// poll is still open at the instant it expires.
func (p Poll) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// AcceptsVotes reports whether a vote submitted at now may be counted.
func (p Poll) AcceptsVotes(now time.Time) bool {
	return p.IsActive && !p.IsExpired(now)
}

// Origin is audit metadata captured with a vote. It is never serialized.
type Origin struct {
	IPHash    string
	UserAgent string
}

type Vote struct {
	ID          string    `json:"id"`
	PollID      string    `json:"pollId"`
	OptionIndex int       `json:"optionIndex"`
	VoterID     string    `json:"voterId"`
	Timestamp   time.Time `json:"timestamp"`
	Origin      Origin    `json:"-"` // Never expose in JSON
}

// PollUpdate carries the administrative fields PUT /polls/{id} may change.
// Nil fields are left untouched.
type PollUpdate struct {
	Question    *string
	Description *string
	IsActive    *bool
	ExpiresAt   *time.Time
}

// PollFilter selects polls for listing. Nil IsActive and empty Category
// disable the corresponding filter.
type PollFilter struct {
	Category string
	IsActive *bool
	Page     int
	Limit    int
}

// Offset returns the number of rows to skip for the filter's page.
func (f PollFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Result types

type OptionResult struct {
	Text       string `json:"text"`
	Votes      int    `json:"votes"`
	Percentage int    `json:"percentage"`
}

type OptionCount struct {
	OptionIndex int `json:"optionIndex"`
	Votes       int `json:"votes"`
}

type VoteStats struct {
	PollID        string        `json:"pollId"`
	TotalVotes    int           `json:"totalVotes"`
	UniqueVoters  int           `json:"uniqueVoters"`
	VotesByOption []OptionCount `json:"votesByOption"`
}

// Response types

type VoteReceipt struct {
	ID          string    `json:"id"`
	PollID      string    `json:"pollId"`
	OptionIndex int       `json:"optionIndex"`
	Timestamp   time.Time `json:"timestamp"`
}

type PollResponse struct {
	Message string `json:"message"`
	Poll    Poll   `json:"poll"`
}

type PollListResponse struct {
	Polls       []Poll `json:"polls"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
	Total       int    `json:"total"`
}

type PollSummary struct {
	ID          string     `json:"id"`
	Question    string     `json:"question"`
	Description string     `json:"description"`
	IsActive    bool       `json:"isActive"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	TotalVotes  int        `json:"totalVotes"`
}

type PollResultsResponse struct {
	Poll    PollSummary    `json:"poll"`
	Results []OptionResult `json:"results"`
}

type DeletePollResponse struct {
	Message      string `json:"message"`
	DeletedVotes int64  `json:"deletedVotes"`
}

type SubmitVoteResponse struct {
	Message string      `json:"message"`
	Vote    VoteReceipt `json:"vote"`
}

type VoteListResponse struct {
	Votes       []Vote `json:"votes"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
	Total       int    `json:"total"`
}

type VoteCheck struct {
	OptionIndex int       `json:"optionIndex"`
	Timestamp   time.Time `json:"timestamp"`
}

type CheckVoteResponse struct {
	HasVoted bool       `json:"hasVoted"`
	Vote     *VoteCheck `json:"vote"`
}

// Error response

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// TotalPages returns the page count for total items at limit per page.
func TotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
