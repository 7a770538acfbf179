// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"github.com/danielhkuo/pollcast/broadcast"
	"github.com/danielhkuo/pollcast/models"
)

// Percentage returns votes as a whole percentage of total, rounding halves
// up. A zero total yields 0.
func Percentage(votes, total int) int {
	if total <= 0 {
		return 0
	}
	return (votes*200 + total) / (2 * total)
}

// Results computes the per-option tally of p. Percentages are rounded
// independently and need not sum to 100.
func Results(p models.Poll) []models.OptionResult {
	results := make([]models.OptionResult, len(p.Options))
	for i, opt := range p.Options {
		results[i] = models.OptionResult{
			Text:       opt.Text,
			Votes:      opt.Votes,
			Percentage: Percentage(opt.Votes, p.TotalVotes),
		}
	}
	return results
}

// UpdateFor builds the broadcast payload for p.
func UpdateFor(p models.Poll) broadcast.Update {
	return broadcast.Update{
		PollID:     p.ID,
		Results:    Results(p),
		TotalVotes: p.TotalVotes,
	}
}

// Summary returns the public header shown alongside results.
func Summary(p models.Poll) models.PollSummary {
	return models.PollSummary{
		ID:          p.ID,
		Question:    p.Question,
		Description: p.Description,
		IsActive:    p.IsActive,
		ExpiresAt:   p.ExpiresAt,
		TotalVotes:  p.TotalVotes,
	}
}
