// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/store"
)

var (
	ErrNotFound      = errors.New("poll not found")
	ErrPollClosed    = errors.New("poll is not active or has expired")
	ErrInvalidOption = errors.New("invalid option selected")
	ErrDuplicateVote = errors.New("you have already voted on this poll")
	ErrTransient     = errors.New("storage temporarily unavailable")
	ErrInternal      = errors.New("internal error")
)

// Kind classifies an error for transport mapping and metrics.
type Kind int

const (
	KindNone Kind = iota
	KindNotFound
	KindValidation
	KindPollClosed
	KindInvalidOption
	KindDuplicateVote
	KindTransient
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindPollClosed:
		return "poll_closed"
	case KindInvalidOption:
		return "invalid_option"
	case KindDuplicateVote:
		return "duplicate"
	case KindTransient:
		return "transient"
	default:
		return "internal"
	}
}

// KindOf classifies err. Storage errors that were not translated by the
// service are classified too; anything unrecognised is KindInternal.
func KindOf(err error) Kind {
	var verr *models.ValidationError
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &verr):
		return KindValidation
	case errors.Is(err, ErrNotFound), errors.Is(err, store.ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrPollClosed):
		return KindPollClosed
	case errors.Is(err, ErrInvalidOption):
		return KindInvalidOption
	case errors.Is(err, ErrDuplicateVote), errors.Is(err, store.ErrDuplicate):
		return KindDuplicateVote
	case errors.Is(err, ErrTransient), errors.Is(err, store.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return KindTransient
	default:
		return KindInternal
	}
}

// translate maps a storage error onto the service taxonomy, keeping the
// original in the chain.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	switch KindOf(err) {
	case KindNotFound:
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case KindDuplicateVote:
		return fmt.Errorf("%s: %w: %w", op, ErrDuplicateVote, err)
	case KindTransient:
		return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrInternal, err)
	}
}
