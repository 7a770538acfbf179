// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// timeLayouts are the ISO 8601 forms accepted for expiresAt. Layouts
// without a zone are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON names so field errors match the request body
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
		return parseTime(fl.Field().String()) != nil
	})
	return v
}

// Request types

type CreatePollRequest struct {
	Question           string   `json:"question" validate:"required,min=5,max=500"`
	Description        string   `json:"description" validate:"max=1000"`
	Options            []string `json:"options" validate:"required,min=2,max=10,dive,required,max=200"`
	Creator            string   `json:"creator" validate:"required,max=100"`
	ExpiresAt          string   `json:"expiresAt" validate:"omitempty,iso8601"`
	AllowMultipleVotes bool     `json:"allowMultipleVotes"`
	Category           string   `json:"category" validate:"omitempty,oneof=general politics sports entertainment technology other"`
	Tags               []string `json:"tags" validate:"max=5,dive,required,max=50"`
}

// Validate trims string input and checks field limits.
func (r *CreatePollRequest) Validate() error {
	r.Question = strings.TrimSpace(r.Question)
	r.Description = strings.TrimSpace(r.Description)
	r.Creator = strings.TrimSpace(r.Creator)
	r.ExpiresAt = strings.TrimSpace(r.ExpiresAt)
	r.Category = strings.TrimSpace(r.Category)
	for i := range r.Options {
		r.Options[i] = strings.TrimSpace(r.Options[i])
	}
	for i := range r.Tags {
		r.Tags[i] = strings.TrimSpace(r.Tags[i])
	}
	return check(r)
}

// Poll builds a new poll from a validated request. The caller assigns ID.
func (r *CreatePollRequest) Poll(now time.Time) Poll {
	options := make([]Option, len(r.Options))
	for i, text := range r.Options {
		options[i] = Option{Text: text}
	}

	category := r.Category
	if category == "" {
		category = CategoryGeneral
	}

	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	return Poll{
		Question:           r.Question,
		Description:        r.Description,
		Options:            options,
		Creator:            r.Creator,
		IsActive:           true,
		ExpiresAt:          parseTime(r.ExpiresAt),
		AllowMultipleVotes: r.AllowMultipleVotes,
		Category:           category,
		Tags:               tags,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

type UpdatePollRequest struct {
	Question    *string `json:"question" validate:"omitempty,min=5,max=500"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"isActive"`
	ExpiresAt   *string `json:"expiresAt" validate:"omitempty,iso8601"`
}

// Validate trims string input and checks field limits. A blank question
// or expiresAt is treated as absent.
func (r *UpdatePollRequest) Validate() error {
	trimPtr(r.Question)
	trimPtr(r.Description)
	trimPtr(r.ExpiresAt)
	if r.Question != nil && *r.Question == "" {
		r.Question = nil
	}
	if r.ExpiresAt != nil && *r.ExpiresAt == "" {
		r.ExpiresAt = nil
	}
	return check(r)
}

// Update converts a validated request into a PollUpdate.
func (r *UpdatePollRequest) Update() PollUpdate {
	var u PollUpdate
	u.Question = r.Question
	u.Description = r.Description
	u.IsActive = r.IsActive
	if r.ExpiresAt != nil {
		u.ExpiresAt = parseTime(*r.ExpiresAt)
	}
	return u
}

type SubmitVoteRequest struct {
	PollID      string `json:"pollId" validate:"required,max=64"`
	OptionIndex *int   `json:"optionIndex" validate:"required,min=0"`
	VoterID     string `json:"voterId" validate:"required,max=100"`
}

// Validate trims string input and checks field limits.
func (r *SubmitVoteRequest) Validate() error {
	r.PollID = strings.TrimSpace(r.PollID)
	r.VoterID = strings.TrimSpace(r.VoterID)
	return check(r)
}

// ValidationError carries field-level detail for rejected input.
type ValidationError struct {
	Fields []FieldError
}

// NewValidationError reports a single invalid field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate request: %w", err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Message: describe(fe),
		})
	}
	return &ValidationError{Fields: fields}
}

func describe(fe validator.FieldError) string {
	unit := "characters"
	if fe.Kind() == reflect.Slice {
		unit = "items"
	}

	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.Int {
			return "must be at least " + fe.Param()
		}
		return fmt.Sprintf("must have at least %s %s", fe.Param(), unit)
	case "max":
		if fe.Kind() == reflect.Int {
			return "must be at most " + fe.Param()
		}
		return fmt.Sprintf("must not exceed %s %s", fe.Param(), unit)
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "iso8601":
		return "must be a valid ISO 8601 date"
	default:
		return "is invalid"
	}
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

// parseTime parses an ISO 8601 timestamp; empty or malformed input yields nil.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
