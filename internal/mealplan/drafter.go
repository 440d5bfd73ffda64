package mealplan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DraftRequest is one structured-generation call.
type DraftRequest struct {
	Month           int
	Directive       string
	Schema          *Schema
	MaxOutputTokens int
}

// Drafter produces raw JSON text for a month phase. Implementations return
// an error wrapping ErrDraftRejected when retrying cannot help.
type Drafter interface {
	Name() string
	Draft(ctx context.Context, req DraftRequest) (string, error)
}

// OutcomeKind classifies a drafting attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRetryable
	OutcomeFatal
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetryable:
		return "retryable"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// DraftOutcome is the result of a single drafting attempt.
type DraftOutcome struct {
	Kind  OutcomeKind
	Draft *Draft
	Err   error
}

// Classify turns a drafter error into an outcome kind. Parse failures and
// transport errors are retryable; rejections are not.
func Classify(err error) OutcomeKind {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrDraftRejected):
		return OutcomeFatal
	default:
		return OutcomeRetryable
	}
}

// CleanJSON strips markdown code fences and trims the text to the outermost
// braces.
func CleanJSON(text string) string {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	first := strings.Index(cleaned, "{")
	last := strings.LastIndex(cleaned, "}")
	if first != -1 && last > first {
		cleaned = cleaned[first : last+1]
	}
	return strings.TrimSpace(cleaned)
}

// ParseDraft decodes drafted text for a month and checks the fields the
// expander depends on.
func ParseDraft(text string, month int) (*Draft, error) {
	var d Draft
	if err := json.Unmarshal([]byte(CleanJSON(text)), &d); err != nil {
		return nil, fmt.Errorf("%w: month %d: %v", ErrMalformedDraft, month, err)
	}
	if len(d.WeekTemplate) == 0 {
		return nil, fmt.Errorf("%w: month %d: %v", ErrMalformedDraft, month, ErrEmptyTemplate)
	}
	for i, day := range d.WeekTemplate {
		if day.Meals.Breakfast.Name == "" || day.Meals.Lunch.Name == "" || day.Meals.Dinner.Name == "" {
			return nil, fmt.Errorf("%w: month %d: day %d is missing a meal", ErrMalformedDraft, month, i)
		}
	}
	if month == 1 && d.SafetyVerification == "" {
		return nil, fmt.Errorf("%w: month 1: missing safetyVerification", ErrMalformedDraft)
	}
	return &d, nil
}
