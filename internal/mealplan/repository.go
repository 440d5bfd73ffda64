package mealplan

import "context"

// HistoryOptions contains options for listing plan history.
type HistoryOptions struct {
	Limit int
}

// Repository defines the interface for plan persistence. Entitlement columns
// that share the plan row are owned by the billing package and never touched here.
type Repository interface {
	// SaveCurrent upserts the user's current plan and appends it to the history.
	SaveCurrent(ctx context.Context, record *PlanRecord) error

	// GetCurrent retrieves the user's current plan.
	// Returns ErrPlanNotFound if the user has never saved a plan.
	GetCurrent(ctx context.Context, userID string) (*PlanRecord, error)

	// ListHistory returns archived plan summaries, newest first.
	ListHistory(ctx context.Context, userID string, opts HistoryOptions) ([]*HistoryEntry, error)
}

const defaultHistoryLimit = 20

func (o HistoryOptions) limit() int {
	if o.Limit <= 0 {
		return defaultHistoryLimit
	}
	return o.Limit
}

// Summarize builds the history entry for a stored plan.
func Summarize(record *PlanRecord) *HistoryEntry {
	entry := &HistoryEntry{
		ID:        record.ID,
		UserID:    record.UserID,
		CreatedAt: record.UpdatedAt,
	}
	if record.Data != nil {
		entry.Mode = record.Data.Mode
		for _, m := range record.Data.Roadmap.Months() {
			entry.PhaseNames = append(entry.PhaseNames, m.PhaseName)
		}
	}
	return entry
}
