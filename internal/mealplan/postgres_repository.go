package mealplan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL plan repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// SaveCurrent upserts the plan row and appends to plan_history in one transaction.
func (r *PostgresRepository) SaveCurrent(ctx context.Context, record *PlanRecord) error {
	data, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	entry := Summarize(record)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx, `
		INSERT INTO plans (user_id, id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			id = EXCLUDED.id,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`, record.UserID, record.ID, data, record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert plan: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO plan_history (id, user_id, mode, phase_names, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.UserID, string(entry.Mode), entry.PhaseNames, data, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append plan history: %w", err)
	}

	return tx.Commit(ctx)
}

// GetCurrent retrieves the user's current plan.
func (r *PostgresRepository) GetCurrent(ctx context.Context, userID string) (*PlanRecord, error) {
	query := `
		SELECT id, user_id, data, created_at, updated_at
		FROM plans
		WHERE user_id = $1 AND data IS NOT NULL
	`

	var (
		rec  PlanRecord
		data []byte
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&rec.ID,
		&rec.UserID,
		&data,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	rec.Data = &PlanResult{}
	if err := json.Unmarshal(data, rec.Data); err != nil {
		return nil, fmt.Errorf("decode plan: %w", err)
	}
	return &rec, nil
}

// ListHistory returns archived plan summaries, newest first.
func (r *PostgresRepository) ListHistory(ctx context.Context, userID string, opts HistoryOptions) ([]*HistoryEntry, error) {
	query := `
		SELECT id, user_id, mode, phase_names, created_at
		FROM plan_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, opts.limit())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*HistoryEntry
	for rows.Next() {
		var (
			e    HistoryEntry
			mode string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &mode, &e.PhaseNames, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Mode = Mode(mode)
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
