package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository. The
// entitlement columns live on the plans row, which may exist before any plan does.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL billing repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetEntitlement returns the stored entitlement, or an unpaid one.
func (r *PostgresRepository) GetEntitlement(ctx context.Context, userID string) (*Entitlement, error) {
	query := `SELECT is_paid, plan_tier FROM plans WHERE user_id = $1`

	e := Entitlement{UserID: userID}
	var tier string
	err := r.pool.QueryRow(ctx, query, userID).Scan(&e.IsPaid, &tier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			e.Tier = TierFree
			return &e, nil
		}
		return nil, err
	}
	e.Tier = Tier(tier)
	return &e, nil
}

// Grant upserts the entitlement and appends the activity entry in one transaction.
func (r *PostgresRepository) Grant(ctx context.Context, userID string, tier Tier, activity Activity) error {
	metadata, err := json.Marshal(activity.Metadata)
	if err != nil {
		return fmt.Errorf("encode activity metadata: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	_, err = tx.Exec(ctx, `
		INSERT INTO plans (user_id, is_paid, plan_tier)
		VALUES ($1, TRUE, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			is_paid = TRUE,
			plan_tier = EXCLUDED.plan_tier,
			updated_at = NOW()
	`, userID, string(tier))
	if err != nil {
		return fmt.Errorf("grant entitlement: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO activity_logs (user_id, action_type, metadata, created_at)
		VALUES ($1, $2, $3, $4)
	`, userID, activity.Action, metadata, activity.CreatedAt)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}

	return tx.Commit(ctx)
}

// ListActivity returns the user's activity entries, newest first.
func (r *PostgresRepository) ListActivity(ctx context.Context, userID string, limit int) ([]*Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, action_type, metadata, created_at
		FROM activity_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Activity
	for rows.Next() {
		var (
			a    Activity
			meta []byte
		)
		if err := rows.Scan(&a.UserID, &a.Action, &meta, &a.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(meta, &a.Metadata); err != nil {
			return nil, fmt.Errorf("decode activity metadata: %w", err)
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
