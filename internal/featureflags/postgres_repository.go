package featureflags

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	listOverridesQuery = `SELECT key, value, updated_at, updated_by FROM feature_flags ORDER BY key`

	saveOverrideQuery = `
		INSERT INTO feature_flags (key, value, updated_at, updated_by)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			value      = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by`

	deleteOverrideQuery = `DELETE FROM feature_flags WHERE key = $1`
)

// PostgresRepository stores overrides in the feature_flags table, with the
// value held as a JSONB boolean.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository on pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) List(ctx context.Context) ([]Override, error) {
	rows, err := r.pool.Query(ctx, listOverridesQuery)
	if err != nil {
		return nil, fmt.Errorf("listing feature flags: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Override, error) {
		var (
			o   Override
			raw []byte
		)
		if err := row.Scan(&o.Key, &raw, &o.UpdatedAt, &o.UpdatedBy); err != nil {
			return o, err
		}
		if err := json.Unmarshal(raw, &o.Enabled); err != nil {
			return o, fmt.Errorf("decoding flag %s: %w", o.Key, err)
		}
		return o, nil
	})
}

func (r *PostgresRepository) Save(ctx context.Context, overrides []Override) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, o := range overrides {
			value, err := json.Marshal(o.Enabled)
			if err != nil {
				return err
			}
			batch.Queue(saveOverrideQuery, o.Key, value, o.UpdatedAt, o.UpdatedBy)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (r *PostgresRepository) Delete(ctx context.Context, key string) error {
	tag, err := r.pool.Exec(ctx, deleteOverrideQuery, key)
	if err != nil {
		return fmt.Errorf("deleting feature flag %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFlagNotFound
	}
	return nil
}

var _ Repository = (*PostgresRepository)(nil)
