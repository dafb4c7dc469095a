package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	id "kycflow/pkg/domain"
	"kycflow/pkg/platform/tx"
)

// PostgresStore keeps counters in the attempts table. The conditional upsert
// makes IncrementBelow a single atomic statement.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) Increment(ctx context.Context, appID id.ApplicationID, step int) (int, error) {
	var n int
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO attempts (application_id, step, count, updated_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (application_id, step)
		DO UPDATE SET count = attempts.count + 1, updated_at = EXCLUDED.updated_at
		RETURNING count`,
		appID, step, s.now(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Count(ctx context.Context, appID id.ApplicationID, step int) (int, error) {
	var n int
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT count FROM attempts WHERE application_id = $1 AND step = $2`, appID, step,
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) IncrementBelow(ctx context.Context, appID id.ApplicationID, step, max int) (int, bool, error) {
	if max < 1 {
		n, err := s.Count(ctx, appID, step)
		return n, false, err
	}
	var n int
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO attempts (application_id, step, count, updated_at)
		VALUES ($1, $2, 1, $4)
		ON CONFLICT (application_id, step)
		DO UPDATE SET count = attempts.count + 1, updated_at = EXCLUDED.updated_at
		WHERE attempts.count < $3
		RETURNING count`,
		appID, step, max, s.now(),
	).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		// The WHERE clause suppressed the update: ceiling already reached.
		n, err := s.Count(ctx, appID, step)
		return n, false, err
	}
	if err != nil {
		return 0, false, fmt.Errorf("consume attempt: %w", err)
	}
	return n, true, nil
}
