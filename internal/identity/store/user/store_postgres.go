package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kycflow/internal/identity/models"
	"kycflow/internal/platform/postgres"
	id "kycflow/pkg/domain"
	"kycflow/pkg/platform/sentinel"
	"kycflow/pkg/platform/tx"
)

// PostgresStore persists users in the users table. Queries join an ambient
// transaction when one is present in the context.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, email, mobile, password_hash, kyc_id, role, created_at`

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, models.NormalizeEmail(u.Email), u.Mobile, u.PasswordHash, string(u.KycID), string(u.Role), u.CreatedAt,
	)
	if err != nil {
		if constraint, ok := postgres.IsUniqueViolation(err); ok {
			return fmt.Errorf("%s: %w", constraint, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return scanUser(row)
}

func (s *PostgresStore) FindByLogin(ctx context.Context, kycID id.KycID, email string) (*models.User, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE ($1::text <> '' AND kyc_id = $1::text) OR ($2::text <> '' AND email = $2::text)
		ORDER BY (kyc_id = $1::text) DESC
		LIMIT 1`,
		string(kycID), models.NormalizeEmail(email),
	)
	return scanUser(row)
}

func (s *PostgresStore) Delete(ctx context.Context, userID id.UserID) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u     models.User
		kycID string
		role  string
	)
	err := row.Scan(&u.ID, &u.Email, &u.Mobile, &u.PasswordHash, &kycID, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.KycID = id.KycID(kycID)
	u.Role = models.Role(role)
	return &u, nil
}
