package application

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"kycflow/internal/kyc/models"
	"kycflow/internal/platform/postgres"
	id "kycflow/pkg/domain"
	"kycflow/pkg/platform/sentinel"
	"kycflow/pkg/platform/tx"
)

// PostgresStore persists applications. Execute locks the row with
// SELECT ... FOR UPDATE inside a transaction.
type PostgresStore struct {
	db     *sql.DB
	runner *tx.Runner
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, runner: tx.NewRunner(db)}
}

const applicationColumns = `id, user_id, status, current_step, failure_reason, personal_details,
	selected_documents, reviewed_by, reviewed_at, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	personal, selected, err := encodeJSONColumns(app)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO applications (`+applicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		app.ID, app.UserID, string(app.Status), int(app.CurrentStep), nullString(app.FailureReason),
		personal, selected, app.ReviewedBy, app.ReviewedAt, app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := postgres.IsUniqueViolation(err); ok {
			return fmt.Errorf("%s: %w", constraint, sentinel.ErrConflict)
		}
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("user: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, appID)
	return scanApplication(row)
}

func (s *PostgresStore) FindByUser(ctx context.Context, userID id.UserID) (*models.Application, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE user_id = $1`, userID)
	return scanApplication(row)
}

func (s *PostgresStore) List(ctx context.Context, status models.ApplicationStatus) ([]*models.Application, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT `+applicationColumns+`
		FROM applications
		WHERE $1::text = '' OR status = $1::text
		ORDER BY updated_at DESC`, string(status))
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Execute(ctx context.Context, appID id.ApplicationID, validate func(*models.Application) error, mutate func(*models.Application)) (*models.Application, error) {
	var result *models.Application
	err := s.runner.RunInTx(ctx, func(ctx context.Context) error {
		exec := tx.Exec(ctx, s.db)
		row := exec.QueryRowContext(ctx,
			`SELECT `+applicationColumns+` FROM applications WHERE id = $1 FOR UPDATE`, appID)
		app, err := scanApplication(row)
		if err != nil {
			return err
		}
		if err := validate(app); err != nil {
			return err
		}
		from := app.Status
		mutate(app)
		if err := models.CheckTransition(from, app.Status); err != nil {
			return err
		}

		personal, selected, err := encodeJSONColumns(app)
		if err != nil {
			return err
		}
		_, err = exec.ExecContext(ctx, `
			UPDATE applications
			SET status = $2, current_step = $3, failure_reason = $4, personal_details = $5,
			    selected_documents = $6, reviewed_by = $7, reviewed_at = $8, updated_at = $9
			WHERE id = $1`,
			app.ID, string(app.Status), int(app.CurrentStep), nullString(app.FailureReason),
			personal, selected, app.ReviewedBy, app.ReviewedAt, app.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		result = app
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app        models.Application
		status     string
		step       int
		reason     sql.NullString
		personal   []byte
		selected   []byte
		reviewedBy *id.UserID
		reviewedAt sql.NullTime
	)
	err := row.Scan(&app.ID, &app.UserID, &status, &step, &reason, &personal,
		&selected, &reviewedBy, &reviewedAt, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan application: %w", err)
	}
	app.Status = models.ApplicationStatus(status)
	app.CurrentStep = models.Step(step)
	app.FailureReason = reason.String
	app.ReviewedBy = reviewedBy
	if reviewedAt.Valid {
		t := reviewedAt.Time
		app.ReviewedAt = &t
	}
	if len(personal) > 0 {
		app.PersonalDetails = &models.PersonalDetails{}
		if err := json.Unmarshal(personal, app.PersonalDetails); err != nil {
			return nil, fmt.Errorf("decode personal details: %w", err)
		}
	}
	if len(selected) > 0 {
		if err := json.Unmarshal(selected, &app.SelectedDocuments); err != nil {
			return nil, fmt.Errorf("decode selected documents: %w", err)
		}
	}
	return &app, nil
}

// encodeJSONColumns renders the JSONB columns as text; lib/pq would send
// []byte as bytea.
func encodeJSONColumns(app *models.Application) (personal, selected sql.NullString, err error) {
	if app.PersonalDetails != nil {
		b, err := json.Marshal(app.PersonalDetails)
		if err != nil {
			return personal, selected, fmt.Errorf("encode personal details: %w", err)
		}
		personal = sql.NullString{String: string(b), Valid: true}
	}
	if len(app.SelectedDocuments) > 0 {
		b, err := json.Marshal(app.SelectedDocuments)
		if err != nil {
			return personal, selected, fmt.Errorf("encode selected documents: %w", err)
		}
		selected = sql.NullString{String: string(b), Valid: true}
	}
	return personal, selected, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
