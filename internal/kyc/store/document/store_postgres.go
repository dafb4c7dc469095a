package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kycflow/internal/kyc/models"
	"kycflow/internal/platform/postgres"
	id "kycflow/pkg/domain"
	"kycflow/pkg/platform/sentinel"
	"kycflow/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const documentColumns = `id, application_id, document_type, storage_handle, media_type, size_bytes, validated, created_at`

func (s *PostgresStore) Create(ctx context.Context, doc *models.Document) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		doc.ID, doc.ApplicationID, doc.DocumentType, doc.StorageHandle, doc.MediaType,
		doc.SizeBytes, doc.Validated, doc.CreatedAt,
	)
	if err != nil {
		if constraint, ok := postgres.IsUniqueViolation(err); ok {
			return fmt.Errorf("%s: %w", constraint, sentinel.ErrConflict)
		}
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("application: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, docID)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return doc, err
}

func (s *PostgresStore) ListByApplication(ctx context.Context, appID id.ApplicationID) ([]*models.Document, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE application_id = $1 ORDER BY created_at, id`, appID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := []*models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountByApplication(ctx context.Context, appID id.ApplicationID) (int, error) {
	var n int
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT count(*) FROM documents WHERE application_id = $1`, appID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(&doc.ID, &doc.ApplicationID, &doc.DocumentType, &doc.StorageHandle,
		&doc.MediaType, &doc.SizeBytes, &doc.Validated, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}
