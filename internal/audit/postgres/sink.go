// Package postgres keeps audit events in the audit_events table when no Kafka
// cluster is configured.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"kycflow/internal/audit"
)

const insertEvent = `
	INSERT INTO audit_events (
		id, category, action, occurred_at, user_id, application_id,
		kyc_id, actor_id, reason, details, request_id, client_ip
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO NOTHING
`

// Sink writes each batch in its own transaction. Replayed events are ignored
// by primary key.
type Sink struct {
	db *sql.DB
}

func NewSink(db *sql.DB) *Sink {
	return &Sink{db: db}
}

func (s *Sink) Append(ctx context.Context, events ...audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertEvent)
	if err != nil {
		return fmt.Errorf("prepare audit insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		details, err := marshalDetails(e.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details %s: %w", e.ID, err)
		}
		var userID any
		if !e.UserID.IsNil() {
			userID = e.UserID
		}
		if _, err := stmt.ExecContext(ctx,
			e.ID,
			string(e.Category),
			string(e.Action),
			e.Timestamp,
			userID,
			nullString(e.ApplicationID),
			nullString(e.KycID),
			nullString(e.ActorID),
			nullString(e.Reason),
			details,
			nullString(e.RequestID),
			nullString(e.ClientIP),
		); err != nil {
			return fmt.Errorf("insert audit event %s: %w", e.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit batch: %w", err)
	}
	return nil
}

// Ping backs the /health check.
func (s *Sink) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func marshalDetails(details map[string]string) (sql.NullString, error) {
	if len(details) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(details)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
