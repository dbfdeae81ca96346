package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openrelief/aidbridge/internal/models"
)

// AuditRepository persists verification and governance decisions
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Record inserts an audit event
func (r *AuditRepository) Record(ctx context.Context, e *models.AuditEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	query := `
		INSERT INTO audit_events (id, request_id, kind, subject, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query, e.ID, e.RequestID, e.Kind, e.Subject, e.Detail, e.CreatedAt)
	return err
}

// ListBySubject returns audit events for a subject, newest first
func (r *AuditRepository) ListBySubject(ctx context.Context, subject string, limit int) ([]*models.AuditEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT id, request_id, kind, subject, detail, created_at
		FROM audit_events
		WHERE subject = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, subject, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.AuditEvent
	for rows.Next() {
		e := &models.AuditEvent{}
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Kind, &e.Subject, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
