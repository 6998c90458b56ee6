package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/sesh/internal/models"
	"github.com/desertthunder/sesh/internal/shared"
)

// DefaultEventLimit caps [EventRepository.Recent] when no limit is given.
const DefaultEventLimit = 20

// EventRepository implements session.EventRecorder on the session_events table.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new [EventRepository] with the given database connection
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Record appends an event with a generated ID.
func (r *EventRepository) Record(ctx context.Context, kind models.EventKind, detail string) error {
	event := models.SessionEvent{ID: shared.GenerateID(), Kind: kind, Detail: detail, CreatedAt: time.Now().UTC()}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `INSERT INTO session_events (id, kind, detail, created_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, event.ID, string(event.Kind), event.Detail, event.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert session event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (r *EventRepository) Recent(ctx context.Context, limit int) ([]models.SessionEvent, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	query := `
		SELECT id, kind, detail, created_at
		FROM session_events
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query session events: %w", err)
	}
	defer rows.Close()

	var events []models.SessionEvent
	for rows.Next() {
		var (
			event models.SessionEvent
			kind  string
		)
		if err := rows.Scan(&event.ID, &kind, &event.Detail, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session event: %w", err)
		}
		event.Kind = models.EventKind(kind)
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session events: %w", err)
	}
	return events, nil
}

// Prune deletes events created before cutoff and reports how many were removed.
func (r *EventRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM session_events WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune session events: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}
