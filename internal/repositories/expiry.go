package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/sesh/internal/models"
)

// ExpiryRepository implements session.ExpiryStore on the expiry_records table.
type ExpiryRepository struct {
	db *sql.DB
}

// NewExpiryRepository creates a new [ExpiryRepository] with the given database connection
func NewExpiryRepository(db *sql.DB) *ExpiryRepository {
	return &ExpiryRepository{db: db}
}

// Load returns every stored record ordered by kind.
func (r *ExpiryRepository) Load(ctx context.Context) ([]models.ExpiryRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, expires_at FROM expiry_records ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to query expiry records: %w", err)
	}
	defer rows.Close()

	var records []models.ExpiryRecord
	for rows.Next() {
		var (
			kind string
			ms   int64
		)
		if err := rows.Scan(&kind, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan expiry record: %w", err)
		}
		records = append(records, models.RecordFromMillis(models.Kind(kind), ms))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expiry records: %w", err)
	}
	return records, nil
}

// Get retrieves the record for kind.
func (r *ExpiryRepository) Get(ctx context.Context, kind models.Kind) (models.ExpiryRecord, error) {
	var ms int64
	err := r.db.QueryRowContext(ctx, `SELECT expires_at FROM expiry_records WHERE kind = ?`, string(kind)).Scan(&ms)
	if err == sql.ErrNoRows {
		return models.ExpiryRecord{}, fmt.Errorf("expiry record not found: %s", kind)
	}
	if err != nil {
		return models.ExpiryRecord{}, fmt.Errorf("failed to query expiry record: %w", err)
	}
	return models.RecordFromMillis(kind, ms), nil
}

// Put inserts or overwrites the record for rec.Kind.
func (r *ExpiryRepository) Put(ctx context.Context, rec models.ExpiryRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO expiry_records (kind, expires_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET expires_at = excluded.expires_at, updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, string(rec.Kind), rec.Millis(), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to upsert expiry record: %w", err)
	}
	return nil
}

// Clear deletes all records.
func (r *ExpiryRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM expiry_records`); err != nil {
		return fmt.Errorf("failed to clear expiry records: %w", err)
	}
	return nil
}
