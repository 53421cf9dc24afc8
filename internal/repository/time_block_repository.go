package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/maestoso/conservatory-api/internal/models"
)

const timeBlockColumns = "id, instructor_id, day_of_week, start_minute, end_minute, location, exclusion_dates, active, created_at, updated_at"

// TimeBlockRepository provides persistence for availability windows.
type TimeBlockRepository struct {
	db *sqlx.DB
}

// NewTimeBlockRepository creates a new time block repository.
func NewTimeBlockRepository(db *sqlx.DB) *TimeBlockRepository {
	return &TimeBlockRepository{db: db}
}

// FindByID loads a block by id, returning nil when absent.
func (r *TimeBlockRepository) FindByID(ctx context.Context, id string) (*models.TimeBlock, error) {
	query := fmt.Sprintf("SELECT %s FROM time_blocks WHERE id = $1", timeBlockColumns)
	var block models.TimeBlock
	if err := r.db.GetContext(ctx, &block, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find time block: %w", err)
	}
	return &block, nil
}

// ListByInstructor returns an instructor's blocks ordered by day and start.
func (r *TimeBlockRepository) ListByInstructor(ctx context.Context, instructorID string, activeOnly bool) ([]models.TimeBlock, error) {
	query := fmt.Sprintf("SELECT %s FROM time_blocks WHERE instructor_id = $1", timeBlockColumns)
	if activeOnly {
		query += " AND active"
	}
	query += " ORDER BY day_of_week ASC, start_minute ASC"
	var blocks []models.TimeBlock
	if err := r.db.SelectContext(ctx, &blocks, query, instructorID); err != nil {
		return nil, fmt.Errorf("list time blocks: %w", err)
	}
	return blocks, nil
}

// Create stores a new availability window.
func (r *TimeBlockRepository) Create(ctx context.Context, block *models.TimeBlock) error {
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	if block.ExclusionDates == nil {
		block.ExclusionDates = pq.StringArray{}
	}
	now := time.Now().UTC()
	if block.CreatedAt.IsZero() {
		block.CreatedAt = now
	}
	block.UpdatedAt = now

	const query = `INSERT INTO time_blocks (id, instructor_id, day_of_week, start_minute, end_minute, location, exclusion_dates, active, created_at, updated_at)
		VALUES (:id, :instructor_id, :day_of_week, :start_minute, :end_minute, :location, :exclusion_dates, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, block); err != nil {
		return fmt.Errorf("create time block: %w", err)
	}
	return nil
}

// Update modifies the window's recurrence fields.
func (r *TimeBlockRepository) Update(ctx context.Context, block *models.TimeBlock) error {
	block.UpdatedAt = time.Now().UTC()
	const query = `UPDATE time_blocks SET day_of_week = :day_of_week, start_minute = :start_minute,
		end_minute = :end_minute, location = :location, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, block)
	if err != nil {
		return fmt.Errorf("update time block: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated time block rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateExclusions replaces the block's recurring-exclusion dates.
func (r *TimeBlockRepository) UpdateExclusions(ctx context.Context, id string, dates pq.StringArray) error {
	if dates == nil {
		dates = pq.StringArray{}
	}
	const query = `UPDATE time_blocks SET exclusion_dates = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, dates, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update block exclusions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated exclusion rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeactivateWithTx soft-deactivates one block inside an existing transaction.
func (r *TimeBlockRepository) DeactivateWithTx(ctx context.Context, exec sqlx.ExtContext, id string) (int64, error) {
	const query = `UPDATE time_blocks SET active = FALSE, updated_at = $2 WHERE id = $1 AND active`
	result, err := exec.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate time block: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deactivated block rows: %w", err)
	}
	return affected, nil
}

// DeactivateByInstructorWithTx soft-deactivates every active block owned by
// the instructor inside an existing transaction.
func (r *TimeBlockRepository) DeactivateByInstructorWithTx(ctx context.Context, exec sqlx.ExtContext, instructorID string) (int64, error) {
	const query = `UPDATE time_blocks SET active = FALSE, updated_at = $2 WHERE instructor_id = $1 AND active`
	result, err := exec.ExecContext(ctx, query, instructorID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate instructor blocks: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deactivated block rows: %w", err)
	}
	return affected, nil
}
