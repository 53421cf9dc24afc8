package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/maestoso/conservatory-api/internal/models"
)

const assignedLessonColumns = "id, time_block_id, student_id, start_minute, end_minute, duration_minutes, is_active, end_date, deactivated_by, deactivated_at, created_at, updated_at"

// AssignedLessonRepository persists lessons placed inside availability blocks.
type AssignedLessonRepository struct {
	db *sqlx.DB
}

// NewAssignedLessonRepository constructs the repository.
func NewAssignedLessonRepository(db *sqlx.DB) *AssignedLessonRepository {
	return &AssignedLessonRepository{db: db}
}

// FindByID loads a placed lesson by id, returning nil when absent.
func (r *AssignedLessonRepository) FindByID(ctx context.Context, id string) (*models.AssignedLesson, error) {
	query := fmt.Sprintf("SELECT %s FROM assigned_lessons WHERE id = $1", assignedLessonColumns)
	var lesson models.AssignedLesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find assigned lesson: %w", err)
	}
	return &lesson, nil
}

// ListActiveByBlock returns the active lessons placed in one block.
func (r *AssignedLessonRepository) ListActiveByBlock(ctx context.Context, blockID string) ([]models.AssignedLesson, error) {
	query := fmt.Sprintf("SELECT %s FROM assigned_lessons WHERE time_block_id = $1 AND is_active ORDER BY start_minute ASC", assignedLessonColumns)
	var lessons []models.AssignedLesson
	if err := r.db.SelectContext(ctx, &lessons, query, blockID); err != nil {
		return nil, fmt.Errorf("list lessons by block: %w", err)
	}
	return lessons, nil
}

// ListActiveByStudentAndWeekday returns the student's active placed lessons
// on the given weekday across all blocks except excludeBlockID, with the
// owning block context attached.
func (r *AssignedLessonRepository) ListActiveByStudentAndWeekday(ctx context.Context, studentID string, dayOfWeek int, excludeBlockID string) ([]models.PlacedLesson, error) {
	const query = `
SELECT al.id, al.time_block_id, al.student_id, al.start_minute, al.end_minute, al.duration_minutes,
       al.is_active, al.end_date, al.deactivated_by, al.deactivated_at, al.created_at, al.updated_at,
       tb.day_of_week AS block_day_of_week, tb.instructor_id AS block_instructor_id, tb.location AS block_location
FROM assigned_lessons al
JOIN time_blocks tb ON tb.id = al.time_block_id
WHERE al.student_id = $1 AND al.is_active AND tb.day_of_week = $2 AND tb.id <> $3
ORDER BY al.start_minute ASC`
	var lessons []models.PlacedLesson
	if err := r.db.SelectContext(ctx, &lessons, query, studentID, dayOfWeek, excludeBlockID); err != nil {
		return nil, fmt.Errorf("list student lessons by weekday: %w", err)
	}
	return lessons, nil
}

// ListActiveByStudent returns all of the student's active placed lessons with
// block context, ordered for schedule rendering.
func (r *AssignedLessonRepository) ListActiveByStudent(ctx context.Context, studentID string) ([]models.PlacedLesson, error) {
	const query = `
SELECT al.id, al.time_block_id, al.student_id, al.start_minute, al.end_minute, al.duration_minutes,
       al.is_active, al.end_date, al.deactivated_by, al.deactivated_at, al.created_at, al.updated_at,
       tb.day_of_week AS block_day_of_week, tb.instructor_id AS block_instructor_id, tb.location AS block_location
FROM assigned_lessons al
JOIN time_blocks tb ON tb.id = al.time_block_id
WHERE al.student_id = $1 AND al.is_active
ORDER BY tb.day_of_week ASC, al.start_minute ASC`
	var lessons []models.PlacedLesson
	if err := r.db.SelectContext(ctx, &lessons, query, studentID); err != nil {
		return nil, fmt.Errorf("list student lessons: %w", err)
	}
	return lessons, nil
}

// CreateWithTx inserts a placed lesson inside an existing transaction.
func (r *AssignedLessonRepository) CreateWithTx(ctx context.Context, exec sqlx.ExtContext, lesson *models.AssignedLesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now

	const query = `INSERT INTO assigned_lessons (id, time_block_id, student_id, start_minute, end_minute, duration_minutes, is_active, end_date, deactivated_by, deactivated_at, created_at, updated_at)
		VALUES (:id, :time_block_id, :student_id, :start_minute, :end_minute, :duration_minutes, :is_active, :end_date, :deactivated_by, :deactivated_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, lesson); err != nil {
		return fmt.Errorf("create assigned lesson: %w", err)
	}
	return nil
}

const deactivateLessonsSet = `UPDATE assigned_lessons
SET is_active = FALSE, end_date = $1, deactivated_by = $2, deactivated_at = $3, updated_at = $3
WHERE is_active`

// DeactivatePairWithTx soft-deactivates the student's active lessons placed
// in any of the instructor's blocks. Only matching rows are touched.
func (r *AssignedLessonRepository) DeactivatePairWithTx(ctx context.Context, exec sqlx.ExtContext, studentID, instructorID string, endDate models.Date, actor string) (int64, error) {
	query := deactivateLessonsSet + ` AND student_id = $4
AND time_block_id IN (SELECT id FROM time_blocks WHERE instructor_id = $5)`
	result, err := exec.ExecContext(ctx, query, endDate, actor, time.Now().UTC(), studentID, instructorID)
	if err != nil {
		return 0, fmt.Errorf("deactivate pair lessons: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deactivated lesson rows: %w", err)
	}
	return affected, nil
}

// DeactivateByBlockWithTx soft-deactivates every active lesson in one block.
func (r *AssignedLessonRepository) DeactivateByBlockWithTx(ctx context.Context, exec sqlx.ExtContext, blockID string, endDate models.Date, actor string) (int64, error) {
	query := deactivateLessonsSet + ` AND time_block_id = $4`
	result, err := exec.ExecContext(ctx, query, endDate, actor, time.Now().UTC(), blockID)
	if err != nil {
		return 0, fmt.Errorf("deactivate block lessons: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deactivated lesson rows: %w", err)
	}
	return affected, nil
}

// DeactivateByInstructorWithTx soft-deactivates every active lesson in all of
// the instructor's blocks.
func (r *AssignedLessonRepository) DeactivateByInstructorWithTx(ctx context.Context, exec sqlx.ExtContext, instructorID string, endDate models.Date, actor string) (int64, error) {
	query := deactivateLessonsSet + ` AND time_block_id IN (SELECT id FROM time_blocks WHERE instructor_id = $4)`
	result, err := exec.ExecContext(ctx, query, endDate, actor, time.Now().UTC(), instructorID)
	if err != nil {
		return 0, fmt.Errorf("deactivate instructor lessons: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deactivated lesson rows: %w", err)
	}
	return affected, nil
}

// DeactivateByStudentWithTx soft-deactivates every active lesson placed for
// the student.
func (r *AssignedLessonRepository) DeactivateByStudentWithTx(ctx context.Context, exec sqlx.ExtContext, studentID string, endDate models.Date, actor string) (int64, error) {
	query := deactivateLessonsSet + ` AND student_id = $4`
	result, err := exec.ExecContext(ctx, query, endDate, actor, time.Now().UTC(), studentID)
	if err != nil {
		return 0, fmt.Errorf("deactivate student lessons: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deactivated lesson rows: %w", err)
	}
	return affected, nil
}
