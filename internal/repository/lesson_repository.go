package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/maestoso/conservatory-api/internal/models"
)

const lessonColumns = "id, category, instructor_id, student_id, lesson_date, start_minute, end_minute, location, notes, is_active, deactivated_by, deactivated_at, created_at, updated_at"

// LessonRepository provides persistence for dated lessons.
type LessonRepository struct {
	db *sqlx.DB
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(db *sqlx.DB) *LessonRepository {
	return &LessonRepository{db: db}
}

// List returns dated lessons with optional filtering and pagination.
func (r *LessonRepository) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error) {
	base := "FROM lessons WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.InstructorID != "" {
		conditions = append(conditions, fmt.Sprintf("instructor_id = $%d", len(args)+1))
		args = append(args, filter.InstructorID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Location != "" {
		conditions = append(conditions, fmt.Sprintf("location = $%d", len(args)+1))
		args = append(args, filter.Location)
	}
	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.DateFrom != "" {
		conditions = append(conditions, fmt.Sprintf("lesson_date >= $%d", len(args)+1))
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		conditions = append(conditions, fmt.Sprintf("lesson_date <= $%d", len(args)+1))
		args = append(args, filter.DateTo)
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "is_active")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY lesson_date ASC, start_minute ASC LIMIT %d OFFSET %d", lessonColumns, base, size, offset)
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list lessons: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count lessons: %w", err)
	}

	return lessons, total, nil
}

// FindByID loads a lesson by id, returning nil when absent.
func (r *LessonRepository) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE id = $1", lessonColumns)
	var lesson models.Lesson
	if err := r.db.GetContext(ctx, &lesson, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find lesson: %w", err)
	}
	return &lesson, nil
}

// ListActiveByDateAndLocation returns the active lessons occupying a location
// on one calendar date, optionally excluding a lesson being rescheduled.
func (r *LessonRepository) ListActiveByDateAndLocation(ctx context.Context, date, location, excludeID string) ([]models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE lesson_date = $1 AND location = $2 AND is_active", lessonColumns)
	args := []interface{}{date, location}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	query += " ORDER BY start_minute ASC"
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("list lessons by date and location: %w", err)
	}
	return lessons, nil
}

// ListActiveByDateAndInstructor returns the instructor's active lessons on
// one calendar date, optionally excluding a lesson being rescheduled.
func (r *LessonRepository) ListActiveByDateAndInstructor(ctx context.Context, date, instructorID, excludeID string) ([]models.Lesson, error) {
	query := fmt.Sprintf("SELECT %s FROM lessons WHERE lesson_date = $1 AND instructor_id = $2 AND is_active", lessonColumns)
	args := []interface{}{date, instructorID}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	query += " ORDER BY start_minute ASC"
	var lessons []models.Lesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("list lessons by date and instructor: %w", err)
	}
	return lessons, nil
}

// Create stores a new dated lesson. Unique violations from the active slot
// index stay in the error chain for the caller to classify.
func (r *LessonRepository) Create(ctx context.Context, lesson *models.Lesson) error {
	if lesson.ID == "" {
		lesson.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lesson.CreatedAt.IsZero() {
		lesson.CreatedAt = now
	}
	lesson.UpdatedAt = now

	const query = `INSERT INTO lessons (id, category, instructor_id, student_id, lesson_date, start_minute, end_minute, location, notes, is_active, created_at, updated_at)
		VALUES (:id, :category, :instructor_id, :student_id, :lesson_date, :start_minute, :end_minute, :location, :notes, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lesson); err != nil {
		return fmt.Errorf("create lesson: %w", err)
	}
	return nil
}

// BulkCreate inserts many lessons within a transaction.
func (r *LessonRepository) BulkCreate(ctx context.Context, lessons []models.Lesson) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create lessons: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = r.bulkInsertLessons(ctx, tx, lessons); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create lessons: %w", err)
	}
	return nil
}

// BulkCreateWithTx inserts lessons using an existing transaction.
func (r *LessonRepository) BulkCreateWithTx(ctx context.Context, tx *sqlx.Tx, lessons []models.Lesson) error {
	if tx == nil {
		return fmt.Errorf("nil transaction provided")
	}
	return r.bulkInsertLessons(ctx, tx, lessons)
}

func (r *LessonRepository) bulkInsertLessons(ctx context.Context, exec sqlx.ExtContext, lessons []models.Lesson) error {
	now := time.Now().UTC()
	for i := range lessons {
		payload := lessons[i]
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		payload.UpdatedAt = now

		if _, err := sqlx.NamedExecContext(ctx, exec, `INSERT INTO lessons (id, category, instructor_id, student_id, lesson_date, start_minute, end_minute, location, notes, is_active, created_at, updated_at) VALUES (:id, :category, :instructor_id, :student_id, :lesson_date, :start_minute, :end_minute, :location, :notes, :is_active, :created_at, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("bulk insert lesson: %w", err)
		}
		lessons[i] = payload
	}
	return nil
}

// Deactivate cancels one dated lesson, freeing its slot and recording who
// cancelled it.
func (r *LessonRepository) Deactivate(ctx context.Context, id, actor string) error {
	const query = `UPDATE lessons SET is_active = FALSE, deactivated_by = $2, deactivated_at = $3, updated_at = $3 WHERE id = $1 AND is_active`
	result, err := r.db.ExecContext(ctx, query, id, actor, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("deactivate lesson: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deactivated lesson rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
