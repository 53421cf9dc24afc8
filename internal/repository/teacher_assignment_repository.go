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

const teacherAssignmentColumns = "id, student_id, teacher_id, schedule_slot_id, start_date, end_date, is_active, notes, created_at, updated_at"

// TeacherAssignmentRepository persists the student-side relationship mirror.
type TeacherAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeacherAssignmentRepository constructs the repository.
func NewTeacherAssignmentRepository(db *sqlx.DB) *TeacherAssignmentRepository {
	return &TeacherAssignmentRepository{db: db}
}

// FindActiveByPair returns the active relationship row for a student and
// instructor, or nil when none exists.
func (r *TeacherAssignmentRepository) FindActiveByPair(ctx context.Context, studentID, teacherID string) (*models.TeacherAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_assignments WHERE student_id = $1 AND teacher_id = $2 AND is_active", teacherAssignmentColumns)
	var assignment models.TeacherAssignment
	if err := r.db.GetContext(ctx, &assignment, query, studentID, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find assignment pair: %w", err)
	}
	return &assignment, nil
}

// ListByStudent returns the student's relationship rows.
func (r *TeacherAssignmentRepository) ListByStudent(ctx context.Context, studentID string, activeOnly bool) ([]models.TeacherAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_assignments WHERE student_id = $1", teacherAssignmentColumns)
	if activeOnly {
		query += " AND is_active"
	}
	query += " ORDER BY start_date DESC"
	var assignments []models.TeacherAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, studentID); err != nil {
		return nil, fmt.Errorf("list assignments by student: %w", err)
	}
	return assignments, nil
}

// ListByTeacher returns the relationship rows pointing at an instructor.
func (r *TeacherAssignmentRepository) ListByTeacher(ctx context.Context, teacherID string, activeOnly bool) ([]models.TeacherAssignment, error) {
	query := fmt.Sprintf("SELECT %s FROM teacher_assignments WHERE teacher_id = $1", teacherAssignmentColumns)
	if activeOnly {
		query += " AND is_active"
	}
	query += " ORDER BY start_date DESC"
	var assignments []models.TeacherAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, teacherID); err != nil {
		return nil, fmt.Errorf("list assignments by teacher: %w", err)
	}
	return assignments, nil
}

// CreateWithTx inserts a relationship row inside an existing transaction.
func (r *TeacherAssignmentRepository) CreateWithTx(ctx context.Context, exec sqlx.ExtContext, assignment *models.TeacherAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now

	const query = `INSERT INTO teacher_assignments (id, student_id, teacher_id, schedule_slot_id, start_date, end_date, is_active, notes, created_at, updated_at)
		VALUES (:id, :student_id, :teacher_id, :schedule_slot_id, :start_date, :end_date, :is_active, :notes, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, assignment); err != nil {
		return fmt.Errorf("create teacher assignment: %w", err)
	}
	return nil
}

// RepointSlotWithTx points an existing relationship at a new placed lesson.
func (r *TeacherAssignmentRepository) RepointSlotWithTx(ctx context.Context, exec sqlx.ExtContext, id, slotID string) error {
	const query = `UPDATE teacher_assignments SET schedule_slot_id = $2, updated_at = $3 WHERE id = $1 AND is_active`
	result, err := exec.ExecContext(ctx, query, id, slotID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("repoint assignment slot: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check repointed assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeactivatePairWithTx closes the active relationship row for a student and
// instructor, clearing the slot pointer. Zero affected rows is not an error.
func (r *TeacherAssignmentRepository) DeactivatePairWithTx(ctx context.Context, exec sqlx.ExtContext, studentID, teacherID string, endDate models.Date) (int64, error) {
	const query = `UPDATE teacher_assignments SET is_active = FALSE, end_date = $3, schedule_slot_id = NULL, updated_at = $4
		WHERE student_id = $1 AND teacher_id = $2 AND is_active`
	result, err := exec.ExecContext(ctx, query, studentID, teacherID, endDate, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate assignment pair: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deactivated assignment rows: %w", err)
	}
	return affected, nil
}

// DeactivateByTeacherWithTx closes every active relationship pointing at the
// instructor.
func (r *TeacherAssignmentRepository) DeactivateByTeacherWithTx(ctx context.Context, exec sqlx.ExtContext, teacherID string, endDate models.Date) (int64, error) {
	const query = `UPDATE teacher_assignments SET is_active = FALSE, end_date = $2, schedule_slot_id = NULL, updated_at = $3
		WHERE teacher_id = $1 AND is_active`
	result, err := exec.ExecContext(ctx, query, teacherID, endDate, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate teacher assignments: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deactivated assignment rows: %w", err)
	}
	return affected, nil
}

// DeactivateByStudentWithTx closes every active relationship owned by the
// student.
func (r *TeacherAssignmentRepository) DeactivateByStudentWithTx(ctx context.Context, exec sqlx.ExtContext, studentID string, endDate models.Date) (int64, error) {
	const query = `UPDATE teacher_assignments SET is_active = FALSE, end_date = $2, schedule_slot_id = NULL, updated_at = $3
		WHERE student_id = $1 AND is_active`
	result, err := exec.ExecContext(ctx, query, studentID, endDate, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate student assignments: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deactivated assignment rows: %w", err)
	}
	return affected, nil
}

// ClearSlotByBlockWithTx detaches relationship rows from lessons placed in a
// block being released. The relationship itself stays active.
func (r *TeacherAssignmentRepository) ClearSlotByBlockWithTx(ctx context.Context, exec sqlx.ExtContext, blockID string) (int64, error) {
	const query = `UPDATE teacher_assignments SET schedule_slot_id = NULL, updated_at = $2
		WHERE is_active AND schedule_slot_id IN (SELECT id FROM assigned_lessons WHERE time_block_id = $1)`
	result, err := exec.ExecContext(ctx, query, blockID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("clear assignment slots: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check cleared assignment rows: %w", err)
	}
	return affected, nil
}
