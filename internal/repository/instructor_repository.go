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

const instructorColumns = "id, full_name, email, phone, specialty, active, created_at, updated_at"

// InstructorRepository provides persistence for instructors.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository creates a new instructor repository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// List returns instructors with optional filtering and pagination.
func (r *InstructorRepository) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error) {
	base := "FROM instructors WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Specialty != "" {
		conditions = append(conditions, fmt.Sprintf("specialty = $%d", len(args)+1))
		args = append(args, filter.Specialty)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY full_name ASC LIMIT %d OFFSET %d", instructorColumns, base, size, offset)
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list instructors: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count instructors: %w", err)
	}

	return instructors, total, nil
}

// FindByID loads an instructor by id.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	query := fmt.Sprintf("SELECT %s FROM instructors WHERE id = $1", instructorColumns)
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find instructor: %w", err)
	}
	return &instructor, nil
}

// ExistsByEmail checks if an instructor with the email exists, optionally
// excluding an ID.
func (r *InstructorRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	query := "SELECT 1 FROM instructors WHERE email = $1"
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check instructor email: %w", err)
	}
	return true, nil
}

// Create stores a new instructor record.
func (r *InstructorRepository) Create(ctx context.Context, instructor *models.Instructor) error {
	if instructor.ID == "" {
		instructor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if instructor.CreatedAt.IsZero() {
		instructor.CreatedAt = now
	}
	instructor.UpdatedAt = now

	const query = `INSERT INTO instructors (id, full_name, email, phone, specialty, active, created_at, updated_at)
		VALUES (:id, :full_name, :email, :phone, :specialty, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, instructor); err != nil {
		return fmt.Errorf("create instructor: %w", err)
	}
	return nil
}

// Update modifies an instructor record.
func (r *InstructorRepository) Update(ctx context.Context, instructor *models.Instructor) error {
	instructor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE instructors SET full_name = :full_name, email = :email, phone = :phone,
		specialty = :specialty, updated_at = :updated_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, instructor)
	if err != nil {
		return fmt.Errorf("update instructor: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated instructor rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeactivateWithTx soft-deactivates an instructor inside an existing transaction.
func (r *InstructorRepository) DeactivateWithTx(ctx context.Context, exec sqlx.ExtContext, id string) (int64, error) {
	const query = `UPDATE instructors SET active = FALSE, updated_at = $2 WHERE id = $1 AND active`
	result, err := exec.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("deactivate instructor: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deactivated instructor rows: %w", err)
	}
	return affected, nil
}
