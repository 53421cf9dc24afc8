package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestoso/conservatory-api/internal/models"
)

func newTeacherAssignmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTeacherAssignmentRepositoryFindActiveByPair(t *testing.T) {
	db, mock, cleanup := newTeacherAssignmentMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	slotID := "lesson-1"
	rows := sqlmock.NewRows([]string{"id", "student_id", "teacher_id", "schedule_slot_id", "start_date", "end_date", "is_active", "notes", "created_at", "updated_at"}).
		AddRow("assignment-1", "student-1", "instructor-1", slotID, time.Now(), nil, true, "", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, teacher_id, schedule_slot_id, start_date, end_date, is_active, notes, created_at, updated_at FROM teacher_assignments WHERE student_id = $1 AND teacher_id = $2 AND is_active")).
		WithArgs("student-1", "instructor-1").
		WillReturnRows(rows)

	assignment, err := repo.FindActiveByPair(context.Background(), "student-1", "instructor-1")
	require.NoError(t, err)
	require.NotNil(t, assignment)
	assert.Equal(t, "assignment-1", assignment.ID)
	require.NotNil(t, assignment.ScheduleSlotID)
	assert.Equal(t, "lesson-1", *assignment.ScheduleSlotID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentRepositoryFindActiveByPairAbsent(t *testing.T) {
	db, mock, cleanup := newTeacherAssignmentMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	mock.ExpectQuery("SELECT .* FROM teacher_assignments").
		WithArgs("student-1", "instructor-9").
		WillReturnError(sql.ErrNoRows)

	assignment, err := repo.FindActiveByPair(context.Background(), "student-1", "instructor-9")
	require.NoError(t, err)
	assert.Nil(t, assignment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentRepositoryCreateWithTx(t *testing.T) {
	db, mock, cleanup := newTeacherAssignmentMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO teacher_assignments").
		WillReturnResult(sqlmock.NewResult(1, 1))

	assignment := &models.TeacherAssignment{
		StudentID: "student-1",
		TeacherID: "instructor-1",
		StartDate: models.NewDate(time.Now()),
		IsActive:  true,
	}
	require.NoError(t, repo.CreateWithTx(context.Background(), db, assignment))
	assert.NotEmpty(t, assignment.ID)
	assert.False(t, assignment.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentRepositoryRepointMissingRow(t *testing.T) {
	db, mock, cleanup := newTeacherAssignmentMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE teacher_assignments SET schedule_slot_id = $2, updated_at = $3 WHERE id = $1 AND is_active")).
		WithArgs("assignment-404", "lesson-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RepointSlotWithTx(context.Background(), db, "assignment-404", "lesson-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentRepositoryDeactivatePairCountsRows(t *testing.T) {
	db, mock, cleanup := newTeacherAssignmentMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	mock.ExpectExec("UPDATE teacher_assignments SET is_active = FALSE").
		WithArgs("student-1", "instructor-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.DeactivatePairWithTx(context.Background(), db, "student-1", "instructor-1", models.NewDate(time.Now()))
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherAssignmentRepositoryClearSlotByBlock(t *testing.T) {
	db, mock, cleanup := newTeacherAssignmentMock(t)
	defer cleanup()
	repo := NewTeacherAssignmentRepository(db)

	mock.ExpectExec("UPDATE teacher_assignments SET schedule_slot_id = NULL").
		WithArgs("block-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.ClearSlotByBlockWithTx(context.Background(), db, "block-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
