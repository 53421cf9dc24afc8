package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestoso/conservatory-api/internal/models"
)

func newTimeBlockRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTimeBlockRepositoryListByInstructorActiveOnly(t *testing.T) {
	db, mock, cleanup := newTimeBlockRepoMock(t)
	defer cleanup()
	repo := NewTimeBlockRepository(db)

	query := "SELECT id, instructor_id, day_of_week, start_minute, end_minute, location, exclusion_dates, active, created_at, updated_at FROM time_blocks WHERE instructor_id = $1 AND active ORDER BY day_of_week ASC, start_minute ASC"
	rows := sqlmock.NewRows([]string{"id", "instructor_id", "day_of_week", "start_minute", "end_minute", "location", "exclusion_dates", "active", "created_at", "updated_at"}).
		AddRow("block-1", "instructor-1", 1, 600, 720, "Room A", "{}", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("instructor-1").
		WillReturnRows(rows)

	blocks, err := repo.ListByInstructor(context.Background(), "instructor-1", true)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, 1, blocks[0].DayOfWeek)
	assert.Equal(t, 600, blocks[0].StartMinute)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeBlockRepositoryCreateDefaultsExclusions(t *testing.T) {
	db, mock, cleanup := newTimeBlockRepoMock(t)
	defer cleanup()
	repo := NewTimeBlockRepository(db)

	mock.ExpectExec("INSERT INTO time_blocks").
		WillReturnResult(sqlmock.NewResult(1, 1))

	block := &models.TimeBlock{
		InstructorID: "instructor-1",
		DayOfWeek:    1,
		StartMinute:  600,
		EndMinute:    720,
		Location:     "Room A",
		Active:       true,
	}
	require.NoError(t, repo.Create(context.Background(), block))
	assert.NotEmpty(t, block.ID)
	assert.NotNil(t, block.ExclusionDates)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeBlockRepositoryUpdateExclusions(t *testing.T) {
	db, mock, cleanup := newTimeBlockRepoMock(t)
	defer cleanup()
	repo := NewTimeBlockRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE time_blocks SET exclusion_dates = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("block-1", pq.StringArray{"2027-03-01", "2027-03-08"}, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateExclusions(context.Background(), "block-1", pq.StringArray{"2027-03-01", "2027-03-08"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeBlockRepositoryUpdateExclusionsMissingBlock(t *testing.T) {
	db, mock, cleanup := newTimeBlockRepoMock(t)
	defer cleanup()
	repo := NewTimeBlockRepository(db)

	mock.ExpectExec("UPDATE time_blocks SET exclusion_dates").
		WithArgs("block-404", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateExclusions(context.Background(), "block-404", nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeBlockRepositoryDeactivateByInstructorCountsRows(t *testing.T) {
	db, mock, cleanup := newTimeBlockRepoMock(t)
	defer cleanup()
	repo := NewTimeBlockRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE time_blocks SET active = FALSE, updated_at = $2 WHERE instructor_id = $1 AND active")).
		WithArgs("instructor-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	affected, err := repo.DeactivateByInstructorWithTx(context.Background(), db, "instructor-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
