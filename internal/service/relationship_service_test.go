package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maestoso/conservatory-api/internal/models"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
)

type lessonStoreStub struct {
	placed        []models.AssignedLesson
	created       []*models.AssignedLesson
	createErr     error
	pairCount     int64
	blockCount    int64
	byInstructor  int64
	byStudent     int64
	deactivateErr error
}

func (s *lessonStoreStub) ListActiveByBlock(ctx context.Context, blockID string) ([]models.AssignedLesson, error) {
	return s.placed, nil
}

func (s *lessonStoreStub) CreateWithTx(ctx context.Context, exec sqlx.ExtContext, lesson *models.AssignedLesson) error {
	if s.createErr != nil {
		return s.createErr
	}
	lesson.ID = "lesson-new"
	s.created = append(s.created, lesson)
	return nil
}

func (s *lessonStoreStub) DeactivatePairWithTx(ctx context.Context, exec sqlx.ExtContext, studentID, instructorID string, endDate models.Date, actor string) (int64, error) {
	return s.pairCount, s.deactivateErr
}

func (s *lessonStoreStub) DeactivateByBlockWithTx(ctx context.Context, exec sqlx.ExtContext, blockID string, endDate models.Date, actor string) (int64, error) {
	return s.blockCount, nil
}

func (s *lessonStoreStub) DeactivateByInstructorWithTx(ctx context.Context, exec sqlx.ExtContext, instructorID string, endDate models.Date, actor string) (int64, error) {
	return s.byInstructor, nil
}

func (s *lessonStoreStub) DeactivateByStudentWithTx(ctx context.Context, exec sqlx.ExtContext, studentID string, endDate models.Date, actor string) (int64, error) {
	return s.byStudent, nil
}

type mirrorStoreStub struct {
	existing      *models.TeacherAssignment
	byStudent     []models.TeacherAssignment
	byTeacher     []models.TeacherAssignment
	created       []*models.TeacherAssignment
	createErr     error
	repointed     [][2]string
	repointErr    error
	pairCount     int64
	teacherCount  int64
	studentCount  int64
	cleared       int64
	clearedBlocks []string
	deactivateErr error
}

func (s *mirrorStoreStub) FindActiveByPair(ctx context.Context, studentID, teacherID string) (*models.TeacherAssignment, error) {
	return s.existing, nil
}

func (s *mirrorStoreStub) ListByStudent(ctx context.Context, studentID string, activeOnly bool) ([]models.TeacherAssignment, error) {
	return s.byStudent, nil
}

func (s *mirrorStoreStub) ListByTeacher(ctx context.Context, teacherID string, activeOnly bool) ([]models.TeacherAssignment, error) {
	return s.byTeacher, nil
}

func (s *mirrorStoreStub) CreateWithTx(ctx context.Context, exec sqlx.ExtContext, assignment *models.TeacherAssignment) error {
	if s.createErr != nil {
		return s.createErr
	}
	assignment.ID = "assignment-new"
	s.created = append(s.created, assignment)
	return nil
}

func (s *mirrorStoreStub) RepointSlotWithTx(ctx context.Context, exec sqlx.ExtContext, id, slotID string) error {
	if s.repointErr != nil {
		return s.repointErr
	}
	s.repointed = append(s.repointed, [2]string{id, slotID})
	return nil
}

func (s *mirrorStoreStub) DeactivatePairWithTx(ctx context.Context, exec sqlx.ExtContext, studentID, teacherID string, endDate models.Date) (int64, error) {
	return s.pairCount, s.deactivateErr
}

func (s *mirrorStoreStub) DeactivateByTeacherWithTx(ctx context.Context, exec sqlx.ExtContext, teacherID string, endDate models.Date) (int64, error) {
	return s.teacherCount, nil
}

func (s *mirrorStoreStub) DeactivateByStudentWithTx(ctx context.Context, exec sqlx.ExtContext, studentID string, endDate models.Date) (int64, error) {
	return s.studentCount, nil
}

func (s *mirrorStoreStub) ClearSlotByBlockWithTx(ctx context.Context, exec sqlx.ExtContext, blockID string) (int64, error) {
	s.clearedBlocks = append(s.clearedBlocks, blockID)
	return s.cleared, nil
}

type countDeactivatorStub struct {
	ids          []string
	byInstructor []string
	count        int64
}

func (s *countDeactivatorStub) DeactivateWithTx(ctx context.Context, exec sqlx.ExtContext, id string) (int64, error) {
	s.ids = append(s.ids, id)
	return s.count, nil
}

func (s *countDeactivatorStub) DeactivateByInstructorWithTx(ctx context.Context, exec sqlx.ExtContext, instructorID string) (int64, error) {
	s.byInstructor = append(s.byInstructor, instructorID)
	return s.count, nil
}

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (*txProviderMock, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

type relationshipFixture struct {
	service *RelationshipService
	lessons *lessonStoreStub
	mirror  *mirrorStoreStub
	blocks  *countDeactivatorStub
	mock    sqlmock.Sqlmock
}

func newRelationshipFixture(t *testing.T) *relationshipFixture {
	tx, mock := newTxProviderMock(t)
	lessons := &lessonStoreStub{}
	mirror := &mirrorStoreStub{}
	blocks := &countDeactivatorStub{}
	instructors := &countDeactivatorStub{}
	students := &countDeactivatorStub{}
	service := NewRelationshipService(tx, lessons, mirror, blocks, instructors, students, nil, nil, time.UTC, zap.NewNop())
	return &relationshipFixture{service: service, lessons: lessons, mirror: mirror, blocks: blocks, mock: mock}
}

func fixtureBlock() *models.TimeBlock {
	return &models.TimeBlock{
		ID:           "block-1",
		InstructorID: "instructor-1",
		DayOfWeek:    1,
		StartMinute:  600,
		EndMinute:    720,
		Location:     "studio-a",
		Active:       true,
	}
}

func fixtureLesson() *models.AssignedLesson {
	return &models.AssignedLesson{
		TimeBlockID:     "block-1",
		StudentID:       "student-1",
		StartMinute:     630,
		EndMinute:       675,
		DurationMinutes: 45,
		IsActive:        true,
	}
}

func TestRelationshipServiceEstablishLessonNewPair(t *testing.T) {
	f := newRelationshipFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	lesson, err := f.service.EstablishLesson(context.Background(), fixtureBlock(), fixtureLesson(), "admin")
	require.NoError(t, err)
	assert.Equal(t, "lesson-new", lesson.ID)

	require.Len(t, f.mirror.created, 1)
	mirror := f.mirror.created[0]
	assert.Equal(t, "student-1", mirror.StudentID)
	assert.Equal(t, "instructor-1", mirror.TeacherID)
	require.NotNil(t, mirror.ScheduleSlotID)
	assert.Equal(t, "lesson-new", *mirror.ScheduleSlotID)
	assert.True(t, mirror.IsActive)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRelationshipServiceEstablishLessonRepointsExistingPair(t *testing.T) {
	f := newRelationshipFixture(t)
	f.mirror.existing = &models.TeacherAssignment{ID: "assignment-1", StudentID: "student-1", TeacherID: "instructor-1", IsActive: true}
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	_, err := f.service.EstablishLesson(context.Background(), fixtureBlock(), fixtureLesson(), "admin")
	require.NoError(t, err)

	assert.Empty(t, f.mirror.created)
	require.Len(t, f.mirror.repointed, 1)
	assert.Equal(t, [2]string{"assignment-1", "lesson-new"}, f.mirror.repointed[0])
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRelationshipServiceEstablishLessonMirrorFailureRollsBack(t *testing.T) {
	f := newRelationshipFixture(t)
	f.mirror.createErr = errors.New("insert failed")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.service.EstablishLesson(context.Background(), fixtureBlock(), fixtureLesson(), "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTransactionFailure.Code, appErrors.FromError(err).Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRelationshipServiceEstablishLessonRaceOnMirror(t *testing.T) {
	f := newRelationshipFixture(t)
	f.mirror.createErr = &pq.Error{Code: "23505"}
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.service.EstablishLesson(context.Background(), fixtureBlock(), fixtureLesson(), "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRaceConflict.Code, appErrors.FromError(err).Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRelationshipServiceEstablishLessonRepointRace(t *testing.T) {
	f := newRelationshipFixture(t)
	f.mirror.existing = &models.TeacherAssignment{ID: "assignment-1", StudentID: "student-1", TeacherID: "instructor-1", IsActive: true}
	f.mirror.repointErr = sql.ErrNoRows
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.service.EstablishLesson(context.Background(), fixtureBlock(), fixtureLesson(), "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrRaceConflict.Code, appErrors.FromError(err).Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRelationshipServiceReleaseCountsRows(t *testing.T) {
	f := newRelationshipFixture(t)
	f.lessons.pairCount = 2
	f.mirror.pairCount = 1
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.service.Release(context.Background(), "instructor-1", "student-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, result.LessonsDeactivated)
	assert.Equal(t, 1, result.AssignmentsDeactivated)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRelationshipServiceReleaseAbsentPairSucceeds(t *testing.T) {
	f := newRelationshipFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.service.Release(context.Background(), "instructor-1", "student-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, result.LessonsDeactivated)
	assert.Equal(t, 0, result.AssignmentsDeactivated)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRelationshipServiceReleaseMirrorFailureRollsBack(t *testing.T) {
	f := newRelationshipFixture(t)
	f.lessons.pairCount = 2
	f.mirror.deactivateErr = errors.New("update failed")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.service.Release(context.Background(), "instructor-1", "student-1", "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTransactionFailure.Code, appErrors.FromError(err).Code)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRelationshipServiceDeactivateInstructorCascades(t *testing.T) {
	f := newRelationshipFixture(t)
	f.mirror.byTeacher = []models.TeacherAssignment{
		{StudentID: "student-1", TeacherID: "instructor-1"},
		{StudentID: "student-2", TeacherID: "instructor-1"},
	}
	f.blocks.count = 2
	f.lessons.byInstructor = 3
	f.mirror.teacherCount = 2
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.service.DeactivateInstructor(context.Background(), "instructor-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, result.BlocksDeactivated)
	assert.Equal(t, 3, result.LessonsDeactivated)
	assert.Equal(t, 2, result.AssignmentsDeactivated)
	assert.Equal(t, []string{"instructor-1"}, f.blocks.byInstructor)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRelationshipServiceDeactivateStudentCascades(t *testing.T) {
	f := newRelationshipFixture(t)
	f.mirror.byStudent = []models.TeacherAssignment{
		{StudentID: "student-1", TeacherID: "instructor-1"},
	}
	f.lessons.byStudent = 1
	f.mirror.studentCount = 1
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.service.DeactivateStudent(context.Background(), "student-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, 0, result.BlocksDeactivated)
	assert.Equal(t, 1, result.LessonsDeactivated)
	assert.Equal(t, 1, result.AssignmentsDeactivated)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRelationshipServiceReleaseBlockKeepsRelationships(t *testing.T) {
	f := newRelationshipFixture(t)
	f.lessons.placed = []models.AssignedLesson{
		{ID: "lesson-1", TimeBlockID: "block-1", StudentID: "student-1", IsActive: true},
	}
	f.blocks.count = 1
	f.lessons.blockCount = 1
	f.mirror.cleared = 1
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	result, err := f.service.ReleaseBlock(context.Background(), fixtureBlock(), "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, result.BlocksDeactivated)
	assert.Equal(t, 1, result.LessonsDeactivated)
	assert.Equal(t, 0, result.AssignmentsDeactivated)
	assert.Equal(t, []string{"block-1"}, f.mirror.clearedBlocks)
	assert.Equal(t, []string{"block-1"}, f.blocks.ids)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
