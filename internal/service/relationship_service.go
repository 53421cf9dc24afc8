package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/maestoso/conservatory-api/internal/models"
	"github.com/maestoso/conservatory-api/pkg/database"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type assignedLessonStore interface {
	ListActiveByBlock(ctx context.Context, blockID string) ([]models.AssignedLesson, error)
	CreateWithTx(ctx context.Context, exec sqlx.ExtContext, lesson *models.AssignedLesson) error
	DeactivatePairWithTx(ctx context.Context, exec sqlx.ExtContext, studentID, instructorID string, endDate models.Date, actor string) (int64, error)
	DeactivateByBlockWithTx(ctx context.Context, exec sqlx.ExtContext, blockID string, endDate models.Date, actor string) (int64, error)
	DeactivateByInstructorWithTx(ctx context.Context, exec sqlx.ExtContext, instructorID string, endDate models.Date, actor string) (int64, error)
	DeactivateByStudentWithTx(ctx context.Context, exec sqlx.ExtContext, studentID string, endDate models.Date, actor string) (int64, error)
}

type assignmentMirrorStore interface {
	FindActiveByPair(ctx context.Context, studentID, teacherID string) (*models.TeacherAssignment, error)
	ListByStudent(ctx context.Context, studentID string, activeOnly bool) ([]models.TeacherAssignment, error)
	ListByTeacher(ctx context.Context, teacherID string, activeOnly bool) ([]models.TeacherAssignment, error)
	CreateWithTx(ctx context.Context, exec sqlx.ExtContext, assignment *models.TeacherAssignment) error
	RepointSlotWithTx(ctx context.Context, exec sqlx.ExtContext, id, slotID string) error
	DeactivatePairWithTx(ctx context.Context, exec sqlx.ExtContext, studentID, teacherID string, endDate models.Date) (int64, error)
	DeactivateByTeacherWithTx(ctx context.Context, exec sqlx.ExtContext, teacherID string, endDate models.Date) (int64, error)
	DeactivateByStudentWithTx(ctx context.Context, exec sqlx.ExtContext, studentID string, endDate models.Date) (int64, error)
	ClearSlotByBlockWithTx(ctx context.Context, exec sqlx.ExtContext, blockID string) (int64, error)
}

type blockDeactivator interface {
	DeactivateWithTx(ctx context.Context, exec sqlx.ExtContext, id string) (int64, error)
	DeactivateByInstructorWithTx(ctx context.Context, exec sqlx.ExtContext, instructorID string) (int64, error)
}

type instructorDeactivator interface {
	DeactivateWithTx(ctx context.Context, exec sqlx.ExtContext, id string) (int64, error)
}

type studentDeactivator interface {
	DeactivateWithTx(ctx context.Context, exec sqlx.ExtContext, id string) (int64, error)
}

// RelationshipService is the only writer that touches both sides of the
// instructor/student relationship: the placed lessons (instructor side) and
// the TeacherAssignment mirror (student side). Every mutation runs in a
// single transaction so the two aggregates never diverge.
type RelationshipService struct {
	tx          txProvider
	lessons     assignedLessonStore
	assignments assignmentMirrorStore
	blocks      blockDeactivator
	instructors instructorDeactivator
	students    studentDeactivator
	cache       *CacheService
	metrics     *MetricsService
	location    *time.Location
	logger      *zap.Logger
}

// NewRelationshipService wires the relationship consistency manager.
func NewRelationshipService(
	tx txProvider,
	lessons assignedLessonStore,
	assignments assignmentMirrorStore,
	blocks blockDeactivator,
	instructors instructorDeactivator,
	students studentDeactivator,
	cache *CacheService,
	metrics *MetricsService,
	loc *time.Location,
	logger *zap.Logger,
) *RelationshipService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RelationshipService{
		tx:          tx,
		lessons:     lessons,
		assignments: assignments,
		blocks:      blocks,
		instructors: instructors,
		students:    students,
		cache:       cache,
		metrics:     metrics,
		location:    loc,
		logger:      logger,
	}
}

// EstablishLesson inserts the placed lesson and mirrors the student-side
// relationship row in one transaction. One active TeacherAssignment exists per
// student/instructor pair; an existing row gets its slot pointer repointed.
// The partial unique index on active pairs arbitrates concurrent
// establishment; the loser surfaces as RACE_CONFLICT.
func (s *RelationshipService) EstablishLesson(ctx context.Context, block *models.TimeBlock, lesson *models.AssignedLesson, actor string) (*models.AssignedLesson, error) {
	existing, err := s.assignments.FindActiveByPair(ctx, lesson.StudentID, block.InstructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load relationship")
	}

	start := time.Now()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to begin relationship transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.lessons.CreateWithTx(ctx, tx, lesson); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to place lesson")
		return nil, err
	}

	if existing != nil {
		if err = s.assignments.RepointSlotWithTx(ctx, tx, existing.ID, lesson.ID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// pair row vanished between the read and the write
				err = appErrors.Wrap(err, appErrors.ErrRaceConflict.Code, appErrors.ErrRaceConflict.Status, "relationship changed under a concurrent request")
				return nil, err
			}
			err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to repoint relationship slot")
			return nil, err
		}
	} else {
		assignment := &models.TeacherAssignment{
			StudentID:      lesson.StudentID,
			TeacherID:      block.InstructorID,
			ScheduleSlotID: &lesson.ID,
			StartDate:      models.NewDate(time.Now().In(s.location)),
			IsActive:       true,
		}
		if err = s.assignments.CreateWithTx(ctx, tx, assignment); err != nil {
			if database.IsUniqueViolation(err) {
				err = appErrors.Wrap(err, appErrors.ErrRaceConflict.Code, appErrors.ErrRaceConflict.Status, "relationship was established by a concurrent request")
				return nil, err
			}
			err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to mirror relationship")
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to commit relationship transaction")
		return nil, err
	}

	s.observe("establish_lesson", start)
	s.invalidateSchedules(ctx, []string{block.InstructorID}, []string{lesson.StudentID})
	s.logger.Info("lesson established",
		zap.String("lesson_id", lesson.ID),
		zap.String("instructor_id", block.InstructorID),
		zap.String("student_id", lesson.StudentID),
		zap.String("actor", actor),
	)
	return lesson, nil
}

// Release closes the relationship between an instructor and a student:
// every matching active placed lesson and the mirror row are deactivated in
// one transaction. Releasing an absent relationship succeeds with zero counts.
func (s *RelationshipService) Release(ctx context.Context, instructorID, studentID, actor string) (*models.RemovalResult, error) {
	endDate := models.NewDate(time.Now().In(s.location))

	start := time.Now()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to begin relationship transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	lessonsOff, err := s.lessons.DeactivatePairWithTx(ctx, tx, studentID, instructorID, endDate, actor)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to deactivate placed lessons")
		return nil, err
	}
	pairsOff, err := s.assignments.DeactivatePairWithTx(ctx, tx, studentID, instructorID, endDate)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to deactivate relationship mirror")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to commit relationship transaction")
		return nil, err
	}

	s.observe("release_relationship", start)
	s.invalidateSchedules(ctx, []string{instructorID}, []string{studentID})
	s.logger.Info("relationship released",
		zap.String("instructor_id", instructorID),
		zap.String("student_id", studentID),
		zap.Int64("lessons", lessonsOff),
		zap.Int64("assignments", pairsOff),
		zap.String("actor", actor),
	)
	return &models.RemovalResult{
		LessonsDeactivated:     int(lessonsOff),
		AssignmentsDeactivated: int(pairsOff),
	}, nil
}

// DeactivateInstructor soft-deactivates the instructor and cascades: every
// block, every placed lesson in them, and every student-side mirror row, all
// in one transaction.
func (s *RelationshipService) DeactivateInstructor(ctx context.Context, instructorID, actor string) (*models.CascadeResult, error) {
	affected, err := s.assignments.ListByTeacher(ctx, instructorID, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load affected relationships")
	}
	endDate := models.NewDate(time.Now().In(s.location))

	start := time.Now()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to begin cascade transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = s.instructors.DeactivateWithTx(ctx, tx, instructorID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to deactivate instructor")
		return nil, err
	}
	blocksOff, err := s.blocks.DeactivateByInstructorWithTx(ctx, tx, instructorID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to deactivate availability blocks")
		return nil, err
	}
	lessonsOff, err := s.lessons.DeactivateByInstructorWithTx(ctx, tx, instructorID, endDate, actor)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to deactivate placed lessons")
		return nil, err
	}
	pairsOff, err := s.assignments.DeactivateByTeacherWithTx(ctx, tx, instructorID, endDate)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to deactivate relationship mirrors")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to commit cascade transaction")
		return nil, err
	}

	s.observe("cascade_instructor", start)
	students := make([]string, 0, len(affected))
	for _, a := range affected {
		students = append(students, a.StudentID)
	}
	s.invalidateSchedules(ctx, []string{instructorID}, students)
	s.logger.Info("instructor deactivated",
		zap.String("instructor_id", instructorID),
		zap.Int64("blocks", blocksOff),
		zap.Int64("lessons", lessonsOff),
		zap.Int64("assignments", pairsOff),
		zap.String("actor", actor),
	)
	return &models.CascadeResult{
		BlocksDeactivated:      int(blocksOff),
		LessonsDeactivated:     int(lessonsOff),
		AssignmentsDeactivated: int(pairsOff),
	}, nil
}

// DeactivateStudent is the student-side mirror of DeactivateInstructor: the
// student, their placed lessons across all instructors, and all mirror rows.
func (s *RelationshipService) DeactivateStudent(ctx context.Context, studentID, actor string) (*models.CascadeResult, error) {
	affected, err := s.assignments.ListByStudent(ctx, studentID, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load affected relationships")
	}
	endDate := models.NewDate(time.Now().In(s.location))

	start := time.Now()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to begin cascade transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = s.students.DeactivateWithTx(ctx, tx, studentID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to deactivate student")
		return nil, err
	}
	lessonsOff, err := s.lessons.DeactivateByStudentWithTx(ctx, tx, studentID, endDate, actor)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to deactivate placed lessons")
		return nil, err
	}
	pairsOff, err := s.assignments.DeactivateByStudentWithTx(ctx, tx, studentID, endDate)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to deactivate relationship mirrors")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to commit cascade transaction")
		return nil, err
	}

	s.observe("cascade_student", start)
	instructors := make([]string, 0, len(affected))
	for _, a := range affected {
		instructors = append(instructors, a.TeacherID)
	}
	s.invalidateSchedules(ctx, instructors, []string{studentID})
	s.logger.Info("student deactivated",
		zap.String("student_id", studentID),
		zap.Int64("lessons", lessonsOff),
		zap.Int64("assignments", pairsOff),
		zap.String("actor", actor),
	)
	return &models.CascadeResult{
		LessonsDeactivated:     int(lessonsOff),
		AssignmentsDeactivated: int(pairsOff),
	}, nil
}

// ReleaseBlock deactivates one availability block and its placed lessons.
// Mirror rows pointing at those lessons get their slot pointer cleared but
// stay active: a relationship may exist without a placed slot.
func (s *RelationshipService) ReleaseBlock(ctx context.Context, block *models.TimeBlock, actor string) (*models.CascadeResult, error) {
	placed, err := s.lessons.ListActiveByBlock(ctx, block.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load placed lessons")
	}
	endDate := models.NewDate(time.Now().In(s.location))

	start := time.Now()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to begin release transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	blocksOff, err := s.blocks.DeactivateWithTx(ctx, tx, block.ID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to deactivate block")
		return nil, err
	}
	cleared, err := s.assignments.ClearSlotByBlockWithTx(ctx, tx, block.ID)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to detach relationship slots")
		return nil, err
	}
	lessonsOff, err := s.lessons.DeactivateByBlockWithTx(ctx, tx, block.ID, endDate, actor)
	if err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to deactivate placed lessons")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrTransactionFailure.Code, appErrors.ErrTransactionFailure.Status, "failed to commit release transaction")
		return nil, err
	}

	s.observe("release_block", start)
	students := make([]string, 0, len(placed))
	for _, lesson := range placed {
		students = append(students, lesson.StudentID)
	}
	s.invalidateSchedules(ctx, []string{block.InstructorID}, students)
	s.logger.Info("block released",
		zap.String("block_id", block.ID),
		zap.String("instructor_id", block.InstructorID),
		zap.Int64("lessons", lessonsOff),
		zap.Int64("slots_cleared", cleared),
		zap.String("actor", actor),
	)
	return &models.CascadeResult{
		BlocksDeactivated:  int(blocksOff),
		LessonsDeactivated: int(lessonsOff),
	}, nil
}

func (s *RelationshipService) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveDBQuery(op, time.Since(start))
	}
}

func (s *RelationshipService) invalidateSchedules(ctx context.Context, instructorIDs, studentIDs []string) {
	if !s.cache.Enabled() {
		return
	}
	keys := make([]string, 0, len(instructorIDs)+len(studentIDs))
	for _, id := range instructorIDs {
		keys = append(keys, instructorScheduleKey(id))
	}
	for _, id := range studentIDs {
		keys = append(keys, studentScheduleKey(id))
	}
	_ = s.cache.InvalidateKeys(ctx, keys...)
}
