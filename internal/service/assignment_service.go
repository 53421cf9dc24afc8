package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/maestoso/conservatory-api/internal/models"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
	"github.com/maestoso/conservatory-api/pkg/timeutil"
)

type instructorReader interface {
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type timeBlockReader interface {
	FindByID(ctx context.Context, id string) (*models.TimeBlock, error)
}

type placedLessonReader interface {
	ListActiveByBlock(ctx context.Context, blockID string) ([]models.AssignedLesson, error)
	ListActiveByStudentAndWeekday(ctx context.Context, studentID string, dayOfWeek int, excludeBlockID string) ([]models.PlacedLesson, error)
}

type relationshipManager interface {
	EstablishLesson(ctx context.Context, block *models.TimeBlock, lesson *models.AssignedLesson, actor string) (*models.AssignedLesson, error)
	Release(ctx context.Context, instructorID, studentID, actor string) (*models.RemovalResult, error)
}

// AssignLessonRequest places a weekly lesson inside an availability block.
type AssignLessonRequest struct {
	InstructorID    string `json:"instructor_id" validate:"required"`
	StudentID       string `json:"student_id" validate:"required"`
	TimeBlockID     string `json:"time_block_id" validate:"required"`
	StartTime       string `json:"start_time" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,min=15,max=480"`
}

// RemoveAssignmentRequest releases the relationship between an instructor and
// a student.
type RemoveAssignmentRequest struct {
	InstructorID string `json:"instructor_id" validate:"required"`
	StudentID    string `json:"student_id" validate:"required"`
}

// AssignmentService runs the placement validation ladder: resolution, window
// fit, block-axis overlap, student-axis overlap, then the transactional dual
// write. The first failing step wins.
type AssignmentService struct {
	instructors  instructorReader
	students     studentReader
	blocks       timeBlockReader
	placed       placedLessonReader
	relationship relationshipManager
	metrics      *MetricsService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewAssignmentService wires the placement engine.
func NewAssignmentService(
	instructors instructorReader,
	students studentReader,
	blocks timeBlockReader,
	placed placedLessonReader,
	relationship relationshipManager,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{
		instructors:  instructors,
		students:     students,
		blocks:       blocks,
		placed:       placed,
		relationship: relationship,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
	}
}

// Assign validates the placement and delegates the dual write to the
// relationship manager. Conflict failures carry every colliding lesson.
func (s *AssignmentService) Assign(ctx context.Context, req AssignLessonRequest, actor string) (*models.AssignedLesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	startMinute, err := timeutil.ToMinutes(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	endMinute := startMinute + req.DurationMinutes
	if err := timeutil.ValidateRange(startMinute, endMinute); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson span")
	}

	instructor, err := s.instructors.FindByID(ctx, req.InstructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if instructor == nil || !instructor.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil || !student.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	block, err := s.blocks.FindByID(ctx, req.TimeBlockID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time block")
	}
	if block == nil || !block.Active || block.InstructorID != req.InstructorID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "time block not found")
	}

	if startMinute < block.StartMinute || endMinute > block.EndMinute {
		return nil, appErrors.Clone(appErrors.ErrOutOfBounds, fmt.Sprintf(
			"lesson %s-%s does not fit window %s-%s",
			timeutil.FormatMinutes(startMinute), timeutil.FormatMinutes(endMinute),
			timeutil.FormatMinutes(block.StartMinute), timeutil.FormatMinutes(block.EndMinute),
		))
	}

	if err := s.ensureBlockFree(ctx, block, startMinute, endMinute); err != nil {
		return nil, err
	}
	if err := s.ensureStudentFree(ctx, req.StudentID, block, startMinute, endMinute); err != nil {
		return nil, err
	}

	lesson := &models.AssignedLesson{
		TimeBlockID:     block.ID,
		StudentID:       req.StudentID,
		StartMinute:     startMinute,
		EndMinute:       endMinute,
		DurationMinutes: req.DurationMinutes,
		IsActive:        true,
	}
	return s.relationship.EstablishLesson(ctx, block, lesson, actor)
}

// Remove releases the instructor/student relationship. Removing one that does
// not exist is a no-op success with zero counts.
func (s *AssignmentService) Remove(ctx context.Context, req RemoveAssignmentRequest, actor string) (*models.RemovalResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid removal payload")
	}
	return s.relationship.Release(ctx, req.InstructorID, req.StudentID, actor)
}

func (s *AssignmentService) ensureBlockFree(ctx context.Context, block *models.TimeBlock, startMinute, endMinute int) error {
	existing, err := s.placed.ListActiveByBlock(ctx, block.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan block lessons")
	}
	var conflicts []models.SlotConflict
	for _, lesson := range existing {
		if timeutil.Overlaps(startMinute, endMinute, lesson.StartMinute, lesson.EndMinute) {
			conflicts = append(conflicts, models.SlotConflict{
				AssignedLessonID: lesson.ID,
				TimeBlockID:      lesson.TimeBlockID,
				InstructorID:     block.InstructorID,
				StudentID:        lesson.StudentID,
				DayOfWeek:        block.DayOfWeek,
				StartTime:        timeutil.FormatMinutes(lesson.StartMinute),
				EndTime:          timeutil.FormatMinutes(lesson.EndMinute),
				Axis:             models.ConflictAxisBlock,
			})
		}
	}
	if len(conflicts) > 0 {
		if s.metrics != nil {
			s.metrics.RecordConflicts(models.ConflictAxisBlock, len(conflicts))
		}
		return wrapSlotConflicts(models.ConflictAxisBlock, "lesson overlaps existing lessons in this block", conflicts)
	}
	return nil
}

func (s *AssignmentService) ensureStudentFree(ctx context.Context, studentID string, block *models.TimeBlock, startMinute, endMinute int) error {
	existing, err := s.placed.ListActiveByStudentAndWeekday(ctx, studentID, block.DayOfWeek, block.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan student lessons")
	}
	var conflicts []models.SlotConflict
	for _, lesson := range existing {
		if timeutil.Overlaps(startMinute, endMinute, lesson.StartMinute, lesson.EndMinute) {
			conflicts = append(conflicts, models.SlotConflict{
				AssignedLessonID: lesson.ID,
				TimeBlockID:      lesson.TimeBlockID,
				InstructorID:     lesson.BlockInstructorID,
				StudentID:        lesson.StudentID,
				DayOfWeek:        lesson.BlockDayOfWeek,
				StartTime:        timeutil.FormatMinutes(lesson.StartMinute),
				EndTime:          timeutil.FormatMinutes(lesson.EndMinute),
				Axis:             models.ConflictAxisStudent,
			})
		}
	}
	if len(conflicts) > 0 {
		if s.metrics != nil {
			s.metrics.RecordConflicts(models.ConflictAxisStudent, len(conflicts))
		}
		return wrapSlotConflicts(models.ConflictAxisStudent, "student already has lessons in this span", conflicts)
	}
	return nil
}

func wrapSlotConflicts(axis, message string, conflicts []models.SlotConflict) error {
	domainErr := &models.ConflictError{Axis: axis, Message: message, Conflicts: conflicts}
	return appErrors.Wrap(domainErr, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, fmt.Sprintf("scheduling conflict: %s", message))
}
