package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/maestoso/conservatory-api/internal/dto"
	"github.com/maestoso/conservatory-api/internal/models"
	"github.com/maestoso/conservatory-api/pkg/database"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
	"github.com/maestoso/conservatory-api/pkg/recurrence"
	"github.com/maestoso/conservatory-api/pkg/timeutil"
)

// DefaultLessonCategory is stamped on dated lessons created without one.
const DefaultLessonCategory = "LESSON"

type datedLessonRepository interface {
	List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, int, error)
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	BulkCreate(ctx context.Context, lessons []models.Lesson) error
	Deactivate(ctx context.Context, id, actor string) error
}

type lessonConflictChecker interface {
	CheckLesson(ctx context.Context, req dto.CheckLessonRequest) (*models.ConflictReport, error)
	CheckSeries(ctx context.Context, req dto.CheckSeriesRequest) (*models.SeriesConflictReport, error)
}

// CreateLessonRequest describes a one-off dated lesson. Override forces
// creation despite advisory conflicts.
type CreateLessonRequest struct {
	Category     string `json:"category"`
	InstructorID string `json:"instructor_id" validate:"required"`
	StudentID    string `json:"student_id"`
	LessonDate   string `json:"lesson_date" validate:"required"`
	StartTime    string `json:"start_time" validate:"required"`
	EndTime      string `json:"end_time" validate:"required"`
	Location     string `json:"location" validate:"required"`
	Notes        string `json:"notes"`
	Override     bool   `json:"override"`
}

// LessonCreateResult carries either the created lesson or the collision
// report that blocked it. Conflicts come back as data so the caller can
// decide to override.
type LessonCreateResult struct {
	Created   bool                   `json:"created"`
	Lesson    *models.Lesson         `json:"lesson,omitempty"`
	Conflicts *models.ConflictReport `json:"conflicts,omitempty"`
}

// LessonSeriesResult reports per-date outcomes of a series creation: which
// dates were generated, which collided, and what was written.
type LessonSeriesResult struct {
	Created        bool                         `json:"created"`
	RequestedDates []string                     `json:"requested_dates"`
	CreatedCount   int                          `json:"created_count"`
	Lessons        []models.Lesson              `json:"lessons,omitempty"`
	Conflicts      *models.SeriesConflictReport `json:"conflicts,omitempty"`
}

// LessonService schedules dated lessons. The conflict check is advisory; the
// partial unique index on active slots is the authority, and a lost race
// surfaces as RACE_CONFLICT.
type LessonService struct {
	repo      datedLessonRepository
	conflicts lessonConflictChecker
	metrics   *MetricsService
	location  *time.Location
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonService wires the dated-lesson scheduler.
func NewLessonService(repo datedLessonRepository, conflicts lessonConflictChecker, metrics *MetricsService, loc *time.Location, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if loc == nil {
		loc = time.UTC
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{repo: repo, conflicts: conflicts, metrics: metrics, location: loc, validator: validate, logger: logger}
}

// Create validates and checks the candidate slot, then inserts it. On
// conflicts without override the result carries the report and nothing is
// written.
func (s *LessonService) Create(ctx context.Context, req CreateLessonRequest) (*LessonCreateResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}

	report, err := s.conflicts.CheckLesson(ctx, dto.CheckLessonRequest{
		Category:     req.Category,
		InstructorID: req.InstructorID,
		StudentID:    req.StudentID,
		LessonDate:   req.LessonDate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Location:     req.Location,
	})
	if err != nil {
		return nil, err
	}
	if report.HasConflicts() && !req.Override {
		return &LessonCreateResult{Created: false, Conflicts: report}, nil
	}

	lesson, err := s.buildLesson(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, lesson); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrRaceConflict.Code, appErrors.ErrRaceConflict.Status, "slot was taken by a concurrent request")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson")
	}
	if s.metrics != nil {
		s.metrics.RecordLessonsCreated("single", 1)
	}
	return &LessonCreateResult{Created: true, Lesson: lesson}, nil
}

// CreateSeries expands the weekly pattern, checks every generated date, and
// inserts all occurrences in one transaction. Any conflict without override
// blocks the whole series and the per-date report comes back as data.
func (s *LessonService) CreateSeries(ctx context.Context, req dto.CreateLessonSeriesRequest) (*LessonSeriesResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid series payload")
	}
	startMinute, err := timeutil.ToMinutes(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	endMinute, err := timeutil.ToMinutes(req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}
	if err := timeutil.ValidateRange(startMinute, endMinute); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time range")
	}

	startDate, err := recurrence.ParseDate(req.StartDate, s.location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid series start date")
	}
	endDate, err := recurrence.ParseDate(req.EndDate, s.location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid series end date")
	}
	occurrences := recurrence.Dates(startDate, endDate, time.Weekday(req.DayOfWeek), req.ExcludedDates, s.location)
	if len(occurrences) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "series generates no dates")
	}
	dates := make([]string, 0, len(occurrences))
	for _, occ := range occurrences {
		dates = append(dates, recurrence.DateKey(occ, s.location))
	}

	report, err := s.conflicts.CheckSeries(ctx, dto.CheckSeriesRequest{
		Category:      req.Category,
		InstructorID:  req.InstructorID,
		StudentID:     req.StudentID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		DayOfWeek:     req.DayOfWeek,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Location:      req.Location,
		ExcludedDates: req.ExcludedDates,
	})
	if err != nil {
		return nil, err
	}
	if report.HasConflicts() && !req.Override {
		return &LessonSeriesResult{Created: false, RequestedDates: dates, Conflicts: report}, nil
	}

	category := req.Category
	if category == "" {
		category = DefaultLessonCategory
	}
	var studentID *string
	if req.StudentID != "" {
		studentID = &req.StudentID
	}
	lessons := make([]models.Lesson, 0, len(occurrences))
	for _, occ := range occurrences {
		lessons = append(lessons, models.Lesson{
			Category:     category,
			InstructorID: req.InstructorID,
			StudentID:    studentID,
			LessonDate:   models.NewDate(occ.In(s.location)),
			StartMinute:  startMinute,
			EndMinute:    endMinute,
			Location:     req.Location,
			Notes:        req.Notes,
			IsActive:     true,
		})
	}
	if err := s.repo.BulkCreate(ctx, lessons); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, appErrors.Wrap(err, appErrors.ErrRaceConflict.Code, appErrors.ErrRaceConflict.Status, "a series slot was taken by a concurrent request")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create lesson series")
	}
	if s.metrics != nil {
		s.metrics.RecordLessonsCreated("series", len(lessons))
	}
	s.logger.Info("lesson series created",
		zap.String("instructor_id", req.InstructorID),
		zap.String("location", req.Location),
		zap.Int("occurrences", len(lessons)),
	)
	return &LessonSeriesResult{
		Created:        true,
		RequestedDates: dates,
		CreatedCount:   len(lessons),
		Lessons:        lessons,
	}, nil
}

// List returns dated lessons with pagination metadata.
func (s *LessonService) List(ctx context.Context, filter models.LessonFilter) ([]models.Lesson, *models.Pagination, error) {
	lessons, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return lessons, pagination, nil
}

// Cancel soft-deactivates one dated lesson, stamping the acting user.
func (s *LessonService) Cancel(ctx context.Context, id, actor string) error {
	lesson, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lesson == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	if err := s.repo.Deactivate(ctx, id, actor); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel lesson")
	}
	return nil
}

func (s *LessonService) buildLesson(req CreateLessonRequest) (*models.Lesson, error) {
	startMinute, err := timeutil.ToMinutes(req.StartTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	endMinute, err := timeutil.ToMinutes(req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}
	date, err := recurrence.ParseDate(req.LessonDate, s.location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson date")
	}
	category := req.Category
	if category == "" {
		category = DefaultLessonCategory
	}
	var studentID *string
	if req.StudentID != "" {
		studentID = &req.StudentID
	}
	return &models.Lesson{
		Category:     category,
		InstructorID: req.InstructorID,
		StudentID:    studentID,
		LessonDate:   models.NewDate(date.In(s.location)),
		StartMinute:  startMinute,
		EndMinute:    endMinute,
		Location:     req.Location,
		Notes:        req.Notes,
		IsActive:     true,
	}, nil
}
