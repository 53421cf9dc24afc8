package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/maestoso/conservatory-api/internal/dto"
	"github.com/maestoso/conservatory-api/internal/models"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
	"github.com/maestoso/conservatory-api/pkg/recurrence"
	"github.com/maestoso/conservatory-api/pkg/timeutil"
)

type lessonConflictSource interface {
	ListActiveByDateAndLocation(ctx context.Context, date, location, excludeID string) ([]models.Lesson, error)
	ListActiveByDateAndInstructor(ctx context.Context, date, instructorID, excludeID string) ([]models.Lesson, error)
}

// ConflictService detects collisions between dated lessons on two disjoint
// axes: room (same date, same location) and instructor (same date, same
// instructor, different location). A same-instructor same-location collision
// reports on the room axis only, so no lesson ever appears twice.
type ConflictService struct {
	lessons   lessonConflictSource
	metrics   *MetricsService
	location  *time.Location
	validator *validator.Validate
	logger    *zap.Logger
}

// NewConflictService wires the conflict detector.
func NewConflictService(lessons lessonConflictSource, metrics *MetricsService, loc *time.Location, validate *validator.Validate, logger *zap.Logger) *ConflictService {
	if loc == nil {
		loc = time.UTC
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictService{lessons: lessons, metrics: metrics, location: loc, validator: validate, logger: logger}
}

// CheckLesson scans a single candidate slot and returns every collision as
// data. Conflicts are never an error here; callers decide what blocks.
func (s *ConflictService) CheckLesson(ctx context.Context, req dto.CheckLessonRequest) (*models.ConflictReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}
	span, err := s.parseSpan(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	date, err := s.normalizeDate(req.LessonDate)
	if err != nil {
		return nil, err
	}
	report, err := s.scanDate(ctx, date, span, req.InstructorID, req.Location, req.ExcludeLessonID)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// CheckSeries expands the weekly pattern and scans every generated date. The
// scan never stops early: the report covers all occurrences so a caller can
// resolve every collision in one pass.
func (s *ConflictService) CheckSeries(ctx context.Context, req dto.CheckSeriesRequest) (*models.SeriesConflictReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid series check payload")
	}
	span, err := s.parseSpan(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	dates, err := s.expandSeries(req.StartDate, req.EndDate, req.DayOfWeek, req.ExcludedDates)
	if err != nil {
		return nil, err
	}

	report := &models.SeriesConflictReport{TotalLessons: len(dates)}
	for _, date := range dates {
		single, err := s.scanDate(ctx, date, span, req.InstructorID, req.Location, "")
		if err != nil {
			return nil, err
		}
		if single.HasConflicts() {
			report.AffectedDates = append(report.AffectedDates, date)
			report.Dates = append(report.Dates, models.DateConflicts{Date: date, Report: *single})
		}
	}
	return report, nil
}

type minuteSpan struct {
	start int
	end   int
}

func (s *ConflictService) parseSpan(startTime, endTime string) (minuteSpan, error) {
	start, err := timeutil.ToMinutes(startTime)
	if err != nil {
		return minuteSpan{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	end, err := timeutil.ToMinutes(endTime)
	if err != nil {
		return minuteSpan{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}
	if err := timeutil.ValidateRange(start, end); err != nil {
		return minuteSpan{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time range")
	}
	return minuteSpan{start: start, end: end}, nil
}

func (s *ConflictService) normalizeDate(raw string) (string, error) {
	parsed, err := recurrence.ParseDate(raw, s.location)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson date")
	}
	return recurrence.DateKey(parsed, s.location), nil
}

func (s *ConflictService) expandSeries(startDate, endDate string, day int, excluded []string) ([]string, error) {
	if !timeutil.IsValidDay(day) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "day of week must be between 0 and 6")
	}
	start, err := recurrence.ParseDate(startDate, s.location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid series start date")
	}
	end, err := recurrence.ParseDate(endDate, s.location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid series end date")
	}
	occurrences := recurrence.Dates(start, end, time.Weekday(day), excluded, s.location)
	dates := make([]string, 0, len(occurrences))
	for _, occ := range occurrences {
		dates = append(dates, recurrence.DateKey(occ, s.location))
	}
	return dates, nil
}

func (s *ConflictService) scanDate(ctx context.Context, date string, span minuteSpan, instructorID, location, excludeID string) (*models.ConflictReport, error) {
	report := &models.ConflictReport{
		RoomConflicts:       []models.LessonConflict{},
		InstructorConflicts: []models.LessonConflict{},
	}

	roomRows, err := s.lessons.ListActiveByDateAndLocation(ctx, date, location, excludeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan room conflicts")
	}
	for _, row := range roomRows {
		if timeutil.Overlaps(span.start, span.end, row.StartMinute, row.EndMinute) {
			report.RoomConflicts = append(report.RoomConflicts, lessonConflictOf(row, models.ConflictAxisRoom))
		}
	}

	instructorRows, err := s.lessons.ListActiveByDateAndInstructor(ctx, date, instructorID, excludeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan instructor conflicts")
	}
	for _, row := range instructorRows {
		// same-location overlaps already live on the room axis
		if row.Location == location {
			continue
		}
		if timeutil.Overlaps(span.start, span.end, row.StartMinute, row.EndMinute) {
			report.InstructorConflicts = append(report.InstructorConflicts, lessonConflictOf(row, models.ConflictAxisInstructor))
		}
	}

	if s.metrics != nil {
		s.metrics.RecordConflicts(models.ConflictAxisRoom, len(report.RoomConflicts))
		s.metrics.RecordConflicts(models.ConflictAxisInstructor, len(report.InstructorConflicts))
	}
	return report, nil
}

func lessonConflictOf(lesson models.Lesson, axis string) models.LessonConflict {
	conflict := models.LessonConflict{
		LessonID:     lesson.ID,
		Category:     lesson.Category,
		InstructorID: lesson.InstructorID,
		Date:         lesson.LessonDate.Key(),
		StartTime:    timeutil.FormatMinutes(lesson.StartMinute),
		EndTime:      timeutil.FormatMinutes(lesson.EndMinute),
		Location:     lesson.Location,
		Axis:         axis,
	}
	if lesson.StudentID != nil {
		conflict.StudentID = *lesson.StudentID
	}
	return conflict
}
