package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maestoso/conservatory-api/internal/dto"
	"github.com/maestoso/conservatory-api/internal/models"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
)

type lessonSourceStub struct {
	lessons []models.Lesson
}

func (s *lessonSourceStub) ListActiveByDateAndLocation(ctx context.Context, date, location, excludeID string) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, lesson := range s.lessons {
		if !lesson.IsActive || lesson.ID == excludeID {
			continue
		}
		if lesson.LessonDate.Key() == date && lesson.Location == location {
			out = append(out, lesson)
		}
	}
	return out, nil
}

func (s *lessonSourceStub) ListActiveByDateAndInstructor(ctx context.Context, date, instructorID, excludeID string) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, lesson := range s.lessons {
		if !lesson.IsActive || lesson.ID == excludeID {
			continue
		}
		if lesson.LessonDate.Key() == date && lesson.InstructorID == instructorID {
			out = append(out, lesson)
		}
	}
	return out, nil
}

func datedLesson(id, instructorID, date, location string, start, end int) models.Lesson {
	day, _ := time.Parse("2006-01-02", date)
	return models.Lesson{
		ID:           id,
		Category:     "LESSON",
		InstructorID: instructorID,
		LessonDate:   models.NewDate(day),
		StartMinute:  start,
		EndMinute:    end,
		Location:     location,
		IsActive:     true,
	}
}

func newConflictService(lessons *lessonSourceStub) *ConflictService {
	return NewConflictService(lessons, nil, time.UTC, validator.New(), zap.NewNop())
}

func TestConflictServiceCheckLessonSplitsAxes(t *testing.T) {
	source := &lessonSourceStub{lessons: []models.Lesson{
		datedLesson("room-hit", "other-instructor", "2026-03-02", "studio-a", 600, 660),
		datedLesson("instructor-hit", "instructor-1", "2026-03-02", "studio-b", 630, 690),
	}}
	service := newConflictService(source)

	report, err := service.CheckLesson(context.Background(), dto.CheckLessonRequest{
		InstructorID: "instructor-1",
		LessonDate:   "2026-03-02",
		StartTime:    "10:30",
		EndTime:      "11:30",
		Location:     "studio-a",
	})
	require.NoError(t, err)
	require.True(t, report.HasConflicts())
	require.Len(t, report.RoomConflicts, 1)
	require.Len(t, report.InstructorConflicts, 1)
	assert.Equal(t, "room-hit", report.RoomConflicts[0].LessonID)
	assert.Equal(t, models.ConflictAxisRoom, report.RoomConflicts[0].Axis)
	assert.Equal(t, "instructor-hit", report.InstructorConflicts[0].LessonID)
	assert.Equal(t, models.ConflictAxisInstructor, report.InstructorConflicts[0].Axis)
}

func TestConflictServiceCheckLessonSameLocationReportsOnce(t *testing.T) {
	// Same instructor, same location: qualifies on both scans but must land
	// on the room axis only.
	source := &lessonSourceStub{lessons: []models.Lesson{
		datedLesson("both", "instructor-1", "2026-03-02", "studio-a", 600, 660),
	}}
	service := newConflictService(source)

	report, err := service.CheckLesson(context.Background(), dto.CheckLessonRequest{
		InstructorID: "instructor-1",
		LessonDate:   "2026-03-02",
		StartTime:    "10:30",
		EndTime:      "11:30",
		Location:     "studio-a",
	})
	require.NoError(t, err)
	require.Len(t, report.RoomConflicts, 1)
	assert.Empty(t, report.InstructorConflicts)
	assert.Equal(t, 1, report.Total())
}

func TestConflictServiceCheckLessonTouchingSpansDoNotCollide(t *testing.T) {
	source := &lessonSourceStub{lessons: []models.Lesson{
		datedLesson("before", "instructor-1", "2026-03-02", "studio-a", 540, 600),
		datedLesson("after", "instructor-1", "2026-03-02", "studio-a", 660, 720),
	}}
	service := newConflictService(source)

	report, err := service.CheckLesson(context.Background(), dto.CheckLessonRequest{
		InstructorID: "instructor-1",
		LessonDate:   "2026-03-02",
		StartTime:    "10:00",
		EndTime:      "11:00",
		Location:     "studio-a",
	})
	require.NoError(t, err)
	assert.False(t, report.HasConflicts())
}

func TestConflictServiceCheckLessonExcludesMovedLesson(t *testing.T) {
	source := &lessonSourceStub{lessons: []models.Lesson{
		datedLesson("moving", "instructor-1", "2026-03-02", "studio-a", 600, 660),
	}}
	service := newConflictService(source)

	report, err := service.CheckLesson(context.Background(), dto.CheckLessonRequest{
		InstructorID:    "instructor-1",
		LessonDate:      "2026-03-02",
		StartTime:       "10:00",
		EndTime:         "11:00",
		Location:        "studio-a",
		ExcludeLessonID: "moving",
	})
	require.NoError(t, err)
	assert.False(t, report.HasConflicts())
}

func TestConflictServiceCheckLessonRejectsBadDate(t *testing.T) {
	service := newConflictService(&lessonSourceStub{})

	_, err := service.CheckLesson(context.Background(), dto.CheckLessonRequest{
		InstructorID: "instructor-1",
		LessonDate:   "03/02/2026",
		StartTime:    "10:00",
		EndTime:      "11:00",
		Location:     "studio-a",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestConflictServiceCheckSeriesScansEveryOccurrence(t *testing.T) {
	// Mondays in March 2026 are the 2nd, 9th, 16th, 23rd and 30th. The 16th
	// is excluded; collisions sit on the first and last occurrence so an
	// early-exit scan would miss the 30th.
	source := &lessonSourceStub{lessons: []models.Lesson{
		datedLesson("first", "other-instructor", "2026-03-02", "studio-a", 600, 660),
		datedLesson("last", "instructor-1", "2026-03-30", "studio-b", 600, 660),
	}}
	service := newConflictService(source)

	report, err := service.CheckSeries(context.Background(), dto.CheckSeriesRequest{
		InstructorID:  "instructor-1",
		StartDate:     "2026-03-01",
		EndDate:       "2026-03-31",
		DayOfWeek:     1,
		StartTime:     "10:00",
		EndTime:       "11:00",
		Location:      "studio-a",
		ExcludedDates: []string{"2026-03-16"},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, report.TotalLessons)
	require.Equal(t, []string{"2026-03-02", "2026-03-30"}, report.AffectedDates)
	require.Len(t, report.Dates, 2)
	assert.Len(t, report.Dates[0].Report.RoomConflicts, 1)
	assert.Len(t, report.Dates[1].Report.InstructorConflicts, 1)
}

func TestConflictServiceCheckSeriesEmptyRange(t *testing.T) {
	service := newConflictService(&lessonSourceStub{})

	report, err := service.CheckSeries(context.Background(), dto.CheckSeriesRequest{
		InstructorID: "instructor-1",
		StartDate:    "2026-03-31",
		EndDate:      "2026-03-01",
		DayOfWeek:    1,
		StartTime:    "10:00",
		EndTime:      "11:00",
		Location:     "studio-a",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalLessons)
	assert.False(t, report.HasConflicts())
}
