package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maestoso/conservatory-api/internal/models"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
)

type scheduleSourceStub struct {
	instructor *models.Instructor
	schedule   *models.InstructorSchedule
}

func (s *scheduleSourceStub) Get(ctx context.Context, id string) (*models.Instructor, error) {
	if s.instructor == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
	}
	return s.instructor, nil
}

func (s *scheduleSourceStub) Schedule(ctx context.Context, id string) (*models.InstructorSchedule, error) {
	return s.schedule, nil
}

func newExportFixture() (*ExportService, *scheduleSourceStub) {
	source := &scheduleSourceStub{
		instructor: &models.Instructor{ID: "instructor-1", FullName: "Nadia Boulanger", Active: true},
		schedule: &models.InstructorSchedule{
			InstructorID: "instructor-1",
			Blocks: []models.ScheduleBlock{
				{
					TimeBlock: models.TimeBlock{ID: "block-1", DayOfWeek: 1, StartMinute: 600, EndMinute: 720, Location: "studio-a"},
					Lessons: []models.AssignedLesson{
						{ID: "lesson-1", TimeBlockID: "block-1", StudentID: "student-1", StartMinute: 600, EndMinute: 645, DurationMinutes: 45},
					},
				},
				{
					TimeBlock: models.TimeBlock{ID: "block-2", DayOfWeek: 3, StartMinute: 840, EndMinute: 960, Location: "studio-b"},
				},
			},
		},
	}
	students := &studentReaderStub{items: map[string]*models.Student{
		"student-1": {ID: "student-1", FullName: "Clara Wieck", Active: true},
	}}
	return NewExportService(source, students, zap.NewNop()), source
}

func TestExportServiceInstructorScheduleCSV(t *testing.T) {
	service, _ := newExportFixture()

	artifact, err := service.InstructorSchedule(context.Background(), "instructor-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", artifact.ContentType)
	assert.Equal(t, "schedule-nadia-boulanger.csv", artifact.Filename)

	body := strings.ReplaceAll(string(artifact.Content), "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,Window,Location,Start,End,Student,Minutes", lines[0])
	assert.Equal(t, "Monday,10:00-12:00,studio-a,10:00,10:45,Clara Wieck,45", lines[1])
	assert.Equal(t, "Wednesday,14:00-16:00,studio-b,-,-,-,-", lines[2])
}

func TestExportServiceInstructorSchedulePDF(t *testing.T) {
	service, _ := newExportFixture()

	artifact, err := service.InstructorSchedule(context.Background(), "instructor-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", artifact.ContentType)
	assert.Equal(t, "schedule-nadia-boulanger.pdf", artifact.Filename)
	assert.True(t, strings.HasPrefix(string(artifact.Content), "%PDF"))
}

func TestExportServiceDefaultsToCSV(t *testing.T) {
	service, _ := newExportFixture()

	artifact, err := service.InstructorSchedule(context.Background(), "instructor-1", "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", artifact.ContentType)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	service, _ := newExportFixture()

	_, err := service.InstructorSchedule(context.Background(), "instructor-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceMissingInstructor(t *testing.T) {
	service, source := newExportFixture()
	source.instructor = nil

	_, err := service.InstructorSchedule(context.Background(), "instructor-404", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
