package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/maestoso/conservatory-api/internal/models"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
	"github.com/maestoso/conservatory-api/pkg/export"
	"github.com/maestoso/conservatory-api/pkg/timeutil"
)

type scheduleSource interface {
	Get(ctx context.Context, id string) (*models.Instructor, error)
	Schedule(ctx context.Context, id string) (*models.InstructorSchedule, error)
}

type exportStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// ExportArtifact is a rendered schedule ready to be served as a download.
type ExportArtifact struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders weekly instructor schedules into printable formats.
type ExportService struct {
	instructors scheduleSource
	students    exportStudentReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService constructs the schedule export service.
func NewExportService(instructors scheduleSource, students exportStudentReader, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		instructors: instructors,
		students:    students,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

var scheduleExportHeaders = []string{"Day", "Window", "Location", "Start", "End", "Student", "Minutes"}

// InstructorSchedule renders the instructor's weekly schedule in the
// requested format. Windows with no lessons still get a row so free slots
// show up on the printout.
func (s *ExportService) InstructorSchedule(ctx context.Context, id, format string) (*ExportArtifact, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	instructor, err := s.instructors.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	schedule, err := s.instructors.Schedule(ctx, id)
	if err != nil {
		return nil, err
	}

	dataset, err := s.buildDataset(ctx, schedule)
	if err != nil {
		return nil, err
	}

	switch format {
	case "pdf":
		content, err := s.pdf.Render(dataset, fmt.Sprintf("Weekly schedule - %s", instructor.FullName))
		if err != nil {
			s.logger.Error("failed to render schedule pdf", zap.String("instructor_id", id), zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule")
		}
		return &ExportArtifact{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    exportFilename(instructor.FullName, "pdf"),
		}, nil
	default:
		content, err := s.csv.Render(dataset)
		if err != nil {
			s.logger.Error("failed to render schedule csv", zap.String("instructor_id", id), zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render schedule")
		}
		return &ExportArtifact{
			Content:     content,
			ContentType: "text/csv",
			Filename:    exportFilename(instructor.FullName, "csv"),
		}, nil
	}
}

func (s *ExportService) buildDataset(ctx context.Context, schedule *models.InstructorSchedule) (export.Dataset, error) {
	dataset := export.Dataset{Headers: scheduleExportHeaders, Landscape: true}
	names := map[string]string{}

	for _, block := range schedule.Blocks {
		day := time.Weekday(block.TimeBlock.DayOfWeek).String()
		window := timeutil.FormatMinutes(block.TimeBlock.StartMinute) + "-" + timeutil.FormatMinutes(block.TimeBlock.EndMinute)
		if len(block.Lessons) == 0 {
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Day":      day,
				"Window":   window,
				"Location": block.TimeBlock.Location,
				"Start":    "-",
				"End":      "-",
				"Student":  "-",
				"Minutes":  "-",
			})
			continue
		}
		for _, lesson := range block.Lessons {
			name, err := s.studentName(ctx, names, lesson.StudentID)
			if err != nil {
				return export.Dataset{}, err
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Day":      day,
				"Window":   window,
				"Location": block.TimeBlock.Location,
				"Start":    timeutil.FormatMinutes(lesson.StartMinute),
				"End":      timeutil.FormatMinutes(lesson.EndMinute),
				"Student":  name,
				"Minutes":  strconv.Itoa(lesson.DurationMinutes),
			})
		}
	}
	return dataset, nil
}

func (s *ExportService) studentName(ctx context.Context, cache map[string]string, id string) (string, error) {
	if name, ok := cache[id]; ok {
		return name, nil
	}
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	name := id
	if student != nil {
		name = student.FullName
	}
	cache[id] = name
	return name, nil
}

func exportFilename(fullName, ext string) string {
	slug := strings.ToLower(strings.TrimSpace(fullName))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	if slug == "" {
		slug = "instructor"
	}
	return fmt.Sprintf("schedule-%s.%s", slug, ext)
}
