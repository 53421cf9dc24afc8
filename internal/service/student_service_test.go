package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maestoso/conservatory-api/internal/models"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
)

type studentStoreStub struct {
	items   map[string]*models.Student
	emails  map[string]string
	created []*models.Student
	updated []*models.Student
}

func (s *studentStoreStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, student := range s.items {
		out = append(out, *student)
	}
	return out, len(out), nil
}

func (s *studentStoreStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := s.items[id]; ok {
		cp := *student
		return &cp, nil
	}
	return nil, nil
}

func (s *studentStoreStub) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	id, ok := s.emails[email]
	return ok && id != excludeID, nil
}

func (s *studentStoreStub) Create(ctx context.Context, student *models.Student) error {
	student.ID = "student-new"
	s.created = append(s.created, student)
	return nil
}

func (s *studentStoreStub) Update(ctx context.Context, student *models.Student) error {
	s.updated = append(s.updated, student)
	return nil
}

type studentMirrorStub struct {
	assignments []models.TeacherAssignment
}

func (s *studentMirrorStub) ListByStudent(ctx context.Context, studentID string, activeOnly bool) ([]models.TeacherAssignment, error) {
	return s.assignments, nil
}

type studentPlacedStub struct {
	lessons []models.PlacedLesson
}

func (s *studentPlacedStub) ListActiveByStudent(ctx context.Context, studentID string) ([]models.PlacedLesson, error) {
	return s.lessons, nil
}

type studentCascadeStub struct {
	deactivated []string
	result      *models.CascadeResult
}

func (s *studentCascadeStub) DeactivateStudent(ctx context.Context, studentID, actor string) (*models.CascadeResult, error) {
	s.deactivated = append(s.deactivated, studentID)
	if s.result != nil {
		return s.result, nil
	}
	return &models.CascadeResult{}, nil
}

type studentFixture struct {
	service *StudentService
	repo    *studentStoreStub
	cascade *studentCascadeStub
	mirror  *studentMirrorStub
	placed  *studentPlacedStub
}

func newStudentFixture() *studentFixture {
	repo := &studentStoreStub{
		items: map[string]*models.Student{
			"student-1": {ID: "student-1", Email: "clara@example.com", FullName: "Clara Wieck", Active: true},
		},
		emails: map[string]string{"clara@example.com": "student-1"},
	}
	mirror := &studentMirrorStub{}
	placed := &studentPlacedStub{}
	cascade := &studentCascadeStub{}
	service := NewStudentService(repo, mirror, placed, cascade, nil, validator.New(), zap.NewNop())
	return &studentFixture{service: service, repo: repo, cascade: cascade, mirror: mirror, placed: placed}
}

func TestStudentServiceCreate(t *testing.T) {
	f := newStudentFixture()

	student, err := f.service.Create(context.Background(), CreateStudentRequest{
		Email:    "  robert@example.com ",
		FullName: " Robert Schumann ",
		Level:    "advanced",
	})
	require.NoError(t, err)
	assert.Equal(t, "student-new", student.ID)
	assert.Equal(t, "robert@example.com", student.Email)
	assert.Equal(t, "Robert Schumann", student.FullName)
	assert.True(t, student.Active)
	require.Len(t, f.repo.created, 1)
}

func TestStudentServiceCreateDuplicateEmail(t *testing.T) {
	f := newStudentFixture()

	_, err := f.service.Create(context.Background(), CreateStudentRequest{
		Email:    "clara@example.com",
		FullName: "Clara Wieck",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.created)
}

func TestStudentServiceUpdateKeepsOwnEmail(t *testing.T) {
	f := newStudentFixture()

	student, err := f.service.Update(context.Background(), "student-1", UpdateStudentRequest{
		Email:    "clara@example.com",
		FullName: "Clara Schumann",
	})
	require.NoError(t, err)
	assert.Equal(t, "Clara Schumann", student.FullName)
	require.Len(t, f.repo.updated, 1)
}

func TestStudentServiceUpdateMissingStudent(t *testing.T) {
	f := newStudentFixture()

	_, err := f.service.Update(context.Background(), "student-404", UpdateStudentRequest{
		Email:    "nobody@example.com",
		FullName: "Nobody",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDeactivateCascades(t *testing.T) {
	f := newStudentFixture()
	f.cascade.result = &models.CascadeResult{LessonsDeactivated: 2, AssignmentsDeactivated: 1}

	result, err := f.service.Deactivate(context.Background(), "student-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, result.LessonsDeactivated)
	assert.Equal(t, 1, result.AssignmentsDeactivated)
	assert.Equal(t, []string{"student-1"}, f.cascade.deactivated)
}

func TestStudentServiceDeactivateMissingStudent(t *testing.T) {
	f := newStudentFixture()

	_, err := f.service.Deactivate(context.Background(), "student-404", "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.cascade.deactivated)
}

func TestStudentServiceScheduleAssemblesView(t *testing.T) {
	f := newStudentFixture()
	f.mirror.assignments = []models.TeacherAssignment{{ID: "assignment-1", StudentID: "student-1", TeacherID: "instructor-1", IsActive: true}}
	f.placed.lessons = []models.PlacedLesson{{
		AssignedLesson: models.AssignedLesson{ID: "lesson-1", StudentID: "student-1", StartMinute: 600, EndMinute: 645},
		BlockDayOfWeek: 1,
		BlockLocation:  "studio-a",
	}}

	schedule, err := f.service.Schedule(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, "student-1", schedule.StudentID)
	require.Len(t, schedule.Assignments, 1)
	require.Len(t, schedule.Lessons, 1)
	assert.Equal(t, 1, schedule.Lessons[0].BlockDayOfWeek)
}

func TestStudentServiceScheduleMissingStudent(t *testing.T) {
	f := newStudentFixture()

	_, err := f.service.Schedule(context.Background(), "student-404")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
