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

type instructorStoreStub struct {
	items   map[string]*models.Instructor
	emails  map[string]string
	created []*models.Instructor
	updated []*models.Instructor
}

func (s *instructorStoreStub) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error) {
	var out []models.Instructor
	for _, instructor := range s.items {
		out = append(out, *instructor)
	}
	return out, len(out), nil
}

func (s *instructorStoreStub) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	if instructor, ok := s.items[id]; ok {
		cp := *instructor
		return &cp, nil
	}
	return nil, nil
}

func (s *instructorStoreStub) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	id, ok := s.emails[email]
	return ok && id != excludeID, nil
}

func (s *instructorStoreStub) Create(ctx context.Context, instructor *models.Instructor) error {
	instructor.ID = "instructor-new"
	s.created = append(s.created, instructor)
	return nil
}

func (s *instructorStoreStub) Update(ctx context.Context, instructor *models.Instructor) error {
	s.updated = append(s.updated, instructor)
	return nil
}

type instructorBlockListStub struct {
	blocks []models.TimeBlock
}

func (s *instructorBlockListStub) ListByInstructor(ctx context.Context, instructorID string, activeOnly bool) ([]models.TimeBlock, error) {
	return s.blocks, nil
}

type instructorCascadeStub struct {
	deactivated []string
	result      *models.CascadeResult
}

func (s *instructorCascadeStub) DeactivateInstructor(ctx context.Context, instructorID, actor string) (*models.CascadeResult, error) {
	s.deactivated = append(s.deactivated, instructorID)
	if s.result != nil {
		return s.result, nil
	}
	return &models.CascadeResult{}, nil
}

type instructorFixture struct {
	service *InstructorService
	repo    *instructorStoreStub
	blocks  *instructorBlockListStub
	placed  *blockLessonReaderStub
	cascade *instructorCascadeStub
}

func newInstructorFixture() *instructorFixture {
	repo := &instructorStoreStub{
		items: map[string]*models.Instructor{
			"instructor-1": {ID: "instructor-1", Email: "nadia@example.com", FullName: "Nadia Boulanger", Active: true},
		},
		emails: map[string]string{"nadia@example.com": "instructor-1"},
	}
	blocks := &instructorBlockListStub{}
	placed := &blockLessonReaderStub{}
	cascade := &instructorCascadeStub{}
	service := NewInstructorService(repo, blocks, placed, cascade, nil, validator.New(), zap.NewNop())
	return &instructorFixture{service: service, repo: repo, blocks: blocks, placed: placed, cascade: cascade}
}

func TestInstructorServiceCreate(t *testing.T) {
	f := newInstructorFixture()

	instructor, err := f.service.Create(context.Background(), CreateInstructorRequest{
		Email:     " olivier@example.com ",
		FullName:  " Olivier Messiaen ",
		Specialty: "composition",
	})
	require.NoError(t, err)
	assert.Equal(t, "instructor-new", instructor.ID)
	assert.Equal(t, "olivier@example.com", instructor.Email)
	assert.Equal(t, "Olivier Messiaen", instructor.FullName)
	assert.True(t, instructor.Active)
	require.Len(t, f.repo.created, 1)
}

func TestInstructorServiceCreateInvalidEmail(t *testing.T) {
	f := newInstructorFixture()

	_, err := f.service.Create(context.Background(), CreateInstructorRequest{
		Email:    "not-an-email",
		FullName: "Olivier Messiaen",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.created)
}

func TestInstructorServiceCreateDuplicateEmail(t *testing.T) {
	f := newInstructorFixture()

	_, err := f.service.Create(context.Background(), CreateInstructorRequest{
		Email:    "nadia@example.com",
		FullName: "Nadia Boulanger",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestInstructorServiceUpdateMissingInstructor(t *testing.T) {
	f := newInstructorFixture()

	_, err := f.service.Update(context.Background(), "instructor-404", UpdateInstructorRequest{
		Email:    "nobody@example.com",
		FullName: "Nobody",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestInstructorServiceDeactivateCascades(t *testing.T) {
	f := newInstructorFixture()
	f.cascade.result = &models.CascadeResult{BlocksDeactivated: 3, LessonsDeactivated: 5, AssignmentsDeactivated: 4}

	result, err := f.service.Deactivate(context.Background(), "instructor-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, 3, result.BlocksDeactivated)
	assert.Equal(t, 5, result.LessonsDeactivated)
	assert.Equal(t, 4, result.AssignmentsDeactivated)
	assert.Equal(t, []string{"instructor-1"}, f.cascade.deactivated)
}

func TestInstructorServiceScheduleGroupsLessonsByBlock(t *testing.T) {
	f := newInstructorFixture()
	f.blocks.blocks = []models.TimeBlock{
		{ID: "block-1", InstructorID: "instructor-1", DayOfWeek: 1, StartMinute: 600, EndMinute: 720, Location: "studio-a", Active: true},
	}
	f.placed.lessons = []models.AssignedLesson{
		{ID: "lesson-1", TimeBlockID: "block-1", StudentID: "student-1", StartMinute: 600, EndMinute: 645, IsActive: true},
	}

	schedule, err := f.service.Schedule(context.Background(), "instructor-1")
	require.NoError(t, err)
	assert.Equal(t, "instructor-1", schedule.InstructorID)
	require.Len(t, schedule.Blocks, 1)
	assert.Equal(t, "block-1", schedule.Blocks[0].TimeBlock.ID)
	require.Len(t, schedule.Blocks[0].Lessons, 1)
	assert.Equal(t, "lesson-1", schedule.Blocks[0].Lessons[0].ID)
}

func TestInstructorServiceScheduleMissingInstructor(t *testing.T) {
	f := newInstructorFixture()

	_, err := f.service.Schedule(context.Background(), "instructor-404")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
