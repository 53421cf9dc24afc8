package service

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/maestoso/conservatory-api/internal/models"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
)

type blockRepoStub struct {
	items      map[string]*models.TimeBlock
	created    []*models.TimeBlock
	updated    []*models.TimeBlock
	exclusions map[string]pq.StringArray
}

func (s *blockRepoStub) FindByID(ctx context.Context, id string) (*models.TimeBlock, error) {
	if block, ok := s.items[id]; ok {
		cp := *block
		return &cp, nil
	}
	return nil, nil
}

func (s *blockRepoStub) ListByInstructor(ctx context.Context, instructorID string, activeOnly bool) ([]models.TimeBlock, error) {
	var out []models.TimeBlock
	for _, block := range s.items {
		if block.InstructorID != instructorID {
			continue
		}
		if activeOnly && !block.Active {
			continue
		}
		out = append(out, *block)
	}
	return out, nil
}

func (s *blockRepoStub) Create(ctx context.Context, block *models.TimeBlock) error {
	block.ID = "block-new"
	s.created = append(s.created, block)
	return nil
}

func (s *blockRepoStub) Update(ctx context.Context, block *models.TimeBlock) error {
	s.updated = append(s.updated, block)
	return nil
}

func (s *blockRepoStub) UpdateExclusions(ctx context.Context, id string, dates pq.StringArray) error {
	if s.exclusions == nil {
		s.exclusions = map[string]pq.StringArray{}
	}
	s.exclusions[id] = dates
	return nil
}

type blockLessonReaderStub struct {
	lessons []models.AssignedLesson
}

func (s *blockLessonReaderStub) ListActiveByBlock(ctx context.Context, blockID string) ([]models.AssignedLesson, error) {
	return s.lessons, nil
}

type blockReleaserStub struct {
	released []string
	result   *models.CascadeResult
}

func (s *blockReleaserStub) ReleaseBlock(ctx context.Context, block *models.TimeBlock, actor string) (*models.CascadeResult, error) {
	s.released = append(s.released, block.ID)
	if s.result != nil {
		return s.result, nil
	}
	return &models.CascadeResult{BlocksDeactivated: 1}, nil
}

type timeBlockFixture struct {
	service  *TimeBlockService
	repo     *blockRepoStub
	placed   *blockLessonReaderStub
	releaser *blockReleaserStub
}

func newTimeBlockFixture() *timeBlockFixture {
	instructors := &instructorReaderStub{items: map[string]*models.Instructor{
		"instructor-1": {ID: "instructor-1", Active: true},
		"retired":      {ID: "retired", Active: false},
	}}
	repo := &blockRepoStub{items: map[string]*models.TimeBlock{
		"block-1": {
			ID:           "block-1",
			InstructorID: "instructor-1",
			DayOfWeek:    1,
			StartMinute:  600,
			EndMinute:    720,
			Location:     "studio-a",
			Active:       true,
		},
	}}
	placed := &blockLessonReaderStub{}
	releaser := &blockReleaserStub{}
	service := NewTimeBlockService(instructors, repo, placed, releaser, nil, TimeBlockConfig{}, validator.New(), zap.NewNop())
	return &timeBlockFixture{service: service, repo: repo, placed: placed, releaser: releaser}
}

func TestTimeBlockServiceCreate(t *testing.T) {
	f := newTimeBlockFixture()

	block, err := f.service.Create(context.Background(), "instructor-1", CreateTimeBlockRequest{
		DayOfWeek:      0,
		StartTime:      "09:00",
		EndTime:        "12:00",
		Location:       "studio-b",
		ExclusionDates: []string{"2026-04-05"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, block.DayOfWeek)
	assert.Equal(t, 540, block.StartMinute)
	assert.Equal(t, 720, block.EndMinute)
	assert.True(t, block.Active)
	require.Len(t, f.repo.created, 1)
}

func TestTimeBlockServiceCreateInactiveInstructor(t *testing.T) {
	f := newTimeBlockFixture()

	_, err := f.service.Create(context.Background(), "retired", CreateTimeBlockRequest{
		DayOfWeek: 1,
		StartTime: "09:00",
		EndTime:   "12:00",
		Location:  "studio-b",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTimeBlockServiceCreateSpanTooShort(t *testing.T) {
	f := newTimeBlockFixture()

	_, err := f.service.Create(context.Background(), "instructor-1", CreateTimeBlockRequest{
		DayOfWeek: 1,
		StartTime: "09:00",
		EndTime:   "09:10",
		Location:  "studio-b",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimeBlockServiceCreateBadExclusionDate(t *testing.T) {
	f := newTimeBlockFixture()

	_, err := f.service.Create(context.Background(), "instructor-1", CreateTimeBlockRequest{
		DayOfWeek:      1,
		StartTime:      "09:00",
		EndTime:        "12:00",
		Location:       "studio-b",
		ExclusionDates: []string{"05/04/2026"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimeBlockServiceUpdateShrinkWithPlacedLesson(t *testing.T) {
	f := newTimeBlockFixture()
	f.placed.lessons = []models.AssignedLesson{
		{ID: "lesson-1", TimeBlockID: "block-1", StartMinute: 660, EndMinute: 705, IsActive: true},
	}

	_, err := f.service.Update(context.Background(), "block-1", UpdateTimeBlockRequest{
		DayOfWeek: 1,
		StartTime: "10:00",
		EndTime:   "11:00",
		Location:  "studio-a",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrOutOfBounds.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.repo.updated)
}

func TestTimeBlockServiceUpdateWeekdayFrozenWhileOccupied(t *testing.T) {
	f := newTimeBlockFixture()
	f.placed.lessons = []models.AssignedLesson{
		{ID: "lesson-1", TimeBlockID: "block-1", StartMinute: 630, EndMinute: 675, IsActive: true},
	}

	_, err := f.service.Update(context.Background(), "block-1", UpdateTimeBlockRequest{
		DayOfWeek: 3,
		StartTime: "10:00",
		EndTime:   "12:00",
		Location:  "studio-a",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimeBlockServiceUpdateGrowsWindow(t *testing.T) {
	f := newTimeBlockFixture()
	f.placed.lessons = []models.AssignedLesson{
		{ID: "lesson-1", TimeBlockID: "block-1", StartMinute: 630, EndMinute: 675, IsActive: true},
	}

	block, err := f.service.Update(context.Background(), "block-1", UpdateTimeBlockRequest{
		DayOfWeek: 1,
		StartTime: "09:00",
		EndTime:   "13:00",
		Location:  "studio-c",
	})
	require.NoError(t, err)
	assert.Equal(t, 540, block.StartMinute)
	assert.Equal(t, 780, block.EndMinute)
	assert.Equal(t, "studio-c", block.Location)
	require.Len(t, f.repo.updated, 1)
}

func TestTimeBlockServiceUpdateExclusions(t *testing.T) {
	f := newTimeBlockFixture()

	block, err := f.service.UpdateExclusions(context.Background(), "block-1", UpdateExclusionsRequest{
		ExclusionDates: []string{"2026-04-05", "2026-04-12"},
	})
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"2026-04-05", "2026-04-12"}, block.ExclusionDates)
	assert.Equal(t, pq.StringArray{"2026-04-05", "2026-04-12"}, f.repo.exclusions["block-1"])
}

func TestTimeBlockServiceReleaseDelegates(t *testing.T) {
	f := newTimeBlockFixture()

	result, err := f.service.Release(context.Background(), "block-1", "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, result.BlocksDeactivated)
	assert.Equal(t, []string{"block-1"}, f.releaser.released)
}

func TestTimeBlockServiceReleaseMissingBlock(t *testing.T) {
	f := newTimeBlockFixture()

	_, err := f.service.Release(context.Background(), "ghost", "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, f.releaser.released)
}
