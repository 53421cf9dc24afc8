package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/maestoso/conservatory-api/internal/models"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
	"github.com/maestoso/conservatory-api/pkg/recurrence"
	"github.com/maestoso/conservatory-api/pkg/timeutil"
)

type timeBlockRepository interface {
	FindByID(ctx context.Context, id string) (*models.TimeBlock, error)
	ListByInstructor(ctx context.Context, instructorID string, activeOnly bool) ([]models.TimeBlock, error)
	Create(ctx context.Context, block *models.TimeBlock) error
	Update(ctx context.Context, block *models.TimeBlock) error
	UpdateExclusions(ctx context.Context, id string, dates pq.StringArray) error
}

type blockReleaser interface {
	ReleaseBlock(ctx context.Context, block *models.TimeBlock, actor string) (*models.CascadeResult, error)
}

type blockLessonReader interface {
	ListActiveByBlock(ctx context.Context, blockID string) ([]models.AssignedLesson, error)
}

// CreateTimeBlockRequest publishes a weekly availability window. DayOfWeek
// uses 0 = Sunday, times are 24h clock strings.
type CreateTimeBlockRequest struct {
	DayOfWeek      int      `json:"day_of_week" validate:"min=0,max=6"`
	StartTime      string   `json:"start_time" validate:"required"`
	EndTime        string   `json:"end_time" validate:"required"`
	Location       string   `json:"location" validate:"required"`
	ExclusionDates []string `json:"exclusion_dates"`
}

// UpdateTimeBlockRequest reshapes an existing window.
type UpdateTimeBlockRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Location  string `json:"location" validate:"required"`
}

// UpdateExclusionsRequest replaces the recurring-exclusion dates of a window.
type UpdateExclusionsRequest struct {
	ExclusionDates []string `json:"exclusion_dates"`
}

// TimeBlockConfig bounds the allowed window span.
type TimeBlockConfig struct {
	MinSpanMinutes int
	MaxSpanMinutes int
}

// TimeBlockService manages instructor availability windows.
type TimeBlockService struct {
	instructors  instructorReader
	blocks       timeBlockRepository
	placed       blockLessonReader
	relationship blockReleaser
	cache        *CacheService
	cfg          TimeBlockConfig
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewTimeBlockService wires the availability window manager.
func NewTimeBlockService(
	instructors instructorReader,
	blocks timeBlockRepository,
	placed blockLessonReader,
	relationship blockReleaser,
	cache *CacheService,
	cfg TimeBlockConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *TimeBlockService {
	if cfg.MinSpanMinutes <= 0 {
		cfg.MinSpanMinutes = 15
	}
	if cfg.MaxSpanMinutes <= 0 {
		cfg.MaxSpanMinutes = 480
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimeBlockService{
		instructors:  instructors,
		blocks:       blocks,
		placed:       placed,
		relationship: relationship,
		cache:        cache,
		cfg:          cfg,
		validator:    validate,
		logger:       logger,
	}
}

// Create publishes a new availability window for the instructor.
func (s *TimeBlockService) Create(ctx context.Context, instructorID string, req CreateTimeBlockRequest) (*models.TimeBlock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time block payload")
	}
	instructor, err := s.instructors.FindByID(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if instructor == nil || !instructor.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
	}
	startMinute, endMinute, err := s.parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if err := s.validateExclusions(req.ExclusionDates); err != nil {
		return nil, err
	}

	block := &models.TimeBlock{
		InstructorID:   instructorID,
		DayOfWeek:      req.DayOfWeek,
		StartMinute:    startMinute,
		EndMinute:      endMinute,
		Location:       req.Location,
		ExclusionDates: pq.StringArray(req.ExclusionDates),
		Active:         true,
	}
	if err := s.blocks.Create(ctx, block); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create time block")
	}
	s.invalidateInstructor(ctx, instructorID)
	return block, nil
}

// ListByInstructor returns the instructor's windows.
func (s *TimeBlockService) ListByInstructor(ctx context.Context, instructorID string, activeOnly bool) ([]models.TimeBlock, error) {
	instructor, err := s.instructors.FindByID(ctx, instructorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if instructor == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
	}
	blocks, err := s.blocks.ListByInstructor(ctx, instructorID, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time blocks")
	}
	return blocks, nil
}

// Update reshapes an active window. The new window must still hold every
// active placed lesson; shrinking a block out from under its lessons fails
// OUT_OF_BOUNDS, and the weekday is frozen while lessons are placed.
func (s *TimeBlockService) Update(ctx context.Context, blockID string, req UpdateTimeBlockRequest) (*models.TimeBlock, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time block payload")
	}
	block, err := s.blocks.FindByID(ctx, blockID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time block")
	}
	if block == nil || !block.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "time block not found")
	}
	startMinute, endMinute, err := s.parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	lessons, err := s.placed.ListActiveByBlock(ctx, blockID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan block lessons")
	}
	if len(lessons) > 0 && req.DayOfWeek != block.DayOfWeek {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot change weekday of a block with placed lessons")
	}
	outside := 0
	for _, lesson := range lessons {
		if lesson.StartMinute < startMinute || lesson.EndMinute > endMinute {
			outside++
		}
	}
	if outside > 0 {
		return nil, appErrors.Clone(appErrors.ErrOutOfBounds, fmt.Sprintf("%d placed lessons would fall outside the new window", outside))
	}

	block.DayOfWeek = req.DayOfWeek
	block.StartMinute = startMinute
	block.EndMinute = endMinute
	block.Location = req.Location
	if err := s.blocks.Update(ctx, block); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update time block")
	}
	s.invalidateInstructor(ctx, block.InstructorID)
	return block, nil
}

// UpdateExclusions replaces the window's recurring-exclusion dates.
func (s *TimeBlockService) UpdateExclusions(ctx context.Context, blockID string, req UpdateExclusionsRequest) (*models.TimeBlock, error) {
	block, err := s.blocks.FindByID(ctx, blockID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time block")
	}
	if block == nil || !block.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "time block not found")
	}
	if err := s.validateExclusions(req.ExclusionDates); err != nil {
		return nil, err
	}
	if err := s.blocks.UpdateExclusions(ctx, blockID, pq.StringArray(req.ExclusionDates)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exclusion dates")
	}
	block.ExclusionDates = pq.StringArray(req.ExclusionDates)
	s.invalidateInstructor(ctx, block.InstructorID)
	return block, nil
}

// Release deactivates the window and cascades through the relationship
// manager.
func (s *TimeBlockService) Release(ctx context.Context, blockID, actor string) (*models.CascadeResult, error) {
	block, err := s.blocks.FindByID(ctx, blockID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load time block")
	}
	if block == nil || !block.Active {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "time block not found")
	}
	return s.relationship.ReleaseBlock(ctx, block, actor)
}

func (s *TimeBlockService) parseWindow(startTime, endTime string) (int, int, error) {
	startMinute, err := timeutil.ToMinutes(startTime)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start time")
	}
	endMinute, err := timeutil.ToMinutes(endTime)
	if err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end time")
	}
	if err := timeutil.ValidateRange(startMinute, endMinute); err != nil {
		return 0, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid time range")
	}
	span := endMinute - startMinute
	if span < s.cfg.MinSpanMinutes || span > s.cfg.MaxSpanMinutes {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("window span must be between %d and %d minutes", s.cfg.MinSpanMinutes, s.cfg.MaxSpanMinutes))
	}
	return startMinute, endMinute, nil
}

func (s *TimeBlockService) validateExclusions(dates []string) error {
	for _, date := range dates {
		if _, err := recurrence.ParseDate(date, nil); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid exclusion date %q", date))
		}
	}
	return nil
}

func (s *TimeBlockService) invalidateInstructor(ctx context.Context, instructorID string) {
	if !s.cache.Enabled() {
		return
	}
	_ = s.cache.InvalidateKeys(ctx, instructorScheduleKey(instructorID))
}
