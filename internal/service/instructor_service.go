package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/maestoso/conservatory-api/internal/models"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
)

type instructorRepository interface {
	List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error)
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, instructor *models.Instructor) error
	Update(ctx context.Context, instructor *models.Instructor) error
}

type instructorCascader interface {
	DeactivateInstructor(ctx context.Context, instructorID, actor string) (*models.CascadeResult, error)
}

type scheduleBlockLister interface {
	ListByInstructor(ctx context.Context, instructorID string, activeOnly bool) ([]models.TimeBlock, error)
}

// CreateInstructorRequest represents payload for registering instructors.
type CreateInstructorRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FullName  string `json:"full_name" validate:"required"`
	Phone     string `json:"phone" validate:"omitempty,max=50"`
	Specialty string `json:"specialty" validate:"omitempty,max=100"`
}

// UpdateInstructorRequest represents payload for updating instructors.
type UpdateInstructorRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FullName  string `json:"full_name" validate:"required"`
	Phone     string `json:"phone" validate:"omitempty,max=50"`
	Specialty string `json:"specialty" validate:"omitempty,max=100"`
}

// InstructorService orchestrates instructor records and their schedule view.
type InstructorService struct {
	repo         instructorRepository
	blocks       scheduleBlockLister
	placed       blockLessonReader
	relationship instructorCascader
	cache        *CacheService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewInstructorService constructs an InstructorService.
func NewInstructorService(
	repo instructorRepository,
	blocks scheduleBlockLister,
	placed blockLessonReader,
	relationship instructorCascader,
	cache *CacheService,
	validate *validator.Validate,
	logger *zap.Logger,
) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{
		repo:         repo,
		blocks:       blocks,
		placed:       placed,
		relationship: relationship,
		cache:        cache,
		validator:    validate,
		logger:       logger,
	}
}

// List returns instructors plus pagination data.
func (s *InstructorService) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, *models.Pagination, error) {
	instructors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructors")
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
	return instructors, pagination, nil
}

// Get returns an instructor by id.
func (s *InstructorService) Get(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if instructor == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
	}
	return instructor, nil
}

// Create registers a new instructor record.
func (s *InstructorService) Create(ctx context.Context, req CreateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	if err := s.ensureUniqueEmail(ctx, req.Email, ""); err != nil {
		return nil, err
	}

	instructor := &models.Instructor{
		Email:     strings.TrimSpace(req.Email),
		FullName:  strings.TrimSpace(req.FullName),
		Phone:     strings.TrimSpace(req.Phone),
		Specialty: strings.TrimSpace(req.Specialty),
		Active:    true,
	}
	if err := s.repo.Create(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create instructor")
	}
	return instructor, nil
}

// Update modifies an existing instructor.
func (s *InstructorService) Update(ctx context.Context, id string, req UpdateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if instructor == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
	}
	if err := s.ensureUniqueEmail(ctx, req.Email, id); err != nil {
		return nil, err
	}

	instructor.Email = strings.TrimSpace(req.Email)
	instructor.FullName = strings.TrimSpace(req.FullName)
	instructor.Phone = strings.TrimSpace(req.Phone)
	instructor.Specialty = strings.TrimSpace(req.Specialty)

	if err := s.repo.Update(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update instructor")
	}
	return instructor, nil
}

// Deactivate retires an instructor and cascades through their windows,
// lessons and relationships.
func (s *InstructorService) Deactivate(ctx context.Context, id, actor string) (*models.CascadeResult, error) {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if instructor == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
	}
	return s.relationship.DeactivateInstructor(ctx, id, actor)
}

// Schedule assembles the instructor's weekly view: every active window with
// the lessons placed in it. The view is served read-through from cache.
func (s *InstructorService) Schedule(ctx context.Context, id string) (*models.InstructorSchedule, error) {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if instructor == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
	}

	key := instructorScheduleKey(id)
	var cached models.InstructorSchedule
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	blocks, err := s.blocks.ListByInstructor(ctx, id, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list time blocks")
	}
	schedule := &models.InstructorSchedule{
		InstructorID: id,
		Blocks:       make([]models.ScheduleBlock, 0, len(blocks)),
	}
	for _, block := range blocks {
		lessons, err := s.placed.ListActiveByBlock(ctx, block.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list block lessons")
		}
		schedule.Blocks = append(schedule.Blocks, models.ScheduleBlock{TimeBlock: block, Lessons: lessons})
	}

	_ = s.cache.Set(ctx, key, schedule, 0)
	return schedule, nil
}

func (s *InstructorService) ensureUniqueEmail(ctx context.Context, email, excludeID string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	return nil
}
