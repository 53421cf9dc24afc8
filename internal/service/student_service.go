package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/maestoso/conservatory-api/internal/models"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
}

type studentCascader interface {
	DeactivateStudent(ctx context.Context, studentID, actor string) (*models.CascadeResult, error)
}

type studentMirrorLister interface {
	ListByStudent(ctx context.Context, studentID string, activeOnly bool) ([]models.TeacherAssignment, error)
}

type studentLessonLister interface {
	ListActiveByStudent(ctx context.Context, studentID string) ([]models.PlacedLesson, error)
}

// CreateStudentRequest holds payload for enrolling students.
type CreateStudentRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"omitempty,max=50"`
	Level    string `json:"level" validate:"omitempty,max=50"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Phone    string `json:"phone" validate:"omitempty,max=50"`
	Level    string `json:"level" validate:"omitempty,max=50"`
}

// StudentService handles student records and the student-side schedule view.
type StudentService struct {
	repo         studentRepository
	assignments  studentMirrorLister
	placed       studentLessonLister
	relationship studentCascader
	cache        *CacheService
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(
	repo studentRepository,
	assignments studentMirrorLister,
	placed studentLessonLister,
	relationship studentCascader,
	cache *CacheService,
	validate *validator.Validate,
	logger *zap.Logger,
) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:         repo,
		assignments:  assignments,
		placed:       placed,
		relationship: relationship,
		cache:        cache,
		validator:    validate,
		logger:       logger,
	}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
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
	return students, pagination, nil
}

// Get returns a student by id.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

// Create enrolls a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	if err := s.ensureUniqueEmail(ctx, req.Email, ""); err != nil {
		return nil, err
	}

	student := &models.Student{
		Email:    strings.TrimSpace(req.Email),
		FullName: strings.TrimSpace(req.FullName),
		Phone:    strings.TrimSpace(req.Phone),
		Level:    strings.TrimSpace(req.Level),
		Active:   true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if err := s.ensureUniqueEmail(ctx, req.Email, id); err != nil {
		return nil, err
	}

	student.Email = strings.TrimSpace(req.Email)
	student.FullName = strings.TrimSpace(req.FullName)
	student.Phone = strings.TrimSpace(req.Phone)
	student.Level = strings.TrimSpace(req.Level)

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Deactivate withdraws a student and cascades through their lessons and
// relationships.
func (s *StudentService) Deactivate(ctx context.Context, id, actor string) (*models.CascadeResult, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return s.relationship.DeactivateStudent(ctx, id, actor)
}

// Schedule assembles the student-side view: active relationships plus every
// lesson placed for the student. Served read-through from cache.
func (s *StudentService) Schedule(ctx context.Context, id string) (*models.StudentSchedule, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	key := studentScheduleKey(id)
	var cached models.StudentSchedule
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	assignments, err := s.assignments.ListByStudent(ctx, id, true)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	lessons, err := s.placed.ListActiveByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list placed lessons")
	}
	schedule := &models.StudentSchedule{
		StudentID:   id,
		Assignments: assignments,
		Lessons:     lessons,
	}

	_ = s.cache.Set(ctx, key, schedule, 0)
	return schedule, nil
}

func (s *StudentService) ensureUniqueEmail(ctx context.Context, email, excludeID string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	return nil
}
