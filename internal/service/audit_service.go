package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/maestoso/conservatory-api/internal/models"
	appErrors "github.com/maestoso/conservatory-api/pkg/errors"
)

type auditReader interface {
	ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// AuditService serves the audit trail written by the mutation middleware.
type AuditService struct {
	repo   auditReader
	logger *zap.Logger
}

// NewAuditService constructs the audit service.
func NewAuditService(repo auditReader, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// Recent returns the newest audit entries up to limit.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	entries, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit entries")
	}
	return entries, nil
}
