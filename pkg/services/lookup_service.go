package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-catalog/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-catalog/pkg/ddl"
	"github.com/ekaya-inc/ekaya-catalog/pkg/models"
	"github.com/ekaya-inc/ekaya-catalog/pkg/repositories"
)

// LookupService manages lookup types and their physical code tables.
type LookupService interface {
	// Create registers a lookup type and creates its code table.
	Create(ctx context.Context, lookupType string, description *string) (*models.Lookup, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Lookup, error)
	List(ctx context.Context) ([]*models.Lookup, error)
}

type lookupService struct {
	lookupRepo repositories.LookupRepository
	executor   ddl.Executor
	builder    *ddl.Builder
	logger     *zap.Logger
}

// NewLookupService creates a new LookupService.
func NewLookupService(
	lookupRepo repositories.LookupRepository,
	executor ddl.Executor,
	physicalSchema string,
	logger *zap.Logger,
) LookupService {
	return &lookupService{
		lookupRepo: lookupRepo,
		executor:   executor,
		builder:    ddl.NewBuilder(physicalSchema),
		logger:     logger.Named("lookup-service"),
	}
}

var _ LookupService = (*lookupService)(nil)

func (s *lookupService) Create(ctx context.Context, lookupType string, description *string) (*models.Lookup, error) {
	lookupType = strings.TrimSpace(lookupType)
	if !identifierPattern.MatchString(lookupType) {
		return nil, apperrors.NewValidationError("lookup_type",
			"lookup_type must start with a lowercase letter or underscore and contain only lowercase letters, digits and underscores")
	}

	lookup := &models.Lookup{LookupType: lookupType, Description: description}
	if err := s.lookupRepo.Create(ctx, lookup); err != nil {
		return nil, fmt.Errorf("failed to create lookup: %w", err)
	}

	if err := s.executor.Exec(ctx, s.builder.CreateLookupTable(lookup)); err != nil {
		return nil, fmt.Errorf("failed to create lookup table: %w", err)
	}

	s.logger.Info("Created lookup",
		zap.String("lookup_id", lookup.ID.String()),
		zap.String("lookup_type", lookup.LookupType))
	return lookup, nil
}

func (s *lookupService) Get(ctx context.Context, id uuid.UUID) (*models.Lookup, error) {
	lookup, err := s.lookupRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "lookup", "failed to get lookup")
	}
	return lookup, nil
}

func (s *lookupService) List(ctx context.Context) ([]*models.Lookup, error) {
	lookups, err := s.lookupRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lookups: %w", err)
	}
	return lookups, nil
}
