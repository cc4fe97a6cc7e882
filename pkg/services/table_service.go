package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-catalog/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-catalog/pkg/ddl"
	"github.com/ekaya-inc/ekaya-catalog/pkg/models"
	"github.com/ekaya-inc/ekaya-catalog/pkg/repositories"
)

// identifierPattern restricts table and lookup names to portable SQL
// identifiers, since they double as physical table names.
var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// TableService manages catalog tables and their physical tables.
type TableService interface {
	// Create registers a table and creates its physical table with the system
	// columns. An empty singularName defaults to the singular form of name.
	Create(ctx context.Context, name, singularName string) (*models.Table, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Table, error)
	List(ctx context.Context) ([]*models.Table, error)
	// Delete drops the physical table and removes the table with its columns.
	Delete(ctx context.Context, id uuid.UUID) error
}

type tableService struct {
	tableRepo repositories.TableRepository
	executor  ddl.Executor
	builder   *ddl.Builder
	logger    *zap.Logger
}

// NewTableService creates a new TableService whose physical tables live in
// physicalSchema.
func NewTableService(
	tableRepo repositories.TableRepository,
	executor ddl.Executor,
	physicalSchema string,
	logger *zap.Logger,
) TableService {
	return &tableService{
		tableRepo: tableRepo,
		executor:  executor,
		builder:   ddl.NewBuilder(physicalSchema),
		logger:    logger.Named("table-service"),
	}
}

var _ TableService = (*tableService)(nil)

func (s *tableService) Create(ctx context.Context, name, singularName string) (*models.Table, error) {
	name = strings.TrimSpace(name)
	if !identifierPattern.MatchString(name) {
		return nil, apperrors.NewValidationError("name",
			"name must start with a lowercase letter or underscore and contain only lowercase letters, digits and underscores")
	}

	singularName = strings.TrimSpace(singularName)
	if singularName == "" {
		singularName = inflection.Singular(name)
	}
	if !identifierPattern.MatchString(singularName) {
		return nil, apperrors.NewValidationError("singular_name",
			"singular_name must start with a lowercase letter or underscore and contain only lowercase letters, digits and underscores")
	}

	table := &models.Table{
		Name:         name,
		SingularName: singularName,
		PhysicalName: name,
	}
	if err := s.tableRepo.Create(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	if err := s.executor.Exec(ctx, s.builder.CreateTable(table)); err != nil {
		return nil, fmt.Errorf("failed to create physical table: %w", err)
	}

	s.logger.Info("Created table",
		zap.String("table_id", table.ID.String()),
		zap.String("name", table.Name),
		zap.String("singular_name", table.SingularName))
	return table, nil
}

func (s *tableService) Get(ctx context.Context, id uuid.UUID) (*models.Table, error) {
	table, err := s.tableRepo.GetByID(ctx, id, false)
	if err != nil {
		return nil, notFoundAs(err, "table", "failed to get table")
	}
	return table, nil
}

func (s *tableService) List(ctx context.Context) ([]*models.Table, error) {
	tables, err := s.tableRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return tables, nil
}

func (s *tableService) Delete(ctx context.Context, id uuid.UUID) error {
	table, err := s.tableRepo.GetByID(ctx, id, true)
	if err != nil {
		return notFoundAs(err, "table", "failed to lock table")
	}

	if err := s.executor.Exec(ctx, s.builder.DropTable(table)); err != nil {
		return fmt.Errorf("failed to drop physical table: %w", err)
	}
	if err := s.tableRepo.Delete(ctx, id); err != nil {
		return notFoundAs(err, "table", "failed to delete table")
	}

	s.logger.Info("Deleted table", zap.String("table_id", id.String()), zap.String("name", table.Name))
	return nil
}
