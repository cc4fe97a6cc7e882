package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-catalog/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-catalog/pkg/ddl"
	"github.com/ekaya-inc/ekaya-catalog/pkg/models"
	"github.com/ekaya-inc/ekaya-catalog/pkg/repositories"
)

// ColumnService manages catalog columns and keeps each owning table's
// physical structure and column_count in step with them. Every method runs
// on the unit of work carried by ctx and never commits or retries.
type ColumnService interface {
	// Create validates the draft, stores the column, adds the physical column
	// and increments the owner's column_count.
	Create(ctx context.Context, draft *models.ColumnDraft) (*models.Column, error)

	// List returns every column ordered by id.
	List(ctx context.Context) ([]*models.Column, error)

	// ListByTable returns the columns of one table ordered by position.
	ListByTable(ctx context.Context, tableID uuid.UUID) ([]*models.Column, error)

	// Get returns a single column by id.
	Get(ctx context.Context, id uuid.UUID) (*models.Column, error)

	// Update applies a partial update. Only the name, the name qualifier,
	// nullability, the initial value and the unique-key position may change.
	Update(ctx context.Context, id uuid.UUID, patch *models.ColumnPatch) (*models.Column, error)

	// Delete drops the physical column, decrements the owner's column_count
	// and removes the column.
	Delete(ctx context.Context, id uuid.UUID) error
}

// ColumnServiceOptions holds the configurable parts of physical schema sync.
type ColumnServiceOptions struct {
	// PhysicalSchema qualifies every physical table name. Empty means the
	// connection's search_path decides.
	PhysicalSchema string
	// ExecuteForeignKeys runs the add-constraint statement for foreign-key
	// and lookup columns. When false the statement is only logged.
	ExecuteForeignKeys bool
	// BackfillNotNull adds NOT NULL columns that carry an initial value in
	// three steps so existing rows receive the value first.
	BackfillNotNull bool
}

type columnService struct {
	columnRepo repositories.ColumnRepository
	tableRepo  repositories.TableRepository
	lookupRepo repositories.LookupRepository
	executor   ddl.Executor
	builder    *ddl.Builder
	opts       ColumnServiceOptions
	logger     *zap.Logger
}

// NewColumnService creates a new ColumnService.
func NewColumnService(
	columnRepo repositories.ColumnRepository,
	tableRepo repositories.TableRepository,
	lookupRepo repositories.LookupRepository,
	executor ddl.Executor,
	opts ColumnServiceOptions,
	logger *zap.Logger,
) ColumnService {
	return &columnService{
		columnRepo: columnRepo,
		tableRepo:  tableRepo,
		lookupRepo: lookupRepo,
		executor:   executor,
		builder:    ddl.NewBuilder(opts.PhysicalSchema),
		opts:       opts,
		logger:     logger.Named("column-service"),
	}
}

var _ ColumnService = (*columnService)(nil)

// ============================================================================
// Create
// ============================================================================

type createColumnState struct {
	draft  *models.ColumnDraft
	column *models.Column
	owner  *models.Table
	// instanceName and reference are resolved for foreign-key and lookup columns.
	instanceName string
	reference    *ddl.Reference
}

func (s *columnService) Create(ctx context.Context, draft *models.ColumnDraft) (*models.Column, error) {
	state := &createColumnState{draft: draft, column: draft.ToColumn()}

	err := runSteps(ctx, s.logger, state, []step[*createColumnState]{
		{name: "check primary key", run: s.checkPrimaryKey},
		{name: "lock owner", run: s.lockOwnerForCreate},
		{name: "check kind", run: s.checkKind},
		{name: "check references", run: s.checkReferences},
		{name: "check name", run: s.checkName},
		{name: "check unique name", run: s.checkUniqueName},
		{name: "check data type", run: s.checkDataType},
		{name: "check length and scale", run: s.checkLengthAndScale},
		{name: "assign position", run: s.assignPosition},
		{name: "persist", run: s.persistNewColumn},
		{name: "add physical column", run: s.addPhysicalColumn},
		{name: "add foreign key", run: s.addForeignKey, when: hasReference},
		{name: "increment column count", run: s.incrementColumnCount},
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Created column",
		zap.String("column_id", state.column.ID.String()),
		zap.String("table", state.owner.Name),
		zap.String("name", state.column.Name),
		zap.Int("position", state.column.PositionNumber))
	return state.column, nil
}

func (s *columnService) checkPrimaryKey(ctx context.Context, st *createColumnState) error {
	if st.draft.ID == nil {
		return nil
	}
	exists, err := s.columnRepo.Exists(ctx, *st.draft.ID)
	if err != nil {
		return fmt.Errorf("failed to check column id: %w", err)
	}
	if exists {
		return fmt.Errorf("column %s already exists: %w", *st.draft.ID, apperrors.ErrConflict)
	}
	return nil
}

func (s *columnService) lockOwnerForCreate(ctx context.Context, st *createColumnState) error {
	owner, err := s.tableRepo.GetByID(ctx, st.draft.TableID, true)
	if err != nil {
		return notFoundAs(err, "table", "failed to lock table")
	}
	st.owner = owner
	return nil
}

func (s *columnService) checkKind(_ context.Context, st *createColumnState) error {
	return validateKind(st.draft.Kind)
}

func (s *columnService) checkReferences(ctx context.Context, st *createColumnState) error {
	d := st.draft
	if err := validateForbiddenReferences(d.Kind, d.ForeignKeyTableID, d.LookupID); err != nil {
		return err
	}

	switch d.Kind {
	case models.ColumnKindForeignKey:
		id, err := requireReference(fieldForeignKeyTableID, d.ForeignKeyTableID)
		if err != nil {
			return err
		}
		foreign, err := s.tableRepo.GetByID(ctx, id, false)
		if err != nil {
			return notFoundAs(err, "table", "failed to resolve foreign key table")
		}
		ref := ddl.TableReference(foreign)
		st.instanceName = foreign.SingularName
		st.reference = &ref
	case models.ColumnKindLookup:
		id, err := requireReference(fieldLookupID, d.LookupID)
		if err != nil {
			return err
		}
		lookup, err := s.lookupRepo.GetByID(ctx, id)
		if err != nil {
			return notFoundAs(err, "lookup", "failed to resolve lookup")
		}
		ref := ddl.LookupReference(lookup)
		st.instanceName = lookup.LookupType
		st.reference = &ref
	case models.ColumnKindBase, models.ColumnKindURL:
		// No reference to resolve.
	}
	return nil
}

func (s *columnService) checkName(_ context.Context, st *createColumnState) error {
	return validateName(st.column, st.instanceName)
}

func (s *columnService) checkUniqueName(ctx context.Context, st *createColumnState) error {
	return s.ensureUniqueName(ctx, st.owner, st.column.Name, uuid.Nil)
}

func (s *columnService) checkDataType(_ context.Context, st *createColumnState) error {
	return validateDataType(st.column.DataType)
}

func (s *columnService) checkLengthAndScale(_ context.Context, st *createColumnState) error {
	return validateLengthAndScale(st.column.DataType, st.column.LengthOrPrecision, st.column.Scale)
}

func (s *columnService) assignPosition(_ context.Context, st *createColumnState) error {
	st.column.PositionNumber = st.owner.ColumnCount + 1
	return nil
}

func (s *columnService) persistNewColumn(ctx context.Context, st *createColumnState) error {
	if err := s.columnRepo.Create(ctx, st.column); err != nil {
		return fmt.Errorf("failed to persist column: %w", err)
	}
	return nil
}

func (s *columnService) addPhysicalColumn(ctx context.Context, st *createColumnState) error {
	if s.opts.BackfillNotNull {
		if plan := s.builder.BackfillPlan(st.owner, st.column); plan != nil {
			return s.execAll(ctx, plan...)
		}
	}
	return s.execAll(ctx, s.builder.AddColumn(st.owner, st.column))
}

func hasReference(st *createColumnState) bool {
	return st.reference != nil
}

func (s *columnService) addForeignKey(ctx context.Context, st *createColumnState) error {
	stmt := s.builder.AddForeignKey(st.owner, st.column, *st.reference)
	if !s.opts.ExecuteForeignKeys {
		s.logger.Info("Foreign key execution disabled; constraint not applied",
			zap.String("column_id", st.column.ID.String()),
			zap.String("sql", stmt.SQL))
		return nil
	}
	return s.execAll(ctx, stmt)
}

func (s *columnService) incrementColumnCount(ctx context.Context, st *createColumnState) error {
	if err := s.tableRepo.AdjustColumnCount(ctx, st.owner.ID, 1); err != nil {
		return fmt.Errorf("failed to increment column count: %w", err)
	}
	st.owner.ColumnCount++
	return nil
}

// ============================================================================
// Read
// ============================================================================

func (s *columnService) List(ctx context.Context) ([]*models.Column, error) {
	columns, err := s.columnRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	return columns, nil
}

func (s *columnService) ListByTable(ctx context.Context, tableID uuid.UUID) ([]*models.Column, error) {
	if _, err := s.tableRepo.GetByID(ctx, tableID, false); err != nil {
		return nil, notFoundAs(err, "table", "failed to get table")
	}
	columns, err := s.columnRepo.ListByTable(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	return columns, nil
}

func (s *columnService) Get(ctx context.Context, id uuid.UUID) (*models.Column, error) {
	column, err := s.columnRepo.GetByID(ctx, id, false)
	if err != nil {
		return nil, notFoundAs(err, "column", "failed to get column")
	}
	return column, nil
}

// ============================================================================
// Update
// ============================================================================

type updateColumnState struct {
	id      uuid.UUID
	patch   *models.ColumnPatch
	current *models.Column
	merged  *models.Column
	owner   *models.Table
}

func (st *updateColumnState) changed() bool {
	return !st.merged.SameData(st.current)
}

func (st *updateColumnState) nameChanged() bool {
	return st.changed() && st.merged.Name != st.current.Name
}

func (st *updateColumnState) namingChanged() bool {
	return st.nameChanged() || (st.changed() && !equalPtr(st.merged.NameQualifier, st.current.NameQualifier))
}

func (st *updateColumnState) nullabilityChanged() bool {
	return st.changed() && st.merged.IsNotNull != st.current.IsNotNull
}

func (s *columnService) Update(ctx context.Context, id uuid.UUID, patch *models.ColumnPatch) (*models.Column, error) {
	state := &updateColumnState{id: id, patch: patch}
	changed := (*updateColumnState).changed

	err := runSteps(ctx, s.logger, state, []step[*updateColumnState]{
		{name: "fetch locked", run: s.fetchLockedColumn},
		{name: "merge", run: s.mergePatch},
		{name: "check immutable fields", run: s.checkImmutableFields, when: changed},
		{name: "load owner", run: s.loadOwnerForUpdate, when: changed},
		{name: "check name", run: s.recheckName, when: (*updateColumnState).namingChanged},
		{name: "check unique name", run: s.recheckUniqueName, when: (*updateColumnState).nameChanged},
		{name: "persist", run: s.persistMergedColumn, when: changed},
		{name: "rename physical column", run: s.renamePhysicalColumn, when: (*updateColumnState).nameChanged},
		{name: "alter nullability", run: s.alterNullability, when: (*updateColumnState).nullabilityChanged},
	})
	if err != nil {
		return nil, err
	}

	if !state.changed() {
		s.logger.Debug("Update changed nothing", zap.String("column_id", id.String()))
		return state.current, nil
	}

	s.logger.Info("Updated column",
		zap.String("column_id", id.String()),
		zap.String("name", state.merged.Name))
	return state.merged, nil
}

func (s *columnService) fetchLockedColumn(ctx context.Context, st *updateColumnState) error {
	current, err := s.columnRepo.GetByID(ctx, st.id, true)
	if err != nil {
		return notFoundAs(err, "column", "failed to lock column")
	}
	st.current = current
	return nil
}

func (s *columnService) mergePatch(_ context.Context, st *updateColumnState) error {
	st.merged = st.current.Merge(st.patch)
	return nil
}

func (s *columnService) checkImmutableFields(_ context.Context, st *updateColumnState) error {
	return immutableChange(st.current, st.merged)
}

func (s *columnService) loadOwnerForUpdate(ctx context.Context, st *updateColumnState) error {
	owner, err := s.tableRepo.GetByID(ctx, st.current.TableID, false)
	if err != nil {
		return notFoundAs(err, "table", "failed to load table")
	}
	st.owner = owner
	return nil
}

func (s *columnService) recheckName(ctx context.Context, st *updateColumnState) error {
	instanceName, err := s.referencedInstanceName(ctx, st.merged)
	if err != nil {
		return err
	}
	return validateName(st.merged, instanceName)
}

func (s *columnService) recheckUniqueName(ctx context.Context, st *updateColumnState) error {
	return s.ensureUniqueName(ctx, st.owner, st.merged.Name, st.merged.ID)
}

func (s *columnService) persistMergedColumn(ctx context.Context, st *updateColumnState) error {
	if err := s.columnRepo.Update(ctx, st.merged); err != nil {
		return notFoundAs(err, "column", "failed to persist column")
	}
	return nil
}

func (s *columnService) renamePhysicalColumn(ctx context.Context, st *updateColumnState) error {
	return s.execAll(ctx, s.builder.RenameColumn(st.owner, st.current.Name, st.merged.Name))
}

func (s *columnService) alterNullability(ctx context.Context, st *updateColumnState) error {
	return s.execAll(ctx, s.builder.SetNotNull(st.owner, st.merged.Name, st.merged.IsNotNull))
}

// referencedInstanceName resolves the name segment a reference column's
// name is built from. It is empty for base and url columns.
func (s *columnService) referencedInstanceName(ctx context.Context, c *models.Column) (string, error) {
	switch c.Kind {
	case models.ColumnKindForeignKey:
		if c.ForeignKeyTableID == nil {
			return "", apperrors.NewValidationError(fieldForeignKeyTableID, "foreign_key_table_id cannot be null")
		}
		foreign, err := s.tableRepo.GetByID(ctx, *c.ForeignKeyTableID, false)
		if err != nil {
			return "", notFoundAs(err, "table", "failed to resolve foreign key table")
		}
		return foreign.SingularName, nil
	case models.ColumnKindLookup:
		if c.LookupID == nil {
			return "", apperrors.NewValidationError(fieldLookupID, "lookup_id cannot be null")
		}
		lookup, err := s.lookupRepo.GetByID(ctx, *c.LookupID)
		if err != nil {
			return "", notFoundAs(err, "lookup", "failed to resolve lookup")
		}
		return lookup.LookupType, nil
	default:
		return "", nil
	}
}

// ============================================================================
// Delete
// ============================================================================

type deleteColumnState struct {
	id     uuid.UUID
	column *models.Column
	owner  *models.Table
}

func (s *columnService) Delete(ctx context.Context, id uuid.UUID) error {
	state := &deleteColumnState{id: id}

	err := runSteps(ctx, s.logger, state, []step[*deleteColumnState]{
		{name: "fetch column", run: s.fetchColumnForDelete},
		{name: "lock owner", run: s.lockOwnerForDelete},
		{name: "drop physical column", run: s.dropPhysicalColumn},
		{name: "decrement column count", run: s.decrementColumnCount},
		{name: "delete row", run: s.deleteColumnRow},
	})
	if err != nil {
		return err
	}

	s.logger.Info("Deleted column",
		zap.String("column_id", id.String()),
		zap.String("table", state.owner.Name),
		zap.String("name", state.column.Name))
	return nil
}

func (s *columnService) fetchColumnForDelete(ctx context.Context, st *deleteColumnState) error {
	column, err := s.columnRepo.GetByID(ctx, st.id, false)
	if err != nil {
		return notFoundAs(err, "column", "failed to get column")
	}
	st.column = column
	return nil
}

func (s *columnService) lockOwnerForDelete(ctx context.Context, st *deleteColumnState) error {
	owner, err := s.tableRepo.GetByID(ctx, st.column.TableID, true)
	if err != nil {
		return notFoundAs(err, "table", "failed to lock table")
	}
	st.owner = owner
	return nil
}

func (s *columnService) dropPhysicalColumn(ctx context.Context, st *deleteColumnState) error {
	return s.execAll(ctx, s.builder.DropColumn(st.owner, st.column.Name))
}

func (s *columnService) decrementColumnCount(ctx context.Context, st *deleteColumnState) error {
	if err := s.tableRepo.AdjustColumnCount(ctx, st.owner.ID, -1); err != nil {
		return fmt.Errorf("failed to decrement column count: %w", err)
	}
	st.owner.ColumnCount--
	return nil
}

func (s *columnService) deleteColumnRow(ctx context.Context, st *deleteColumnState) error {
	if err := s.columnRepo.Delete(ctx, st.id); err != nil {
		return notFoundAs(err, "column", "failed to delete column")
	}
	return nil
}

// ============================================================================
// Helpers
// ============================================================================

func (s *columnService) ensureUniqueName(ctx context.Context, owner *models.Table, name string, excludeID uuid.UUID) error {
	exists, err := s.columnRepo.ExistsByName(ctx, owner.ID, name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check column name: %w", err)
	}
	if exists {
		return duplicateNameError(name, owner.Name)
	}
	return nil
}

func (s *columnService) execAll(ctx context.Context, stmts ...ddl.Statement) error {
	for _, stmt := range stmts {
		if err := s.executor.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to sync physical schema: %w", err)
		}
	}
	return nil
}

// notFoundAs replaces a repository not-found error with one naming entity,
// and wraps any other error with msg.
func notFoundAs(err error, entity, msg string) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewNotFoundError(entity)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
