package services

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-catalog/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-catalog/pkg/models"
)

// ============================================================================
// In-memory repositories for catalog service tests
// ============================================================================

type mockTableRepo struct {
	tables    map[uuid.UUID]*models.Table
	lockedIDs []uuid.UUID
	createErr error
}

func newMockTableRepo() *mockTableRepo {
	return &mockTableRepo{tables: make(map[uuid.UUID]*models.Table)}
}

// add stores a table directly, bypassing the service.
func (m *mockTableRepo) add(name, singular string, columnCount int) *models.Table {
	t := &models.Table{
		ID:           uuid.New(),
		Name:         name,
		SingularName: singular,
		PhysicalName: name,
		ColumnCount:  columnCount,
	}
	m.tables[t.ID] = t
	return t
}

func (m *mockTableRepo) count(id uuid.UUID) int {
	return m.tables[id].ColumnCount
}

func (m *mockTableRepo) Create(ctx context.Context, table *models.Table) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, t := range m.tables {
		if t.Name == table.Name {
			return apperrors.ErrConflict
		}
	}
	if table.ID == uuid.Nil {
		table.ID = uuid.New()
	}
	stored := *table
	m.tables[table.ID] = &stored
	return nil
}

func (m *mockTableRepo) GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Table, error) {
	t, ok := m.tables[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if forUpdate {
		m.lockedIDs = append(m.lockedIDs, id)
	}
	copied := *t
	return &copied, nil
}

func (m *mockTableRepo) List(ctx context.Context) ([]*models.Table, error) {
	var out []*models.Table
	for _, t := range m.tables {
		copied := *t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockTableRepo) AdjustColumnCount(ctx context.Context, id uuid.UUID, delta int) error {
	t, ok := m.tables[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.ColumnCount += delta
	return nil
}

func (m *mockTableRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.tables[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.tables, id)
	return nil
}

type mockLookupRepo struct {
	lookups map[uuid.UUID]*models.Lookup
}

func newMockLookupRepo() *mockLookupRepo {
	return &mockLookupRepo{lookups: make(map[uuid.UUID]*models.Lookup)}
}

func (m *mockLookupRepo) add(lookupType string) *models.Lookup {
	l := &models.Lookup{ID: uuid.New(), LookupType: lookupType}
	m.lookups[l.ID] = l
	return l
}

func (m *mockLookupRepo) Create(ctx context.Context, lookup *models.Lookup) error {
	if lookup.ID == uuid.Nil {
		lookup.ID = uuid.New()
	}
	stored := *lookup
	m.lookups[lookup.ID] = &stored
	return nil
}

func (m *mockLookupRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Lookup, error) {
	l, ok := m.lookups[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *l
	return &copied, nil
}

func (m *mockLookupRepo) List(ctx context.Context) ([]*models.Lookup, error) {
	var out []*models.Lookup
	for _, l := range m.lookups {
		copied := *l
		out = append(out, &copied)
	}
	return out, nil
}

type mockColumnRepo struct {
	columns     map[uuid.UUID]*models.Column
	createCalls int
	updateCalls int
}

func newMockColumnRepo() *mockColumnRepo {
	return &mockColumnRepo{columns: make(map[uuid.UUID]*models.Column)}
}

func (m *mockColumnRepo) Create(ctx context.Context, column *models.Column) error {
	m.createCalls++
	if column.ID == uuid.Nil {
		column.ID = uuid.New()
	}
	if _, exists := m.columns[column.ID]; exists {
		return apperrors.ErrConflict
	}
	for _, c := range m.columns {
		if c.TableID == column.TableID && c.Name == column.Name {
			return apperrors.ErrConflict
		}
	}
	stored := *column
	m.columns[column.ID] = &stored
	return nil
}

func (m *mockColumnRepo) GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Column, error) {
	c, ok := m.columns[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (m *mockColumnRepo) List(ctx context.Context) ([]*models.Column, error) {
	out := make([]*models.Column, 0, len(m.columns))
	for _, c := range m.columns {
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (m *mockColumnRepo) ListByTable(ctx context.Context, tableID uuid.UUID) ([]*models.Column, error) {
	var out []*models.Column
	for _, c := range m.columns {
		if c.TableID == tableID {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PositionNumber < out[j].PositionNumber })
	return out, nil
}

func (m *mockColumnRepo) Update(ctx context.Context, column *models.Column) error {
	m.updateCalls++
	if _, ok := m.columns[column.ID]; !ok {
		return apperrors.ErrNotFound
	}
	stored := *column
	m.columns[column.ID] = &stored
	return nil
}

func (m *mockColumnRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.columns[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.columns, id)
	return nil
}

func (m *mockColumnRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := m.columns[id]
	return ok, nil
}

func (m *mockColumnRepo) ExistsByName(ctx context.Context, tableID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	for _, c := range m.columns {
		if c.TableID == tableID && c.Name == name && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}
