//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-catalog/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-catalog/pkg/database"
	"github.com/ekaya-inc/ekaya-catalog/pkg/models"
	"github.com/ekaya-inc/ekaya-catalog/pkg/testhelpers"
)

// catalogTestContext holds test dependencies for catalog repository tests.
type catalogTestContext struct {
	t       *testing.T
	db      *testhelpers.CatalogDB
	tables  TableRepository
	lookups LookupRepository
	columns ColumnRepository
}

// setupCatalogTest initializes the test context with a clean shared testcontainer.
func setupCatalogTest(t *testing.T) *catalogTestContext {
	db := testhelpers.GetCatalogDB(t)
	db.Reset(t)
	return &catalogTestContext{
		t:       t,
		db:      db,
		tables:  NewTableRepository(),
		lookups: NewLookupRepository(),
		columns: NewColumnRepository(),
	}
}

func (tc *catalogTestContext) createTable(ctx context.Context, name string) *models.Table {
	tc.t.Helper()
	table := &models.Table{Name: name, SingularName: name + "_item", PhysicalName: name}
	require.NoError(tc.t, tc.tables.Create(ctx, table))
	return table
}

func (tc *catalogTestContext) createColumn(ctx context.Context, tableID uuid.UUID, name string, position int) *models.Column {
	tc.t.Helper()
	col := &models.Column{
		TableID:           tableID,
		Kind:              models.ColumnKindBase,
		Name:              name,
		DataType:          models.DataTypeVarchar,
		LengthOrPrecision: intPtr(30),
		PositionNumber:    position,
	}
	require.NoError(tc.t, tc.columns.Create(ctx, col))
	return col
}

func intPtr(v int) *int { return &v }

func TestRepositories_RequireUnitOfWork(t *testing.T) {
	_, err := NewTableRepository().List(context.Background())
	assert.ErrorIs(t, err, database.ErrNoUnitOfWork)
}

func TestTableRepository_CreateGetAdjust(t *testing.T) {
	tc := setupCatalogTest(t)

	tc.db.InTx(t, func(ctx context.Context) {
		table := tc.createTable(ctx, "widgets")

		got, err := tc.tables.GetByID(ctx, table.ID, true)
		require.NoError(t, err)
		assert.Equal(t, "widgets", got.Name)
		assert.Equal(t, 0, got.ColumnCount)

		require.NoError(t, tc.tables.AdjustColumnCount(ctx, table.ID, 1))
		require.NoError(t, tc.tables.AdjustColumnCount(ctx, table.ID, 1))
		require.NoError(t, tc.tables.AdjustColumnCount(ctx, table.ID, -1))

		got, err = tc.tables.GetByID(ctx, table.ID, false)
		require.NoError(t, err)
		assert.Equal(t, 1, got.ColumnCount)
	})
}

func TestTableRepository_DuplicateNameConflicts(t *testing.T) {
	tc := setupCatalogTest(t)

	tc.db.InTx(t, func(ctx context.Context) {
		tc.createTable(ctx, "widgets")
		err := tc.tables.Create(ctx, &models.Table{Name: "widgets", SingularName: "widget", PhysicalName: "widgets2"})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})
}

func TestTableRepository_NotFound(t *testing.T) {
	tc := setupCatalogTest(t)

	tc.db.InTx(t, func(ctx context.Context) {
		_, err := tc.tables.GetByID(ctx, uuid.New(), false)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		err = tc.tables.AdjustColumnCount(ctx, uuid.New(), 1)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestLookupRepository_CreateGet(t *testing.T) {
	tc := setupCatalogTest(t)

	tc.db.InTx(t, func(ctx context.Context) {
		desc := "Paint colors"
		lookup := &models.Lookup{LookupType: "color", Description: &desc}
		require.NoError(t, tc.lookups.Create(ctx, lookup))

		got, err := tc.lookups.GetByID(ctx, lookup.ID)
		require.NoError(t, err)
		assert.Equal(t, "color", got.LookupType)
		assert.Equal(t, "Paint colors", *got.Description)

		err = tc.lookups.Create(ctx, &models.Lookup{LookupType: "color"})
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})
}

func TestColumnRepository_CRUD(t *testing.T) {
	tc := setupCatalogTest(t)

	tc.db.InTx(t, func(ctx context.Context) {
		table := tc.createTable(ctx, "widgets")
		col := tc.createColumn(ctx, table.ID, "label", 1)

		got, err := tc.columns.GetByID(ctx, col.ID, true)
		require.NoError(t, err)
		assert.Equal(t, "label", got.Name)
		assert.Equal(t, 30, *got.LengthOrPrecision)
		assert.Nil(t, got.Scale)
		assert.Equal(t, 1, got.PositionNumber)

		got.Name = "title"
		got.IsNotNull = true
		got.PositionNumber = 99
		require.NoError(t, tc.columns.Update(ctx, got))

		updated, err := tc.columns.GetByID(ctx, col.ID, false)
		require.NoError(t, err)
		assert.Equal(t, "title", updated.Name)
		assert.True(t, updated.IsNotNull)
		assert.Equal(t, 1, updated.PositionNumber, "position is fixed at creation")

		exists, err := tc.columns.Exists(ctx, col.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, tc.columns.Delete(ctx, col.ID))
		_, err = tc.columns.GetByID(ctx, col.ID, false)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.ErrorIs(t, tc.columns.Delete(ctx, col.ID), apperrors.ErrNotFound)
	})
}

func TestColumnRepository_NameUniquePerTable(t *testing.T) {
	tc := setupCatalogTest(t)

	tc.db.InTx(t, func(ctx context.Context) {
		widgets := tc.createTable(ctx, "widgets")
		gadgets := tc.createTable(ctx, "gadgets")
		label := tc.createColumn(ctx, widgets.ID, "label", 1)

		exists, err := tc.columns.ExistsByName(ctx, widgets.ID, "label", uuid.Nil)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = tc.columns.ExistsByName(ctx, widgets.ID, "label", label.ID)
		require.NoError(t, err)
		assert.False(t, exists, "a column does not collide with itself")

		exists, err = tc.columns.ExistsByName(ctx, gadgets.ID, "label", uuid.Nil)
		require.NoError(t, err)
		assert.False(t, exists)

		dup := &models.Column{
			TableID: widgets.ID, Kind: models.ColumnKindBase, Name: "label",
			DataType: models.DataTypeText, PositionNumber: 2,
		}
		assert.ErrorIs(t, tc.columns.Create(ctx, dup), apperrors.ErrConflict)
	})
}

func TestColumnRepository_ListOrdering(t *testing.T) {
	tc := setupCatalogTest(t)

	tc.db.InTx(t, func(ctx context.Context) {
		widgets := tc.createTable(ctx, "widgets")
		tc.createColumn(ctx, widgets.ID, "c", 3)
		tc.createColumn(ctx, widgets.ID, "a", 1)
		tc.createColumn(ctx, widgets.ID, "b", 2)

		byTable, err := tc.columns.ListByTable(ctx, widgets.ID)
		require.NoError(t, err)
		require.Len(t, byTable, 3)
		assert.Equal(t, []string{"a", "b", "c"}, []string{byTable[0].Name, byTable[1].Name, byTable[2].Name})

		all, err := tc.columns.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i := 1; i < len(all); i++ {
			assert.Less(t, all[i-1].ID.String(), all[i].ID.String())
		}
	})
}
