package tools

import (
	"context"

	"github.com/google/uuid"

	"github.com/ekaya-inc/ekaya-catalog/pkg/models"
)

// fakeTransactor runs fn directly and counts transactions.
type fakeTransactor struct {
	calls int
}

func (f *fakeTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeColumnService struct {
	createFn func(ctx context.Context, draft *models.ColumnDraft) (*models.Column, error)
	updateFn func(ctx context.Context, id uuid.UUID, patch *models.ColumnPatch) (*models.Column, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*models.Column, error)
	deleteFn func(ctx context.Context, id uuid.UUID) error

	lastDraft     *models.ColumnDraft
	lastPatch     *models.ColumnPatch
	listedTableID uuid.UUID
}

func (f *fakeColumnService) Create(ctx context.Context, draft *models.ColumnDraft) (*models.Column, error) {
	f.lastDraft = draft
	if f.createFn != nil {
		return f.createFn(ctx, draft)
	}
	c := draft.ToColumn()
	c.ID = uuid.New()
	c.PositionNumber = 1
	return c, nil
}

func (f *fakeColumnService) List(ctx context.Context) ([]*models.Column, error) {
	return []*models.Column{}, nil
}

func (f *fakeColumnService) ListByTable(ctx context.Context, tableID uuid.UUID) ([]*models.Column, error) {
	f.listedTableID = tableID
	return []*models.Column{{ID: uuid.New(), TableID: tableID, Name: "label", PositionNumber: 1}}, nil
}

func (f *fakeColumnService) Get(ctx context.Context, id uuid.UUID) (*models.Column, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return &models.Column{ID: id, Name: "label"}, nil
}

func (f *fakeColumnService) Update(ctx context.Context, id uuid.UUID, patch *models.ColumnPatch) (*models.Column, error) {
	f.lastPatch = patch
	if f.updateFn != nil {
		return f.updateFn(ctx, id, patch)
	}
	return (&models.Column{ID: id, Name: "label"}).Merge(patch), nil
}

func (f *fakeColumnService) Delete(ctx context.Context, id uuid.UUID) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

type fakeTableService struct {
	createdName, createdSingular string
}

func (f *fakeTableService) Create(ctx context.Context, name, singularName string) (*models.Table, error) {
	f.createdName, f.createdSingular = name, singularName
	return &models.Table{ID: uuid.New(), Name: name, SingularName: "widget", PhysicalName: name}, nil
}

func (f *fakeTableService) Get(ctx context.Context, id uuid.UUID) (*models.Table, error) {
	return &models.Table{ID: id}, nil
}

func (f *fakeTableService) List(ctx context.Context) ([]*models.Table, error) {
	return []*models.Table{}, nil
}

func (f *fakeTableService) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

type fakeLookupService struct {
	createdDescription *string
}

func (f *fakeLookupService) Create(ctx context.Context, lookupType string, description *string) (*models.Lookup, error) {
	f.createdDescription = description
	return &models.Lookup{ID: uuid.New(), LookupType: lookupType, Description: description}, nil
}

func (f *fakeLookupService) Get(ctx context.Context, id uuid.UUID) (*models.Lookup, error) {
	return &models.Lookup{ID: id}, nil
}

func (f *fakeLookupService) List(ctx context.Context) ([]*models.Lookup, error) {
	return []*models.Lookup{}, nil
}
