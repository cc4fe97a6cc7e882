package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-catalog/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-catalog/pkg/models"
)

// TableRepository provides data access for catalog_tables.
type TableRepository interface {
	Create(ctx context.Context, table *models.Table) error
	// GetByID returns the table; forUpdate locks the row until the unit of
	// work ends.
	GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Table, error)
	List(ctx context.Context) ([]*models.Table, error)
	// AdjustColumnCount adds delta to column_count.
	AdjustColumnCount(ctx context.Context, id uuid.UUID, delta int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type tableRepository struct{}

// NewTableRepository creates a new TableRepository.
func NewTableRepository() TableRepository {
	return &tableRepository{}
}

var _ TableRepository = (*tableRepository)(nil)

const tableColumns = `id, name, singular_name, physical_name, column_count, created_at, updated_at`

func (r *tableRepository) Create(ctx context.Context, table *models.Table) error {
	c, err := conn(ctx)
	if err != nil {
		return err
	}

	if table.ID == uuid.Nil {
		table.ID = uuid.New()
	}
	now := time.Now()
	table.CreatedAt = now
	table.UpdatedAt = now

	query := `
		INSERT INTO catalog_tables (` + tableColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = c.Exec(ctx, query,
		table.ID, table.Name, table.SingularName, table.PhysicalName,
		table.ColumnCount, table.CreatedAt, table.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "failed to create table")
	}
	return nil
}

func (r *tableRepository) GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Table, error) {
	c, err := conn(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + tableColumns + ` FROM catalog_tables WHERE id = $1` + lockClause(forUpdate)

	t, err := scanTable(c.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapReadError(err, "failed to get table")
	}
	return t, nil
}

func (r *tableRepository) List(ctx context.Context) ([]*models.Table, error) {
	c, err := conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := c.Query(ctx, `SELECT `+tableColumns+` FROM catalog_tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []*models.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

func (r *tableRepository) AdjustColumnCount(ctx context.Context, id uuid.UUID, delta int) error {
	c, err := conn(ctx)
	if err != nil {
		return err
	}

	tag, err := c.Exec(ctx, `
		UPDATE catalog_tables
		SET column_count = column_count + $2, updated_at = now()
		WHERE id = $1`, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust column count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *tableRepository) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := conn(ctx)
	if err != nil {
		return err
	}

	tag, err := c.Exec(ctx, `DELETE FROM catalog_tables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanTable(row pgx.Row) (*models.Table, error) {
	var t models.Table
	err := row.Scan(&t.ID, &t.Name, &t.SingularName, &t.PhysicalName,
		&t.ColumnCount, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
