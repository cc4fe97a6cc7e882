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

// ColumnRepository provides data access for catalog_columns.
type ColumnRepository interface {
	Create(ctx context.Context, column *models.Column) error
	// GetByID returns the column; forUpdate locks the row until the unit of
	// work ends.
	GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Column, error)
	// List returns every column ordered by id.
	List(ctx context.Context) ([]*models.Column, error)
	ListByTable(ctx context.Context, tableID uuid.UUID) ([]*models.Column, error)
	Update(ctx context.Context, column *models.Column) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// ExistsByName reports whether tableID already has a column called name,
	// ignoring the column identified by excludeID when it is not uuid.Nil.
	ExistsByName(ctx context.Context, tableID uuid.UUID, name string, excludeID uuid.UUID) (bool, error)
}

type columnRepository struct{}

// NewColumnRepository creates a new ColumnRepository.
func NewColumnRepository() ColumnRepository {
	return &columnRepository{}
}

var _ ColumnRepository = (*columnRepository)(nil)

const columnColumns = `id, table_id, column_type, foreign_key_table_id, lookup_id,
	name_qualifier, name, data_type, length_or_precision, scale, is_not_null,
	initial_value, position_number, position_in_unique_key, created_at, updated_at`

func (r *columnRepository) Create(ctx context.Context, column *models.Column) error {
	c, err := conn(ctx)
	if err != nil {
		return err
	}

	if column.ID == uuid.Nil {
		column.ID = uuid.New()
	}
	now := time.Now()
	column.CreatedAt = now
	column.UpdatedAt = now

	query := `
		INSERT INTO catalog_columns (` + columnColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err = c.Exec(ctx, query,
		column.ID,
		column.TableID,
		column.Kind,
		column.ForeignKeyTableID,
		column.LookupID,
		column.NameQualifier,
		column.Name,
		column.DataType,
		column.LengthOrPrecision,
		column.Scale,
		column.IsNotNull,
		column.InitialValue,
		column.PositionNumber,
		column.PositionInUniqueKey,
		column.CreatedAt,
		column.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "failed to create column")
	}
	return nil
}

func (r *columnRepository) GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*models.Column, error) {
	c, err := conn(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + columnColumns + ` FROM catalog_columns WHERE id = $1` + lockClause(forUpdate)

	col, err := scanColumn(c.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapReadError(err, "failed to get column")
	}
	return col, nil
}

func (r *columnRepository) List(ctx context.Context) ([]*models.Column, error) {
	return r.list(ctx, `SELECT `+columnColumns+` FROM catalog_columns ORDER BY id`)
}

func (r *columnRepository) ListByTable(ctx context.Context, tableID uuid.UUID) ([]*models.Column, error) {
	return r.list(ctx, `
		SELECT `+columnColumns+` FROM catalog_columns
		WHERE table_id = $1
		ORDER BY position_number`, tableID)
}

func (r *columnRepository) list(ctx context.Context, query string, args ...any) ([]*models.Column, error) {
	c, err := conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := c.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	defer rows.Close()

	columns := make([]*models.Column, 0)
	for rows.Next() {
		col, err := scanColumn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	return columns, nil
}

// Update rewrites every data field of the column. position_number and
// created_at are never changed after creation.
func (r *columnRepository) Update(ctx context.Context, column *models.Column) error {
	c, err := conn(ctx)
	if err != nil {
		return err
	}

	column.UpdatedAt = time.Now()

	query := `
		UPDATE catalog_columns
		SET table_id = $2,
		    column_type = $3,
		    foreign_key_table_id = $4,
		    lookup_id = $5,
		    name_qualifier = $6,
		    name = $7,
		    data_type = $8,
		    length_or_precision = $9,
		    scale = $10,
		    is_not_null = $11,
		    initial_value = $12,
		    position_in_unique_key = $13,
		    updated_at = $14
		WHERE id = $1`

	tag, err := c.Exec(ctx, query,
		column.ID,
		column.TableID,
		column.Kind,
		column.ForeignKeyTableID,
		column.LookupID,
		column.NameQualifier,
		column.Name,
		column.DataType,
		column.LengthOrPrecision,
		column.Scale,
		column.IsNotNull,
		column.InitialValue,
		column.PositionInUniqueKey,
		column.UpdatedAt,
	)
	if err != nil {
		return mapWriteError(err, "failed to update column")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *columnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	c, err := conn(ctx)
	if err != nil {
		return err
	}

	tag, err := c.Exec(ctx, `DELETE FROM catalog_columns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete column: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *columnRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	c, err := conn(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	err = c.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM catalog_columns WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check column id: %w", err)
	}
	return exists, nil
}

func (r *columnRepository) ExistsByName(ctx context.Context, tableID uuid.UUID, name string, excludeID uuid.UUID) (bool, error) {
	c, err := conn(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	err = c.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM catalog_columns
			WHERE table_id = $1 AND name = $2 AND id <> $3
		)`, tableID, name, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check column name: %w", err)
	}
	return exists, nil
}

func scanColumn(row pgx.Row) (*models.Column, error) {
	var col models.Column
	err := row.Scan(
		&col.ID,
		&col.TableID,
		&col.Kind,
		&col.ForeignKeyTableID,
		&col.LookupID,
		&col.NameQualifier,
		&col.Name,
		&col.DataType,
		&col.LengthOrPrecision,
		&col.Scale,
		&col.IsNotNull,
		&col.InitialValue,
		&col.PositionNumber,
		&col.PositionInUniqueKey,
		&col.CreatedAt,
		&col.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &col, nil
}
