package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/ekaya-catalog/pkg/models"
)

// LookupRepository provides data access for catalog_lookups.
type LookupRepository interface {
	Create(ctx context.Context, lookup *models.Lookup) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Lookup, error)
	List(ctx context.Context) ([]*models.Lookup, error)
}

type lookupRepository struct{}

// NewLookupRepository creates a new LookupRepository.
func NewLookupRepository() LookupRepository {
	return &lookupRepository{}
}

var _ LookupRepository = (*lookupRepository)(nil)

const lookupColumns = `id, lookup_type, description, created_at`

func (r *lookupRepository) Create(ctx context.Context, lookup *models.Lookup) error {
	c, err := conn(ctx)
	if err != nil {
		return err
	}

	if lookup.ID == uuid.Nil {
		lookup.ID = uuid.New()
	}
	lookup.CreatedAt = time.Now()

	_, err = c.Exec(ctx, `
		INSERT INTO catalog_lookups (`+lookupColumns+`)
		VALUES ($1, $2, $3, $4)`,
		lookup.ID, lookup.LookupType, lookup.Description, lookup.CreatedAt)
	if err != nil {
		return mapWriteError(err, "failed to create lookup")
	}
	return nil
}

func (r *lookupRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Lookup, error) {
	c, err := conn(ctx)
	if err != nil {
		return nil, err
	}

	l, err := scanLookup(c.QueryRow(ctx, `SELECT `+lookupColumns+` FROM catalog_lookups WHERE id = $1`, id))
	if err != nil {
		return nil, mapReadError(err, "failed to get lookup")
	}
	return l, nil
}

func (r *lookupRepository) List(ctx context.Context) ([]*models.Lookup, error) {
	c, err := conn(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := c.Query(ctx, `SELECT `+lookupColumns+` FROM catalog_lookups ORDER BY lookup_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to list lookups: %w", err)
	}
	defer rows.Close()

	var lookups []*models.Lookup
	for rows.Next() {
		l, err := scanLookup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lookup: %w", err)
		}
		lookups = append(lookups, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lookups: %w", err)
	}
	return lookups, nil
}

func scanLookup(row pgx.Row) (*models.Lookup, error) {
	var l models.Lookup
	if err := row.Scan(&l.ID, &l.LookupType, &l.Description, &l.CreatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}
