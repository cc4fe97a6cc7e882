package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-catalog/pkg/database"
)

// PostgresImage is the image every integration test runs against.
const PostgresImage = "postgres:16-alpine"

// PhysicalSchema holds the physical tables created by integration tests.
const PhysicalSchema = "catalog_test"

// CatalogDB holds a shared test database container with the catalog
// migrations applied.
type CatalogDB struct {
	Container testcontainers.Container
	DB        *database.DB
	ConnStr   string
}

var (
	sharedCatalogDB     *CatalogDB
	sharedCatalogDBOnce sync.Once
	sharedCatalogDBErr  error
)

// GetCatalogDB returns a shared PostgreSQL container for integration tests.
// The container is created once and reused across all tests in the run.
// Call Reset at the start of each test for a clean catalog.
func GetCatalogDB(t *testing.T) *CatalogDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedCatalogDBOnce.Do(func() {
		sharedCatalogDB, sharedCatalogDBErr = setupCatalogDB()
	})

	if sharedCatalogDBErr != nil {
		t.Fatalf("Failed to setup catalog database: %v", sharedCatalogDBErr)
	}

	return sharedCatalogDB
}

func setupCatalogDB() (*CatalogDB, error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		PostgresImage,
		postgres.WithDatabase("catalog_test"),
		postgres.WithUsername("ekaya"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: 5,
	}, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to catalog database: %w", err)
	}

	// golang-migrate needs database/sql; share the pool through the pgx stdlib adapter.
	if err := database.RunMigrations(db.StdlibDB(), zap.NewNop()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &CatalogDB{
		Container: container,
		DB:        db,
		ConnStr:   connStr,
	}, nil
}

// Reset empties the catalog tables and recreates the physical schema.
func (c *CatalogDB) Reset(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	stmts := []string{
		"TRUNCATE catalog_columns, catalog_tables, catalog_lookups CASCADE",
		"DROP SCHEMA IF EXISTS " + pgx.Identifier{PhysicalSchema}.Sanitize() + " CASCADE",
		"CREATE SCHEMA " + pgx.Identifier{PhysicalSchema}.Sanitize(),
	}
	for _, stmt := range stmts {
		if _, err := c.DB.Pool.Exec(ctx, stmt); err != nil {
			t.Fatalf("failed to reset catalog database (%s): %v", stmt, err)
		}
	}
}

// InTx runs fn in a transaction that is always rolled back, so a test can
// call repositories directly without leaving rows behind.
func (c *CatalogDB) InTx(t *testing.T, fn func(ctx context.Context)) {
	t.Helper()
	ctx := context.Background()

	tx, err := c.DB.Pool.Begin(ctx)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	fn(database.SetUnitOfWork(ctx, database.NewUnitOfWork(tx)))
}

// PhysicalColumn describes a column as information_schema reports it.
type PhysicalColumn struct {
	Name       string
	DataType   string
	IsNullable bool
}

// PhysicalColumns returns the columns of a physical table in ordinal order.
func (c *CatalogDB) PhysicalColumns(t *testing.T, table string) []PhysicalColumn {
	t.Helper()
	ctx := context.Background()

	rows, err := c.DB.Pool.Query(ctx, `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, PhysicalSchema, table)
	if err != nil {
		t.Fatalf("failed to query physical columns: %v", err)
	}
	defer rows.Close()

	var cols []PhysicalColumn
	for rows.Next() {
		var col PhysicalColumn
		if err := rows.Scan(&col.Name, &col.DataType, &col.IsNullable); err != nil {
			t.Fatalf("failed to scan physical column: %v", err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("failed to read physical columns: %v", err)
	}
	return cols
}

// ForeignKeyCount returns the number of foreign-key constraints on a
// physical table.
func (c *CatalogDB) ForeignKeyCount(t *testing.T, table string) int {
	t.Helper()

	var n int
	err := c.DB.Pool.QueryRow(context.Background(), `
		SELECT COUNT(*)
		FROM information_schema.table_constraints
		WHERE table_schema = $1 AND table_name = $2 AND constraint_type = 'FOREIGN KEY'`,
		PhysicalSchema, table).Scan(&n)
	if err != nil {
		t.Fatalf("failed to count foreign keys: %v", err)
	}
	return n
}
