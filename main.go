package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-catalog/pkg/config"
	"github.com/ekaya-inc/ekaya-catalog/pkg/database"
	"github.com/ekaya-inc/ekaya-catalog/pkg/ddl"
	"github.com/ekaya-inc/ekaya-catalog/pkg/handlers"
	"github.com/ekaya-inc/ekaya-catalog/pkg/logging"
	"github.com/ekaya-inc/ekaya-catalog/pkg/mcp"
	"github.com/ekaya-inc/ekaya-catalog/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-catalog/pkg/repositories"
	"github.com/ekaya-inc/ekaya-catalog/pkg/retry"
	"github.com/ekaya-inc/ekaya-catalog/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ekaya-catalog",
		Short: "Column catalog that keeps physical tables in step with their definitions",
		Long: `ekaya-catalog stores table, column and lookup definitions in PostgreSQL
and applies every change to the physical tables they describe in the same
transaction.

Commands:
  serve    run the MCP server (stdio or streamable HTTP)
  migrate  apply catalog migrations and exit
  config   print the effective configuration`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the MCP server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply catalog migrations and exit",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration as YAML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := config.Load(configPath, Version)
				if err != nil {
					return err
				}
				return printConfig(cmd.OutOrStdout(), cfg)
			},
		},
	)
	return root
}

// newLogger builds a production logger at the configured level. Output goes
// to stderr so the stdio transport keeps stdout for protocol frames.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log_level %q: %w", level, err)
	}
	logConfig := zap.NewProductionConfig()
	logConfig.Level = lvl
	return logConfig.Build()
}

// printConfig writes cfg as YAML. Secrets carry yaml:"-" and never appear.
func printConfig(w io.Writer, cfg *config.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// setup loads config, builds the logger and opens a migrated database.
func setup(ctx context.Context) (*config.Config, *zap.Logger, *database.DB, error) {
	cfg, err := config.Load(configPath, Version)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	connStr := cfg.Database.ConnectionString()
	logger.Info("Connecting to database",
		zap.String("env", cfg.Env),
		zap.String("dsn", logging.SanitizeConnectionString(connStr)))

	// The database may still be starting when the catalog comes up in compose.
	db, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*database.DB, error) {
		return database.NewConnection(ctx, &database.Config{
			URL:            connStr,
			MaxConnections: cfg.Database.MaxConnections,
		}, logger)
	})
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %s", logging.SanitizeError(err))
	}

	if err := database.RunMigrations(db.StdlibDB(), logger); err != nil {
		db.Close()
		_ = logger.Sync()
		return nil, nil, nil, err
	}
	return cfg, logger, db, nil
}

func runMigrate(ctx context.Context) error {
	_, logger, db, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer db.Close()

	logger.Info("Catalog migrations are up to date")
	return nil
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, db, err := setup(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer db.Close()

	tableRepo := repositories.NewTableRepository()
	lookupRepo := repositories.NewLookupRepository()
	columnRepo := repositories.NewColumnRepository()
	executor := ddl.NewExecutor(logger)

	physicalSchema := cfg.Catalog.PhysicalSchema
	deps := &tools.CatalogToolDeps{
		DB: db,
		Columns: services.NewColumnService(columnRepo, tableRepo, lookupRepo, executor, services.ColumnServiceOptions{
			PhysicalSchema:     physicalSchema,
			ExecuteForeignKeys: cfg.Catalog.ExecuteForeignKeys,
			BackfillNotNull:    cfg.Catalog.BackfillNotNull,
		}, logger),
		Tables:  services.NewTableService(tableRepo, executor, physicalSchema, logger),
		Lookups: services.NewLookupService(lookupRepo, executor, physicalSchema, logger),
		Retry:   retry.WithMaxRetries(cfg.Retry.MaxRetries),
		Logger:  logger,
	}

	logger.Info("Starting ekaya-catalog",
		zap.String("version", cfg.Version),
		zap.String("transport", cfg.MCP.Transport),
		zap.String("physical_schema", physicalSchema))

	health := handlers.NewHealthHandler(cfg.Version, cfg.Env, db, logger.Named("health"))
	srv := mcp.NewServer("ekaya-catalog", cfg.Version, deps, logger, mcp.WithHealth(health))
	if err := srv.Run(ctx, cfg.MCP); err != nil {
		logger.Error("MCP server stopped", zap.Error(err))
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}
