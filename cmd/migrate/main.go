package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hopefultail/hopeful-tail-backend/pkg/config"
	"github.com/hopefultail/hopeful-tail-backend/pkg/db"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/migrate"
)

type options struct {
	dir      string
	embedded bool
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the hopeful tail database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	root.PersistentFlags().BoolVar(&opts.embedded, "embedded", false, "use the migrations compiled into the binary")

	for _, command := range []string{"up", "down", "status"} {
		root.AddCommand(gooseCmd(opts, command))
	}
	root.AddCommand(versionCmd(opts), createCmd(opts), validateCmd(opts))
	return root
}

func (o *options) source() migrate.Source {
	if o.embedded {
		return migrate.EmbeddedSource()
	}
	return migrate.DirSource(o.dir)
}

func gooseCmd(opts *options, command string) *cobra.Command {
	return &cobra.Command{
		Use:   command,
		Short: fmt.Sprintf("Run goose %s", command),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), command, func(ctx context.Context, sqlDB *sql.DB) error {
				return migrate.Run(ctx, sqlDB, opts.source(), command)
			})
		},
	}
}

func versionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version <YYYYMMDDHHMMSS>",
		Short: "Migrate up or down to a specific version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), "version", func(ctx context.Context, sqlDB *sql.DB) error {
				return migrate.MigrateToVersion(ctx, sqlDB, opts.source(), args[0])
			})
		},
	}
}

func createCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a timestamped SQL migration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := migrate.CreateSQLMigration(opts.dir, args[0])
			if err != nil {
				return fmt.Errorf("failed to create migration: %w", err)
			}
			cmd.Println("created migration:", path)
			return nil
		},
	}
}

func validateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check migration files for goose annotations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if opts.embedded {
				err = migrate.ValidateFS(migrate.Embedded, "migrations")
			} else {
				err = migrate.ValidateDir(opts.dir)
			}
			if err != nil {
				return fmt.Errorf("migration validation failed: %w", err)
			}
			cmd.Println("migration validation passed")
			return nil
		},
	}
}

// withDB loads config, opens the database and hands fn a *sql.DB.
func withDB(ctx context.Context, command string, fn func(context.Context, *sql.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("resource not working: config: %w", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": command,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("resource not working: database: %w", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.SQLDB()
	if err != nil {
		return fmt.Errorf("resource not working: sql database: %w", err)
	}

	logg.Info(ctx, "migrate ready")
	if err := fn(ctx, sqlDB); err != nil {
		logg.Error(ctx, "migrate failed", err)
		return err
	}
	return nil
}
