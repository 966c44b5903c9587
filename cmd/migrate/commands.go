package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/adminkit/internal/repository"
	"github.com/noah-isme/adminkit/internal/service"
	"github.com/noah-isme/adminkit/migrations"
	"github.com/noah-isme/adminkit/pkg/config"
	"github.com/noah-isme/adminkit/pkg/crud"
	"github.com/noah-isme/adminkit/pkg/database"
	"github.com/noah-isme/adminkit/pkg/logger"
)

// flag names
const (
	flagDatabaseURL = "db"
	flagRetries     = "retries"
	flagRetryWait   = "retry-wait"
	flagUsername    = "username"
	flagPassword    = "password"
	flagName        = "name"
)

type schemaMigrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Version() (uint, bool, error)
	Close() error
}

type adminSeeder interface {
	EnsureAdmin(ctx context.Context, name, username, password string) (bool, error)
}

// app holds what subcommands share once PersistentPreRunE has run.
type app struct {
	cfg    *config.Config
	logger *zap.Logger

	dbURL     string
	retries   int
	retryWait time.Duration

	openMigrator func(a *app) (schemaMigrator, error)
	openSeeder   func(ctx context.Context, a *app) (adminSeeder, func(), error)
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&app{openMigrator: openMigrator, openSeeder: openSeeder})
}

func newRootCmdWith(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "adminkit-migrate",
		Short:        "Manage the AdminKit database schema",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg != nil {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			a.cfg, a.logger = cfg, logr
			if a.dbURL == "" {
				a.dbURL = cfg.Database.URL()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.dbURL, flagDatabaseURL, "", "Database URL (defaults to the DB_* settings)")
	root.PersistentFlags().IntVar(&a.retries, flagRetries, 5, "Connection attempts before giving up")
	root.PersistentFlags().DurationVar(&a.retryWait, flagRetryWait, 3*time.Second, "Wait between connection attempts")

	root.AddCommand(
		migrateCmd(a, "up", "Apply all pending migrations", cobra.NoArgs, func(m schemaMigrator, _ []string) error {
			return m.Up()
		}),
		migrateCmd(a, "down", "Roll back all migrations", cobra.NoArgs, func(m schemaMigrator, _ []string) error {
			return m.Down()
		}),
		migrateCmd(a, "steps N", "Apply N migrations, negative N rolls back", cobra.ExactArgs(1), func(m schemaMigrator, args []string) error {
			n, _ := strconv.Atoi(args[0])
			return m.Steps(n)
		}),
		migrateCmd(a, "force VERSION", "Set the schema version without running migrations", cobra.ExactArgs(1), func(m schemaMigrator, args []string) error {
			v, _ := strconv.Atoi(args[0])
			return m.Force(v)
		}),
		versionCmd(a),
		seedAdminCmd(a),
	)
	return root
}

// migrateCmd builds a subcommand that runs fn against an open migrator.
// Integer arguments are checked before any connection is made.
func migrateCmd(a *app, use, short string, args cobra.PositionalArgs, fn func(schemaMigrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args: func(cmd *cobra.Command, raw []string) error {
			if err := args(cmd, raw); err != nil {
				return err
			}
			for _, arg := range raw {
				if _, err := strconv.Atoi(arg); err != nil {
					return fmt.Errorf("%q is not an integer", arg)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, raw []string) error {
			m, err := a.openMigrator(a)
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck

			if err := fn(m, raw); err != nil {
				return err
			}
			return printVersion(cmd, m)
		},
	}
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := a.openMigrator(a)
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck
			return printVersion(cmd, m)
		},
	}
}

func seedAdminCmd(a *app) *cobra.Command {
	var username, password, name string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the superuser account if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			seeder, closeFn, err := a.openSeeder(ctx, a)
			if err != nil {
				return err
			}
			defer closeFn()

			created, err := seeder.EnsureAdmin(ctx, name, username, password)
			if err != nil {
				return err
			}
			if created {
				cmd.Printf("superuser %q created\n", username)
			} else {
				cmd.Printf("superuser %q already exists\n", username)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, flagUsername, "u", "admin", "Login name of the superuser")
	cmd.Flags().StringVarP(&password, flagPassword, "p", "", "Password of the superuser")
	cmd.Flags().StringVar(&name, flagName, "Administrator", "Display name of the superuser")
	_ = cmd.MarkFlagRequired(flagPassword)
	return cmd
}

func printVersion(cmd *cobra.Command, m schemaMigrator) error {
	v, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	cmd.Printf("schema version %d (dirty: %t)\n", v, dirty)
	return nil
}

func openMigrator(a *app) (schemaMigrator, error) {
	return database.NewMigrator(migrations.FS, database.MigratorConfig{
		DatabaseURL:   a.dbURL,
		RetryAttempts: a.retries,
		RetryDelay:    a.retryWait,
	}, a.logger)
}

type userSeeder struct {
	users *service.UserService
}

func (s userSeeder) EnsureAdmin(ctx context.Context, name, username, password string) (bool, error) {
	_, created, err := s.users.EnsureAdmin(ctx, name, username, password)
	return created, err
}

func openSeeder(ctx context.Context, a *app) (adminSeeder, func(), error) {
	db, err := database.NewPostgres(ctx, a.cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	validate := crud.NewValidator()
	repo := repository.NewUserRepository(db, crud.WithValidator(validate))
	users := service.NewUserService(repo, nil, validate, a.logger)
	return userSeeder{users: users}, func() { _ = db.Close() }, nil
}
