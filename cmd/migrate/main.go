package main

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"

	"github.com/JaimeStill/docent/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const envDSN = "DOCENT_DB_DSN"

func main() {
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var dsn string

	open := func() (*migrate.Migrate, error) {
		url, err := resolveDSN(dsn)
		if err != nil {
			return nil, err
		}
		source, err := iofs.New(migrations, "migrations")
		if err != nil {
			return nil, fmt.Errorf("migration source: %w", err)
		}
		m, err := migrate.NewWithSourceInstance("iofs", source, url)
		if err != nil {
			return nil, fmt.Errorf("create migrator: %w", err)
		}
		return m, nil
	}

	run := func(fn func(m *migrate.Migrate) (string, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()

			msg, err := fn(m)
			if err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		}
	}

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the docent database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "postgres:// connection URL (defaults to "+envDSN+" or the database config)")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: run(func(m *migrate.Migrate) (string, error) {
				return "migrations applied", m.Up()
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revert all migrations",
			RunE: run(func(m *migrate.Migrate) (string, error) {
				return "migrations reverted", m.Down()
			}),
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Apply N migrations (negative reverts)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count: %w", err)
				}
				return run(func(m *migrate.Migrate) (string, error) {
					return fmt.Sprintf("applied %d migration steps", n), m.Steps(n)
				})(cmd, args)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: run(func(m *migrate.Migrate) (string, error) {
				v, dirty, err := m.Version()
				return fmt.Sprintf("version: %d, dirty: %v", v, dirty), err
			}),
		},
		&cobra.Command{
			Use:   "force V",
			Short: "Set the schema version without running migrations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version: %w", err)
				}
				return run(func(m *migrate.Migrate) (string, error) {
					return fmt.Sprintf("forced to version %d", v), m.Force(v)
				})(cmd, args)
			},
		},
	)

	return root
}

// resolveDSN prefers the flag, then the environment, then the service's
// database configuration.
func resolveDSN(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv(envDSN); v != "" {
		return v, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.Database.URL(), nil
}
