package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"estatehub.app/internal/config"
	"estatehub.app/internal/migrate"
	"estatehub.app/internal/store/pg"
	"estatehub.app/migrations"
)

var (
	dsn     string
	dir     string
	timeout time.Duration
	steps   int
)

var rootCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Manage the EstateHub database schema",
	Long:         `Applies, rolls back and seeds the EstateHub PostgreSQL schema.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dsn == "" {
			return errors.New("missing DSN: provide --dsn or " + config.EnvPrefix + "DB_DSN")
		}
		return nil
	},
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd.Context(), func(ctx context.Context, m *migrate.Manager) error {
			applied, err := m.Up(ctx)
			report("applied", applied)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd.Context(), func(ctx context.Context, m *migrate.Manager) error {
			rolled, err := m.Down(ctx, steps)
			report("rolled back", rolled)
			if errors.Is(err, migrate.ErrNothingApplied) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load seed data",
	Long:  `Runs seed files that have not been applied yet. Seeds are idempotent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd.Context(), func(ctx context.Context, m *migrate.Manager) error {
			seeded, err := m.Seed(ctx)
			report("seeded", seeded)
			if err != nil {
				return fmt.Errorf("seed failed: %w", err)
			}
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd.Context(), func(ctx context.Context, m *migrate.Manager) error {
			applied, err := m.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			pending, err := m.Pending(ctx)
			if err != nil {
				return fmt.Errorf("failed to get pending migrations: %w", err)
			}
			log.Printf("Migrations:")
			for _, name := range applied {
				log.Printf("  %s: applied", name)
			}
			for _, name := range pending {
				log.Printf("  %s: pending", name)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dsn, "dsn", os.Getenv(config.EnvPrefix+"DB_DSN"), "PostgreSQL DSN (env: "+config.EnvPrefix+"DB_DSN)")
	rootCmd.PersistentFlags().StringVar(&dir, "dir", "", "read SQL from this directory instead of the embedded set")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline")
	downCmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	rootCmd.AddCommand(upCmd, downCmd, seedCmd, statusCmd)
}

func withManager(parent context.Context, fn func(context.Context, *migrate.Manager) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	db, err := pg.Open(config.DBConfig{DSN: dsn, MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	var files fs.FS = migrations.FS
	if dir != "" {
		files = os.DirFS(dir)
	}
	return fn(ctx, migrate.NewManager(db, files, ".", migrations.SeedsDir))
}

func report(verb string, names []string) {
	if len(names) == 0 {
		log.Printf("Nothing %s", verb)
		return
	}
	for _, name := range names {
		log.Printf("%s %s", verb, name)
	}
}

func main() {
	log.SetFlags(0)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
