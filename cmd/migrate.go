package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mileage/config"
	"mileage/db/gormdb"
	migrations "mileage/migration"
)

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "migrate the database schema",
		Long:  `This command moves the database schema up to the latest version, or down by one version, and prints the status of every version.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			up, _ := cmd.Flags().GetBool("up")
			down, _ := cmd.Flags().GetBool("down")
			if down {
				up = false
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			db, closeDB, err := openSQL(cfg)
			if err != nil {
				return err
			}
			defer closeDB()

			// Ping the database so a bad connection string fails here
			pingCtx, pingCancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer pingCancel()
			if err := db.PingContext(pingCtx); err != nil {
				return fmt.Errorf("failed to ping database: %w", err)
			}
			logrus.Println("Successfully connected to the database.")

			m, err := migrations.NewMigrator(db, dialectOf(cfg))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			switch {
			case up:
				logrus.Println("Running 'up' migrations...")
				if err := m.Up(ctx); err != nil {
					return err
				}
			case down:
				logrus.Println("Rolling back('down') the last migration...")
				if err := m.Down(ctx); err != nil {
					return err
				}
			}

			statuses, err := m.Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%5d  %-8s %s\n", s.Version, state, s.Name)
			}
			return nil
		},
	}

	cmd.Flags().BoolP("up", "u", true, "up the version of db")
	cmd.Flags().BoolP("down", "d", false, "down the version of db")

	return cmd
}

// openSQL opens a plain connection for the migrator. Postgres goes through
// lib/pq; the embedded database reuses the gorm connection setup.
func openSQL(cfg *config.Config) (*sql.DB, func(), error) {
	if cfg.DBType == config.DBTypePostgres {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, func() { db.Close() }, nil
	}
	gdb, err := gormdb.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	db, err := gdb.DB()
	if err != nil {
		gormdb.CloseGORM(gdb)
		return nil, nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return db, func() { gormdb.CloseGORM(gdb) }, nil
}
