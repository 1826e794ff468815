package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

var (
	dialectMu sync.RWMutex
	dialect   = DialectSQLite
)

func setDialect(d Dialect) {
	dialectMu.Lock()
	defer dialectMu.Unlock()
	dialect = d
}

func currentDialect() Dialect {
	dialectMu.RLock()
	defer dialectMu.RUnlock()
	return dialect
}

func floatType() string {
	if currentDialect() == DialectPostgres {
		return "DOUBLE PRECISION"
	}
	return "REAL"
}

func timeType() string {
	if currentDialect() == DialectPostgres {
		return "TIMESTAMPTZ"
	}
	return "DATETIME"
}

// hasColumn asks the storage engine whether table already carries column.
func hasColumn(ctx context.Context, tx *sql.Tx, table, column string) (bool, error) {
	var (
		query string
		count int
	)
	if currentDialect() == DialectPostgres {
		query = `SELECT COUNT(*) FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2`
	} else {
		query = `SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`
	}
	if err := tx.QueryRowContext(ctx, query, table, column).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to inspect column %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}

// addColumnIfMissing skips the ALTER when a previous, partial run already added the column.
func addColumnIfMissing(ctx context.Context, tx *sql.Tx, table, column, decl string) error {
	exists, err := hasColumn(ctx, tx, table, column)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s;`, table, column, decl))
	if err != nil {
		return fmt.Errorf("failed to add column %s.%s: %w", table, column, err)
	}
	return nil
}

func dropColumnIfExists(ctx context.Context, tx *sql.Tx, table, column string) error {
	exists, err := hasColumn(ctx, tx, table, column)
	if err != nil || !exists {
		return err
	}
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE %s DROP COLUMN %s;`, table, column))
	return err
}
