package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

// ErrMissingMigration means the registered migration chain cannot take the
// database from its installed version to the latest one. It is not recoverable.
var ErrMissingMigration = errors.New("missing migration")

// Migrator applies the registered schema versions in order.
type Migrator struct {
	provider *goose.Provider
	latest   int64
}

// VersionStatus is one line of Status.
type VersionStatus struct {
	Version int64
	Name    string
	Applied bool
}

func gooseDialect(d Dialect) (goose.Dialect, error) {
	switch d {
	case DialectSQLite:
		return goose.DialectSQLite3, nil
	case DialectPostgres:
		return goose.DialectPostgres, nil
	}
	return "", fmt.Errorf("unsupported migration dialect %q", d)
}

func NewMigrator(db *sql.DB, d Dialect) (*Migrator, error) {
	gd, err := gooseDialect(d)
	if err != nil {
		return nil, err
	}
	setDialect(d)

	provider, err := goose.NewProvider(gd, db, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration provider: %w", err)
	}

	m := &Migrator{provider: provider}
	if err := m.verifyChain(); err != nil {
		return nil, err
	}
	return m, nil
}

// verifyChain requires versions 1..N without gaps, so every step N→N+1 exists.
func (m *Migrator) verifyChain() error {
	sources := m.provider.ListSources()
	for i, s := range sources {
		want := int64(i + 1)
		if s.Version != want {
			return fmt.Errorf("%w: expected version %d, found %d (%s)", ErrMissingMigration, want, s.Version, s.Path)
		}
	}
	m.latest = int64(len(sources))
	return nil
}

// Latest is the newest schema version this binary knows about.
func (m *Migrator) Latest() int64 {
	return m.latest
}

func (m *Migrator) Version(ctx context.Context) (int64, error) {
	v, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// Up migrates to the latest version. A database already ahead of this binary
// cannot be opened.
func (m *Migrator) Up(ctx context.Context) error {
	current, err := m.Version(ctx)
	if err != nil {
		return err
	}
	if current > m.latest {
		return fmt.Errorf("%w: database is at version %d but the latest known version is %d", ErrMissingMigration, current, m.latest)
	}
	if current == m.latest {
		logrus.Printf("schema is up to date at version %d", current)
		return nil
	}

	results, err := m.provider.Up(ctx)
	for _, r := range results {
		logrus.WithField("version", r.Source.Version).Printf("applied migration %s in %s", r.Source.Path, r.Duration)
	}
	if err != nil {
		return fmt.Errorf("failed to migrate from version %d: %w", current, err)
	}
	return nil
}

// UpTo migrates to version and no further.
func (m *Migrator) UpTo(ctx context.Context, version int64) error {
	if version > m.latest {
		return fmt.Errorf("%w: version %d is not registered", ErrMissingMigration, version)
	}
	results, err := m.provider.UpTo(ctx, version)
	for _, r := range results {
		logrus.WithField("version", r.Source.Version).Printf("applied migration %s in %s", r.Source.Path, r.Duration)
	}
	if err != nil {
		return fmt.Errorf("failed to migrate to version %d: %w", version, err)
	}
	return nil
}

// Down rolls back the most recently applied version.
func (m *Migrator) Down(ctx context.Context) error {
	r, err := m.provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	logrus.WithField("version", r.Source.Version).Printf("rolled back migration %s", r.Source.Path)
	return nil
}

func (m *Migrator) Status(ctx context.Context) ([]VersionStatus, error) {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}
	out := make([]VersionStatus, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, VersionStatus{
			Version: s.Source.Version,
			Name:    s.Source.Path,
			Applied: s.State == goose.StateApplied,
		})
	}
	return out, nil
}
