package gormdb

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbt "mileage/db/db"
)

// GORMDBWrapper is a GORM-based implementation of dbt.DBWrapper for sqlite and postgres.
type GORMDBWrapper struct {
	db *gorm.DB
}

// NewGORMDBWrapper creates and returns a new instance of GORMDBWrapper.
func NewGORMDBWrapper(db *gorm.DB) dbt.DBWrapper {
	return &GORMDBWrapper{
		db: db,
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// upsertOwned inserts a row or replaces columns of an existing row with the
// same id, as long as that row belongs to userID.
func upsertOwned(table string, userID string, columns []string) clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Eq{Column: clause.Column{Table: table, Name: "user_id"}, Value: userID},
		}},
	}
}

var _ dbt.DBWrapper = (*GORMDBWrapper)(nil)
