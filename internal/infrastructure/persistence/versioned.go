package persistence

import (
	"context"

	"github.com/astralisone/platform/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// saveVersioned persists an aggregate with an optimistic concurrency check.
// The upsert inserts a new row, or replaces an existing one only when the
// stored version predates the in-memory copy: domain mutators bump the
// version, so a lost race matches no row and surfaces as
// CONCURRENCY_CONFLICT instead of a silent last-write-wins overwrite.
func saveVersioned(ctx context.Context, db *gorm.DB, model interface{}, version int) error {
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
			// unqualified "version" is the stored row's column
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Lt{Column: clause.Column{Name: "version"}, Value: version},
			}},
		}).
		Create(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}
