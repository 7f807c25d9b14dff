package persistence

import (
	"regexp"
	"strings"

	"github.com/astralisone/platform/internal/domain/shared"
	"gorm.io/gorm"
)

// orderColumnPattern limits user-supplied sort columns to plain identifiers
// so they can be interpolated into ORDER BY safely.
var orderColumnPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// applyPagination applies ordering and pagination from the filter. When the
// filter carries no usable OrderBy, defaultOrder is used.
func applyPagination(query *gorm.DB, filter shared.Filter, defaultOrder string) *gorm.DB {
	orderBy := strings.ToLower(strings.TrimSpace(filter.OrderBy))
	if orderColumnPattern.MatchString(orderBy) {
		dir := "ASC"
		if strings.EqualFold(filter.OrderDir, "desc") {
			dir = "DESC"
		}
		query = query.Order(orderBy + " " + dir)
	} else if defaultOrder != "" {
		query = query.Order(defaultOrder)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}
