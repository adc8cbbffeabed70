package catalog

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// undefinedTable is the Postgres SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// IsMissingTable reports whether err means the catalog schema has not been
// applied yet, on either supported driver.
func IsMissingTable(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == undefinedTable
	}
	return strings.Contains(err.Error(), "no such table")
}
