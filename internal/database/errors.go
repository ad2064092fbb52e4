package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// ErrMissingReference marks a write rejected because a referenced row, such as
// the user or event of a check-in, does not exist.
var ErrMissingReference = errors.New("referenced row does not exist")

// IsForeignKeyViolation reports whether err is a foreign key rejection from
// Postgres (SQLSTATE 23503) or SQLite.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
