package database

import (
	"errors"
	"fmt"
	"regexp"

	"mentoring-svc/src/internal/models"

	"github.com/mattn/go-sqlite3"
)

// DuplicateKeyError is a UNIQUE or PRIMARY KEY constraint violation.
// It matches models.ErrDuplicateRecord with errors.Is.
type DuplicateKeyError struct {
	Field string
	err   error
}

func (e *DuplicateKeyError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("duplicate key violation: %s already exists", e.Field)
	}
	return "duplicate key violation"
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.err
}

func (e *DuplicateKeyError) Is(target error) bool {
	return target == models.ErrDuplicateRecord
}

var uniqueConstraintRegex = regexp.MustCompile(`(?:UNIQUE|PRIMARY KEY) constraint failed: \w+\.(\w+)`)

// WrapDuplicate converts a sqlite unique violation into a *DuplicateKeyError.
// Other errors are returned unchanged.
func WrapDuplicate(err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		field := "unknown"
		if m := uniqueConstraintRegex.FindStringSubmatch(err.Error()); len(m) > 1 {
			field = m[1]
		}
		return &DuplicateKeyError{Field: field, err: err}
	}
	return err
}
