package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/listenupapp/bookclub-server/internal/store"
)

// classify maps driver errors onto store sentinels. Unknown errors pass
// through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}

	var serr *sqlite.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		switch code & 0xff {
		case sqlitelib.SQLITE_BUSY, sqlitelib.SQLITE_LOCKED:
			return store.ErrTransient.WithCause(err)
		}
		switch code {
		case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return store.ErrAlreadyExists.WithCause(err)
		case sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return store.ErrReferenceMissing.WithCause(err)
		case sqlitelib.SQLITE_CONSTRAINT_CHECK, sqlitelib.SQLITE_CONSTRAINT_NOTNULL:
			return store.ErrInvalidInput.WithCause(err)
		}
	}

	// The driver does not always surface extended codes; fall back to text.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return store.ErrAlreadyExists.WithCause(err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return store.ErrReferenceMissing.WithCause(err)
	case strings.Contains(msg, "database is locked"):
		return store.ErrTransient.WithCause(err)
	}
	return err
}
