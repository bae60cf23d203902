package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/naestech/newNoise/internal/shared"
)

// logStorageError records a failed registry operation. Callers report the failure as a false or empty result.
func logStorageError(logger *log.Logger, op string, err error, keyvals ...any) {
	logger.Error(shared.ErrStorage.Error(), append([]any{"op", op, "error", err}, keyvals...)...)
}

// rowsChanged reports whether result touched at least one row.
func rowsChanged(result sql.Result) (bool, error) {
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

// isNotFound reports whether err is a no-rows result.
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
