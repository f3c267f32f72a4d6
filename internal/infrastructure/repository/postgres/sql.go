package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ensureAffected reports a row that vanished (or was soft-deleted) before the write.
func ensureAffected(res sql.Result, entity, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s rows affected: %w", entity, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s not found", entity, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}

// isStalePreparedStatement matches the errors a transaction-pooling proxy
// returns when an unnamed prepared statement went missing between round trips.
func isStalePreparedStatement(err error) bool {
	if err == nil {
		return false
	}
	text := strings.ToLower(err.Error())
	if strings.Contains(text, "bind message supplies") && strings.Contains(text, "requires") {
		return true
	}
	return strings.Contains(text, "unnamed prepared statement does not exist") ||
		(strings.Contains(text, "prepared statement") && strings.Contains(text, "26000"))
}

// retryStale runs fn once more when the first attempt hit a stale prepared statement.
func retryStale(fn func() error) error {
	err := fn()
	if isStalePreparedStatement(err) {
		return fn()
	}
	return err
}

func nullableInt(value *int) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*value), Valid: true}
}

func nullInt64ToIntPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	out := int(value.Int64)
	return &out
}
