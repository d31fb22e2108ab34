package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// SearchLimit caps free-text search results.
const SearchLimit = 20

// ErrNotApplied is returned when a conditional write matched no row.
var ErrNotApplied = errors.New("conditional update matched no rows")

const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// UniqueViolation reports the violated constraint name when err is a Postgres unique violation.
func UniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

// IsSerializationFailure reports transaction conflicts worth retrying.
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == pqSerializationFailure || string(pqErr.Code) == pqDeadlockDetected
}

// likePattern escapes LIKE metacharacters and wraps the term for substring matching.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(term)) + "%"
}

// where accumulates AND-ed conditions with positional arguments.
type where struct {
	conditions []string
	args       []interface{}
}

// add appends a condition whose single %d verb becomes the next placeholder index.
func (w *where) add(format string, value interface{}) {
	w.args = append(w.args, value)
	w.conditions = append(w.conditions, fmt.Sprintf(format, len(w.args)))
}

func (w *where) raw(condition string) {
	w.conditions = append(w.conditions, condition)
}

// search ORs a case-insensitive substring match across columns.
func (w *where) search(term string, columns ...string) {
	w.args = append(w.args, likePattern(term))
	n := len(w.args)
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", col, n)
	}
	w.conditions = append(w.conditions, "("+strings.Join(parts, " OR ")+")")
}

func (w *where) String() string {
	if len(w.conditions) == 0 {
		return "WHERE 1=1"
	}
	return "WHERE " + strings.Join(w.conditions, " AND ")
}

// rowsAffected turns a zero-row conditional write into ErrNotApplied.
func rowsAffected(res interface{ RowsAffected() (int64, error) }, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotApplied
	}
	return nil
}

// requireRow is rowsAffected for writes keyed by id, where no row means not found.
func requireRow(res interface{ RowsAffected() (int64, error) }, op string) error {
	if err := rowsAffected(res, op); err != nil {
		if errors.Is(err, ErrNotApplied) {
			return sql.ErrNoRows
		}
		return err
	}
	return nil
}
