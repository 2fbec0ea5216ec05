package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"bookmarks-api/internal/repository"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// setClause collects column assignments for a partial UPDATE.
type setClause struct {
	columns []string
	args    []any
}

func newSetClause() *setClause {
	return &setClause{}
}

// add records an assignment. Nil string pointers are skipped.
func (s *setClause) add(column string, value any) {
	if p, ok := value.(*string); ok {
		if p == nil {
			return
		}
		value = *p
	}
	s.columns = append(s.columns, column+" = ?")
	s.args = append(s.args, value)
}

func (s *setClause) build(table, where string, whereArgs ...any) (string, []any) {
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", table, strings.Join(s.columns, ", "), where)
	return query, append(s.args, whereArgs...)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
