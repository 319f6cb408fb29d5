package store

import (
	"strconv"
	"strings"
)

type dialect string

const (
	dialectSQLite   dialect = "sqlite3"
	dialectPostgres dialect = "postgres"
)

func parseDialect(driver string) (dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite", "sqlite3":
		return dialectSQLite, nil
	case "postgres", "postgresql", "pq":
		return dialectPostgres, nil
	default:
		return "", ErrUnsupportedDriver
	}
}

// rebind rewrites '?' placeholders into the numbered form postgres expects.
// Queries in this package never contain a literal '?'.
func (d dialect) rebind(query string) string {
	if d != dialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
