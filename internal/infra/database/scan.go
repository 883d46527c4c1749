package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Postgres hands back time.Time; SQLite hands back the TEXT we wrote. These helpers accept both.

func parseDate(v any, loc *time.Location) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		y, m, d := x.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	case string:
		return parseDateString(x, loc)
	case []byte:
		return parseDateString(string(x), loc)
	default:
		return time.Time{}, fmt.Errorf("unexpected date value of type %T", v)
	}
}

func parseDateString(s string, loc *time.Location) (time.Time, error) {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

func parseTimestamp(v any, loc *time.Location) (sql.NullTime, error) {
	switch x := v.(type) {
	case nil:
		return sql.NullTime{}, nil
	case time.Time:
		return sql.NullTime{Time: x.In(loc), Valid: true}, nil
	case string:
		return parseTimestampString(x, loc)
	case []byte:
		return parseTimestampString(string(x), loc)
	default:
		return sql.NullTime{}, fmt.Errorf("unexpected timestamp value of type %T", v)
	}
}

func parseTimestampString(s string, loc *time.Location) (sql.NullTime, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return sql.NullTime{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return sql.NullTime{Time: t.In(loc), Valid: true}, nil
}

// mustTimestamp is parseTimestamp for NOT NULL columns.
func mustTimestamp(v any, loc *time.Location) (time.Time, error) {
	nt, err := parseTimestamp(v, loc)
	if err != nil {
		return time.Time{}, err
	}
	if !nt.Valid {
		return time.Time{}, fmt.Errorf("unexpected NULL timestamp")
	}
	return nt.Time, nil
}
