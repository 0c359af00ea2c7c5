package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gospelstudy/gospellib/lib/record"
)

// QueryRows runs query and projects every row. The returned slice is never
// nil on success.
func QueryRows(ctx context.Context, db DBTX, p *record.Projector, query string, args ...any) ([]record.Row, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]record.Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row, err := p.Project(columns, values)
		if err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// QueryRow runs query and projects the first row. It returns nil, nil when
// the query yields no rows.
func QueryRow(ctx context.Context, db DBTX, p *record.Projector, query string, args ...any) (record.Row, error) {
	rows, err := QueryRows(ctx, db, p, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// QueryString reads a single optional text value.
func QueryString(ctx context.Context, db DBTX, query string, args ...any) (string, bool, error) {
	var value sql.NullString
	err := db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

// Int64Args converts ids to query arguments.
func Int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
