package multiformat

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"docchat/internal/core/domain"
)

// extractSQLite dumps every user table of the database, rows joined with
// " | " like the xlsx extractor.
func (e *Extractor) extractSQLite(ctx context.Context, filePath string) (string, error) {
	db, err := sql.Open("sqlite", filePath)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "open sqlite db", err)
	}
	defer db.Close()

	tables, err := listTables(ctx, db)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "list sqlite tables", err)
	}

	var out strings.Builder
	for _, table := range tables {
		if err := dumpTable(ctx, db, table, &out); err != nil {
			return "", domain.WrapError(domain.ErrExtraction, "dump sqlite table", err)
		}
	}
	return strings.TrimSpace(out.String()), nil
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func dumpTable(ctx context.Context, db *sql.DB, table string, out *strings.Builder) error {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %q", table))
	if err != nil {
		return err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return err
		}
		fields := make([]string, len(values))
		for i, v := range values {
			switch value := v.(type) {
			case nil:
				fields[i] = ""
			case []byte:
				fields[i] = string(value)
			default:
				fields[i] = fmt.Sprint(value)
			}
		}
		out.WriteString(strings.Join(fields, " | "))
		out.WriteString("\n")
	}
	return rows.Err()
}
