package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dbrag/dbrag-server/internal/apperrors"
	"github.com/dbrag/dbrag-server/internal/db/drivers"
)

type Column struct {
	Name         string  `json:"name"`
	DataType     string  `json:"data_type"`
	IsNullable   bool    `json:"is_nullable"`
	Default      *string `json:"default,omitempty"`
	IsPrimaryKey bool    `json:"is_primary_key"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Introspector reads column metadata for the tables shown to the model.
// Only tables it is asked about end up in the schema description; nothing
// else may leak into the prompt.
type Introspector struct {
	driver drivers.Driver
	schema string
}

func NewIntrospector(driver drivers.Driver) *Introspector {
	return &Introspector{driver: driver, schema: "public"}
}

// Tables lists the base tables visible in the current schema.
func (in *Introspector) Tables(ctx context.Context) ([]string, error) {
	if in.driver.Dialect() == drivers.DialectSQLite {
		return in.tablesSQLite(ctx)
	}

	return in.tablesPG(ctx)
}

// Describe returns column metadata for one table. A table that does not
// exist is a configuration error naming the table.
func (in *Introspector) Describe(ctx context.Context, name string) (*Table, error) {
	if in.driver.Dialect() == drivers.DialectSQLite {
		return in.describeSQLite(ctx, name)
	}

	return in.describePG(ctx, name)
}

// SchemaText renders the prompt-facing schema description, one line per
// table:
//
//	Table 'actor' has columns: actor_id (integer, primary key), first_name (character varying).
func (in *Introspector) SchemaText(ctx context.Context, tables []string) (string, error) {
	blocks := make([]string, 0, len(tables))
	for _, name := range tables {
		table, err := in.Describe(ctx, name)
		if err != nil {
			return "", err
		}

		blocks = append(blocks, describeLine(table))
	}

	return strings.Join(blocks, "\n"), nil
}

func describeLine(table *Table) string {
	cols := make([]string, 0, len(table.Columns))
	for _, col := range table.Columns {
		desc := col.Name + " (" + col.DataType
		if col.IsPrimaryKey {
			desc += ", primary key"
		}
		desc += ")"

		cols = append(cols, desc)
	}

	return fmt.Sprintf("Table '%s' has columns: %s.", table.Name, strings.Join(cols, ", "))
}

const pgTablesQuery = `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = ?
  AND table_type = 'BASE TABLE'
ORDER BY table_name`

func (in *Introspector) tablesPG(ctx context.Context) ([]string, error) {
	rows, err := in.driver.GetDB().QueryContext(ctx, pgTablesQuery, in.schema)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	return scanNames(rows)
}

const pgColumnsQuery = `
SELECT
	c.column_name,
	c.data_type,
	c.is_nullable = 'YES' AS is_nullable,
	c.column_default,
	COALESCE(pk.is_pk, false) AS is_primary_key
FROM information_schema.columns c
LEFT JOIN (
	SELECT kcu.column_name, true AS is_pk
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
		ON tc.constraint_name = kcu.constraint_name
		AND tc.table_schema = kcu.table_schema
	WHERE tc.constraint_type = 'PRIMARY KEY'
	  AND tc.table_schema = ?
	  AND tc.table_name = ?
) pk ON pk.column_name = c.column_name
WHERE c.table_schema = ? AND c.table_name = ?
ORDER BY c.ordinal_position`

func (in *Introspector) describePG(ctx context.Context, name string) (*Table, error) {
	rows, err := in.driver.GetDB().QueryContext(ctx, pgColumnsQuery, in.schema, name, in.schema, name)
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", name, err)
	}
	defer rows.Close()

	table := &Table{Name: name}
	for rows.Next() {
		var (
			col        Column
			defaultVal sql.NullString
		)

		if err := rows.Scan(&col.Name, &col.DataType, &col.IsNullable, &defaultVal, &col.IsPrimaryKey); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}

		if defaultVal.Valid {
			col.Default = &defaultVal.String
		}
		table.Columns = append(table.Columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(table.Columns) == 0 {
		return nil, apperrors.Newf(apperrors.CodeConfiguration, "table %q not found in schema", name)
	}

	return table, nil
}

const sqliteTablesQuery = `
SELECT name
FROM sqlite_master
WHERE type = 'table'
  AND name NOT LIKE 'sqlite_%'
ORDER BY name`

func (in *Introspector) tablesSQLite(ctx context.Context) ([]string, error) {
	rows, err := in.driver.GetDB().QueryContext(ctx, sqliteTablesQuery)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	return scanNames(rows)
}

func (in *Introspector) describeSQLite(ctx context.Context, name string) (*Table, error) {
	// PRAGMA does not take bind parameters.
	rows, err := in.driver.GetDB().QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", name))
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", name, err)
	}
	defer rows.Close()

	table := &Table{Name: name}
	for rows.Next() {
		var (
			cid        int
			colName    string
			colType    string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)

		if err := rows.Scan(&cid, &colName, &colType, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}

		col := Column{
			Name:         colName,
			DataType:     strings.ToLower(colType),
			IsNullable:   notNull == 0,
			IsPrimaryKey: pk > 0,
		}
		if defaultVal.Valid {
			col.Default = &defaultVal.String
		}
		table.Columns = append(table.Columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(table.Columns) == 0 {
		return nil, apperrors.Newf(apperrors.CodeConfiguration, "table %q not found in schema", name)
	}

	return table, nil
}

func scanNames(rows *sql.Rows) ([]string, error) {
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}

	return names, rows.Err()
}
