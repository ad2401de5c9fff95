package database

import (
	"context"
	"database/sql"
	"erdv/internal/errs"
	"erdv/pkg/config"
	"strings"
)

// MySQLExtractor reads the schema selected by the connection's database
// name.
type MySQLExtractor struct {
	db *sql.DB
}

func (m *MySQLExtractor) ExtractCatalog(ctx context.Context, cfg config.SchemaConfig) (*Catalog, error) {
	c := &Catalog{}

	tables, err := m.extractTables(ctx, cfg, "BASE TABLE")
	if err != nil {
		return nil, err
	}
	c.Tables = tables

	if cfg.IncludeViews {
		views, err := m.extractTables(ctx, cfg, "VIEW")
		if err != nil {
			return nil, err
		}
		c.Views = views
	}

	foreignKeys, err := m.extractForeignKeys(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.ForeignKeys = foreignKeys

	return c, nil
}

func (m *MySQLExtractor) extractTables(ctx context.Context, cfg config.SchemaConfig, tableType string) ([]Table, error) {
	const q = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_type   = ?
		ORDER BY table_name`

	rows, err := m.db.QueryContext(ctx, q, tableType)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to list tables", err)
	}

	var tables []Table
	for rows.Next() {
		table := Table{IsView: tableType == "VIEW"}
		if err := rows.Scan(&table.Name); err != nil {
			rows.Close()
			return nil, errs.Wrap(errs.KindIO, "failed to scan table name", err)
		}
		if included(cfg, table.Name) {
			tables = append(tables, table)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errs.Wrap(errs.KindIO, "error iterating tables", err)
	}
	rows.Close()

	for i := range tables {
		columns, pks, err := m.extractColumns(ctx, tables[i].Name)
		if err != nil {
			return nil, err
		}
		tables[i].Columns = columns
		tables[i].PrimaryKeys = pks
	}

	return tables, nil
}

func (m *MySQLExtractor) extractColumns(ctx context.Context, table string) ([]Column, []string, error) {
	const q = `
		SELECT column_name,
		       data_type,
		       character_maximum_length,
		       numeric_precision,
		       numeric_scale,
		       is_nullable = 'YES',
		       column_default,
		       column_key,
		       extra,
		       column_comment
		FROM information_schema.columns
		WHERE table_schema = DATABASE()
		  AND table_name   = ?
		ORDER BY ordinal_position`

	rows, err := m.db.QueryContext(ctx, q, table)
	if err != nil {
		return nil, nil, errs.Wrap(errs.KindIO, "failed to fetch columns", err)
	}
	defer rows.Close()

	var cols []Column
	var pks []string

	for rows.Next() {
		var c Column
		var length, precision, scale sql.NullInt64
		var defaultValue sql.NullString
		var columnKey, extra string

		if err := rows.Scan(&c.Name, &c.Type, &length, &precision, &scale, &c.IsNullable, &defaultValue, &columnKey, &extra, &c.Comment); err != nil {
			return nil, nil, errs.Wrap(errs.KindIO, "failed to scan column info", err)
		}

		c.Length = intPtr(length)
		c.Precision = intPtr(precision)
		c.Scale = intPtr(scale)
		if defaultValue.Valid {
			c.DefaultValue = &defaultValue.String
		}
		c.IsPrimaryKey = columnKey == "PRI"
		c.IsUnique = columnKey == "UNI"
		c.IsAutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")
		if c.IsPrimaryKey {
			pks = append(pks, c.Name)
		}
		cols = append(cols, c)
	}

	return cols, pks, rows.Err()
}

func (m *MySQLExtractor) extractForeignKeys(ctx context.Context, cfg config.SchemaConfig) ([]ForeignKey, error) {
	const q = `
		SELECT kcu.table_name,
		       kcu.column_name,
		       kcu.referenced_table_name,
		       kcu.referenced_column_name
		FROM information_schema.key_column_usage kcu
		WHERE kcu.table_schema           = DATABASE()
		  AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.table_name, kcu.column_name`

	rows, err := m.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to fetch foreign keys", err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.Table, &fk.Column, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, errs.Wrap(errs.KindIO, "failed to scan foreign key", err)
		}
		if fkIncluded(cfg, fk) {
			fks = append(fks, fk)
		}
	}
	return fks, rows.Err()
}
