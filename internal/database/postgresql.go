package database

import (
	"context"
	"database/sql"
	"erdv/internal/errs"
	"erdv/pkg/config"
	"strings"
)

type PostgreSQLExtractor struct {
	db *sql.DB
}

func (p *PostgreSQLExtractor) ExtractCatalog(ctx context.Context, cfg config.SchemaConfig) (*Catalog, error) {
	c := &Catalog{}

	tables, err := p.extractTables(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.Tables = tables

	if cfg.IncludeViews {
		views, err := p.extractViews(ctx, cfg)
		if err != nil {
			return nil, err
		}
		c.Views = views
	}

	foreignKeys, err := p.extractForeignKeys(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.ForeignKeys = foreignKeys

	return c, nil
}

func (p *PostgreSQLExtractor) extractTables(ctx context.Context, cfg config.SchemaConfig) ([]Table, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to list tables", err)
	}

	var tables []Table
	for rows.Next() {
		var table Table
		if err := rows.Scan(&table.Name); err != nil {
			rows.Close()
			return nil, errs.Wrap(errs.KindIO, "failed to scan table", err)
		}
		if !included(cfg, table.Name) {
			continue
		}
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errs.Wrap(errs.KindIO, "failed to list tables", err)
	}
	rows.Close()

	// Column queries run after the table cursor is closed so a single
	// connection is enough.
	for i := range tables {
		table := &tables[i]

		columns, err := p.extractColumns(ctx, table.Name)
		if err != nil {
			return nil, err
		}
		table.Columns = columns

		primaryKeys, err := p.extractConstraintColumns(ctx, table.Name, "PRIMARY KEY")
		if err != nil {
			return nil, err
		}
		table.PrimaryKeys = primaryKeys
		table.markPrimaryKeys()

		unique, err := p.extractConstraintColumns(ctx, table.Name, "UNIQUE")
		if err != nil {
			return nil, err
		}
		for j := range table.Columns {
			if contains(unique, table.Columns[j].Name) {
				table.Columns[j].IsUnique = true
			}
		}
	}

	return tables, nil
}

func (p *PostgreSQLExtractor) extractColumns(ctx context.Context, tableName string) ([]Column, error) {
	query := `
		SELECT
			c.column_name,
			c.data_type,
			c.character_maximum_length,
			c.numeric_precision,
			c.numeric_scale,
			c.is_nullable = 'YES' AS is_nullable,
			c.column_default,
			COALESCE(col_description(
				to_regclass(quote_ident(c.table_schema) || '.' || quote_ident(c.table_name))::oid,
				c.ordinal_position), '') AS comment
		FROM information_schema.columns c
		WHERE c.table_schema = 'public' AND c.table_name = $1
		ORDER BY c.ordinal_position
	`

	rows, err := p.db.QueryContext(ctx, query, tableName)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to read columns of "+tableName, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var length, precision, scale sql.NullInt64
		var defaultValue sql.NullString

		if err := rows.Scan(
			&col.Name,
			&col.Type,
			&length,
			&precision,
			&scale,
			&col.IsNullable,
			&defaultValue,
			&col.Comment,
		); err != nil {
			return nil, errs.Wrap(errs.KindIO, "failed to scan column", err)
		}

		col.Length = intPtr(length)
		col.Precision = intPtr(precision)
		col.Scale = intPtr(scale)
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
			col.IsAutoIncrement = strings.HasPrefix(defaultValue.String, "nextval(")
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// extractConstraintColumns lists the columns covered by constraints of the
// given type on a table. For UNIQUE only single-column constraints count.
func (p *PostgreSQLExtractor) extractConstraintColumns(ctx context.Context, tableName, constraintType string) ([]string, error) {
	query := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
		WHERE tc.table_schema = 'public'
			AND tc.table_name = $1
			AND tc.constraint_type = $2
			AND ($2 <> 'UNIQUE' OR (
				SELECT COUNT(*) FROM information_schema.key_column_usage k2
				WHERE k2.constraint_name = tc.constraint_name) = 1)
		ORDER BY kcu.ordinal_position
	`

	rows, err := p.db.QueryContext(ctx, query, tableName, constraintType)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to read constraints of "+tableName, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var columnName string
		if err := rows.Scan(&columnName); err != nil {
			return nil, errs.Wrap(errs.KindIO, "failed to scan constraint column", err)
		}
		names = append(names, columnName)
	}

	return names, rows.Err()
}

func (p *PostgreSQLExtractor) extractViews(ctx context.Context, cfg config.SchemaConfig) ([]Table, error) {
	query := `
		SELECT table_name
		FROM information_schema.views
		WHERE table_schema = 'public'
		ORDER BY table_name
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to list views", err)
	}

	var views []Table
	for rows.Next() {
		view := Table{IsView: true}
		if err := rows.Scan(&view.Name); err != nil {
			rows.Close()
			return nil, errs.Wrap(errs.KindIO, "failed to scan view", err)
		}
		if included(cfg, view.Name) {
			views = append(views, view)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errs.Wrap(errs.KindIO, "failed to list views", err)
	}
	rows.Close()

	for i := range views {
		columns, err := p.extractColumns(ctx, views[i].Name)
		if err != nil {
			return nil, err
		}
		views[i].Columns = columns
	}

	return views, nil
}

func (p *PostgreSQLExtractor) extractForeignKeys(ctx context.Context, cfg config.SchemaConfig) ([]ForeignKey, error) {
	query := `
		SELECT
			tc.table_name,
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = 'public'
		ORDER BY tc.table_name, kcu.column_name
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to list foreign keys", err)
	}
	defer rows.Close()

	var foreignKeys []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(
			&fk.Table,
			&fk.Column,
			&fk.ReferencedTable,
			&fk.ReferencedColumn,
		); err != nil {
			return nil, errs.Wrap(errs.KindIO, "failed to scan foreign key", err)
		}

		if fkIncluded(cfg, fk) {
			foreignKeys = append(foreignKeys, fk)
		}
	}

	return foreignKeys, rows.Err()
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
