package database

import (
	"context"
	"database/sql"
	"erdv/internal/errs"
	"erdv/pkg/config"
	"fmt"
	"strconv"
	"strings"
)

type SQLiteExtractor struct {
	db *sql.DB
}

func (s *SQLiteExtractor) ExtractCatalog(ctx context.Context, cfg config.SchemaConfig) (*Catalog, error) {
	c := &Catalog{}

	tables, err := s.extractTables(ctx, cfg, "table")
	if err != nil {
		return nil, err
	}
	c.Tables = tables

	if cfg.IncludeViews {
		views, err := s.extractTables(ctx, cfg, "view")
		if err != nil {
			return nil, err
		}
		c.Views = views
	}

	foreignKeys, err := s.extractForeignKeys(ctx, cfg, tables)
	if err != nil {
		return nil, err
	}
	c.ForeignKeys = foreignKeys

	return c, nil
}

func (s *SQLiteExtractor) extractTables(ctx context.Context, cfg config.SchemaConfig, kind string) ([]Table, error) {
	query := `
		SELECT name, sql
		FROM sqlite_master
		WHERE type = ? AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query, kind)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to list tables", err)
	}

	var tables []Table
	var ddl []string
	for rows.Next() {
		var table Table
		var sqlDef sql.NullString
		if err := rows.Scan(&table.Name, &sqlDef); err != nil {
			rows.Close()
			return nil, errs.Wrap(errs.KindIO, "failed to scan table", err)
		}
		if !included(cfg, table.Name) {
			continue
		}
		table.IsView = kind == "view"
		tables = append(tables, table)
		ddl = append(ddl, sqlDef.String)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errs.Wrap(errs.KindIO, "failed to list tables", err)
	}
	rows.Close()

	for i := range tables {
		table := &tables[i]

		columns, err := s.extractColumns(ctx, table.Name)
		if err != nil {
			return nil, err
		}
		table.Columns = columns

		for _, col := range columns {
			if col.IsPrimaryKey {
				table.PrimaryKeys = append(table.PrimaryKeys, col.Name)
			}
		}

		if table.IsView {
			continue
		}

		unique, err := s.extractUniqueColumns(ctx, table.Name)
		if err != nil {
			return nil, err
		}
		autoIncrement := strings.Contains(strings.ToUpper(ddl[i]), "AUTOINCREMENT")
		for j := range table.Columns {
			col := &table.Columns[j]
			col.IsUnique = contains(unique, col.Name)
			col.IsAutoIncrement = autoIncrement && col.IsPrimaryKey && len(table.PrimaryKeys) == 1
		}
	}

	return tables, nil
}

func (s *SQLiteExtractor) extractColumns(ctx context.Context, tableName string) ([]Column, error) {
	query := fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to read columns of "+tableName, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		var cid int
		var declared string
		var defaultValue sql.NullString
		var notNull int
		var pk int

		if err := rows.Scan(
			&cid,
			&col.Name,
			&declared,
			&notNull,
			&defaultValue,
			&pk,
		); err != nil {
			return nil, errs.Wrap(errs.KindIO, "failed to scan column", err)
		}

		col.Type, col.Length, col.Precision, col.Scale = parseDeclaredType(declared)
		col.IsNullable = notNull == 0 && pk == 0
		col.IsPrimaryKey = pk > 0
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// extractUniqueColumns returns the columns that carry a single-column
// UNIQUE constraint.
func (s *SQLiteExtractor) extractUniqueColumns(ctx context.Context, tableName string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to list indexes of "+tableName, err)
	}

	var indexes []string
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, errs.Wrap(errs.KindIO, "failed to scan index", err)
		}
		if unique == 1 && origin == "u" && partial == 0 {
			indexes = append(indexes, name)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, errs.Wrap(errs.KindIO, "failed to list indexes of "+tableName, err)
	}
	rows.Close()

	var columns []string
	for _, index := range indexes {
		names, err := s.indexColumns(ctx, index)
		if err != nil {
			return nil, err
		}
		if len(names) == 1 {
			columns = append(columns, names[0])
		}
	}
	return columns, nil
}

func (s *SQLiteExtractor) indexColumns(ctx context.Context, index string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(index)))
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to read index "+index, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, errs.Wrap(errs.KindIO, "failed to scan index column", err)
		}
		names = append(names, name.String)
	}
	return names, rows.Err()
}

func (s *SQLiteExtractor) extractForeignKeys(ctx context.Context, cfg config.SchemaConfig, tables []Table) ([]ForeignKey, error) {
	var foreignKeys []ForeignKey
	for _, table := range tables {
		query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table.Name))

		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return nil, errs.Wrap(errs.KindIO, "failed to list foreign keys of "+table.Name, err)
		}

		for rows.Next() {
			var fk ForeignKey
			var id, seq int
			var referenced sql.NullString
			var onUpdate, onDelete, match string

			if err := rows.Scan(
				&id,
				&seq,
				&fk.ReferencedTable,
				&fk.Column,
				&referenced,
				&onUpdate,
				&onDelete,
				&match,
			); err != nil {
				rows.Close()
				return nil, errs.Wrap(errs.KindIO, "failed to scan foreign key", err)
			}

			fk.Table = table.Name
			fk.ReferencedColumn = referenced.String

			// A reference without a column list targets the primary key.
			if !referenced.Valid || referenced.String == "" {
				fk.ReferencedColumn = primaryKeyOf(tables, fk.ReferencedTable)
			}

			if fkIncluded(cfg, fk) {
				foreignKeys = append(foreignKeys, fk)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, errs.Wrap(errs.KindIO, "failed to list foreign keys of "+table.Name, err)
		}
	}

	return foreignKeys, nil
}

func primaryKeyOf(tables []Table, name string) string {
	for _, t := range tables {
		if strings.EqualFold(t.Name, name) && len(t.PrimaryKeys) > 0 {
			return t.PrimaryKeys[0]
		}
	}
	return ""
}

// parseDeclaredType splits a declared column type such as VARCHAR(50) or
// DECIMAL(10,2) into its name and size qualifiers.
func parseDeclaredType(declared string) (name string, length, precision, scale *int) {
	declared = strings.TrimSpace(declared)
	open := strings.IndexByte(declared, '(')
	if open < 0 || !strings.HasSuffix(declared, ")") {
		return declared, nil, nil, nil
	}

	name = strings.TrimSpace(declared[:open])
	args := strings.Split(declared[open+1:len(declared)-1], ",")
	nums := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return declared, nil, nil, nil
		}
		nums = append(nums, n)
	}

	switch strings.ToLower(name) {
	case "decimal", "numeric":
		precision = &nums[0]
		if len(nums) > 1 {
			scale = &nums[1]
		}
	default:
		length = &nums[0]
	}
	return name, length, precision, scale
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
