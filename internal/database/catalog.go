package database

import (
	"erdv/pkg/config"
	"strings"
)

// Catalog is what an extractor reads from a live database before it is
// turned into a diagram.
type Catalog struct {
	Tables      []Table
	Views       []Table
	ForeignKeys []ForeignKey
}

type Table struct {
	Name        string
	Columns     []Column
	PrimaryKeys []string
	IsView      bool
}

type Column struct {
	Name            string
	Type            string
	Length          *int
	Precision       *int
	Scale           *int
	IsNullable      bool
	IsPrimaryKey    bool
	IsUnique        bool
	IsAutoIncrement bool
	DefaultValue    *string
	Comment         string
}

type ForeignKey struct {
	Table            string
	Column           string
	ReferencedTable  string
	ReferencedColumn string
}

// included reports whether a table passes the include/exclude filters.
func included(cfg config.SchemaConfig, name string) bool {
	if len(cfg.IncludeTables) > 0 && !contains(cfg.IncludeTables, name) {
		return false
	}
	return !contains(cfg.ExcludeTables, name)
}

// fkIncluded keeps a foreign key when either side is selected and neither
// side is excluded.
func fkIncluded(cfg config.SchemaConfig, fk ForeignKey) bool {
	if len(cfg.IncludeTables) > 0 && !contains(cfg.IncludeTables, fk.Table) && !contains(cfg.IncludeTables, fk.ReferencedTable) {
		return false
	}
	return !contains(cfg.ExcludeTables, fk.Table) && !contains(cfg.ExcludeTables, fk.ReferencedTable)
}

// markPrimaryKeys flags the columns listed in t.PrimaryKeys.
func (t *Table) markPrimaryKeys() {
	for i := range t.Columns {
		if contains(t.PrimaryKeys, t.Columns[i].Name) {
			t.Columns[i].IsPrimaryKey = true
		}
	}
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if strings.EqualFold(s, item) {
			return true
		}
	}
	return false
}
