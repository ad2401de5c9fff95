package database

import (
	"erdv/internal/schema"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	gridColumns = 4
	gridStepX   = 250.0
	gridStepY   = 220.0
)

// newRelationID is swapped in tests for stable ids.
var newRelationID = uuid.NewString

// Diagram converts the catalog into a normalized diagram. Tables and views
// become entities keyed by name and laid out on a grid; every foreign key
// whose two tables are both present becomes a relation from the referenced
// table to the referencing one.
func (c *Catalog) Diagram() *schema.Diagram {
	d := schema.New()

	refs := make(map[string]string, len(c.ForeignKeys))
	for _, fk := range c.ForeignKeys {
		refs[fkKey(fk.Table, fk.Column)] = fk.ReferencedTable + "." + fk.ReferencedColumn
	}

	tables := make([]Table, 0, len(c.Tables)+len(c.Views))
	tables = append(tables, c.Tables...)
	tables = append(tables, c.Views...)

	for i, t := range tables {
		e := schema.NewEntity(t.Name, t.Name)
		e.PhysicalName = t.Name
		e.X = schema.DefaultX + float64(i%gridColumns)*gridStepX
		e.Y = schema.DefaultY + float64(i/gridColumns)*gridStepY

		for _, col := range t.Columns {
			e.Attributes = append(e.Attributes, attribute(col, refs[fkKey(t.Name, col.Name)]))
		}
		d.Entities[e.ID] = e
	}

	fks := make([]ForeignKey, len(c.ForeignKeys))
	copy(fks, c.ForeignKeys)
	sort.SliceStable(fks, func(i, j int) bool {
		if fks[i].Table != fks[j].Table {
			return fks[i].Table < fks[j].Table
		}
		return fks[i].Column < fks[j].Column
	})

	for _, fk := range fks {
		to, ok := d.Entities[fk.Table]
		if !ok {
			continue
		}
		if _, ok := d.Entities[fk.ReferencedTable]; !ok {
			continue
		}

		column := fk.Column
		d.Relations = append(d.Relations, schema.Relation{
			ID:            newRelationID(),
			FromEntityID:  fk.ReferencedTable,
			FromAttribute: fk.ReferencedColumn,
			ToEntityID:    fk.Table,
			ToAttribute:   &column,
			Cardinality:   cardinality(to, fk.Column),
			Name:          fk.Column,
		})
	}

	return schema.Normalize(d)
}

func attribute(col Column, ref string) schema.Attribute {
	a := schema.Attribute{
		LogicalName:     col.Name,
		PhysicalName:    col.Name,
		DataType:        col.Type,
		Length:          lengthQualifier(col),
		DefaultValue:    col.DefaultValue,
		IsPrimaryKey:    col.IsPrimaryKey,
		IsNullable:      col.IsNullable,
		IsUnique:        col.IsUnique,
		IsAutoIncrement: col.IsAutoIncrement,
	}
	if ref != "" {
		a.IsForeignKey = true
		a.ForeignKeyReference = &ref
	}
	if col.Comment != "" {
		remark := col.Comment
		a.Remark = &remark
	}
	return a
}

// cardinality is one-to-one when the referencing column alone identifies a
// row, one-to-many otherwise.
func cardinality(e *schema.Entity, column string) schema.Cardinality {
	pks := 0
	for _, a := range e.Attributes {
		if a.IsPrimaryKey {
			pks++
		}
	}
	for _, a := range e.Attributes {
		if a.PhysicalName != column {
			continue
		}
		if a.IsUnique || (a.IsPrimaryKey && pks == 1) {
			return schema.OneToOne
		}
	}
	return schema.OneToMany
}

// lengthQualifier returns the character length, or precision[,scale] for
// exact numeric types.
func lengthQualifier(col Column) *string {
	if col.Length != nil {
		s := strconv.Itoa(*col.Length)
		return &s
	}
	switch strings.ToLower(col.Type) {
	case "decimal", "numeric":
		if col.Precision == nil {
			return nil
		}
		s := strconv.Itoa(*col.Precision)
		if col.Scale != nil {
			s += "," + strconv.Itoa(*col.Scale)
		}
		return &s
	}
	return nil
}

func fkKey(table, column string) string {
	return table + "\x00" + column
}
