package generators

import (
	"erdv/internal/schema"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Every renderer sorts copies of the diagram's collections; the diagram
// itself is never reordered.

// edge is a relation whose endpoints both resolved.
type edge struct {
	rel      schema.Relation
	from, to *schema.Entity
}

// fold returns the case-insensitive sort key of s. A Caser is stateful, so a
// fresh one is built per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

// entitiesByName orders entities by case-folded logical name, then by raw
// logical name and id so that ties never depend on map order.
func entitiesByName(d *schema.Diagram) []*schema.Entity {
	out := entityList(d)
	keys := make(map[*schema.Entity]string, len(out))
	for _, e := range out {
		keys[e] = fold(e.LogicalName)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if keys[a] != keys[b] {
			return keys[a] < keys[b]
		}
		if a.LogicalName != b.LogicalName {
			return a.LogicalName < b.LogicalName
		}
		return a.ID < b.ID
	})
	return out
}

// entitiesByID orders entities by their map key.
func entitiesByID(d *schema.Diagram) []*schema.Entity {
	if d == nil {
		return nil
	}
	ids := make([]string, 0, len(d.Entities))
	for id, e := range d.Entities {
		if e != nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	out := make([]*schema.Entity, len(ids))
	for i, id := range ids {
		out[i] = d.Entities[id]
	}
	return out
}

func entityList(d *schema.Diagram) []*schema.Entity {
	if d == nil {
		return nil
	}
	out := make([]*schema.Entity, 0, len(d.Entities))
	for _, e := range d.Entities {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// attributeRank puts primary keys first, then foreign keys, then the rest.
func attributeRank(a schema.Attribute) int {
	switch {
	case a.IsPrimaryKey:
		return 0
	case a.IsForeignKey:
		return 1
	default:
		return 2
	}
}

// attributesByRank returns a sorted copy: rank, then case-folded logical
// name; ties keep stored order.
func attributesByRank(attrs []schema.Attribute) []schema.Attribute {
	out := make([]schema.Attribute, len(attrs))
	copy(out, attrs)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := attributeRank(out[i]), attributeRank(out[j])
		if ri != rj {
			return ri < rj
		}
		return fold(out[i].LogicalName) < fold(out[j].LogicalName)
	})
	return out
}

// resolvedEdges drops dangling relations and keeps stored order.
func resolvedEdges(d *schema.Diagram) []edge {
	if d == nil {
		return nil
	}
	var out []edge
	for _, r := range d.Relations {
		if from, to, ok := d.Resolve(r); ok {
			out = append(out, edge{rel: r, from: from, to: to})
		}
	}
	return out
}

// edgesByName orders resolved relations by source logical name, target
// logical name and relation name (all case-folded), then by id.
func edgesByName(d *schema.Diagram) []edge {
	type keyed struct {
		edge
		fromKey, toKey, nameKey string
	}
	resolved := resolvedEdges(d)
	items := make([]keyed, len(resolved))
	for i, e := range resolved {
		items[i] = keyed{e, fold(e.from.LogicalName), fold(e.to.LogicalName), fold(e.rel.Name)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch {
		case a.fromKey != b.fromKey:
			return a.fromKey < b.fromKey
		case a.toKey != b.toKey:
			return a.toKey < b.toKey
		case a.nameKey != b.nameKey:
			return a.nameKey < b.nameKey
		}
		return a.rel.ID < b.rel.ID
	})

	out := make([]edge, len(items))
	for i, it := range items {
		out[i] = it.edge
	}
	return out
}

// typeDisplay renders data_type or data_type(length).
func typeDisplay(a schema.Attribute) string {
	if a.Length != nil {
		return a.DataType + "(" + *a.Length + ")"
	}
	return a.DataType
}

// ratio is the human-readable cardinality used by Markdown and Graphviz.
func ratio(c schema.Cardinality) string {
	switch c {
	case schema.OneToOne:
		return "1:1"
	case schema.OneToMany:
		return "1:N"
	case schema.ManyToMany:
		return "N:M"
	default:
		return string(c)
	}
}

// crowsFoot is the Mermaid / PlantUML relationship symbol.
func crowsFoot(c schema.Cardinality) string {
	switch c {
	case schema.OneToMany:
		return "||--o{"
	case schema.ManyToMany:
		return "}o--o{"
	default:
		return "||--||"
	}
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// oneLine flattens line breaks so free text cannot break a line-based format.
func oneLine(s string) string {
	return lineBreaks.Replace(s)
}
