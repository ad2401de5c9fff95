package generators

import (
	"erdv/internal/schema"
	"fmt"
	"strings"
)

var (
	// Characters with meaning inside a record label.
	recordEscaper = strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"{", `\{`,
		"}", `\}`,
		"|", `\|`,
		"<", `\<`,
		">", `\>`,
	)
	idEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
)

// Graphviz renders d as a DOT digraph of record nodes. Nodes are keyed by
// entity id, edges point from the "one" side to the "many" side.
func Graphviz(d *schema.Diagram) string {
	var builder strings.Builder

	builder.WriteString("digraph erd {\n")
	builder.WriteString("  rankdir=TB;\n")
	builder.WriteString("  node [shape=record, style=filled, fillcolor=lightblue];\n")
	builder.WriteString("  edge [color=gray];\n\n")

	for _, entity := range entitiesByName(d) {
		builder.WriteString(fmt.Sprintf("  %s [label=\"{%s|", nodeID(entity.ID), record(entity.LogicalName)))

		fields := make([]string, 0, len(entity.Attributes))
		for _, attr := range attributesByRank(entity.Attributes) {
			field := record(attr.PhysicalName + ": " + typeDisplay(attr))
			if attr.IsPrimaryKey {
				field = "+" + field
			}
			if !attr.IsNullable {
				field += " NOT NULL"
			}
			fields = append(fields, field)
		}

		builder.WriteString(strings.Join(fields, `\l`))
		if len(fields) > 0 {
			builder.WriteString(`\l`)
		}
		builder.WriteString("}\"];\n")
	}

	builder.WriteString("\n")

	for _, e := range edgesByName(d) {
		builder.WriteString(fmt.Sprintf("  %s -> %s [label=\"%s\"];\n",
			nodeID(e.from.ID),
			nodeID(e.to.ID),
			idEscaper.Replace(strings.TrimSpace(oneLine(ratio(e.rel.Cardinality)+" "+e.rel.Name)))))
	}

	builder.WriteString("}\n")

	return builder.String()
}

func nodeID(id string) string {
	return `"` + idEscaper.Replace(oneLine(id)) + `"`
}

func record(s string) string {
	return recordEscaper.Replace(oneLine(s))
}
