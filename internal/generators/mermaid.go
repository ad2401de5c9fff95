package generators

import (
	"erdv/internal/naming"
	"erdv/internal/schema"
	"fmt"
	"strings"
)

// Mermaid renders d as a fenced Mermaid erDiagram block. The output depends
// only on the diagram's content, never on map or slice iteration order.
func Mermaid(d *schema.Diagram) string {
	var builder strings.Builder

	builder.WriteString("```mermaid\nerDiagram\n")

	for _, entity := range entitiesByName(d) {
		builder.WriteString(fmt.Sprintf("    %s {\n", naming.ExportToken(entity.LogicalName)))

		// Mermaid has no syntax for defaults or auto increment.
		for _, attr := range attributesByRank(entity.Attributes) {
			builder.WriteString(fmt.Sprintf("        %s %s%s\n",
				naming.ExportToken(attr.PhysicalName),
				mermaidType(attr),
				mermaidKeys(attr)))
		}

		builder.WriteString("    }\n")
	}

	for _, e := range edgesByName(d) {
		builder.WriteString(fmt.Sprintf("    %s %s %s : %s\n",
			naming.ExportToken(e.from.LogicalName),
			crowsFoot(e.rel.Cardinality),
			naming.ExportToken(e.to.LogicalName),
			naming.ExportToken(e.rel.Name)))
	}

	builder.WriteString("```\n")

	return builder.String()
}

// mermaidType keeps the type a single token: Mermaid reads the first two
// words of an attribute line as type and name, so "character varying"
// becomes character_varying.
func mermaidType(a schema.Attribute) string {
	token := strings.Join(strings.Fields(typeDisplay(a)), "_")
	if token == "" {
		return "unknown"
	}
	return token
}

func mermaidKeys(a schema.Attribute) string {
	var keys string
	if a.IsPrimaryKey {
		keys += " PK"
	}
	if a.IsForeignKey {
		keys += " FK"
	}
	if a.IsUnique && !a.IsPrimaryKey {
		keys += " UK"
	}
	return keys
}
