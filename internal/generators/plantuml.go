package generators

import (
	"erdv/internal/naming"
	"erdv/internal/schema"
	"fmt"
	"strings"
)

var pumlQuote = strings.NewReplacer(`"`, `'`)

// PlantUML renders d as an IE-notation entity diagram. Ordering follows
// Mermaid; entities are aliased by their id so equal logical names stay
// separate.
func PlantUML(d *schema.Diagram) string {
	var builder strings.Builder

	builder.WriteString("@startuml\n")
	builder.WriteString("!theme plain\n")
	builder.WriteString("skinparam linetype ortho\n\n")

	aliases := pumlAliases(d)

	for _, entity := range entitiesByName(d) {
		builder.WriteString(fmt.Sprintf("entity \"%s\" as %s {\n",
			pumlQuote.Replace(oneLine(entity.LogicalName)), aliases[entity]))

		attrs := attributesByRank(entity.Attributes)
		for _, attr := range attrs {
			if attr.IsPrimaryKey {
				builder.WriteString(fmt.Sprintf("  * %s : %s <<PK>>\n",
					naming.ExportToken(attr.PhysicalName), oneLine(typeDisplay(attr))))
			}
		}

		builder.WriteString("  --\n")

		for _, attr := range attrs {
			if attr.IsPrimaryKey {
				continue
			}
			builder.WriteString(fmt.Sprintf("  %s : %s%s\n",
				naming.ExportToken(attr.PhysicalName), oneLine(typeDisplay(attr)), pumlStereotypes(attr)))
		}

		builder.WriteString("}\n\n")
	}

	for _, e := range edgesByName(d) {
		builder.WriteString(fmt.Sprintf("%s %s %s : %s\n",
			aliases[e.from],
			crowsFoot(e.rel.Cardinality),
			aliases[e.to],
			naming.ExportToken(e.rel.Name)))
	}

	builder.WriteString("\n@enduml\n")

	return builder.String()
}

// pumlAliases derives an alias per entity from its id. Ids that sanitize to
// the same token get a numeric suffix, assigned in id order.
func pumlAliases(d *schema.Diagram) map[*schema.Entity]string {
	entities := entitiesByID(d)
	aliases := make(map[*schema.Entity]string, len(entities))
	taken := make(map[string]bool, len(entities))

	for _, e := range entities {
		base := "e_" + naming.ExportToken(e.ID)
		alias := base
		for n := 2; taken[alias]; n++ {
			alias = fmt.Sprintf("%s_%d", base, n)
		}
		taken[alias] = true
		aliases[e] = alias
	}
	return aliases
}

func pumlStereotypes(a schema.Attribute) string {
	var s string
	if a.IsForeignKey {
		s += " <<FK>>"
	}
	if a.IsUnique {
		s += " <<UNIQUE>>"
	}
	if !a.IsNullable {
		s += " <<NOT NULL>>"
	}
	return s
}
