package generators

import (
	"erdv/internal/schema"
	"fmt"
	"strings"
)

var cellEscaper = strings.NewReplacer("|", `\|`)

// Markdown renders d as a human-readable document. Entities are listed by
// id; relations keep their stored order and dangling ones are skipped.
func Markdown(d *schema.Diagram) string {
	var builder strings.Builder

	builder.WriteString("# ERD Diagram\n\n")

	entities := entitiesByID(d)
	if len(entities) > 0 {
		builder.WriteString("## Entities\n\n")

		for _, entity := range entities {
			logical, physical := oneLine(entity.LogicalName), oneLine(entity.PhysicalName)
			builder.WriteString(fmt.Sprintf("### %s (%s)\n", logical, physical))
			builder.WriteString(fmt.Sprintf("**논리명**: %s | **물리명**: %s\n\n", logical, physical))

			if len(entity.Attributes) == 0 {
				continue
			}

			builder.WriteString("| Attribute | Logical Name | Physical Name | Type | Default | Constraints |\n")
			builder.WriteString("|-----------|--------------|---------------|------|---------|-------------|\n")
			for _, attr := range entity.Attributes {
				def := "-"
				if attr.DefaultValue != nil {
					def = *attr.DefaultValue
				}
				builder.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s |\n",
					cell(attr.LogicalName),
					cell(attr.LogicalName),
					cell(attr.PhysicalName),
					cell(typeDisplay(attr)),
					cell(def),
					constraints(attr)))
			}
			builder.WriteString("\n")
		}
	}

	edges := resolvedEdges(d)
	if len(edges) > 0 {
		builder.WriteString("## Relations\n\n")

		for _, e := range edges {
			builder.WriteString(fmt.Sprintf("- %s (%s) → %s (%s)\n",
				oneLine(e.from.LogicalName),
				ratio(e.rel.Cardinality),
				oneLine(e.to.LogicalName),
				oneLine(e.rel.Name)))
		}
	}

	return builder.String()
}

// constraints lists the attribute's flags in a fixed order. NOT NULL is the
// inverse of is_nullable.
func constraints(a schema.Attribute) string {
	var parts []string
	if a.IsPrimaryKey {
		parts = append(parts, "PK")
	}
	if a.IsForeignKey {
		parts = append(parts, "FK")
	}
	if a.IsUnique {
		parts = append(parts, "UNIQUE")
	}
	if a.IsAutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
	}
	if !a.IsNullable {
		parts = append(parts, "NOT NULL")
	}
	return strings.Join(parts, ", ")
}

func cell(s string) string {
	return cellEscaper.Replace(oneLine(s))
}
