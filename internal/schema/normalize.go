package schema

import (
	"erdv/internal/naming"
	"math"
	"strings"
)

// Normalize repairs a freshly decoded diagram in place and returns it.
//
// Diagrams written by older versions may lack physical names or carry zero or
// NaN geometry. After Normalize every entity and attribute has a physical
// name, every entity has a positive size and a finite position, and the canvas
// is positive. Normalize never fails and is idempotent.
func Normalize(d *Diagram) *Diagram {
	if d == nil {
		return nil
	}
	if d.Entities == nil {
		d.Entities = map[string]*Entity{}
	}
	if d.Relations == nil {
		d.Relations = []Relation{}
	}

	for id, entity := range d.Entities {
		if entity == nil {
			delete(d.Entities, id)
			continue
		}
		normalizeEntity(entity)
	}

	if !positive(d.CanvasWidth) {
		d.CanvasWidth = DefaultCanvasWidth
	}
	if !positive(d.CanvasHeight) {
		d.CanvasHeight = DefaultCanvasHeight
	}
	return d
}

func normalizeEntity(e *Entity) {
	if blank(e.PhysicalName) {
		e.PhysicalName = naming.Physical(e.LogicalName)
	}
	if !positive(e.Width) {
		e.Width = DefaultWidth
	}
	if !positive(e.Height) {
		e.Height = DefaultHeight
	}
	if !finite(e.X) {
		e.X = DefaultX
	}
	if !finite(e.Y) {
		e.Y = DefaultY
	}

	if e.Attributes == nil {
		e.Attributes = []Attribute{}
	}
	for i := range e.Attributes {
		attr := &e.Attributes[i]
		if blank(attr.PhysicalName) {
			attr.PhysicalName = naming.Physical(attr.LogicalName)
		}
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// positive is false for NaN as well as for values <= 0.
func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
