package schema

import (
	"encoding/json"
	"fmt"
)

// Decoding fills the defaults older files rely on and accepts the legacy
// "name" key wherever "logical_name" is expected.

func (d *Diagram) UnmarshalJSON(data []byte) error {
	type plain Diagram
	aux := plain{
		Entities:     map[string]*Entity{},
		Relations:    []Relation{},
		CanvasWidth:  DefaultCanvasWidth,
		CanvasHeight: DefaultCanvasHeight,
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*d = Diagram(aux)
	return nil
}

func (e *Entity) UnmarshalJSON(data []byte) error {
	type plain Entity
	aux := struct {
		plain
		ID          *string `json:"id"`
		LogicalName *string `json:"logical_name"`
		Name        *string `json:"name"`
	}{
		plain: plain{
			X:          DefaultX,
			Y:          DefaultY,
			Width:      DefaultWidth,
			Height:     DefaultHeight,
			Attributes: []Attribute{},
		},
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.ID == nil {
		return missingField("entity", "id")
	}
	logical, ok := pick(aux.LogicalName, aux.Name)
	if !ok {
		return fmt.Errorf("entity %q: %w", *aux.ID, missingField("entity", "logical_name"))
	}

	*e = Entity(aux.plain)
	e.ID = *aux.ID
	e.LogicalName = logical
	return nil
}

func (a *Attribute) UnmarshalJSON(data []byte) error {
	type plain Attribute
	aux := struct {
		plain
		LogicalName *string `json:"logical_name"`
		Name        *string `json:"name"`
		DataType    *string `json:"data_type"`
	}{
		plain: plain{IsNullable: true},
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	logical, ok := pick(aux.LogicalName, aux.Name)
	if !ok {
		return missingField("attribute", "logical_name")
	}
	if aux.DataType == nil {
		return fmt.Errorf("attribute %q: %w", logical, missingField("attribute", "data_type"))
	}

	*a = Attribute(aux.plain)
	a.LogicalName = logical
	a.DataType = *aux.DataType
	return nil
}

func (r *Relation) UnmarshalJSON(data []byte) error {
	type plain Relation
	aux := struct {
		plain
		ID            *string      `json:"id"`
		FromEntityID  *string      `json:"from_entity_id"`
		FromAttribute *string      `json:"from_attribute"`
		ToEntityID    *string      `json:"to_entity_id"`
		Cardinality   *Cardinality `json:"cardinality"`
		Name          *string      `json:"name"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	required := []struct {
		field string
		set   bool
	}{
		{"id", aux.ID != nil},
		{"from_entity_id", aux.FromEntityID != nil},
		{"from_attribute", aux.FromAttribute != nil},
		{"to_entity_id", aux.ToEntityID != nil},
		{"cardinality", aux.Cardinality != nil},
		{"name", aux.Name != nil},
	}
	for _, f := range required {
		if !f.set {
			return missingField("relation", f.field)
		}
	}

	*r = Relation(aux.plain)
	r.ID = *aux.ID
	r.FromEntityID = *aux.FromEntityID
	r.FromAttribute = *aux.FromAttribute
	r.ToEntityID = *aux.ToEntityID
	r.Cardinality = *aux.Cardinality
	r.Name = *aux.Name
	return nil
}

func (c *Cardinality) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cardinality: %w", err)
	}
	v := Cardinality(s)
	if !v.Valid() {
		return fmt.Errorf("unknown cardinality %q, expected one of %s, %s, %s", s, OneToOne, OneToMany, ManyToMany)
	}
	*c = v
	return nil
}

func missingField(kind, field string) error {
	return fmt.Errorf("%s: missing field %q", kind, field)
}

// pick prefers the current key over its legacy alias.
func pick(current, legacy *string) (string, bool) {
	if current != nil {
		return *current, true
	}
	if legacy != nil {
		return *legacy, true
	}
	return "", false
}
