// Package codec converts diagrams to and from their persisted JSON form.
//
// A persisted diagram is a single JSON object:
//
//	{"entities": {"<id>": {...}}, "relations": [...], "canvas_width": 1200, "canvas_height": 800}
//
// Every decoded diagram must pass through schema.Normalize before anything
// else reads it; Load does that and applies the sanity limits.
package codec

import (
	"bytes"
	"encoding/json"
	"erdv/internal/errs"
	"erdv/internal/schema"
	"fmt"
)

const (
	// MaxDepth is the deepest array/object nesting Deserialize accepts.
	MaxDepth = 128

	MaxEntities  = 1000
	MaxRelations = 5000
)

// Deserialize decodes a diagram. Nesting deeper than MaxDepth fails with a
// KindTooComplex error, anything else that does not decode with KindParse.
func Deserialize(data []byte) (*schema.Diagram, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errs.New(errs.KindParse, "cannot parse diagram: expected a JSON object")
	}
	if depth(trimmed) > MaxDepth {
		return nil, errs.New(errs.KindTooComplex, "diagram structure is too complex")
	}

	var d schema.Diagram
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return nil, errs.Wrap(errs.KindParse, "cannot parse diagram", err)
	}
	return &d, nil
}

// Serialize encodes d as indented JSON. Map keys come out sorted, so equal
// diagrams serialize to equal bytes.
func Serialize(d *schema.Diagram) ([]byte, error) {
	if d == nil {
		return nil, errs.New(errs.KindInvalidInput, "cannot serialize a nil diagram")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return nil, errs.Wrap(errs.KindInvalidInput, "cannot serialize diagram", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Load decodes, normalizes and sanity-checks a persisted diagram.
func Load(data []byte) (*schema.Diagram, error) {
	d, err := Deserialize(data)
	if err != nil {
		return nil, err
	}
	schema.Normalize(d)
	if err := CheckLimits(d); err != nil {
		return nil, err
	}
	return d, nil
}

// CheckLimits rejects diagrams above the entity or relation ceilings.
func CheckLimits(d *schema.Diagram) error {
	if n := len(d.Entities); n > MaxEntities {
		return errs.Wrap(errs.KindLimitExceeded,
			fmt.Sprintf("too many entities (max %d)", MaxEntities),
			fmt.Errorf("diagram has %d entities", n))
	}
	if n := len(d.Relations); n > MaxRelations {
		return errs.Wrap(errs.KindLimitExceeded,
			fmt.Sprintf("too many relations (max %d)", MaxRelations),
			fmt.Errorf("diagram has %d relations", n))
	}
	return nil
}

// depth returns the maximum array/object nesting of a JSON document without
// decoding it. Brackets inside strings are ignored.
func depth(data []byte) int {
	var cur, deepest int
	inString, escaped := false, false

	for _, c := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			cur++
			if cur > deepest {
				deepest = cur
			}
		case '}', ']':
			cur--
		}
	}
	return deepest
}
