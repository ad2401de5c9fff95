package schema

// Layout defaults applied when a persisted diagram omits a field or carries
// unusable geometry.
const (
	DefaultX            = 50.0
	DefaultY            = 50.0
	DefaultWidth        = 150.0
	DefaultHeight       = 100.0
	DefaultCanvasWidth  = 1200.0
	DefaultCanvasHeight = 800.0
)

// Diagram is the aggregate root. Entities are keyed by id; neither the map's
// iteration order nor the order of Relations carries meaning.
type Diagram struct {
	Entities     map[string]*Entity `json:"entities"`
	Relations    []Relation         `json:"relations"`
	CanvasWidth  float64            `json:"canvas_width"`
	CanvasHeight float64            `json:"canvas_height"`
}

// Entity is a table-like node on the canvas.
type Entity struct {
	ID           string      `json:"id"`
	LogicalName  string      `json:"logical_name"`
	PhysicalName string      `json:"physical_name"`
	X            float64     `json:"x"`
	Y            float64     `json:"y"`
	Width        float64     `json:"width"`
	Height       float64     `json:"height"`
	Attributes   []Attribute `json:"attributes"`
}

// Attribute is a column-like field of an Entity.
type Attribute struct {
	LogicalName         string  `json:"logical_name"`
	PhysicalName        string  `json:"physical_name"`
	DataType            string  `json:"data_type"`
	Length              *string `json:"length"`
	DefaultValue        *string `json:"default_value"`
	IsPrimaryKey        bool    `json:"is_primary_key"`
	IsNullable          bool    `json:"is_nullable"`
	IsForeignKey        bool    `json:"is_foreign_key"`
	IsUnique            bool    `json:"is_unique"`
	IsAutoIncrement     bool    `json:"is_auto_increment"`
	ForeignKeyReference *string `json:"foreign_key_reference"`
	Remark              *string `json:"remark"`
}

// Relation is a directed edge between two entities, referenced by id only.
// Either end may fail to resolve; consumers skip such relations.
type Relation struct {
	ID            string      `json:"id"`
	FromEntityID  string      `json:"from_entity_id"`
	FromAttribute string      `json:"from_attribute"`
	ToEntityID    string      `json:"to_entity_id"`
	ToAttribute   *string     `json:"to_attribute"`
	Cardinality   Cardinality `json:"cardinality"`
	Name          string      `json:"name"`
}

// Cardinality is the multiplicity of a Relation.
type Cardinality string

const (
	OneToOne   Cardinality = "OneToOne"
	OneToMany  Cardinality = "OneToMany"
	ManyToMany Cardinality = "ManyToMany"
)

// Valid reports whether c is one of the three known variants.
func (c Cardinality) Valid() bool {
	switch c {
	case OneToOne, OneToMany, ManyToMany:
		return true
	}
	return false
}

// New returns an empty diagram with the default canvas.
func New() *Diagram {
	return &Diagram{
		Entities:     map[string]*Entity{},
		Relations:    []Relation{},
		CanvasWidth:  DefaultCanvasWidth,
		CanvasHeight: DefaultCanvasHeight,
	}
}

// NewEntity returns an entity at the default position and size.
func NewEntity(id, logicalName string) *Entity {
	return &Entity{
		ID:          id,
		LogicalName: logicalName,
		X:           DefaultX,
		Y:           DefaultY,
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Attributes:  []Attribute{},
	}
}

// Resolve looks up both endpoints of r. ok is false when either is missing.
func (d *Diagram) Resolve(r Relation) (from, to *Entity, ok bool) {
	from = d.Entities[r.FromEntityID]
	to = d.Entities[r.ToEntityID]
	return from, to, from != nil && to != nil
}
