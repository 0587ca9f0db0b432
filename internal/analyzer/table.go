package analyzer

import (
	"github.com/mark3labs/hto/internal/spec"
	"github.com/mark3labs/hto/internal/typeinfo"
)

// SchemaTable collects every type referenced while analyzing routes. It is
// owned by one Analyze call: Push appends during the walk, Freeze ends the
// walk, and synthesis fills Schemas and Components.
type SchemaTable struct {
	types  []typeinfo.TypeDescriptor
	frozen bool

	// Schemas maps a table index to its synthesized schema.
	Schemas []*spec.Schema
	// Components holds the named, referenceable schemas.
	Components map[string]*spec.Schema
}

func NewSchemaTable() *SchemaTable {
	return &SchemaTable{}
}

// Push appends t and returns its index. It never searches for an existing
// entry.
func (st *SchemaTable) Push(t typeinfo.TypeDescriptor) int {
	if st.frozen {
		panic("analyzer: push to a frozen schema table")
	}
	st.types = append(st.types, t)
	return len(st.types) - 1
}

// Len returns the number of collected types.
func (st *SchemaTable) Len() int { return len(st.types) }

// Type returns the descriptor stored at index i.
func (st *SchemaTable) Type(i int) typeinfo.TypeDescriptor { return st.types[i] }

// Freeze ends collection.
func (st *SchemaTable) Freeze() { st.frozen = true }

// Schema returns the synthesized schema for index i, or nil before
// synthesis or for an out-of-range index.
func (st *SchemaTable) Schema(i int) *spec.Schema {
	if i < 0 || i >= len(st.Schemas) {
		return nil
	}
	return st.Schemas[i]
}
