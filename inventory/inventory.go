// Package inventory is the read-only registry the schema is built from.
//
// An Inventory holds Collections, each with an object type, an optional
// Paginator and zero or more CollectionKeys, plus standalone Procedures.
// Capabilities are nil-able function fields: a nil capability means the
// schema builder does not generate the matching field.
package inventory

import (
	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/types"
)

// Inventory is a registry of collections and procedures. It is populated
// once and only read afterwards.
type Inventory struct {
	collections []*Collection
	byName      map[string]*Collection
	byType      map[*types.Object]*Collection
	procedures  []*Procedure
	procByName  map[string]*Procedure
}

// New returns an empty inventory.
func New() *Inventory {
	return &Inventory{
		byName:     make(map[string]*Collection),
		byType:     make(map[*types.Object]*Collection),
		procByName: make(map[string]*Procedure),
	}
}

// AddCollection registers a collection. Names and object types are unique.
func (inv *Inventory) AddCollection(c *Collection) error {
	if c.Type == nil {
		return postgraph.NewSchemaError(c.Name, "collection has no type")
	}
	if _, ok := inv.byName[c.Name]; ok {
		return postgraph.NewSchemaError(c.Name, "collection already registered")
	}
	if other, ok := inv.byType[c.Type]; ok {
		return postgraph.NewSchemaError(c.Type.Name(), "type already backs collection "+other.Name)
	}
	for _, k := range c.keys() {
		k.Collection = c
	}
	inv.collections = append(inv.collections, c)
	inv.byName[c.Name] = c
	inv.byType[c.Type] = c
	return nil
}

// Collections returns the collections in registration order.
func (inv *Inventory) Collections() []*Collection {
	return inv.collections
}

// Collection returns the named collection, or nil.
func (inv *Inventory) Collection(name string) *Collection {
	return inv.byName[name]
}

// CollectionForType returns the collection whose primary type is t, or nil.
func (inv *Inventory) CollectionForType(t *types.Object) *Collection {
	return inv.byType[t]
}

// AddProcedure registers a procedure.
func (inv *Inventory) AddProcedure(p *Procedure) error {
	if _, ok := inv.procByName[p.Name]; ok {
		return postgraph.NewSchemaError(p.Name, "procedure already registered")
	}
	if p.ReturnsSet && p.Stable {
		if _, ok := p.Paginator.(InputBinder); !ok {
			return &postgraph.SchemaError{
				Type:    p.Name,
				Message: "set returning procedure needs a paginator bound by its arguments",
				Cause:   postgraph.ErrInvalidPaginator,
			}
		}
	}
	inv.procedures = append(inv.procedures, p)
	inv.procByName[p.Name] = p
	return nil
}

// Procedures returns the procedures in registration order.
func (inv *Inventory) Procedures() []*Procedure {
	return inv.procedures
}

// Procedure returns the named procedure, or nil.
func (inv *Inventory) Procedure(name string) *Procedure {
	return inv.procByName[name]
}
