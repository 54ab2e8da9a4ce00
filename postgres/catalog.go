package postgres

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lib/pq/oid"
	"gopkg.in/yaml.v3"
)

// Catalog is a snapshot of the PostgreSQL catalog objects the inventory is
// built from. It is produced by an external introspection step and loaded
// from YAML.
type Catalog struct {
	Namespaces  []*Namespace  `yaml:"namespaces"`
	Classes     []*Class      `yaml:"classes"`
	Types       []*Type       `yaml:"types"`
	Constraints []*Constraint `yaml:"constraints"`
	Procedures  []*Proc       `yaml:"procedures"`
}

// Namespace is a schema (pg_namespace).
type Namespace struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// ClassKind is the relkind of a class.
type ClassKind string

// Class kinds.
const (
	KindTable     ClassKind = "table"
	KindView      ClassKind = "view"
	KindComposite ClassKind = "composite"
)

// Class is a table, view or composite type (pg_class).
type Class struct {
	Name         string       `yaml:"name"`
	Namespace    string       `yaml:"namespace"`
	Description  string       `yaml:"description,omitempty"`
	Kind         ClassKind    `yaml:"kind"`
	TypeID       oid.Oid      `yaml:"typeId"`
	IsSelectable bool         `yaml:"isSelectable"`
	IsInsertable bool         `yaml:"isInsertable"`
	IsUpdatable  bool         `yaml:"isUpdatable"`
	IsDeletable  bool         `yaml:"isDeletable"`
	Attributes   []*Attribute `yaml:"attributes"`
}

// Attribute returns the attribute with the given number, or nil.
func (c *Class) Attribute(num int) *Attribute {
	for _, a := range c.Attributes {
		if a.Num == num {
			return a
		}
	}
	return nil
}

// Attribute is a class column (pg_attribute).
type Attribute struct {
	Num         int     `yaml:"num"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	TypeID      oid.Oid `yaml:"typeId"`
	NotNull     bool    `yaml:"notNull"`
	HasDefault  bool    `yaml:"hasDefault"`
}

// TypeKind is the typtype of a type.
type TypeKind string

// Type kinds.
const (
	TypeBase      TypeKind = "b"
	TypeComposite TypeKind = "c"
	TypeDomain    TypeKind = "d"
	TypeEnum      TypeKind = "e"
	TypeRange     TypeKind = "r"
	TypePseudo    TypeKind = "p"
)

// Type is a user defined or non builtin type (pg_type). Builtin scalar
// types are known by OID and need not be listed.
type Type struct {
	ID          oid.Oid  `yaml:"id"`
	Name        string   `yaml:"name"`
	Namespace   string   `yaml:"namespace"`
	Description string   `yaml:"description,omitempty"`
	Kind        TypeKind `yaml:"kind"`
	// Category is "A" for array types.
	Category string `yaml:"category,omitempty"`
	// ItemID is the element type of an array type.
	ItemID oid.Oid `yaml:"itemId,omitempty"`
	// BaseID is the base type of a domain.
	BaseID oid.Oid `yaml:"baseId,omitempty"`
	// RangeSubTypeID is the subtype of a range.
	RangeSubTypeID oid.Oid `yaml:"rangeSubTypeId,omitempty"`
	// Class is the name of the class backing a composite type.
	Class        string   `yaml:"class,omitempty"`
	EnumVariants []string `yaml:"enumVariants,omitempty"`
}

// ConstraintKind is the contype of a constraint.
type ConstraintKind string

// Constraint kinds.
const (
	ConstraintPrimaryKey ConstraintKind = "p"
	ConstraintUnique     ConstraintKind = "u"
	ConstraintForeignKey ConstraintKind = "f"
)

// Constraint is a table constraint (pg_constraint).
type Constraint struct {
	Name        string         `yaml:"name"`
	Kind        ConstraintKind `yaml:"kind"`
	Namespace   string         `yaml:"namespace"`
	Class       string         `yaml:"class"`
	KeyAttrNums []int          `yaml:"keyAttrNums"`
}

// Proc is a function (pg_proc).
type Proc struct {
	Name         string    `yaml:"name"`
	Namespace    string    `yaml:"namespace"`
	Description  string    `yaml:"description,omitempty"`
	IsStrict     bool      `yaml:"isStrict"`
	ReturnsSet   bool      `yaml:"returnsSet"`
	IsStable     bool      `yaml:"isStable"`
	ReturnTypeID oid.Oid   `yaml:"returnTypeId"`
	ArgTypeIDs   []oid.Oid `yaml:"argTypeIds"`
	ArgNames     []string  `yaml:"argNames"`
}

// LoadCatalog reads a catalog snapshot from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("postgres: read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalog snapshot. Unknown keys are rejected.
func ParseCatalog(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var c Catalog
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("postgres: parse catalog: %w", err)
	}
	return &c, nil
}

// class returns the named class.
func (c *Catalog) class(namespace, name string) *Class {
	for _, cls := range c.Classes {
		if cls.Namespace == namespace && cls.Name == name {
			return cls
		}
	}
	return nil
}

// typ returns the listed type with the given id.
func (c *Catalog) typ(id oid.Oid) *Type {
	for _, t := range c.Types {
		if t.ID == id {
			return t
		}
	}
	return nil
}
