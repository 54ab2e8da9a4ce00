package schema

import (
	"bytes"
	"maps"
	"slices"
	"strings"

	"github.com/graphql-go/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"

	"github.com/syssam/postgraph"
)

var builtinScalars = map[string]bool{
	"String":  true,
	"Int":     true,
	"Float":   true,
	"Boolean": true,
	"ID":      true,
}

// PrintSchema renders s in the GraphQL schema definition language. Types
// are sorted by name and builtin types are left out. The output is parsed
// back before it is returned.
func PrintSchema(s graphql.Schema) (string, error) {
	doc := &ast.SchemaDocument{}
	types := s.TypeMap()
	for _, name := range slices.Sorted(maps.Keys(types)) {
		if builtinScalars[name] || strings.HasPrefix(name, "__") {
			continue
		}
		if def := definition(types[name]); def != nil {
			doc.Definitions = append(doc.Definitions, def)
		}
	}
	var buf bytes.Buffer
	formatter.NewFormatter(&buf, formatter.WithIndent("  ")).FormatSchemaDocument(doc)
	out := buf.String()
	if _, err := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphql", Input: out}); err != nil {
		return "", &postgraph.SchemaError{Message: "printed schema does not parse", Cause: err}
	}
	return out, nil
}

func definition(t graphql.Type) *ast.Definition {
	switch t := t.(type) {
	case *graphql.Scalar:
		return &ast.Definition{Kind: ast.Scalar, Name: t.Name(), Description: t.Description()}
	case *graphql.Enum:
		def := &ast.Definition{Kind: ast.Enum, Name: t.Name(), Description: t.Description()}
		values := slices.Clone(t.Values())
		slices.SortFunc(values, func(a, b *graphql.EnumValueDefinition) int {
			return strings.Compare(a.Name, b.Name)
		})
		for _, v := range values {
			def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{Name: v.Name, Description: v.Description})
		}
		return def
	case *graphql.Object:
		def := &ast.Definition{Kind: ast.Object, Name: t.Name(), Description: t.Description()}
		for _, i := range t.Interfaces() {
			def.Interfaces = append(def.Interfaces, i.Name())
		}
		def.Fields = outputFields(t.Fields())
		return def
	case *graphql.Interface:
		return &ast.Definition{Kind: ast.Interface, Name: t.Name(), Description: t.Description(), Fields: outputFields(t.Fields())}
	case *graphql.InputObject:
		def := &ast.Definition{Kind: ast.InputObject, Name: t.Name(), Description: t.Description()}
		fields := t.Fields()
		for _, name := range slices.Sorted(maps.Keys(fields)) {
			f := fields[name]
			def.Fields = append(def.Fields, &ast.FieldDefinition{Name: name, Description: f.Description(), Type: astType(f.Type)})
		}
		return def
	}
	return nil
}

func outputFields(fields graphql.FieldDefinitionMap) ast.FieldList {
	var list ast.FieldList
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		f := fields[name]
		fd := &ast.FieldDefinition{Name: name, Description: f.Description, Type: astType(f.Type)}
		args := slices.Clone(f.Args)
		slices.SortFunc(args, func(a, b *graphql.Argument) int {
			return strings.Compare(a.Name(), b.Name())
		})
		for _, a := range args {
			fd.Arguments = append(fd.Arguments, &ast.ArgumentDefinition{Name: a.Name(), Description: a.Description(), Type: astType(a.Type)})
		}
		list = append(list, fd)
	}
	return list
}

func astType(t graphql.Type) *ast.Type {
	switch t := t.(type) {
	case *graphql.NonNull:
		inner := astType(t.OfType)
		inner.NonNull = true
		return inner
	case *graphql.List:
		return ast.ListType(astType(t.OfType), nil)
	default:
		return ast.NamedType(t.Name(), nil)
	}
}
