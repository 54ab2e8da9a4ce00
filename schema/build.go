package schema

import (
	"github.com/graphql-go/graphql"

	"github.com/syssam/postgraph"
	"github.com/syssam/postgraph/inventory"
)

// Build returns the GraphQL schema of an inventory.
func Build(inv *inventory.Inventory, opts ...Option) (graphql.Schema, error) {
	return NewBuildToken(inv, opts...).Schema()
}

// Schema builds the query and mutation types and the schema. Errors raised
// by field thunks while the schema is assembled are returned too.
func (b *BuildToken) Schema() (graphql.Schema, error) {
	query, err := b.queryType()
	if err != nil {
		return graphql.Schema{}, err
	}
	cfg := graphql.SchemaConfig{Query: query}
	if !b.opts.disableMutations {
		mutation, err := b.mutationType()
		if err != nil {
			return graphql.Schema{}, err
		}
		cfg.Mutation = mutation
	}
	for _, c := range b.inv.Collections() {
		cfg.Types = append(cfg.Types, b.collectionType(c))
	}
	s, err := graphql.NewSchema(cfg)
	if err := b.Err(); err != nil {
		return graphql.Schema{}, err
	}
	if err != nil {
		return graphql.Schema{}, &postgraph.SchemaError{Message: "invalid GraphQL schema", Cause: err}
	}
	b.opts.logger.Debug("graphql schema built",
		"types", len(s.TypeMap()),
		"query_fields", len(query.Fields()),
		"mutations", cfg.Mutation != nil,
	)
	return s, nil
}

func (b *BuildToken) queryType() (*graphql.Object, error) {
	fields := graphql.Fields{}
	var query *graphql.Object
	add := func(more graphql.Fields) error {
		for name, f := range more {
			if _, ok := fields[name]; ok {
				return &postgraph.SchemaError{Type: "Query", Field: name, Message: "field already defined", Cause: postgraph.ErrDuplicateField}
			}
			fields[name] = f
		}
		return nil
	}
	if err := add(graphql.Fields{"node": b.nodeField()}); err != nil {
		return nil, err
	}
	for _, c := range b.inv.Collections() {
		more, err := b.collectionQueryFields(c)
		if err != nil {
			return nil, err
		}
		if err := add(more); err != nil {
			return nil, err
		}
	}
	for _, proc := range b.inv.Procedures() {
		if !proc.Stable {
			continue
		}
		f, err := b.ProcedureField(proc)
		if err != nil {
			return nil, err
		}
		if err := add(graphql.Fields{fieldName(proc.Name): f}); err != nil {
			return nil, err
		}
	}
	if _, ok := fields["query"]; ok {
		return nil, &postgraph.SchemaError{Type: "Query", Field: "query", Message: "field already defined", Cause: postgraph.ErrDuplicateField}
	}
	query = graphql.NewObject(graphql.ObjectConfig{
		Name:        "Query",
		Description: "The root query type which gives access points into the data universe.",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			fields["query"] = &graphql.Field{
				Type:        graphql.NewNonNull(query),
				Description: "Exposes the root query type nested one level down.",
				Resolve: func(graphql.ResolveParams) (any, error) {
					return struct{}{}, nil
				},
			}
			return fields
		}),
	})
	return query, nil
}

func (b *BuildToken) mutationType() (*graphql.Object, error) {
	fields := graphql.Fields{}
	add := func(more graphql.Fields) error {
		for name, f := range more {
			if _, ok := fields[name]; ok {
				return &postgraph.SchemaError{Type: "Mutation", Field: name, Message: "field already defined", Cause: postgraph.ErrDuplicateField}
			}
			fields[name] = f
		}
		return nil
	}
	for _, c := range b.inv.Collections() {
		more, err := b.collectionMutationFields(c)
		if err != nil {
			return nil, err
		}
		if err := add(more); err != nil {
			return nil, err
		}
	}
	for _, proc := range b.inv.Procedures() {
		if proc.Stable {
			continue
		}
		f, err := b.ProcedureMutationField(proc)
		if err != nil {
			return nil, err
		}
		if err := add(graphql.Fields{fieldName(proc.Name): f}); err != nil {
			return nil, err
		}
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return graphql.NewObject(graphql.ObjectConfig{
		Name:        "Mutation",
		Description: "The root mutation type which contains root level fields which mutate data.",
		Fields:      fields,
	}), nil
}
