package schema

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"

	"github.com/syssam/postgraph"
)

// MutationConfig describes a Relay style mutation field.
type MutationConfig struct {
	Name        string
	Description string
	// InputFields are the fields of the <Name>Input type, next to
	// clientMutationId.
	InputFields graphql.InputObjectConfigFieldMap
	// OutputFields are the fields of the <Name>Payload type, next to
	// clientMutationId. Their resolvers receive the Execute result as
	// source.
	OutputFields graphql.Fields
	// Execute runs the mutation with the coerced input object.
	Execute func(ctx context.Context, input map[string]any) (any, error)
}

type payload struct {
	clientMutationID any
	value            any
}

// MutationField returns a field with a single `input: <Name>Input!`
// argument whose <Name>Payload echoes the client mutation id.
func (b *BuildToken) MutationField(cfg MutationConfig) (*graphql.Field, error) {
	name := typeName(cfg.Name)
	if b.payloads[name] {
		return nil, &postgraph.SchemaError{Type: name, Message: "mutation already defined", Cause: postgraph.ErrDuplicateField}
	}
	b.payloads[name] = true

	inFields := graphql.InputObjectConfigFieldMap{
		"clientMutationId": {
			Type:        graphql.String,
			Description: "An arbitrary string value with no semantic meaning. Will be included in the payload verbatim.",
		},
	}
	for n, f := range cfg.InputFields {
		if _, ok := inFields[n]; ok {
			return nil, &postgraph.SchemaError{Type: name + "Input", Field: n, Message: "input field already defined", Cause: postgraph.ErrDuplicateField}
		}
		inFields[n] = f
	}
	input := graphql.NewInputObject(graphql.InputObjectConfig{
		Name:        name + "Input",
		Description: fmt.Sprintf("All input for the `%s` mutation.", fieldName(cfg.Name)),
		Fields:      inFields,
	})

	outFields := graphql.Fields{
		"clientMutationId": &graphql.Field{
			Type:        graphql.String,
			Description: "The exact same `clientMutationId` that was provided in the mutation input, unchanged and unused.",
			Resolve: func(p graphql.ResolveParams) (any, error) {
				return p.Source.(*payload).clientMutationID, nil
			},
		},
	}
	for n, f := range cfg.OutputFields {
		if _, ok := outFields[n]; ok {
			return nil, &postgraph.SchemaError{Type: name + "Payload", Field: n, Message: "output field already defined", Cause: postgraph.ErrDuplicateField}
		}
		resolve := f.Resolve
		out := *f
		out.Resolve = func(p graphql.ResolveParams) (any, error) {
			p.Source = p.Source.(*payload).value
			if resolve != nil {
				return resolve(p)
			}
			if p.Source == nil {
				return nil, nil
			}
			return graphql.DefaultResolveFn(p)
		}
		outFields[n] = &out
	}
	output := graphql.NewObject(graphql.ObjectConfig{
		Name:        name + "Payload",
		Description: fmt.Sprintf("The output of our `%s` mutation.", fieldName(cfg.Name)),
		Fields:      outFields,
	})

	return &graphql.Field{
		Type:        output,
		Description: cfg.Description,
		Args: graphql.FieldConfigArgument{
			"input": {Type: graphql.NewNonNull(input)},
		},
		Resolve: func(p graphql.ResolveParams) (any, error) {
			in, _ := p.Args["input"].(map[string]any)
			value, err := cfg.Execute(p.Context, in)
			if err != nil {
				return nil, err
			}
			return &payload{clientMutationID: in["clientMutationId"], value: value}, nil
		},
	}, nil
}
