package schema

import (
	"context"

	"github.com/graphql-go/graphql"

	"github.com/syssam/postgraph/inventory"
	"github.com/syssam/postgraph/types"
)

// ProcedureField returns the query field of a stable procedure: a
// connection for set returning procedures with a paginator, a plain field
// otherwise.
func (b *BuildToken) ProcedureField(proc *inventory.Procedure) (*graphql.Field, error) {
	if proc.ReturnsSet && proc.Paginator != nil {
		return b.ConnectionField(ConnectionConfig{
			Description:  proc.Description,
			Paginator:    proc.Paginator,
			Inputs:       proc.Args,
			StrictInputs: proc.Strict,
		})
	}
	typ, err := b.procedureType(proc)
	if err != nil {
		return nil, err
	}
	args := graphql.FieldConfigArgument{}
	for _, a := range proc.Args {
		t, err := b.procedureArgType(proc, a)
		if err != nil {
			return nil, err
		}
		args[fieldName(a.Name)] = &graphql.ArgumentConfig{Type: t}
	}
	return &graphql.Field{
		Type:        typ,
		Description: proc.Description,
		Args:        args,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			return b.callProcedure(p.Context, proc, p.Args)
		},
	}, nil
}

// ProcedureMutationField returns the mutation field of a volatile procedure.
func (b *BuildToken) ProcedureMutationField(proc *inventory.Procedure) (*graphql.Field, error) {
	typ, err := b.procedureType(proc)
	if err != nil {
		return nil, err
	}
	in := graphql.InputObjectConfigFieldMap{}
	for _, a := range proc.Args {
		t, err := b.procedureArgType(proc, a)
		if err != nil {
			return nil, err
		}
		in[fieldName(a.Name)] = &graphql.InputObjectFieldConfig{Type: t}
	}
	return b.MutationField(MutationConfig{
		Name:        proc.Name,
		Description: proc.Description,
		InputFields: in,
		OutputFields: graphql.Fields{
			procedureOutputName(proc): &graphql.Field{
				Type: typ,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return p.Source, nil
				},
			},
		},
		Execute: func(ctx context.Context, input map[string]any) (any, error) {
			return b.callProcedure(ctx, proc, input)
		},
	})
}

func (b *BuildToken) procedureType(proc *inventory.Procedure) (graphql.Output, error) {
	t, err := b.OutputType(proc.ReturnType)
	if err != nil {
		return nil, err
	}
	if proc.ReturnsSet {
		return graphql.NewList(t), nil
	}
	return t, nil
}

// procedureArgType returns the input type of an argument; strict
// procedures require every argument.
func (b *BuildToken) procedureArgType(proc *inventory.Procedure, a inventory.ProcedureArg) (graphql.Input, error) {
	t, err := b.InputType(a.Type)
	if err != nil {
		return nil, err
	}
	if proc.Strict {
		return graphql.NewNonNull(nullable(t)), nil
	}
	return t, nil
}

func (b *BuildToken) callProcedure(ctx context.Context, proc *inventory.Procedure, args map[string]any) (any, error) {
	values := make([]any, len(proc.Args))
	for i, a := range proc.Args {
		v, err := b.inputValue(a.Type, args[fieldName(a.Name)])
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return proc.Call(ctx, values)
}

// procedureOutputName names the payload field of a procedure mutation
// after its return type.
func procedureOutputName(proc *inventory.Procedure) string {
	t := types.Unwrap(proc.ReturnType)
	for {
		l, ok := t.(*types.List)
		if !ok {
			break
		}
		t = types.Unwrap(l.Item())
	}
	name := t.Name()
	if proc.ReturnsSet {
		name = pluralize(name)
	}
	return fieldName(name)
}
