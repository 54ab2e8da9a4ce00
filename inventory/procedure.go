package inventory

import (
	"context"

	"github.com/syssam/postgraph/types"
)

// ProcedureArg is a named procedure parameter.
type ProcedureArg struct {
	Name string
	Type types.Type
}

// Procedure is a storage side callable.
type Procedure struct {
	Name        string
	Description string
	Args        []ProcedureArg
	ReturnType  types.Type
	// ReturnsSet marks procedures returning a set of ReturnType values.
	ReturnsSet bool
	// Strict procedures return null on any null argument, so every
	// argument is required.
	Strict bool
	// Stable procedures have no side effects and are exposed as queries;
	// the others are mutations.
	Stable bool
	// Call invokes the procedure with positional arguments. Set returning
	// procedures return a []any.
	Call func(ctx context.Context, args []any) (any, error)
	// Paginator pages set returning procedures; it must implement
	// InputBinder.
	Paginator Paginator
}
