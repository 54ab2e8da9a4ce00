// Package postgraph derives a GraphQL API from a PostgreSQL catalog.
//
// The module is split into small layers, leaves first:
//
//   - types: the abstract type system (primitives, enums, objects, lists,
//     nullable and alias types).
//   - condition: the filter algebra handed to paginators.
//   - inventory: collections, keys, paginators and procedures.
//   - postgres: the PostgreSQL backed inventory and value transforms.
//   - schema: the GraphQL schema builder and the connection engine.
//   - config and server: configuration loading and the HTTP handler used
//     by cmd/postgraph.
//
// This package holds the error taxonomy shared by all of them.
package postgraph
