// Package schema builds a GraphQL schema from an inventory.
//
// Build walks the collections and procedures of an inventory and produces a
// graphql-go schema with:
//
//   - one object type per collection type, implementing the Relay Node
//     interface when the collection has a readable primary key,
//   - an all<Collection> connection per paginated collection, with cursor
//     pagination, orderings and per-field equality conditions,
//   - <type>By<Key> lookups per readable key and a global node field,
//   - create, update and delete mutations following the Relay input and
//     payload conventions,
//   - query fields for stable procedures and mutations for the others.
//
// Types are memoized on a BuildToken, which owns every cache used while
// building. A BuildToken is not safe for concurrent use; the schema it
// returns is.
package schema
