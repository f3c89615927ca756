// Package executor executes GraphQL operations against a baked schema with
// concurrent, resolver-driven field resolution.
//
// # Overview
//
// A request goes through two phases:
//   - Collection: the selected operation is turned into a FieldTree, an
//     arena of executable Nodes indexed by NodeID. Collection evaluates the
//     inclusion directives of every selection, expands fragments, merges
//     repeated response keys and groups the children of composite fields by
//     runtime object type.
//   - Execution: Nodes are executed top-down. Siblings are launched together
//     and joined, list elements likewise; every resolver result is completed
//     against the field's declared type and written into the response tree.
//
// # Preparation
//
// Before collection, the executor:
//  1. Checks the operation names of the document (duplicates and anonymous
//     operations mixed with others are request-fatal) and selects the
//     operation (by name, or the only one when unnamed).
//  2. Coerces the raw variables against the operation's variable
//     definitions. Errors here stop the request.
//  3. Indexes fragment definitions (the first of duplicate names wins) and
//     reports fragments that no operation spreads.
//  4. Collects the root selection set. For subscriptions the root must hold
//     exactly one field after directives and fragments are applied.
//
// # Collection
//
// Every selection first runs its directive chain (see package directive);
// a Skip decision drops the selection and its subtree without an error.
// Fields are validated against the scope type, that is the declared type of
// the parent field or the innermost type condition. Unknown fields,
// undefined or duplicate arguments and directive misuse are reported at the
// field path and only that subtree is dropped. Fragment spreads are guarded
// against cycles by the set of fragments spread on the current path.
//
// For a composite field the children are collected once per possible
// runtime type: an object type yields one group, an interface or union one
// group per possible object type. Each group keeps the response keys in
// document order.
//
// # Execution
//
// For each node the engine:
//  1. Stops when an ancestor position was already nulled by a non-null
//     violation.
//  2. Coerces the arguments. Failures are recorded and the field completes
//     as null without calling the resolver.
//  3. Calls the resolver, wrapped by the FieldExecutor hooks of the field
//     definition and of the query, recovering panics into field errors.
//  4. Filters introspection results through the IntrospectionFilter hooks
//     once the request touched __schema or __type.
//  5. Completes the value: leaves through the type system, lists element by
//     element with all children of one element launched together, abstract
//     values after resolving their runtime object type.
//  6. Writes the value into the parent container. A null at a non-null
//     position bubbles to the nearest nullable position, which becomes null;
//     when no such position exists, data is null.
//
// Mutation root fields run one after the other in document order.
//
// # Errors and Partial Success
//
// Every error is recorded once, by the component responsible for it, with
// its path and the locations of all merged field occurrences. Errors of
// concurrent siblings appear in completion order. The result always carries
// an error list; request-fatal errors come with a null data.
package executor
