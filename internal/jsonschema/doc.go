// Package jsonschema derives JSON Schema documents from Go types and validates
// tool inputs against them.
//
// [Generate] walks a type with reflection. Self-referencing struct types are
// emitted once under $defs and referenced with $ref. [Schema.Compile] turns a
// generated schema into a [Validator] backed by santhosh-tekuri/jsonschema.
package jsonschema
