// Package interpreter executes parsed query Blocks.
//
// Every Query runs with a fresh Context. Commands are dispatched through a
// registry keyed by ast.Kind, so a new command kind only needs a Handler.
// Ordering rules are checked for the whole Block before the first fetch;
// execution then stops at the first error.
package interpreter
