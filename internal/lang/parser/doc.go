// Package parser turns lexer tokens into an ast.Block.
//
// Each command keyword has its own Parser, found through a Registry.
// Conditions, fields and output flags are handled by shared helpers.
// ParseBlock also splits the command stream into independent queries.
package parser
