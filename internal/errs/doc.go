// Package errs defines the failure taxonomy shared by the lexer, the
// parsers and the interpreter.
//
// Every error carries the source position of the token or command that
// produced it, so callers can report "line:column: kind: message":
//
//	if pos, ok := errs.PositionOf(err); ok {
//		fmt.Fprintf(os.Stderr, "%s: %v\n", pos, err)
//	}
//
// MissingFieldError is the only recoverable kind; the extract step turns it
// into an empty value.
package errs
