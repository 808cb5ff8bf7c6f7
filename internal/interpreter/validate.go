package interpreter

import (
	"github.com/GriffinCanCode/scrapegoat/internal/errs"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
)

// Validate checks the command ordering of every Query in b. It runs before
// anything is fetched, so an ill-ordered Block produces no output at all.
func Validate(b *ast.Block) error {
	for _, q := range b.Queries {
		if err := ValidateQuery(q, false); err != nil {
			return err
		}
	}
	return nil
}

// ValidateQuery checks the ordering rules of q. preloaded marks a Query
// that starts with a document already loaded.
//
// Within the commands following a VISIT:
//   - SELECT, SCRAPE, EXTRACT and OUTPUT need a loaded document
//   - SELECT and SCRAPE may not follow EXTRACT
//   - EXTRACT without a prior SELECT or SCRAPE is only allowed when the
//     segment has none at all, in which case it reads the root element
func ValidateQuery(q *ast.Query, preloaded bool) error {
	fetched := preloaded
	var grazed, churned bool

	for i, cmd := range q.Commands {
		switch c := cmd.(type) {
		case *ast.Fetch:
			fetched = true
			grazed, churned = false, false
			continue
		case *ast.Graze:
			if !fetched {
				return sequenceError(c, "must follow VISIT")
			}
			if churned {
				return sequenceError(c, "cannot follow EXTRACT in the same query")
			}
			grazed = true
		case *ast.Churn:
			if !fetched {
				return sequenceError(c, "must follow VISIT")
			}
			if !grazed && segmentGrazes(q.Commands[i+1:]) {
				return sequenceError(c, "must follow SELECT or SCRAPE")
			}
			churned = true
		case *ast.Deliver:
			if !fetched {
				return sequenceError(c, "must follow VISIT")
			}
		}
	}
	return nil
}

// segmentGrazes reports whether cmds select anything before the next VISIT.
func segmentGrazes(cmds []ast.Command) bool {
	for _, cmd := range cmds {
		switch cmd.Kind() {
		case ast.KindFetch:
			return false
		case ast.KindGraze:
			return true
		}
	}
	return false
}

func sequenceError(cmd ast.Command, msg string) error {
	return &errs.SequenceError{Pos: cmd.Pos(), Command: cmd.Keyword(), Msg: msg}
}
