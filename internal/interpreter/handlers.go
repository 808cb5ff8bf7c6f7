package interpreter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/scrapegoat/internal/dom"
	"github.com/GriffinCanCode/scrapegoat/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
	"github.com/GriffinCanCode/scrapegoat/internal/logging"
	"github.com/GriffinCanCode/scrapegoat/internal/providers/churn"
	"github.com/GriffinCanCode/scrapegoat/internal/providers/graze"
	"github.com/GriffinCanCode/scrapegoat/internal/record"
)

// Handler executes one command kind against the Query's Context.
type Handler interface {
	Execute(ctx context.Context, ec *Context, cmd ast.Command) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, ec *Context, cmd ast.Command) error

func (f HandlerFunc) Execute(ctx context.Context, ec *Context, cmd ast.Command) error {
	return f(ctx, ec, cmd)
}

// DocumentFetcher loads the documents of a VISIT.
type DocumentFetcher interface {
	Fetch(ctx context.Context, cmd *ast.Fetch) ([]*dom.Document, error)
}

// Deliverer writes records for an OUTPUT and returns the file path.
type Deliverer interface {
	Deliver(records []record.Record, cmd *ast.Deliver) (string, error)
}

// FetchHandler runs VISIT.
type FetchHandler struct {
	Fetcher DocumentFetcher
}

func (h *FetchHandler) Execute(ctx context.Context, ec *Context, cmd ast.Command) error {
	c, err := as[*ast.Fetch](cmd)
	if err != nil {
		return err
	}
	docs, err := h.Fetcher.Fetch(ctx, c)
	if err != nil {
		return err
	}
	ec.load(docs)
	return nil
}

// GrazeHandler runs SELECT and SCRAPE. SELECT searches every loaded
// document from its root, so elements at the top of the tree can match;
// SCRAPE searches strictly below the current selection.
type GrazeHandler struct{}

func (GrazeHandler) Execute(_ context.Context, ec *Context, cmd ast.Command) error {
	c, err := as[*ast.Graze](cmd)
	if err != nil {
		return err
	}
	if !ec.fetched {
		return sequenceError(c, "must follow VISIT")
	}
	if ec.churned {
		return sequenceError(c, "cannot follow EXTRACT in the same query")
	}

	scope := ec.Selection
	if c.Rebase {
		scope = ec.Roots()
	}
	ec.Selection = graze.Select(scope, c)
	ec.grazed = true
	return nil
}

// ChurnHandler runs EXTRACT. Without a prior selection it reads the
// top-level element of each document.
type ChurnHandler struct {
	Extractor *churn.Extractor
	Metrics   *monitoring.Metrics
}

func (h *ChurnHandler) Execute(_ context.Context, ec *Context, cmd ast.Command) error {
	c, err := as[*ast.Churn](cmd)
	if err != nil {
		return err
	}
	if !ec.fetched {
		return sequenceError(c, "must follow VISIT")
	}

	sel := ec.Selection
	if !ec.grazed {
		sel = ec.Elements()
	}
	records := h.Extractor.Run(sel, c)
	ec.Records = append(ec.Records, records...)
	ec.churned = true
	h.Metrics.AddRecordsExtracted(len(records))
	return nil
}

// DeliverHandler runs OUTPUT with every record accumulated so far.
type DeliverHandler struct {
	Deliverer Deliverer
	Metrics   *monitoring.Metrics
	Log       *logging.Logger
}

func (h *DeliverHandler) Execute(_ context.Context, ec *Context, cmd ast.Command) error {
	c, err := as[*ast.Deliver](cmd)
	if err != nil {
		return err
	}
	if !ec.fetched {
		return sequenceError(c, "must follow VISIT")
	}

	path, err := h.Deliverer.Deliver(ec.Records, c)
	if err != nil {
		return err
	}
	ec.Outputs = append(ec.Outputs, path)
	h.Metrics.AddRecordsDelivered(string(c.Format), len(ec.Records))
	if h.Log != nil {
		h.Log.Debug("delivered records",
			zap.String("path", path),
			zap.String("format", string(c.Format)),
			zap.Int("records", len(ec.Records)))
	}
	return nil
}

// as narrows cmd to the variant a handler was registered for.
func as[T ast.Command](cmd ast.Command) (T, error) {
	c, ok := cmd.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: %s dispatched to %T handler", cmd.Pos(), cmd.Keyword(), zero)
	}
	return c, nil
}
