package interpreter

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/scrapegoat/internal/config"
	"github.com/GriffinCanCode/scrapegoat/internal/dom"
	"github.com/GriffinCanCode/scrapegoat/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/parser"
	"github.com/GriffinCanCode/scrapegoat/internal/logging"
	"github.com/GriffinCanCode/scrapegoat/internal/providers/churn"
	"github.com/GriffinCanCode/scrapegoat/internal/providers/deliver"
	"github.com/GriffinCanCode/scrapegoat/internal/providers/fetch"
	"github.com/GriffinCanCode/scrapegoat/internal/record"
)

// Interpreter parses query source and executes it Query by Query.
type Interpreter struct {
	fetcher   DocumentFetcher
	deliverer Deliverer
	log       *logging.Logger
	metrics   *monitoring.Metrics
	handlers  map[ast.Kind]Handler
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithFetcher sets the VISIT collaborator.
func WithFetcher(f DocumentFetcher) Option {
	return func(in *Interpreter) { in.fetcher = f }
}

// WithDeliverer sets the OUTPUT collaborator.
func WithDeliverer(d Deliverer) Option {
	return func(in *Interpreter) { in.deliverer = d }
}

func WithLogger(log *logging.Logger) Option {
	return func(in *Interpreter) { in.log = log }
}

func WithMetrics(m *monitoring.Metrics) Option {
	return func(in *Interpreter) { in.metrics = m }
}

// WithHandler overrides or adds the handler for kind.
func WithHandler(kind ast.Kind, h Handler) Option {
	return func(in *Interpreter) { in.Register(kind, h) }
}

// New creates an Interpreter. Without options it fetches over HTTP and
// from local files with the default configuration and writes output
// files to the working directory.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{handlers: make(map[ast.Kind]Handler)}
	for _, opt := range opts {
		opt(in)
	}
	if in.log == nil {
		in.log = logging.NewNop()
	}
	if in.fetcher == nil {
		cfg := config.Default().Fetch
		router := &fetch.Router{
			Web:  fetch.NewHTTP(cfg, in.log.Named("fetch"), in.metrics),
			File: &fetch.FileFetcher{MaxBytes: cfg.MaxBytes},
		}
		in.fetcher = fetch.NewManager(router, in.log.Named("fetch"), in.metrics)
	}
	if in.deliverer == nil {
		in.deliverer = deliver.New(".", in.log.Named("deliver"))
	}

	defaults := map[ast.Kind]Handler{
		ast.KindFetch:   &FetchHandler{Fetcher: in.fetcher},
		ast.KindGraze:   GrazeHandler{},
		ast.KindChurn:   &ChurnHandler{Extractor: churn.New(in.log.Named("churn")), Metrics: in.metrics},
		ast.KindDeliver: &DeliverHandler{Deliverer: in.deliverer, Metrics: in.metrics, Log: in.log.Named("deliver")},
	}
	for kind, h := range defaults {
		if _, ok := in.handlers[kind]; !ok {
			in.handlers[kind] = h
		}
	}
	return in
}

// Register installs h for kind, replacing any previous handler.
func (in *Interpreter) Register(kind ast.Kind, h Handler) {
	in.handlers[kind] = h
}

// Result is the outcome of one run.
type Result struct {
	RunID   string
	Records []record.Record
	// Outputs lists the files written by OUTPUT commands, in order.
	Outputs []string
}

// Run parses and executes source and returns every extracted record.
func (in *Interpreter) Run(ctx context.Context, source string) ([]record.Record, error) {
	res, err := in.RunSource(ctx, source)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// RunSource parses and executes source.
func (in *Interpreter) RunSource(ctx context.Context, source string) (*Result, error) {
	block, err := parser.ParseSource(source)
	if err != nil {
		in.metrics.RecordRun(err)
		return nil, err
	}
	return in.RunBlock(ctx, block)
}

// RunBlock validates every Query of b and then executes them in order.
// The first error aborts the run.
func (in *Interpreter) RunBlock(ctx context.Context, b *ast.Block) (*Result, error) {
	res, err := in.run(ctx, b, nil)
	in.metrics.RecordRun(err)
	return res, err
}

// RunOn executes source against doc. Each Query starts with doc loaded,
// so VISIT is optional; a VISIT inside a Query still replaces it.
func (in *Interpreter) RunOn(ctx context.Context, source string, doc *dom.Document) (*Result, error) {
	block, err := parser.ParseSource(source)
	if err != nil {
		in.metrics.RecordRun(err)
		return nil, err
	}
	res, err := in.run(ctx, block, []*dom.Document{doc})
	in.metrics.RecordRun(err)
	return res, err
}

func (in *Interpreter) run(ctx context.Context, b *ast.Block, docs []*dom.Document) (*Result, error) {
	preloaded := len(docs) > 0
	for _, q := range b.Queries {
		if err := ValidateQuery(q, preloaded); err != nil {
			return nil, err
		}
	}

	res := &Result{RunID: uuid.NewString()}
	log := in.log.With(zap.String("run_id", res.RunID))
	start := time.Now()

	for i, q := range b.Queries {
		ec, err := in.runQuery(ctx, log.With(zap.String("query", q.Name(i))), q, docs)
		if err != nil {
			log.Debug("run aborted", zap.Error(err))
			return nil, err
		}
		res.Records = append(res.Records, ec.Records...)
		res.Outputs = append(res.Outputs, ec.Outputs...)
	}

	log.Info("run complete",
		zap.Int("queries", len(b.Queries)),
		zap.Int("records", len(res.Records)),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

func (in *Interpreter) runQuery(ctx context.Context, log *logging.Logger, q *ast.Query, docs []*dom.Document) (*Context, error) {
	ec := newContext(q, docs)
	for _, cmd := range q.Commands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h, ok := in.handlers[cmd.Kind()]
		if !ok {
			return nil, fmt.Errorf("%s: no handler registered for %s", cmd.Pos(), cmd.Kind())
		}

		timer := monitoring.NewTimer(in.metrics, cmd.Kind().String())
		err := h.Execute(ctx, ec, cmd)
		took := timer.Stop(err)
		log.Debug("executed command",
			zap.String("command", cmd.Keyword()),
			zap.Stringer("pos", cmd.Pos()),
			zap.Int("selection", len(ec.Selection)),
			zap.Int("records", len(ec.Records)),
			zap.Duration("took", took),
			zap.Error(err))
		if err != nil {
			return nil, err
		}
	}
	log.Info("query complete", zap.Int("records", len(ec.Records)))
	return ec, nil
}
