package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/scrapegoat/internal/errs"
	"github.com/GriffinCanCode/scrapegoat/internal/interpreter"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/parser"
	"github.com/GriffinCanCode/scrapegoat/internal/providers/deliver"
	"github.com/GriffinCanCode/scrapegoat/internal/record"
)

// QueryRequest is the body of /v1/parse and /v1/run.
type QueryRequest struct {
	Query string `json:"query" binding:"required"`
}

// ParseResponse carries the canonical form of a query.
type ParseResponse struct {
	Canonical string `json:"canonical"`
	Queries   int    `json:"queries"`
}

// RunResponse carries the outcome of a run.
type RunResponse struct {
	RunID   string          `json:"run_id"`
	Records []record.Record `json:"records"`
	Outputs []Output        `json:"outputs"`
}

// Output is one OUTPUT command's rendered file. The server never writes
// files; the encoded body is returned instead.
type Output struct {
	Filename string `json:"filename"`
	Format   string `json:"format"`
	Body     string `json:"body"`
}

// ErrorResponse describes a failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// Health reports liveness and run totals.
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "scrapegoat",
		"stats":   s.metrics.Snapshot(),
	})
}

// Parse returns the canonical source of a query without running it.
func (s *Server) Parse(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	block, err := parser.ParseSource(req.Query)
	if err == nil {
		err = interpreter.Validate(block)
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ParseResponse{Canonical: block.String(), Queries: len(block.Queries)})
}

// Run executes a query and returns its records.
func (s *Server) Run(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	ctx := c.Request.Context()
	if d := s.cfg.RunTimeout.Duration; d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	capture := &captureDeliverer{}
	in := interpreter.New(
		interpreter.WithFetcher(s.fetcher),
		interpreter.WithDeliverer(capture),
		interpreter.WithLogger(s.log.Named("interpreter").With(zap.String("request_id", requestIDOf(c)))),
		interpreter.WithMetrics(s.metrics),
	)
	res, err := in.RunSource(ctx, req.Query)
	if err != nil {
		s.fail(c, err)
		return
	}

	records := res.Records
	if records == nil {
		records = []record.Record{}
	}
	c.JSON(http.StatusOK, RunResponse{RunID: res.RunID, Records: records, Outputs: capture.outputs()})
}

func (s *Server) fail(c *gin.Context, err error) {
	resp := ErrorResponse{Error: err.Error()}
	if k := errs.KindOf(err); k != errs.KindUnknown {
		resp.Kind = k.String()
	}
	if pos, ok := errs.PositionOf(err); ok {
		resp.Line, resp.Column = pos.Line, pos.Column
	}
	c.JSON(statusOf(err), resp)
}

func statusOf(err error) int {
	switch errs.KindOf(err) {
	case errs.KindLex, errs.KindParse, errs.KindSequence, errs.KindCondition:
		return http.StatusBadRequest
	case errs.KindFetch:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// captureDeliverer encodes OUTPUT in memory.
type captureDeliverer struct {
	mu  sync.Mutex
	out []Output
}

func (d *captureDeliverer) Deliver(records []record.Record, cmd *ast.Deliver) (string, error) {
	data, err := deliver.Encode(records, cmd.Format)
	if err != nil {
		return "", &errs.IOError{Pos: cmd.At, Path: cmd.Filename, Err: err}
	}
	name := deliver.Filename(cmd)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.out = append(d.out, Output{Filename: name, Format: string(cmd.Format), Body: string(data)})
	return name, nil
}

func (d *captureDeliverer) outputs() []Output {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.out == nil {
		return []Output{}
	}
	return d.out
}
