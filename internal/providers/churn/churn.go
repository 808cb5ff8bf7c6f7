// Package churn turns selected elements into records for EXTRACT.
package churn

import (
	"errors"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/scrapegoat/internal/dom"
	"github.com/GriffinCanCode/scrapegoat/internal/errs"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
	"github.com/GriffinCanCode/scrapegoat/internal/logging"
	"github.com/GriffinCanCode/scrapegoat/internal/record"
)

// Extractor resolves fields against elements.
type Extractor struct {
	log       *logging.Logger
	sanitizer *bluemonday.Policy
	markdown  *converter.Converter
}

// New creates an Extractor. A nil logger discards output.
func New(log *logging.Logger) *Extractor {
	if log == nil {
		log = logging.NewNop()
	}
	return &Extractor{
		log:       log,
		sanitizer: bluemonday.UGCPolicy(),
		markdown: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Run executes an EXTRACT command against the selection.
func (e *Extractor) Run(sel []dom.Node, cmd *ast.Churn) []record.Record {
	if cmd.Table {
		return e.Table(sel)
	}
	return e.extract(sel, cmd.Fields, cmd.IgnoreChildren)
}

// Extract builds one record per element holding exactly the requested
// fields. Missing attributes become empty values.
func (e *Extractor) Extract(sel []dom.Node, fields []ast.Field) []record.Record {
	return e.extract(sel, fields, false)
}

func (e *Extractor) extract(sel []dom.Node, fields []ast.Field, ownText bool) []record.Record {
	records := make([]record.Record, 0, len(sel))
	for _, n := range sel {
		var r record.Record
		for _, f := range fields {
			v, err := e.field(n, f, ownText)
			if err != nil {
				var missing *errs.MissingFieldError
				if !errors.As(err, &missing) {
					e.log.Warn("field extraction failed",
						zap.String("field", f.String()),
						zap.String("tag", n.Tag()),
						zap.Error(err))
				} else {
					e.log.Debug("missing field", zap.String("field", missing.Field), zap.String("tag", missing.Tag))
				}
				v = ""
			}
			r.Set(f.Key(), v)
		}
		records = append(records, r)
	}
	return records
}

// Field resolves one field. An absent attribute yields a
// *errs.MissingFieldError.
func (e *Extractor) Field(n dom.Node, f ast.Field) (string, error) {
	return e.field(n, f, false)
}

func (e *Extractor) field(n dom.Node, f ast.Field, ownText bool) (string, error) {
	switch f.Kind {
	case ast.FieldAttr:
		v, ok := n.Attr(f.Name)
		if !ok {
			return "", &errs.MissingFieldError{Field: f.Name, Tag: n.Tag()}
		}
		return v, nil
	case ast.FieldBody:
		if ownText {
			return n.OwnText(), nil
		}
		return n.Text(), nil
	case ast.FieldTag:
		return n.Tag(), nil
	case ast.FieldHTML:
		return e.sanitizer.Sanitize(n.OuterHTML()), nil
	case ast.FieldMarkdown:
		return e.toMarkdown(n)
	}
	return "", errors.New("unknown field kind")
}

// toMarkdown converts the element's outer HTML. Relative links resolve
// against the document URL when it is an http(s) URL.
func (e *Extractor) toMarkdown(n dom.Node) (string, error) {
	var (
		md  string
		err error
	)
	if u := n.Document().URL; strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		md, err = e.markdown.ConvertString(n.OuterHTML(), converter.WithDomain(u))
	} else {
		md, err = e.markdown.ConvertString(n.OuterHTML())
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}
