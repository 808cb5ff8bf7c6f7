package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/scrapegoat/internal/logging"
)

// ScriptRenderer runs the inline scripts of fetched pages in a sandboxed
// JavaScript VM. Markup a script emits through document.write replaces
// the script element; scripts that write nothing are left in place.
type ScriptRenderer struct {
	Next    Fetcher
	Timeout time.Duration
	log     *logging.Logger
}

// NewScriptRenderer wraps next. timeout bounds each script.
func NewScriptRenderer(next Fetcher, timeout time.Duration, log *logging.Logger) *ScriptRenderer {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ScriptRenderer{Next: next, Timeout: timeout, log: log}
}

func (r *ScriptRenderer) Fetch(ctx context.Context, rawURL string) (string, error) {
	raw, err := r.Next.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return r.Render(ctx, rawURL, raw)
}

// Render executes the inline scripts of raw in document order.
func (r *ScriptRenderer) Render(ctx context.Context, rawURL, raw string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse document: %w", err)
	}

	scripts := doc.Find("script").FilterFunction(func(_ int, s *goquery.Selection) bool {
		_, external := s.Attr("src")
		return !external && isJavaScript(s.AttrOr("type", ""))
	})
	if scripts.Length() == 0 {
		return raw, nil
	}

	sb := newSandbox(rawURL)
	var runErr error
	scripts.EachWithBreak(func(i int, s *goquery.Selection) bool {
		written, err := sb.run(ctx, s.Text(), r.Timeout)
		var interrupted *goja.InterruptedError
		switch {
		case errors.As(err, &interrupted) && ctx.Err() != nil:
			runErr = ctx.Err()
			return false
		case err != nil:
			r.log.Debug("inline script failed",
				zap.String("url", rawURL),
				zap.Int("script", i),
				zap.Error(err))
		}
		if written != "" {
			s.ReplaceWithHtml(written)
		}
		return true
	})
	if runErr != nil {
		return "", runErr
	}
	return doc.Html()
}

func isJavaScript(typ string) bool {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "text/javascript", "application/javascript", "module":
		return true
	}
	return false
}

// sandbox is one page's VM. Globals persist across the page's scripts.
type sandbox struct {
	vm  *goja.Runtime
	out strings.Builder
}

func newSandbox(rawURL string) *sandbox {
	sb := &sandbox{vm: goja.New()}
	vm := sb.vm

	for _, name := range []string{"require", "process", "module", "exports", "fetch", "XMLHttpRequest"} {
		_ = vm.Set(name, goja.Undefined())
	}
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	_ = vm.Set("setTimeout", noop)
	_ = vm.Set("setInterval", noop)

	console := vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		_ = console.Set(name, noop)
	}
	_ = vm.Set("console", console)

	write := func(newline bool) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			for _, arg := range call.Arguments {
				sb.out.WriteString(arg.String())
			}
			if newline {
				sb.out.WriteByte('\n')
			}
			return goja.Undefined()
		}
	}
	document := vm.NewObject()
	_ = document.Set("write", write(false))
	_ = document.Set("writeln", write(true))
	_ = document.Set("URL", rawURL)
	_ = vm.Set("document", document)

	location := vm.NewObject()
	_ = location.Set("href", rawURL)
	_ = vm.Set("location", location)
	_ = vm.Set("window", vm.GlobalObject())
	return sb
}

// run executes src and returns what it wrote.
func (sb *sandbox) run(ctx context.Context, src string, timeout time.Duration) (string, error) {
	sb.out.Reset()
	sb.vm.ClearInterrupt()

	timer := time.AfterFunc(timeout, func() { sb.vm.Interrupt("script timeout exceeded") })
	defer timer.Stop()
	stop := context.AfterFunc(ctx, func() { sb.vm.Interrupt("context cancelled") })
	defer stop()

	_, err := sb.vm.RunString(src)
	return sb.out.String(), err
}
