package fetch

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/scrapegoat/internal/config"
	"github.com/GriffinCanCode/scrapegoat/internal/dom"
	"github.com/GriffinCanCode/scrapegoat/internal/errs"
	"github.com/GriffinCanCode/scrapegoat/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
	"github.com/GriffinCanCode/scrapegoat/internal/logging"
)

// Manager executes VISIT commands: it fetches every URL in order and
// loads each page into a Document.
type Manager struct {
	fetcher Fetcher
	loader  dom.Loader
	log     *logging.Logger
	metrics *monitoring.Metrics
	closers []io.Closer
}

// NewManager creates a Manager over f. log and metrics may be nil.
func NewManager(f Fetcher, log *logging.Logger, metrics *monitoring.Metrics) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{fetcher: f, log: log, metrics: metrics}
}

// Build assembles the fetch stack described by cfg: the HTTP or headless
// fetcher, optional script rendering, optional local files and the
// optional page cache.
func Build(cfg config.FetchConfig, log *logging.Logger, metrics *monitoring.Metrics) (*Manager, error) {
	if log == nil {
		log = logging.NewNop()
	}
	log = log.Named("fetch")
	var closers []io.Closer

	var web Fetcher
	switch cfg.Render {
	case config.RenderHeadless:
		h := NewHeadless(cfg.Timeout.Duration, log)
		closers = append(closers, h)
		web = h
	default:
		web = NewHTTP(cfg, log, metrics)
	}

	router := &Router{Web: web}
	if cfg.AllowFile {
		router.File = &FileFetcher{MaxBytes: cfg.MaxBytes}
	}

	var f Fetcher = router
	if cfg.Render == config.RenderScript {
		f = NewScriptRenderer(router, cfg.ScriptTimeout.Duration, log)
	}

	if cfg.CachePath != "" {
		cache, err := OpenCache(cfg.CachePath, cfg.CacheTTL.Duration)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		closers = append(closers, cache)
		f = NewCached(f, cache, log, metrics)
	}

	m := NewManager(f, log, metrics)
	m.loader = dom.Loader{MaxBytes: cfg.MaxBytes}
	m.closers = closers
	return m, nil
}

// Fetch loads the documents of cmd in URL order. The first failure
// aborts the command with an *errs.FetchError.
func (m *Manager) Fetch(ctx context.Context, cmd *ast.Fetch) ([]*dom.Document, error) {
	docs := make([]*dom.Document, 0, len(cmd.URLs))
	for _, u := range cmd.URLs {
		doc, err := m.load(ctx, u)
		if err != nil {
			return nil, &errs.FetchError{Pos: cmd.At, URL: u, Err: err}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (m *Manager) load(ctx context.Context, rawURL string) (*dom.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := m.fetcher.Fetch(ctx, rawURL)
	m.metrics.RecordFetch(Scheme(rawURL), time.Since(start), len(raw), err)
	if err != nil {
		m.log.Debug("fetch failed", zap.String("url", rawURL), zap.Error(err))
		return nil, err
	}

	doc, err := m.loader.Load(rawURL, raw)
	if err != nil {
		return nil, err
	}
	m.log.Debug("loaded document",
		zap.String("url", rawURL),
		zap.Int("nodes", doc.Len()),
		zap.Duration("took", time.Since(start)))
	return doc, nil
}

// Close releases the browser and the page cache.
func (m *Manager) Close() error {
	err := closeAll(m.closers)
	m.closers = nil
	return err
}

func closeAll(closers []io.Closer) error {
	var errList []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
