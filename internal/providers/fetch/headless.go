package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/scrapegoat/internal/logging"
)

// HeadlessFetcher renders pages in headless Chrome. The browser is
// launched on first use and shared by later fetches.
type HeadlessFetcher struct {
	// RemoteURL connects to a running browser instead of launching one.
	RemoteURL string
	Timeout   time.Duration
	log       *logging.Logger

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewHeadless creates a HeadlessFetcher with a per-page timeout.
func NewHeadless(timeout time.Duration, log *logging.Logger) *HeadlessFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HeadlessFetcher{Timeout: timeout, log: log}
}

func (f *HeadlessFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	b, err := f.connect()
	if err != nil {
		return "", err
	}

	page, err := stealth.Page(b)
	if err != nil {
		return "", fmt.Errorf("browser: create tab: %w", err)
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	p := page.Context(navCtx)

	if err := p.Navigate(rawURL); err != nil {
		return "", fmt.Errorf("browser: navigate %s: %w", rawURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		f.log.Warn("browser: wait load timeout", zap.String("url", rawURL), zap.Error(err))
	}

	html, err := p.HTML()
	if err != nil {
		return "", fmt.Errorf("browser: read page: %w", err)
	}
	return html, nil
}

func (f *HeadlessFetcher) connect() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, fmt.Errorf("browser: fetcher is closed")
	}
	if f.browser != nil {
		return f.browser, nil
	}

	wsURL := f.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		f.lnch = l
		f.log.Info("browser: launched local chrome", zap.String("url", wsURL))
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	f.browser = b
	return b, nil
}

// Close shuts down the browser if one was started.
func (f *HeadlessFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	var err error
	if f.browser != nil {
		err = f.browser.Close()
		f.browser = nil
	}
	if f.lnch != nil {
		f.lnch.Kill()
		f.lnch.Cleanup()
		f.lnch = nil
	}
	return err
}
