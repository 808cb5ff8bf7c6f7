package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/scrapegoat/internal/config"
	"github.com/GriffinCanCode/scrapegoat/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/scrapegoat/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/scrapegoat/internal/logging"
)

// browserHeaders are sent with every page request.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
}

// HTTPFetcher fetches pages over HTTP with retries, per-host rate limits
// and per-host circuit breakers.
type HTTPFetcher struct {
	client   *resty.Client
	breakers *resilience.Hosts
	maxBytes int64
	log      *logging.Logger

	ratePerHost float64
	burst       int
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
}

// NewHTTP creates an HTTPFetcher from cfg. metrics may be nil.
func NewHTTP(cfg config.FetchConfig, log *logging.Logger, metrics *monitoring.Metrics) *HTTPFetcher {
	retry := retryablehttp.NewClient()
	retry.RetryMax = cfg.Retries
	retry.RetryWaitMin = 250 * time.Millisecond
	retry.RetryWaitMax = 5 * time.Second
	retry.HTTPClient.Timeout = cfg.Timeout.Duration
	retry.Logger = retryLogger{log.Named("retry").Sugar()}
	// Exhausted retries hand back the last response so status errors
	// carry the real code.
	retry.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := resty.NewWithClient(retry.StandardClient()).
		SetTimeout(cfg.Timeout.Duration).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeaders(browserHeaders)

	breakers := resilience.NewHosts(resilience.Settings{
		Probes:   1,
		Cooldown: cfg.BreakerCooldown.Duration,
		Trip:     resilience.ConsecutiveFailures(cfg.BreakerFailures),
		OnStateChange: func(host string, from, to resilience.State) {
			log.Warn("host breaker changed state",
				zap.String("host", host),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
			metrics.SetBreakerState(host, int(to))
		},
	})

	return &HTTPFetcher{
		client:      client,
		breakers:    breakers,
		maxBytes:    cfg.MaxBytes,
		log:         log,
		ratePerHost: cfg.RatePerHost,
		burst:       cfg.Burst,
		limiters:    make(map[string]*rate.Limiter),
	}
}

// Fetch waits for the host's rate limit and then GETs rawURL.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := f.limiter(rawURL).Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return resilience.Do(f.breakers.For(rawURL), func() (string, error) {
		return f.get(ctx, rawURL)
	})
}

// Breakers exposes the per-host breaker set.
func (f *HTTPFetcher) Breakers() *resilience.Hosts { return f.breakers }

func (f *HTTPFetcher) get(ctx context.Context, rawURL string) (string, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	status := resp.StatusCode()
	if status < 200 || status >= 400 {
		return "", fmt.Errorf("HTTP %d: %s", status, http.StatusText(status))
	}

	data, err := readLimited(body, f.maxBytes)
	if err != nil {
		return "", err
	}
	if err := checkMarkup(data); err != nil {
		return "", err
	}

	f.log.Debug("fetched page",
		zap.String("url", rawURL),
		zap.Int("status", status),
		zap.Int("bytes", len(data)))
	return string(data), nil
}

func (f *HTTPFetcher) limiter(rawURL string) *rate.Limiter {
	host := resilience.HostOf(rawURL)

	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		if f.ratePerHost <= 0 {
			l = rate.NewLimiter(rate.Inf, 0)
		} else {
			l = rate.NewLimiter(rate.Limit(f.ratePerHost), max(f.burst, 1))
		}
		f.limiters[host] = l
	}
	return l
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("body exceeds maximum size of %d bytes", limit)
	}
	return data, nil
}

// checkMarkup rejects bodies that are not text.
func checkMarkup(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return nil
		}
	}
	return fmt.Errorf("unexpected content type %s", mt.String())
}

// retryLogger adapts zap to retryablehttp.LeveledLogger.
type retryLogger struct {
	s *zap.SugaredLogger
}

func (l retryLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l retryLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l retryLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l retryLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
