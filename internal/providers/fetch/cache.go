package fetch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/GriffinCanCode/scrapegoat/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/scrapegoat/internal/logging"
)

const schema = `CREATE TABLE IF NOT EXISTS pages (
	url        TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	fetched_at INTEGER NOT NULL
)`

// Cache stores fetched pages in sqlite, keyed by URL.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenCache opens or creates the cache database at path. Entries older
// than ttl are misses; a zero ttl never expires.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	// One connection keeps writes serialized and in-memory databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

// Get returns the cached body for url when present and fresh.
func (c *Cache) Get(ctx context.Context, url string) (string, bool, error) {
	var (
		body      string
		fetchedAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM pages WHERE url = ?`, url).Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if c.expired(fetchedAt) {
		return "", false, nil
	}
	return body, true, nil
}

// Put stores body for url, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, url, body string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO pages (url, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		url, body, c.now().UnixNano())
	return err
}

// Purge deletes expired entries and reports how many were removed.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	if c.ttl <= 0 {
		return 0, nil
	}
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM pages WHERE fetched_at < ?`, c.now().Add(-c.ttl).UnixNano())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c *Cache) Close() error { return c.db.Close() }

func (c *Cache) expired(fetchedAt int64) bool {
	return c.ttl > 0 && c.now().Sub(time.Unix(0, fetchedAt)) > c.ttl
}

// CachedFetcher serves pages from a Cache and fills it from Next on a miss.
type CachedFetcher struct {
	Next    Fetcher
	Cache   *Cache
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewCached wraps next with cache. metrics may be nil.
func NewCached(next Fetcher, cache *Cache, log *logging.Logger, metrics *monitoring.Metrics) *CachedFetcher {
	return &CachedFetcher{Next: next, Cache: cache, log: log, metrics: metrics}
}

func (f *CachedFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	body, ok, err := f.Cache.Get(ctx, rawURL)
	if err != nil {
		f.log.Warn("page cache read failed", zap.String("url", rawURL), zap.Error(err))
	}
	if ok {
		f.metrics.IncCacheHits()
		return body, nil
	}

	body, err = f.Next.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	if err := f.Cache.Put(ctx, rawURL, body); err != nil {
		f.log.Warn("page cache write failed", zap.String("url", rawURL), zap.Error(err))
	}
	return body, nil
}
