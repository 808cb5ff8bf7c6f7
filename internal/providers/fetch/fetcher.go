package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrScheme reports a URL scheme no fetcher serves.
	ErrScheme = errors.New("unsupported url scheme")
	// ErrFileDisabled reports a local path while file access is off.
	ErrFileDisabled = errors.New("local file access disabled")
)

// Fetcher retrieves the raw markup at a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Func adapts a function to Fetcher.
type Func func(ctx context.Context, url string) (string, error)

func (f Func) Fetch(ctx context.Context, url string) (string, error) { return f(ctx, url) }

// Router dispatches by URL scheme. A nil File rejects local paths.
type Router struct {
	Web  Fetcher
	File Fetcher
}

func (r *Router) Fetch(ctx context.Context, rawURL string) (string, error) {
	switch s := Scheme(rawURL); s {
	case "http", "https":
		if r.Web == nil {
			return "", fmt.Errorf("%w: %s", ErrScheme, s)
		}
		return r.Web.Fetch(ctx, rawURL)
	case "file":
		if r.File == nil {
			return "", ErrFileDisabled
		}
		return r.File.Fetch(ctx, rawURL)
	default:
		return "", fmt.Errorf("%w: %s", ErrScheme, s)
	}
}

// Scheme returns the lowercase scheme of rawURL; plain paths report "file".
func Scheme(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || isDrive(u.Scheme) {
		return "file"
	}
	return strings.ToLower(u.Scheme)
}

// isDrive matches a single-letter Windows drive parsed as a scheme.
func isDrive(scheme string) bool {
	return len(scheme) == 1
}
