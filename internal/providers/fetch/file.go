package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileFetcher reads local files named by file:// URLs or plain paths.
type FileFetcher struct {
	// Root resolves relative paths; empty means the working directory.
	Root     string
	MaxBytes int64
}

func (f *FileFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := f.resolve(LocalPath(rawURL))

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	r := io.Reader(file)
	if f.MaxBytes > 0 {
		r = io.LimitReader(file, f.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if f.MaxBytes > 0 && int64(len(data)) > f.MaxBytes {
		return "", fmt.Errorf("%s exceeds maximum size of %d bytes", path, f.MaxBytes)
	}
	return string(data), nil
}

func (f *FileFetcher) resolve(path string) string {
	if f.Root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(f.Root, path)
}

// LocalPath strips a file:// prefix from rawURL.
func LocalPath(rawURL string) string {
	if !strings.HasPrefix(strings.ToLower(rawURL), "file:") {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.TrimPrefix(rawURL[len("file:"):], "//")
	}
	if u.Opaque != "" {
		return u.Opaque
	}
	return filepath.FromSlash(u.Path)
}
