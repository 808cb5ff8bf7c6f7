package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// MaxSize is the default input limit.
const MaxSize = 10 * 1024 * 1024

// fallbackCharset decodes input whose detected charset is unknown.
const fallbackCharset = "windows-1252"

// Loader turns raw markup into a Document. Parsing is tolerant: any
// input within the size limit yields a tree.
type Loader struct {
	// MaxBytes limits the input size; zero means MaxSize.
	MaxBytes int64
}

// Load parses raw with the default Loader.
func Load(url, raw string) (*Document, error) {
	return Loader{}.Load(url, raw)
}

// Load parses raw into a Document for url.
func (l Loader) Load(url, raw string) (*Document, error) {
	limit := l.MaxBytes
	if limit <= 0 {
		limit = MaxSize
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("document exceeds maximum size of %d bytes", limit)
	}

	var r io.Reader = strings.NewReader(raw)
	if !utf8.ValidString(raw) {
		r = decode([]byte(raw))
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return FromNode(url, doc.Nodes[0]), nil
}

// DetectCharset guesses the charset of data.
func DetectCharset(data []byte) string {
	result, err := chardet.NewHtmlDetector().DetectBest(data)
	if err != nil || result == nil {
		return fallbackCharset
	}
	return strings.ToLower(result.Charset)
}

func decode(data []byte) io.Reader {
	r, err := charset.NewReaderLabel(DetectCharset(data), bytes.NewReader(data))
	if err == nil {
		return r
	}
	r, err = charset.NewReaderLabel(fallbackCharset, bytes.NewReader(data))
	if err == nil {
		return r
	}
	return bytes.NewReader(data)
}
