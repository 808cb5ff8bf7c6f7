// Package deliver writes extracted records to files for OUTPUT.
package deliver

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/scrapegoat/internal/errs"
	"github.com/GriffinCanCode/scrapegoat/internal/lang/ast"
	"github.com/GriffinCanCode/scrapegoat/internal/logging"
	"github.com/GriffinCanCode/scrapegoat/internal/record"
)

// DefaultFilename is used when OUTPUT has no --filename.
const DefaultFilename = "output"

// Writer serializes records and places the file atomically.
type Writer struct {
	dir string
	log *logging.Logger
}

// New creates a Writer whose default destination directory is dir.
func New(dir string, log *logging.Logger) *Writer {
	if dir == "" {
		dir = "."
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Writer{dir: dir, log: log}
}

// Target returns the file path d writes to.
func (w *Writer) Target(d *ast.Deliver) string {
	dir := d.Path
	if dir == "" {
		dir = w.dir
	}
	return filepath.Join(dir, Filename(d))
}

// Filename is the base name d writes, with the format extension appended
// when the name has none.
func Filename(d *ast.Deliver) string {
	name := d.Filename
	if name == "" {
		name = DefaultFilename
	}
	if filepath.Ext(name) == "" {
		name += d.Format.Ext()
	}
	return name
}

// Deliver writes records in d's format and returns the file path. The
// destination is either fully written or left untouched.
func (w *Writer) Deliver(records []record.Record, d *ast.Deliver) (string, error) {
	target := w.Target(d)

	data, err := Encode(records, d.Format)
	if err != nil {
		return "", &errs.IOError{Pos: d.At, Path: target, Err: err}
	}
	if err := writeAtomic(target, data); err != nil {
		return "", &errs.IOError{Pos: d.At, Path: target, Err: err}
	}

	w.log.Info("output written",
		zap.String("path", target),
		zap.String("format", string(d.Format)),
		zap.Int("records", len(records)),
		zap.Int("bytes", len(data)))
	return target, nil
}

// Encode serializes records in format.
func Encode(records []record.Record, format ast.Format) ([]byte, error) {
	switch format {
	case ast.FormatCSV:
		return encodeCSV(records)
	case ast.FormatJSON:
		return encodeJSON(records)
	case ast.FormatYAML:
		return encodeYAML(records)
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

// encodeCSV writes a header of every key in first-seen order. Records
// lacking a key get an empty cell.
func encodeCSV(records []record.Record) ([]byte, error) {
	var buf bytes.Buffer
	header := record.UnionKeys(records)
	if len(header) == 0 {
		return buf.Bytes(), nil
	}

	cw := csv.NewWriter(&buf)
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	row := make([]string, len(header))
	for _, r := range records {
		for i, key := range header {
			row[i], _ = r.Get(key)
		}
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	return buf.Bytes(), cw.Error()
}

func encodeJSON(records []record.Record) ([]byte, error) {
	if records == nil {
		records = []record.Record{}
	}
	data, err := sonic.ConfigStd.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func encodeYAML(records []record.Record) ([]byte, error) {
	if records == nil {
		records = []record.Record{}
	}
	return yaml.Marshal(records)
}

// writeAtomic writes data to a temporary file beside path, syncs it and
// renames it into place.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
