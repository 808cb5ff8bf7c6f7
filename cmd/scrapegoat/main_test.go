package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body><a href="/1">one</a><a href="/2">two</a></body></html>`

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SCRAPEGOAT_LOG_LEVEL", "error")
	var stdout, stderr bytes.Buffer
	err := newApp(&stdout, &stderr).Run(append([]string{"scrapegoat"}, args...))
	return stdout.String(), err
}

func TestResolveInputs(t *testing.T) {
	dir := t.TempDir()
	b := writeFile(t, filepath.Join(dir, "q", "b.goat"), `VISIT "b";`)
	a := writeFile(t, filepath.Join(dir, "q", "nested", "a.goat"), `VISIT "a";`)

	got, err := resolveInputs(b)
	require.NoError(t, err)
	assert.Equal(t, []input{{Path: b, Source: `VISIT "b";`}}, got)

	got, err = resolveInputs(filepath.Join(dir, "q", "**", "*.goat"))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b, got[0].Path)
	assert.Equal(t, a, got[1].Path)

	got, err = resolveInputs(`VISIT "x"; SCRAPE *;`)
	require.NoError(t, err)
	assert.Equal(t, []input{{Source: `VISIT "x"; SCRAPE *;`}}, got)
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	html := writeFile(t, filepath.Join(dir, "page.html"), page)
	query := writeFile(t, filepath.Join(dir, "links.goat"),
		`VISIT "`+html+`"; SCRAPE a; EXTRACT @href, body; OUTPUT csv --filename "links";`)
	out := filepath.Join(dir, "out")

	stdout, err := runApp(t, "--output-dir", out, "-v", query)
	require.NoError(t, err)

	var records []map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &records))
	assert.Equal(t, []map[string]string{{"href": "/1", "body": "one"}, {"href": "/2", "body": "two"}}, records)

	data, err := os.ReadFile(filepath.Join(out, "links.csv"))
	require.NoError(t, err)
	assert.Equal(t, "href,body\n/1,one\n/2,two\n", string(data))
}

func TestRunInlineQueryQuiet(t *testing.T) {
	dir := t.TempDir()
	html := writeFile(t, filepath.Join(dir, "page.html"), page)

	stdout, err := runApp(t, "run", "--output-dir", dir, `VISIT "`+html+`"; SCRAPE a; EXTRACT @href; OUTPUT json;`)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.FileExists(t, filepath.Join(dir, "output.json"))
}

func TestRunReportsPosition(t *testing.T) {
	dir := t.TempDir()
	query := writeFile(t, filepath.Join(dir, "bad.goat"), "VISIT \"x\";\n[second]\nEXTRACT body;\n")

	_, err := runApp(t, query)
	require.Error(t, err)
	assert.Equal(t, query+": 3:1: sequence error: EXTRACT must follow VISIT", err.Error())
}

func TestRunMetricsFile(t *testing.T) {
	dir := t.TempDir()
	html := writeFile(t, filepath.Join(dir, "page.html"), page)
	metrics := filepath.Join(dir, "scrapegoat.prom")

	_, err := runApp(t, "--metrics-file", metrics, "--output-dir", dir, `VISIT "`+html+`"; SCRAPE a; EXTRACT @href;`)
	require.NoError(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "scrapegoat_records_extracted_total 2")
}

func TestRunRejectsBadRender(t *testing.T) {
	_, err := runApp(t, "--render", "telepathy", `VISIT "x";`)
	assert.ErrorContains(t, err, "invalid render mode")
}

func TestFmt(t *testing.T) {
	stdout, err := runApp(t, "fmt", `visit_ignored`)
	require.Error(t, err)
	assert.Empty(t, stdout)

	stdout, err = runApp(t, "fmt", `VISIT 'http://x/';SCRAPE 2 a IF @href LIKE "/";EXTRACT @href;`)
	require.NoError(t, err)
	assert.Equal(t, "VISIT \"http://x/\";\nSCRAPE 2 a IF @href LIKE \"/\";\nEXTRACT @href;\n", stdout)
}

func TestFmtWrite(t *testing.T) {
	dir := t.TempDir()
	query := writeFile(t, filepath.Join(dir, "q.goat"), `VISIT "x";   SCRAPE p;`)

	stdout, err := runApp(t, "fmt", "-w", query)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(query)
	require.NoError(t, err)
	assert.Equal(t, "VISIT \"x\";\nSCRAPE p;\n", string(data))
}
