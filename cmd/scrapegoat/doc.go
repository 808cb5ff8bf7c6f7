// Command scrapegoat runs Goatspeak queries.
//
// Usage:
//
//	scrapegoat [run] [-v] [-j] [--render http|headless|script] [--config file]
//	           [--output-dir dir] [--metrics-file file] <file|glob|query>
//	scrapegoat fmt [-w] <file|glob|query>
//	scrapegoat serve [--config file] [--host h] [--port p]
//
// The argument is read as a file when one exists at that path, then as a
// doublestar glob, and otherwise as query source. Settings come from
// SCRAPEGOAT_* environment variables, optionally overlaid by a TOML file,
// and then by flags. Logs go to stderr; -v prints records on stdout.
// Any error exits with status 1.
package main
