// Package server exposes the query language over HTTP.
//
// Routes:
//
//	GET  /health     liveness and run totals
//	GET  /metrics    Prometheus exposition
//	POST /v1/parse   {"query": ...} -> canonical source
//	POST /v1/run     {"query": ...} -> run id, records and rendered outputs
//
// OUTPUT commands never touch the server's filesystem: each rendered file
// is returned in the response instead. Language errors answer 400 with the
// error kind and source position.
package server
