/*
Package monitoring provides Prometheus metrics for query runs, fetches and
the HTTP API.

Each Metrics owns a private registry. A nil *Metrics is accepted by every
method, so callers that run without metrics pass nil.

# Usage

	metrics := monitoring.NewMetrics()

	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "graze")
	// ... run the command ...
	timer.Stop(err)

	// CLI runs dump the registry for the node exporter.
	metrics.WriteTextfile("/var/lib/node_exporter/scrapegoat.prom")
*/
package monitoring
