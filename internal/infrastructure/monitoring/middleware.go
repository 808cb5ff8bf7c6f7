package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Route templates keep label cardinality bounded.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

// Timer measures one command execution.
type Timer struct {
	start   time.Time
	metrics *Metrics
	kind    string
}

// NewTimer starts timing a command of kind.
func NewTimer(metrics *Metrics, kind string) *Timer {
	return &Timer{start: time.Now(), metrics: metrics, kind: kind}
}

// Stop records the elapsed time and outcome.
func (t *Timer) Stop(err error) time.Duration {
	d := time.Since(t.start)
	t.metrics.RecordCommand(t.kind, d, err)
	return d
}
