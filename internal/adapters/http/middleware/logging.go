package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-gallery/internal/platform/logging"
)

// Logging logs one line per completed request, at warn for 4xx and error
// for 5xx. Paths under any of skipPrefixes are not logged; probes and
// metrics under /-/ never are.
func Logging(skipPrefixes ...string) gin.HandlerFunc {
	skip := append([]string{"/-/"}, skipPrefixes...)

	return func(c *gin.Context) {
		// Skip logging for health check endpoints
		path := c.Request.URL.Path
		for _, prefix := range skip {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		// Process request
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		// Choose log level based on status code
		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		if c.Request.URL.RawQuery != "" {
			path += "?" + c.Request.URL.RawQuery
		}

		// Log request completion with the context logger (request_id, correlation_id, trace_id)
		logging.FromContext(c.Request.Context()).Log(c.Request.Context(), level, "request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("route", c.FullPath()),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.Int("bytes", c.Writer.Size()),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}
