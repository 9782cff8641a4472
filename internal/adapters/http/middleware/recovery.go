package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-gallery/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-gallery/internal/platform/logging"
)

// Recovery turns a panic in any later handler into a logged 500 with the
// standard error envelope. Install it first.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			// Log the panic with full context
			logging.FromContext(c.Request.Context()).Error("panic recovered",
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("path", c.Request.URL.Path),
				slog.String("method", c.Request.Method),
				slog.String("trace_id", dto.GetTraceID(c)),
			)

			// Build error response
			dto.Abort(c, dto.ErrorCodeInternal, "an internal error occurred")
		}()

		c.Next()
	}
}
