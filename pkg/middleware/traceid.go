package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	TraceIDKey    = "trace_id"
	RequestHeader = "X-Request-ID"
	TraceHeader   = "X-Trace-ID"
)

// TraceIDMiddleware keeps a caller-supplied X-Request-ID (when it is a
// reasonable length) and otherwise mints a fresh one.
func TraceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(RequestHeader)
		if traceID == "" || len(traceID) > 128 {
			traceID = uuid.New().String()
		}
		c.Set(TraceIDKey, traceID)
		c.Writer.Header().Set(TraceHeader, traceID)
		c.Next()
	}
}
