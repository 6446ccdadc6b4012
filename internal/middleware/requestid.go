package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDKey is the gin context key for the request ID.
	RequestIDKey = "request_id"

	// RequestIDHeader is the HTTP header used to propagate the request ID.
	RequestIDHeader = "X-Request-ID"

	loggerKey = "request_logger"
)

// RequestID assigns a server-generated UUID to each request and stores a
// logrus entry carrying it, retrievable with Logger. A client-supplied
// X-Request-ID is recorded as "client_request_id" but never trusted as the
// canonical id.
func RequestID(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.New().String()
		fields := logrus.Fields{"request_id": id}

		if clientID := c.GetHeader(RequestIDHeader); clientID != "" {
			if len(clientID) > 128 {
				clientID = clientID[:128]
			}

			fields["client_request_id"] = clientID
		}

		c.Set(RequestIDKey, id)
		c.Set(loggerKey, log.WithFields(fields))
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logger returns the request-scoped log entry, falling back to a bare entry
// on fallback when RequestID did not run.
func Logger(c *gin.Context, fallback *logrus.Logger) *logrus.Entry {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}

	return logrus.NewEntry(fallback)
}
