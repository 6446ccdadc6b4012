package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/backlog/internal/middleware"
	"github.com/persistorai/backlog/internal/ws"
)

var errInvalidID = errors.New("id must be a UUID")

// parsePathID reads the :id path parameter as a UUID, responding 400 when it
// is malformed. ok is false when a response has been written.
func parsePathID(c *gin.Context) (id uuid.UUID, ok bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, errInvalidID.Error())

		return uuid.Nil, false
	}

	return id, true
}

func wsHandler(appCtx context.Context, log *logrus.Logger, hub *ws.Hub, corsOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		project := c.Query("project")
		if len(project) > 64 {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "project filter too long")

			return
		}

		// CORS origins are reused as WebSocket origin patterns.
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns:       corsOrigins,
			CompressionMode:      websocket.CompressionContextTakeover,
			CompressionThreshold: 128,
		})
		if err != nil {
			middleware.Logger(c, log).WithError(err).Error("websocket accept failed")

			return
		}

		client := ws.NewClient(hub, conn, project)
		hub.Register(client)

		// Cancel when either the server shuts down or the request ends.
		wsCtx, wsCancel := context.WithCancel(appCtx)
		go func() {
			select {
			case <-c.Request.Context().Done():
				wsCancel()
			case <-wsCtx.Done():
			}
		}()

		go client.WritePump(wsCtx)
		client.ReadPump(wsCtx)
		wsCancel()
	}
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if rid, exists := c.Get(middleware.RequestIDKey); exists {
			fields["request_id"] = rid
		}
		log.WithFields(fields).Info("request")
	}
}

// maxPaginationLimit caps the maximum number of items per page.
const maxPaginationLimit = 1000

// maxPaginationOffset caps the maximum offset for paginated queries.
const maxPaginationOffset = 100000

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}

	if v > maxPaginationLimit {
		return maxPaginationLimit
	}

	return v
}

func parseOffset(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}

	if v > maxPaginationOffset {
		return maxPaginationOffset
	}

	return v
}

// parseOptionalInt returns nil for an empty or malformed value.
func parseOptionalInt(s string) *int {
	if s == "" {
		return nil
	}

	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return nil
	}

	return &v
}

// parseOptionalBool returns nil for an empty or malformed value.
func parseOptionalBool(s string) *bool {
	if s == "" {
		return nil
	}

	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}

	return &v
}
