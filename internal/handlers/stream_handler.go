package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/logger"
	"spendwise/internal/notifier"
)

// DefaultKeepAlive is the interval between keep-alive comments on idle streams.
const DefaultKeepAlive = 25 * time.Second

// StreamHandler serves the push channel as Server-Sent Events.
type StreamHandler struct {
	hub       *notifier.Hub
	keepAlive time.Duration
}

// NewStreamHandler creates a StreamHandler. A non-positive keepAlive uses
// DefaultKeepAlive.
func NewStreamHandler(hub *notifier.Hub, keepAlive time.Duration) *StreamHandler {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	return &StreamHandler{hub: hub, keepAlive: keepAlive}
}

// Events streams the caller's change events until the client disconnects,
// the subscriber falls behind, or the server shuts down.
// @Summary     Subscribe to changes
// @Description Server-Sent Events stream. Emits "connected" once, then expenseCreated, expenseUpdated, expenseDeleted, categoryCreated, categoryUpdated and categoryDeleted with the record (or {"id"} for deletions) as JSON data. The token may be passed as the access_token query parameter.
// @Tags        events
// @Produce     text/event-stream
// @Security    BearerAuth
// @Param       access_token query string false "Access token for clients that cannot set headers"
// @Success     200 {string} string "event stream"
// @Failure     401 {object} response.ErrorEnvelope "Unauthorized"
// @Failure     503 {object} response.ErrorEnvelope "Shutting down"
// @Router      /events [get]
func (h *StreamHandler) Events(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	sub, err := h.hub.Subscribe(userID)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrUnavailable, err))
		return
	}
	defer sub.Close()

	log := logger.Named("stream")
	log.Debugw("stream opened", "user_id", userID, "client_ip", c.ClientIP())

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.SSEvent("connected", `{"status":"connected"}`)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		case <-ticker.C:
			_, err := io.WriteString(w, ": keep-alive\n\n")
			return err == nil
		case <-ctx.Done():
			return false
		}
	})

	log.Debugw("stream closed", "user_id", userID)
}
