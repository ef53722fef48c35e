package handlers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-support-desk/internal/realtime"
	"github.com/tbourn/go-support-desk/internal/utils"
)

// heartbeat returns the ping interval, overridable per request with
// ?heartbeat=<seconds>.
func (h *Handlers) heartbeat(c *gin.Context) time.Duration {
	return utils.SecondsDefault(c.Query("heartbeat"), h.d.Heartbeat)
}

// streamSSE writes every value received on ch as a Server-Sent Event until
// the client disconnects, ch is closed or done is closed. Idle connections
// get "ping" events.
func streamSSE[T any](c *gin.Context, heartbeat time.Duration, done <-chan struct{}, ch <-chan T, name func(T) string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ping := time.NewTicker(heartbeat)
	defer ping.Stop()
	ctx := c.Request.Context()

	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-done:
			return false
		case v, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(name(v), v)
			return true
		case t := <-ping.C:
			c.SSEvent("ping", t.UTC().Unix())
			return true
		}
	})
}

// streamTable relays hub events for table (narrowed by f) to the client.
func (h *Handlers) streamTable(c *gin.Context, prefix, table string, f realtime.Filter) {
	events := make(chan realtime.Event, realtime.DefaultBuffer)
	unsub, err := h.d.Hub.Subscribe(prefix+"-"+uuid.NewString(), table, f, func(ev realtime.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "subscribe failed")
		return
	}
	defer unsub()
	streamSSE(c, h.heartbeat(c), h.d.Shutdown, events, eventName)
}

// eventName names broadcasts by their "event" key and changes by their type.
func eventName(ev realtime.Event) string {
	if ev.Type == realtime.Broadcast {
		if n := ev.Keys["event"]; n != "" {
			return n
		}
	}
	return strings.ToLower(string(ev.Type))
}
