package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-support-desk/internal/http/middleware"
)

// HeaderReplayed marks a response served from a stored idempotent send.
const HeaderReplayed = "Idempotency-Replayed"

// ErrorResponse is the error envelope of every endpoint.
type ErrorResponse struct {
	// Echo of X-Request-ID
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable code, see errors.go
	Code    string `json:"code" example:"not_found"`
	Message string `json:"message" example:"resource not found"`
}

// fail aborts with an ErrorResponse. Server errors are logged at error
// level, rejected input at debug.
func fail(c *gin.Context, status int, code, msg string) {
	lg := middleware.LoggerFrom(c)
	ev := lg.Debug()
	if status >= http.StatusInternalServerError {
		ev = lg.Error()
	}
	ev.Int("status", status).Str("code", code).Str("message", msg).Msg("api error")

	c.AbortWithStatusJSON(status, ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	})
}

// Fail lets the router answer with the same envelope.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// replayed answers a retried send with the message stored the first time.
func replayed(c *gin.Context, body any) {
	c.Header(HeaderReplayed, "true")
	c.JSON(http.StatusOK, body)
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// setETag sets etag and answers 304 when If-None-Match already names it.
// It reports whether the response is complete.
func setETag(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if !etagMatches(c.GetHeader("If-None-Match"), etag) {
		return false
	}
	c.AbortWithStatus(http.StatusNotModified)
	return true
}

// etagMatches compares with the weak comparison of RFC 9110: a list of tags
// or "*", W/ prefixes ignored.
func etagMatches(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, tag := range strings.Split(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(tag), "W/") == want {
			return true
		}
	}
	return false
}
