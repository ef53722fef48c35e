package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client-chosen key of a retryable send.
const HeaderIdempotencyKey = "Idempotency-Key"

// ConversationParam is the route parameter naming the conversation a send
// belongs to (POST /support/conversations/:userId/messages).
const ConversationParam = "userId"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"

	defaultIdemMaxLen = 200
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// IdempotencyScope identifies one stored send: the agent that sent it, the
// conversation it went to and the key the client picked.
type IdempotencyScope struct {
	UserID         string
	ConversationID string
	Key            string
}

// IdempotencyLookup reports whether a still valid record exists for scope.
// Errors are logged and treated as a miss.
type IdempotencyLookup func(ctx context.Context, scope IdempotencyScope, now time.Time) (bool, error)

// IdempotencyOptions tunes key validation. Zero values pick the defaults.
type IdempotencyOptions struct {
	MaxLen  int
	Pattern *regexp.Regexp
	// Now overrides the clock used for expiry checks.
	Now func() time.Time
}

// IdempotencyKey returns the validated key of the current request.
func IdempotencyKey(c *gin.Context) (string, bool) {
	s := asString(c.Value(ctxKeyIdemKey))
	return s, s != ""
}

// IsReplay reports whether the key of the current request matches a send
// that already completed.
func IsReplay(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyIdemReplay).(bool)
	return b
}

// IdempotencyValidator checks the Idempotency-Key header of unsafe requests.
// Malformed keys are rejected with 400. A key that matches a stored send
// marks the request as a replay, which also exempts it from rate limiting.
// Serving the stored result stays with the handler.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	if opts.MaxLen <= 0 {
		opts.MaxLen = defaultIdemMaxLen
	}
	if opts.Pattern == nil {
		opts.Pattern = defaultIdemPattern
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key == "" || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > opts.MaxLen || !opts.Pattern.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			scope := IdempotencyScope{
				UserID:         callerID(c),
				ConversationID: c.Param(ConversationParam),
				Key:            key,
			}
			found, err := lookup(c.Request.Context(), scope, opts.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			case found:
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}

func isSafeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

// callerID is the sending agent: the "userID" context value, then the
// X-User-ID header, then "anonymous".
func callerID(c *gin.Context) string {
	if s := asString(c.Value("userID")); s != "" {
		return s
	}
	if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
		return h
	}
	return "anonymous"
}
