package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionCookie carries the shopper session id for browser clients.
	SessionCookie = "straphub_session"
	// SessionHeader lets API clients pass the session id explicitly.
	SessionHeader = "X-Session-ID"
	// SessionKey is the gin context key holding the resolved session id.
	SessionKey = "session_id"
)

// SessionOptions controls the session cookie.
type SessionOptions struct {
	MaxAge time.Duration
	Secure bool
}

// Session resolves the shopper session from the header or cookie, minting
// a new id when neither carries a valid one. The id is echoed back in the
// header and refreshed in the cookie on every response.
func Session(opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := parseSessionID(c.GetHeader(SessionHeader))
		if sid == "" {
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				sid = parseSessionID(cookie)
			}
		}
		if sid == "" {
			sid = uuid.NewString()
		}

		c.Set(SessionKey, sid)
		c.Header(SessionHeader, sid)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, sid, int(opts.MaxAge.Seconds()), "/", "", opts.Secure, true)
		c.Next()
	}
}

// SessionID returns the id resolved by Session.
func SessionID(c *gin.Context) string {
	return c.GetString(SessionKey)
}

func parseSessionID(raw string) string {
	id, err := uuid.Parse(raw)
	if err != nil {
		return ""
	}
	return id.String()
}
