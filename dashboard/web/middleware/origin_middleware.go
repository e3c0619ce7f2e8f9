package middleware

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/yeti47/agentbench/core/ccc/logging"
)

type OriginMiddleware struct {
	logger logging.Logger
}

func NewOriginMiddleware(logger logging.Logger) *OriginMiddleware {
	if logger == nil {
		logger = logging.NopLogger
	}
	return &OriginMiddleware{logger: logger}
}

// RequireSameOriginJSON rejects state-changing requests that a foreign page
// could send without a CORS preflight: they must be application/json and,
// when the browser names an origin, come from the dashboard's own host.
func (m *OriginMiddleware) RequireSameOriginJSON(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		c.Next()
		return
	}

	if !sameOrigin(c.Request) {
		m.logger.Warn("Rejecting cross-origin request", "path", c.FullPath(), "origin", c.GetHeader("Origin"))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Cross-origin request rejected"})
		return
	}

	if c.ContentType() != gin.MIMEJSON {
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": "Content-Type must be application/json"})
		return
	}

	c.Next()
}

func sameOrigin(r *http.Request) bool {
	if r.Header.Get("Sec-Fetch-Site") == "cross-site" {
		return false
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// Not sent by a browser for this request; the Content-Type check still applies.
		return true
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Host == r.Host
}
