package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"

	"fictures-server/internal/config"
	"fictures-server/internal/models"
)

// streamPath is the community event stream. A stream request is one long
// request, so counting it against the window would lock subscribers out.
const streamPath = "/api/community/events"

// RateLimit builds a sliding-window limiter keyed by principal when the
// request is authenticated and by client IP otherwise. Construct it once
// and attach it to every group that should share the same counters.
func RateLimit(cfg *config.Config) gin.HandlerFunc {
	limiter := httprate.Limit(
		cfg.RateLimitRequests,
		cfg.RateLimitWindow,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(models.ErrorResponse{
				Code:    models.ErrCodeRateLimited,
				Message: "rate limit exceeded",
			})
		}),
	)

	return func(c *gin.Context) {
		if exemptFromRateLimit(c) {
			c.Next()
			return
		}

		// httprate only calls the inner handler when the request is under
		// the limit, so a missing call means the 429 was already written.
		proceeded := false
		limiter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			proceeded = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)
		if !proceeded {
			c.Abort()
		}
	}
}

func rateLimitKey(r *http.Request) (string, error) {
	if p, ok := PrincipalFromContext(r.Context()); ok {
		return "user:" + p.UserID.String(), nil
	}
	return httprate.KeyByIP(r)
}

func exemptFromRateLimit(c *gin.Context) bool {
	switch c.FullPath() {
	case streamPath, "/health", "/metrics":
		return true
	}
	return false
}
