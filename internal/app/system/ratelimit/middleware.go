// internal/app/system/ratelimit/middleware.go
package ratelimit

import (
	"net/http"

	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"go.uber.org/zap"
)

// ByClientIP limits requests per client IP. When the checker itself fails
// (for example Redis is down) the request is let through and logged.
func ByClientIP(c Checker, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)
			ok, err := c.Check(r.Context(), ip)
			if err != nil {
				log.Warn("rate limit check failed; allowing request", zap.String("ip", ip), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				apierr.Write(w, log, apierr.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
