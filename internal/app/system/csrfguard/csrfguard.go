// Package csrfguard protects cookie-authenticated requests against
// cross-site request forgery with gorilla/csrf. Requests that present a
// bearer token, or that carry no session cookie, cannot be forged by a
// third-party page and pass straight through.
package csrfguard

import (
	"net/http"
	"net/url"

	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/auth"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// HeaderName carries the token on unsafe requests.
const HeaderName = "X-CSRF-Token"

// cookieName holds the masked token secret.
const cookieName = "committeehub-csrf"

var ErrCSRF = apierr.New(apierr.Forbidden, "csrf_failed", "Missing or invalid CSRF token")

// Config configures Middleware.
type Config struct {
	// Secret seeds the token signing key. The session key is a fine choice.
	Secret string
	// SessionCookie names the cookie whose presence turns the check on.
	SessionCookie string
	// Secure marks the token cookie Secure and expects HTTPS requests.
	Secure bool
	// AllowedOrigins are full origins ("https://app.example.org") whose
	// pages may send unsafe requests. Usually the CORS allow-list.
	AllowedOrigins []string
	Log            *zap.Logger
}

// Middleware returns the CSRF guard described by cfg.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	key := blake2b.Sum256([]byte("csrf:" + cfg.Secret))

	sameSite := csrf.SameSiteLaxMode
	if cfg.Secure {
		// Matches the session cookie so cross-site frontends can send both.
		sameSite = csrf.SameSiteNoneMode
	}

	opts := []csrf.Option{
		csrf.CookieName(cookieName),
		csrf.RequestHeader(HeaderName),
		csrf.Path("/"),
		csrf.Secure(cfg.Secure),
		csrf.SameSite(sameSite),
		csrf.TrustedOrigins(originHosts(cfg.AllowedOrigins)),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cfg.Log.Warn("csrf check failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("origin", r.Header.Get("Origin")),
				zap.Error(csrf.FailureReason(r)))
			apierr.Write(w, cfg.Log, ErrCSRF)
		})),
	}
	protect := csrf.Protect(key[:], opts...)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.HasBearer(r) || !hasCookie(r, cfg.SessionCookie) {
				next.ServeHTTP(w, r)
				return
			}
			if !cfg.Secure {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}

// ServeToken handles GET /auth/csrf. It returns the token a signed-in
// client echoes in HeaderName; the token is empty for callers without a
// session cookie.
func ServeToken(w http.ResponseWriter, r *http.Request) {
	apierr.JSON(w, http.StatusOK, map[string]string{"token": csrf.Token(r)})
}

func hasCookie(r *http.Request, name string) bool {
	c, err := r.Cookie(name)
	return err == nil && c.Value != ""
}

// originHosts reduces origins to the host form gorilla/csrf compares.
func originHosts(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		out = append(out, u.Host)
	}
	return out
}
