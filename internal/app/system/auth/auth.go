// Package auth verifies caller credentials. A caller is identified by a
// bearer JWT or by the session cookie written after Google sign-in; either
// way the result is a Principal carrying a verified email.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/normalize"
	"go.uber.org/zap"
)

// Principal is a verified caller. It is not yet a Member; the identity
// resolver maps it to one.
type Principal struct {
	Email string
	Name  string
}

type ctxKey string

const principalKey ctxKey = "principal"

// WithPrincipal returns ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the principal set by Authenticator.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// Authenticator resolves the caller's credential on every request.
// A bearer token wins over the session cookie. A bearer token that fails
// verification is rejected outright instead of falling back.
type Authenticator struct {
	Sessions *SessionManager
	JWTKey   string
	Issuer   string
	Log      *zap.Logger
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok, ok := bearer(r); ok {
			if a.JWTKey == "" {
				apierr.Write(w, a.Log, apierr.ErrUnauthorized)
				return
			}
			claims, err := ParseToken(tok, a.JWTKey, a.Issuer)
			if err != nil {
				a.Log.Debug("bearer token rejected", zap.Error(err))
				apierr.Write(w, a.Log, apierr.ErrUnauthorized)
				return
			}
			p := Principal{Email: normalize.Email(claims.Email), Name: claims.Name}
			if p.Email == "" {
				apierr.Write(w, a.Log, apierr.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
			return
		}

		if a.Sessions != nil {
			if p, ok := a.Sessions.Principal(r); ok {
				r = r.WithContext(WithPrincipal(r.Context(), p))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// HasBearer reports whether r presents a bearer credential. Such requests
// never fall back to the session cookie.
func HasBearer(r *http.Request) bool {
	_, ok := bearer(r)
	return ok
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(h[7:])
	return tok, tok != ""
}
