// Package identity maps a verified principal to a registered Member.
package identity

import (
	"context"
	"errors"
	"net/http"

	memberstore "github.com/dalemusser/committeehub/internal/app/store/members"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/auth"
	"github.com/dalemusser/committeehub/internal/app/system/normalize"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"go.uber.org/zap"
)

// MemberDirectory is the slice of the member store the resolver needs.
type MemberDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	IsEmpty(ctx context.Context) (bool, error)
	Create(ctx context.Context, m models.Member) (models.Member, error)
}

type Resolver struct {
	members         MemberDirectory
	firstSuperAdmin string
	log             *zap.Logger
}

// New returns a Resolver. firstSuperAdminEmail may be empty, which
// disables bootstrap provisioning.
func New(members MemberDirectory, firstSuperAdminEmail string, log *zap.Logger) *Resolver {
	return &Resolver{
		members:         members,
		firstSuperAdmin: normalize.Email(firstSuperAdminEmail),
		log:             log,
	}
}

// Resolve looks the principal up by email. On a fresh deployment the
// configured first super admin is provisioned on first sign-in; the unique
// email index makes concurrent bootstraps converge on one member.
func (r *Resolver) Resolve(ctx context.Context, p auth.Principal) (*models.Member, error) {
	email := normalize.Email(p.Email)
	if email == "" {
		return nil, apierr.ErrUnauthorized
	}

	m, err := r.members.FindByEmail(ctx, email)
	if err != nil {
		return nil, apierr.Internalf(err, "find member by email")
	}
	if m != nil {
		return m, nil
	}

	if r.firstSuperAdmin == "" || email != r.firstSuperAdmin {
		return nil, apierr.ErrNotRegistered
	}
	empty, err := r.members.IsEmpty(ctx)
	if err != nil {
		return nil, apierr.Internalf(err, "count members")
	}
	if !empty {
		// A concurrent bootstrap may have just inserted this member.
		return r.reread(ctx, email)
	}

	created, err := r.members.Create(ctx, models.Member{
		Email: email,
		Name:  p.Name,
		Role:  models.RoleSuperAdmin,
	})
	if errors.Is(err, memberstore.ErrDuplicateEmail) {
		return r.reread(ctx, email)
	}
	if err != nil {
		return nil, apierr.Internalf(err, "bootstrap first super admin")
	}
	r.log.Info("provisioned first super admin", zap.String("email", email))
	return &created, nil
}

func (r *Resolver) reread(ctx context.Context, email string) (*models.Member, error) {
	m, err := r.members.FindByEmail(ctx, email)
	if err != nil {
		return nil, apierr.Internalf(err, "re-read member")
	}
	if m == nil {
		return nil, apierr.ErrNotRegistered
	}
	return m, nil
}

type ctxKey string

const memberKey ctxKey = "member"

// WithMember returns ctx carrying m.
func WithMember(ctx context.Context, m *models.Member) context.Context {
	return context.WithValue(ctx, memberKey, m)
}

// MemberFrom returns the member set by Middleware.
func MemberFrom(ctx context.Context) (*models.Member, bool) {
	m, ok := ctx.Value(memberKey).(*models.Member)
	return m, ok && m != nil
}

// Middleware requires a principal and resolves it to a member. Callers
// without a credential get 401, unregistered callers 403.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		p, ok := auth.PrincipalFrom(req.Context())
		if !ok {
			apierr.Write(w, r.log, apierr.ErrUnauthorized)
			return
		}
		m, err := r.Resolve(req.Context(), p)
		if err != nil {
			apierr.Write(w, r.log, err)
			return
		}
		next.ServeHTTP(w, req.WithContext(WithMember(req.Context(), m)))
	})
}

var errRoleForbidden = apierr.New(apierr.Forbidden, "forbidden_role", "Forbidden")

// RequireRole lets through only members holding one of roles. It must run
// after Middleware.
func RequireRole(log *zap.Logger, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m, ok := MemberFrom(r.Context())
			if !ok {
				apierr.Write(w, log, apierr.ErrUnauthorized)
				return
			}
			for _, role := range roles {
				if m.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			apierr.Write(w, log, errRoleForbidden)
		})
	}
}
