// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	attendancefeature "github.com/dalemusser/committeehub/internal/app/features/attendance"
	authgooglefeature "github.com/dalemusser/committeehub/internal/app/features/authgoogle"
	eventsfeature "github.com/dalemusser/committeehub/internal/app/features/events"
	healthfeature "github.com/dalemusser/committeehub/internal/app/features/health"
	logoutfeature "github.com/dalemusser/committeehub/internal/app/features/logout"
	membersfeature "github.com/dalemusser/committeehub/internal/app/features/members"
	teamsfeature "github.com/dalemusser/committeehub/internal/app/features/teams"
	userinfofeature "github.com/dalemusser/committeehub/internal/app/features/userinfo"
	attendancestore "github.com/dalemusser/committeehub/internal/app/store/attendance"
	"github.com/dalemusser/committeehub/internal/app/store/attendancelinks"
	eventstore "github.com/dalemusser/committeehub/internal/app/store/events"
	memberstore "github.com/dalemusser/committeehub/internal/app/store/members"
	"github.com/dalemusser/committeehub/internal/app/store/oauthstate"
	teamstore "github.com/dalemusser/committeehub/internal/app/store/teams"
	"github.com/dalemusser/committeehub/internal/app/system/auth"
	"github.com/dalemusser/committeehub/internal/app/system/civildate"
	"github.com/dalemusser/committeehub/internal/app/system/csrfguard"
	"github.com/dalemusser/committeehub/internal/app/system/identity"
	"github.com/dalemusser/committeehub/internal/app/system/metrics"
	"github.com/dalemusser/committeehub/internal/app/system/ratelimit"
	"github.com/dalemusser/committeehub/internal/app/system/requestlog"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// linkRateWindow is the window link_rate_limit counts over.
const linkRateWindow = time.Minute

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// Every request is logged and its credential resolved (bearer token, then
// session cookie). Unsafe requests riding on the session cookie must also
// carry a CSRF token. Feature routers decide which of their
// routes need a registered member.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	loc, err := civildate.LoadLocation(appCfg.Timezone)
	if err != nil {
		return nil, err
	}
	clock := civildate.NewClock(loc)

	db := deps.MongoDatabase
	members := memberstore.New(db)
	resolver := identity.New(members, appCfg.FirstSuperAdminEmail, logger)
	requireMember := resolver.Middleware
	m := metrics.New()

	r := chi.NewRouter()
	if appCfg.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(requestlog.Middleware(logger))
	if len(appCfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   appCfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", csrfguard.HeaderName},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	authn := &auth.Authenticator{
		Sessions: sessionMgr,
		JWTKey:   appCfg.JWTSigningKey,
		Issuer:   appCfg.JWTIssuer,
		Log:      logger,
	}
	r.Use(csrfguard.Middleware(csrfguard.Config{
		Secret:         appCfg.SessionKey,
		SessionCookie:  sessionMgr.CookieName(),
		Secure:         secure,
		AllowedOrigins: appCfg.CORSAllowedOrigins,
		Log:            logger,
	}))
	r.Use(authn.Middleware)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", m.Handler())

	// Attendance
	engine := attendancefeature.NewEngine(attendancefeature.Deps{
		Members: members,
		Teams:   teamstore.New(db, logger),
		Events:  eventstore.New(db),
		Records: attendancestore.New(db),
		Links:   attendancelinks.New(db),
		Venue:   appCfg.Venue(),
		Clock:   clock,
		Metrics: m,
		BaseURL: appCfg.BaseURL,
	})
	attendanceHandler := attendancefeature.NewHandler(engine, logger)
	limitLinks := ratelimit.ByClientIP(linkLimiter(appCfg, deps), logger)
	r.Mount("/api/attendance", attendancefeature.Routes(attendanceHandler, requireMember, limitLinks))

	// Members, teams and events
	membersHandler := membersfeature.NewHandler(db, logger)
	r.Mount("/api/members", membersfeature.Routes(membersHandler, requireMember))

	teamsHandler := teamsfeature.NewHandler(db, logger)
	r.Mount("/api/teams", teamsfeature.Routes(teamsHandler, requireMember))

	eventsHandler := eventsfeature.NewHandler(db, clock, logger)
	r.Mount("/api/events", eventsfeature.Routes(eventsHandler, requireMember))

	userinfofeature.MountRoutes(r, userinfofeature.NewHandler(logger), requireMember)

	// Authentication
	googleHandler := authgooglefeature.NewHandler(sessionMgr, oauthstate.New(db), resolver,
		appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL, logger)
	if appCfg.SignInURL != "" {
		googleHandler.SignInURL = appCfg.SignInURL
	}
	if appCfg.HomeURL != "" {
		googleHandler.HomeURL = appCfg.HomeURL
	}
	r.Mount("/auth/google", authgooglefeature.Routes(googleHandler))

	r.Get("/auth/csrf", csrfguard.ServeToken)
	logoutfeature.MountRoutes(r, logoutfeature.NewHandler(sessionMgr, logger))

	return r, nil
}

// linkLimiter shares link submission counts across instances through Redis
// when it is configured.
func linkLimiter(appCfg AppConfig, deps DBDeps) ratelimit.Checker {
	if deps.Redis != nil {
		return ratelimit.NewRedis(deps.Redis, "committeehub:link-submit:", appCfg.LinkRateLimit, linkRateWindow)
	}
	return ratelimit.New(appCfg.LinkRateLimit, linkRateWindow)
}
