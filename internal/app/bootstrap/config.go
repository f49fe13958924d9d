// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/committeehub/internal/app/system/civildate"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minJWTKeyLen is the shortest HS256 key accepted.
const minJWTKeyLen = 32

// appConfigKeys defines the configuration keys for committeehub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: COMMITTEEHUB_MONGO_URI, COMMITTEEHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "committee_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "committeehub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	// Bearer tokens
	{Name: "jwt_signing_key", Default: "", Desc: "HS256 key for bearer tokens (blank disables bearer auth)"},
	{Name: "jwt_issuer", Default: "committeehub", Desc: "Expected iss claim on bearer tokens"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL for attendance links and OAuth callbacks"},
	{Name: "timezone", Default: "UTC", Desc: "IANA time zone that defines today's date"},
	{Name: "first_super_admin_email", Default: "", Desc: "Email promoted to super admin while none exists"},

	// Venue geofence
	{Name: "venue_lat", Default: "", Desc: "Venue latitude (blank disables the geofence)"},
	{Name: "venue_lng", Default: "", Desc: "Venue longitude"},
	{Name: "venue_radius_meters", Default: "", Desc: "Venue radius in meters"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	{Name: "redis_addr", Default: "", Desc: "Redis address for shared rate limits (blank uses in-memory limits)"},
	{Name: "link_rate_limit", Default: 30, Desc: "Link submissions allowed per client IP per minute"},
	{Name: "trust_proxy_headers", Default: false, Desc: "Read the client IP from X-Forwarded-For (only behind a trusted proxy)"},
	{Name: "sign_in_url", Default: "", Desc: "Where failed Google sign-ins are sent with ?error= (blank means base_url/)"},
	{Name: "home_url", Default: "", Desc: "Where successful Google sign-ins land (blank means base_url/)"},
	{Name: "cors_allowed_origins", Default: "", Desc: "Comma-separated origins allowed to call the API"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, COMMITTEEHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COMMITTEEHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		JWTSigningKey: appValues.String("jwt_signing_key"),
		JWTIssuer:     appValues.String("jwt_issuer"),

		BaseURL:              strings.TrimRight(appValues.String("base_url"), "/"),
		Timezone:             appValues.String("timezone"),
		FirstSuperAdminEmail: appValues.String("first_super_admin_email"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		RedisAddr:          appValues.String("redis_addr"),
		LinkRateLimit:      appValues.Int("link_rate_limit"),
		TrustProxyHeaders:  appValues.Bool("trust_proxy_headers"),
		SignInURL:          appValues.String("sign_in_url"),
		HomeURL:            appValues.String("home_url"),
		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),
	}

	for _, f := range []struct {
		key string
		dst **float64
	}{
		{"venue_lat", &appCfg.VenueLat},
		{"venue_lng", &appCfg.VenueLng},
		{"venue_radius_meters", &appCfg.VenueRadiusMeters},
	} {
		v, err := optionalFloat(appValues.String(f.key))
		if err != nil {
			return nil, AppConfig{}, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = v
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if _, err := civildate.LoadLocation(appCfg.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", appCfg.Timezone, err)
	}

	if err := validateVenue(appCfg); err != nil {
		return err
	}

	if appCfg.JWTSigningKey != "" && len(appCfg.JWTSigningKey) < minJWTKeyLen {
		return fmt.Errorf("jwt_signing_key must be at least %d bytes", minJWTKeyLen)
	}
	if appCfg.JWTSigningKey == "" {
		logger.Warn("jwt_signing_key not set; bearer tokens are disabled")
	}

	if appCfg.LinkRateLimit <= 0 {
		return errors.New("link_rate_limit must be positive")
	}

	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		return errors.New("session_key must be set in production")
	}

	return nil
}

func validateVenue(c AppConfig) error {
	set := 0
	for _, v := range []*float64{c.VenueLat, c.VenueLng, c.VenueRadiusMeters} {
		if v != nil {
			set++
		}
	}
	switch {
	case set == 0:
		return nil
	case set != 3:
		return errors.New("venue_lat, venue_lng and venue_radius_meters must be set together")
	case *c.VenueLat < -90 || *c.VenueLat > 90:
		return fmt.Errorf("venue_lat %v out of range", *c.VenueLat)
	case *c.VenueLng < -180 || *c.VenueLng > 180:
		return fmt.Errorf("venue_lng %v out of range", *c.VenueLng)
	case *c.VenueRadiusMeters <= 0:
		return errors.New("venue_radius_meters must be positive")
	}
	return nil
}

func optionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
