// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/committeehub/internal/app/system/geofence"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, log level, body limits); everything
// committeehub needs on top of that lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session cookie written after Google sign-in
	SessionKey    string
	SessionName   string
	SessionDomain string
	SessionMaxAge time.Duration

	// Bearer tokens. An empty key disables bearer auth.
	JWTSigningKey string
	JWTIssuer     string

	// BaseURL prefixes issued attendance links and the OAuth redirect.
	BaseURL string

	// Timezone decides what "today" means for dates.
	Timezone string

	// FirstSuperAdminEmail is promoted to super admin on first sign-in
	// while no super admin exists.
	FirstSuperAdminEmail string

	// Venue geofence. All three set, or none.
	VenueLat          *float64
	VenueLng          *float64
	VenueRadiusMeters *float64

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string

	// Redis backs the link submission rate limit. Blank means in-memory.
	RedisAddr string

	// LinkRateLimit is the number of link submissions per client IP per minute.
	LinkRateLimit int

	// TrustProxyHeaders takes the client IP from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool

	// SignInURL receives ?error=<reason> when Google sign-in fails.
	// HomeURL is where a successful sign-in lands without a return path.
	// Both default to BaseURL + "/".
	SignInURL string
	HomeURL   string

	// CORSAllowedOrigins lists origins allowed to call /api. Blank disables CORS.
	CORSAllowedOrigins []string
}

// Venue returns the geofence configuration.
func (c AppConfig) Venue() geofence.Venue {
	return geofence.Venue{Lat: c.VenueLat, Lng: c.VenueLng, RadiusMeters: c.VenueRadiusMeters}
}
