// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dalemusser/committeehub/internal/app/store/oauthstate"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/auth"
	"github.com/dalemusser/committeehub/internal/app/system/timeouts"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// stateTTL bounds how long a sign-in may take between redirect and callback.
const stateTTL = 10 * time.Minute

// MemberResolver maps a signed-in principal to a registered member.
type MemberResolver interface {
	Resolve(ctx context.Context, p auth.Principal) (*models.Member, error)
}

// Handler handles Google OAuth authentication.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	StateStore *oauthstate.Store
	Members    MemberResolver

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://hub.example.org/auth/google/callback"

	// SignInURL receives ?error=<reason> on failure; HomeURL is the landing
	// page when the flow carried no return path.
	SignInURL string
	HomeURL   string

	// userInfo is swapped in tests.
	userInfo func(ctx context.Context, cfg *oauth2.Config, code string) (*googleUserInfo, error)
}

// NewHandler creates a new Google OAuth handler.
func NewHandler(
	sessionMgr *auth.SessionManager,
	stateStore *oauthstate.Store,
	members MemberResolver,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:          logger,
		SessionMgr:   sessionMgr,
		StateStore:   stateStore,
		Members:      members,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		SignInURL:    baseURL + "/",
		HomeURL:      baseURL + "/",
		userInfo:     exchangeAndFetch,
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

// ServeEnabled reports whether Google sign-in is available, so clients can
// hide the button when it is not.
func (h *Handler) ServeEnabled(w http.ResponseWriter, r *http.Request) {
	apierr.JSON(w, http.StatusOK, map[string]bool{"enabled": h.IsConfigured()})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google                                                             |
| Initiates the Google OAuth flow by redirecting to Google's consent screen.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		h.fail(w, r, "google_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}

	returnURL := query.Get(r, "return")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.StateStore.Save(ctx, state, returnURL, time.Now().UTC().Add(stateTTL)); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}

	authURL := h.oauth2Config().AuthCodeURL(state)

	h.Log.Debug("initiating Google OAuth flow",
		zap.String("redirect_url", authURL),
		zap.String("return_url", returnURL))

	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Validates state, exchanges the code, resolves the member by verified email   |
| and stores the principal in the session cookie.                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", r.URL.Query().Get("error_description")))
		h.fail(w, r, "google_denied")
		return
	}

	state := r.URL.Query().Get("state")
	if state == "" {
		h.Log.Warn("missing OAuth state parameter")
		h.fail(w, r, "invalid_state")
		return
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	returnURL, valid, err := h.StateStore.Validate(ctxTimeout, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.fail(w, r, "invalid_state")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.Log.Warn("missing OAuth code parameter")
		h.fail(w, r, "invalid_code")
		return
	}

	googleUser, err := h.userInfo(ctx, h.oauth2Config(), code)
	if err != nil {
		h.Log.Error("failed to complete Google sign-in", zap.Error(err))
		h.fail(w, r, "token_exchange")
		return
	}
	if !googleUser.EmailVerified || googleUser.Email == "" {
		h.Log.Info("Google OAuth: email not verified", zap.String("google_id", googleUser.ID))
		h.fail(w, r, "email_unverified")
		return
	}

	p := auth.Principal{Email: googleUser.Email, Name: googleUser.Name}
	m, err := h.Members.Resolve(ctxTimeout, p)
	if err != nil {
		if errors.Is(err, apierr.ErrNotRegistered) {
			h.Log.Info("Google OAuth: no member for email", zap.String("email", googleUser.Email))
			h.fail(w, r, "no_account")
			return
		}
		h.Log.Error("failed to resolve member", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, p); err != nil {
		var cerr securecookie.Error
		if errors.As(err, &cerr) && cerr.IsUsage() {
			h.Log.Error("session cookie misconfigured", zap.Error(err))
		} else {
			h.Log.Error("save session failed", zap.Error(err))
		}
		h.fail(w, r, "session")
		return
	}

	h.Log.Info("member signed in via Google OAuth",
		zap.String("member_id", m.ID.Hex()),
		zap.String("role", m.Role.String()))

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", h.HomeURL), http.StatusSeeOther)
}

// fail sends the browser back to the sign-in page with an error reason.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, reason string) {
	u, err := url.Parse(h.SignInURL)
	if err != nil {
		http.Redirect(w, r, "/?error="+url.QueryEscape(reason), http.StatusSeeOther)
		return
	}
	q := u.Query()
	q.Set("error", reason)
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

// exchangeAndFetch trades the code for a token and reads Google's userinfo
// endpoint with it.
func exchangeAndFetch(ctx context.Context, cfg *oauth2.Config, code string) (*googleUserInfo, error) {
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}
	return &info, nil
}

// generateState creates a random state string.
func generateState() (string, error) {
	b := securecookie.GenerateRandomKey(32)
	if b == nil {
		return "", errors.New("generate state: no randomness")
	}
	return fmt.Sprintf("%x", b), nil
}
