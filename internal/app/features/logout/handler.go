// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
	}
}

// ServeLogout handles POST /auth/logout. The session cookie is expired
// whether or not it decoded; bearer-token callers simply drop their token.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
		apierr.Write(w, h.Log, apierr.Internalf(err, "sign out"))
		return
	}
	apierr.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
