package members

import (
	"context"
	"net/http"

	memberstore "github.com/dalemusser/committeehub/internal/app/store/members"
	"github.com/dalemusser/committeehub/internal/app/system/apierr"
	"github.com/dalemusser/committeehub/internal/app/system/identity"
	"github.com/dalemusser/committeehub/internal/app/system/inputval"
	"github.com/dalemusser/committeehub/internal/app/system/timeouts"
	"github.com/dalemusser/committeehub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type createRequest struct {
	Email     string `json:"email"`
	Title     string `json:"title"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ITSNumber string `json:"itsNumber"`
	Phone     string `json:"phone"`
	Role      string `json:"role"`
}

// ServeCreate handles POST /api/members. Role defaults to member.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.MemberFrom(r.Context())
	if !ok {
		apierr.Write(w, h.Log, apierr.ErrUnauthorized)
		return
	}
	var body createRequest
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	role := models.RoleMember
	if body.Role != "" {
		role = models.Role(body.Role)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := memberstore.New(h.DB).Create(ctx, models.Member{
		Email:     body.Email,
		Title:     body.Title,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		ITSNumber: body.ITSNumber,
		Phone:     body.Phone,
		Role:      role,
	})
	if err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	h.Log.Info("member created",
		zap.String("member_id", m.ID.Hex()),
		zap.String("role", string(m.Role)),
		zap.String("actor_id", actor.ID.Hex()))
	apierr.JSON(w, http.StatusCreated, m)
}

type patchRequest struct {
	Title     *string `json:"title"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	ITSNumber *string `json:"itsNumber"`
	Phone     *string `json:"phone"`
	Name      *string `json:"name"`
	Role      *string `json:"role"`
}

// ServePatch handles PATCH /api/members/{id}. Team membership is changed
// through the teams API, not here.
func (h *Handler) ServePatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.MemberFrom(r.Context())
	if !ok {
		apierr.Write(w, h.Log, apierr.ErrUnauthorized)
		return
	}
	id, err := inputval.ObjectID(chi.URLParam(r, "id"))
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}
	var body patchRequest
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	upd := memberstore.Update{
		Title:     body.Title,
		FirstName: body.FirstName,
		LastName:  body.LastName,
		ITSNumber: body.ITSNumber,
		Phone:     body.Phone,
		Name:      body.Name,
	}
	if body.Role != nil {
		role := models.Role(*body.Role)
		if id == actor.ID && role != actor.Role {
			apierr.Write(w, h.Log, errSelfChange)
			return
		}
		upd.Role = &role
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	m, err := memberstore.New(h.DB).Update(ctx, id, upd)
	if err != nil {
		apierr.Write(w, h.Log, storeErr(err))
		return
	}
	h.Log.Info("member updated",
		zap.String("member_id", id.Hex()),
		zap.String("actor_id", actor.ID.Hex()))
	apierr.JSON(w, http.StatusOK, m)
}
