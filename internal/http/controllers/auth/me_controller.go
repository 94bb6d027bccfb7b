package auth

import (
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/genuka-bridge/internal/http/errors"
	"github.com/dropDatabas3/genuka-bridge/internal/http/helpers"
	authsvc "github.com/dropDatabas3/genuka-bridge/internal/http/services/auth"
	companysvc "github.com/dropDatabas3/genuka-bridge/internal/http/services/company"
	"github.com/dropDatabas3/genuka-bridge/internal/observability/logger"
	"github.com/dropDatabas3/genuka-bridge/internal/session"
)

// MeController handles GET /api/auth/me.
type MeController struct {
	auth      *authsvc.Service
	companies *companysvc.Service
}

// NewMeController creates a new me controller.
func NewMeController(auth *authsvc.Service, companies *companysvc.Service) *MeController {
	return &MeController{auth: auth, companies: companies}
}

// Me retorna el perfil público de la company de la sesión activa.
// A diferencia de /api/company/current, acá la falta de sesión es 401 duro.
func (c *MeController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("MeController.Me"))

	ck, err := r.Cookie(session.SessionCookieName)
	if err != nil || ck.Value == "" {
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithMessage("Not authenticated"))
		return
	}

	companyID, ok := c.auth.CheckSession(ck.Value)
	if !ok {
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithMessage("Not authenticated"))
		return
	}

	pub, err := c.companies.Get(ctx, companyID)
	if err != nil {
		if errors.Is(err, companysvc.ErrNotFound) {
			httperrors.WriteError(w, httperrors.ErrUnauthorized.WithMessage("Company not found"))
			return
		}
		log.Error("profile lookup failed", logger.CompanyID(companyID), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithMessage("Failed to get user info").WithCause(err))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, pub)
}
