package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/genuka-bridge/internal/http/dto/auth"
	"github.com/dropDatabas3/genuka-bridge/internal/http/helpers"
	svc "github.com/dropDatabas3/genuka-bridge/internal/http/services/auth"
	"github.com/dropDatabas3/genuka-bridge/internal/session"
)

// CheckController handles GET /api/auth/check.
type CheckController struct {
	service *svc.Service
}

// NewCheckController creates a new check controller.
func NewCheckController(service *svc.Service) *CheckController {
	return &CheckController{service: service}
}

// Check es un endpoint liviano para el frontend: siempre 200, con el veredicto
// en el body. No toca el store ni el provider.
func (c *CheckController) Check(w http.ResponseWriter, r *http.Request) {
	authenticated := false
	if ck, err := r.Cookie(session.SessionCookieName); err == nil && ck.Value != "" {
		_, authenticated = c.service.CheckSession(ck.Value)
	}
	helpers.WriteJSON(w, http.StatusOK, dto.CheckResponse{Authenticated: authenticated})
}
