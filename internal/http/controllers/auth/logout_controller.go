package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/genuka-bridge/internal/http/dto/auth"
	"github.com/dropDatabas3/genuka-bridge/internal/http/helpers"
	svc "github.com/dropDatabas3/genuka-bridge/internal/http/services/auth"
	"github.com/dropDatabas3/genuka-bridge/internal/observability/logger"
)

// LogoutController handles POST /api/auth/logout.
type LogoutController struct {
	service *svc.Service
}

// NewLogoutController creates a new logout controller.
func NewLogoutController(service *svc.Service) *LogoutController {
	return &LogoutController{service: service}
}

// Logout expira ambas cookies. Siempre responde 200: hacer logout sin sesión
// activa es un no-op exitoso, no un error.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	log := logger.From(r.Context()).With(logger.Layer("controller"), logger.Op("LogoutController.Logout"))

	for _, cookie := range c.service.ClearCookies() {
		http.SetCookie(w, cookie)
	}

	log.Debug("logout completed")
	helpers.WriteJSON(w, http.StatusOK, dto.LogoutResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}
