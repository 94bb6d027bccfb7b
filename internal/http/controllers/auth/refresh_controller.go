package auth

import (
	"errors"
	"net/http"

	bridgehttp "github.com/dropDatabas3/genuka-bridge/internal/http"
	dto "github.com/dropDatabas3/genuka-bridge/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/genuka-bridge/internal/http/errors"
	"github.com/dropDatabas3/genuka-bridge/internal/http/helpers"
	svc "github.com/dropDatabas3/genuka-bridge/internal/http/services/auth"
	"github.com/dropDatabas3/genuka-bridge/internal/observability/logger"
	"github.com/dropDatabas3/genuka-bridge/internal/session"
)

// RefreshController handles POST /api/auth/refresh.
type RefreshController struct {
	service *svc.Service
}

// NewRefreshController creates a new refresh controller.
func NewRefreshController(service *svc.Service) *RefreshController {
	return &RefreshController{service: service}
}

// Refresh rota los tokens del provider y ambas cookies de sesión.
// Cualquier señal terminal (cookie ausente/ inválida, company desconocida,
// refresh token revocado) responde 401 con el mensaje de reinstalación.
func (c *RefreshController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RefreshController.Refresh"))

	ck, err := r.Cookie(session.RefreshCookieName)
	if err != nil || ck.Value == "" {
		bridgehttp.ObserveRefresh("no_cookie")
		log.Debug("refresh without cookie")
		c.writeReinstall(w, errors.New("refresh cookie missing"))
		return
	}

	res, err := c.service.Refresh(ctx, ck.Value)
	if err != nil {
		if errors.Is(err, svc.ErrReinstallRequired) {
			bridgehttp.ObserveRefresh("reinstall")
			log.Info("refresh rejected, reinstall required")
			c.writeReinstall(w, err)
			return
		}
		bridgehttp.ObserveRefresh("error")
		log.Error("refresh failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithMessage("Failed to refresh session. Please try again.").WithCause(err))
		return
	}

	for _, cookie := range res.Cookies {
		http.SetCookie(w, cookie)
	}

	bridgehttp.ObserveRefresh("success")
	log.Info("session refreshed", logger.CompanyID(res.Company.ID))
	helpers.WriteJSON(w, http.StatusOK, dto.RefreshResponse{
		Success: true,
		Message: "Session refreshed successfully",
		Company: res.Company,
	})
}

// writeReinstall limpia ambas cookies junto con el 401: una conexión muerta
// no debe dejar credenciales zombie en el browser.
func (c *RefreshController) writeReinstall(w http.ResponseWriter, cause error) {
	for _, cookie := range c.service.ClearCookies() {
		http.SetCookie(w, cookie)
	}
	httperrors.WriteError(w, httperrors.ErrReinstallRequired.WithCause(cause))
}
