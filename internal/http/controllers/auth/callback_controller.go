// Package auth contiene los controllers del flujo de autenticación.
package auth

import (
	"errors"
	"net/http"
	"strings"

	bridgehttp "github.com/dropDatabas3/genuka-bridge/internal/http"
	dto "github.com/dropDatabas3/genuka-bridge/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/genuka-bridge/internal/http/errors"
	svc "github.com/dropDatabas3/genuka-bridge/internal/http/services/auth"
	"github.com/dropDatabas3/genuka-bridge/internal/observability/logger"
	"go.uber.org/zap"
)

// CallbackController handles GET /api/auth/callback.
type CallbackController struct {
	service *svc.Service
}

// NewCallbackController creates a new callback controller.
func NewCallbackController(service *svc.Service) *CallbackController {
	return &CallbackController{service: service}
}

// Callback procesa el callback firmado de instalación de Genuka.
// En éxito setea ambas cookies y redirige (302) al destino validado.
func (c *CallbackController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CallbackController.Callback"))

	q := r.URL.Query()
	params := dto.CallbackParams{
		Code:       q.Get("code"),
		CompanyID:  q.Get("company_id"),
		Timestamp:  q.Get("timestamp"),
		HMAC:       q.Get("hmac"),
		RedirectTo: q.Get("redirect_to"),
	}

	res, err := c.service.HandleCallback(ctx, params)
	if err != nil {
		c.writeFailure(w, log, err)
		return
	}

	for _, ck := range res.Cookies {
		http.SetCookie(w, ck)
	}

	bridgehttp.ObserveCallback("success")
	log.Info("install callback completed", logger.CompanyID(res.CompanyID))
	http.Redirect(w, r, res.RedirectURL, http.StatusFound)
}

func (c *CallbackController) writeFailure(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingParams):
		bridgehttp.ObserveCallback("missing_params")
		fields := strings.TrimPrefix(err.Error(), svc.ErrMissingParams.Error()+": ")
		log.Warn("callback with missing parameters", logger.Any("fields", fields))
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithMessage("Missing required parameters: "+fields).WithCause(err))

	case errors.Is(err, svc.ErrRequestExpired):
		bridgehttp.ObserveCallback("expired")
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithMessage("Request expired. Please try again.").WithCause(err))

	case errors.Is(err, svc.ErrSignatureInvalid):
		bridgehttp.ObserveCallback("bad_signature")
		log.Warn("callback signature rejected")
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithMessage("Invalid signature.").WithCause(err))

	default:
		bridgehttp.ObserveCallback("error")
		log.Error("callback processing failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithMessage("Failed to complete authentication.").WithCause(err))
	}
}
