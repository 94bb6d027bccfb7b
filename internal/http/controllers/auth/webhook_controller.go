package auth

import (
	"errors"
	"io"
	"net/http"

	dto "github.com/dropDatabas3/genuka-bridge/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/genuka-bridge/internal/http/errors"
	"github.com/dropDatabas3/genuka-bridge/internal/http/helpers"
	"github.com/dropDatabas3/genuka-bridge/internal/observability/logger"
	"github.com/dropDatabas3/genuka-bridge/internal/signature"
	"github.com/dropDatabas3/genuka-bridge/internal/webhook"
)

// SignatureHeader es el header de autenticidad de los webhooks de Genuka.
const SignatureHeader = "X-Genuka-Signature"

// maxWebhookBody limita el body a 1 MiB; los payloads reales son de pocos KB.
const maxWebhookBody = 1 << 20

// WebhookController handles POST /api/auth/webhook.
type WebhookController struct {
	validator  *signature.Validator
	dispatcher *webhook.Dispatcher
}

// NewWebhookController creates a new webhook controller.
func NewWebhookController(validator *signature.Validator, dispatcher *webhook.Dispatcher) *WebhookController {
	return &WebhookController{validator: validator, dispatcher: dispatcher}
}

// Receive verifica la firma del body crudo y despacha el evento.
// La verificación corre sobre los bytes tal como llegaron, antes de cualquier
// decode, porque re-serializar JSON no es estable.
func (c *WebhookController) Receive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("WebhookController.Receive"))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithMessage("Failed to read request body.").WithCause(err))
		return
	}

	sig := r.Header.Get(SignatureHeader)
	if sig == "" || !c.validator.VerifyRaw(body, sig) {
		log.Warn("webhook signature rejected")
		httperrors.WriteError(w, httperrors.ErrUnauthorized.WithMessage("Invalid webhook signature."))
		return
	}

	ev, err := webhook.Parse(body)
	if err != nil {
		log.Warn("webhook payload rejected", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithMessage("Invalid webhook payload: type and company_id are required").WithCause(err))
		return
	}

	if err := c.dispatcher.Dispatch(ctx, ev); err != nil {
		if errors.Is(err, webhook.ErrInvalidPayload) {
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithMessage("Invalid webhook payload.").WithCause(err))
			return
		}
		log.Error("webhook dispatch failed", logger.EventType(string(ev.Type)), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithMessage("Failed to process webhook").WithCause(err))
		return
	}

	helpers.WriteJSON(w, http.StatusOK, dto.WebhookAck{
		Success: true,
		Message: "Webhook processed successfully",
	})
}
