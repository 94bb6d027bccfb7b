// Package company contiene los controllers del directorio de companies.
package company

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/genuka-bridge/internal/http/errors"
	"github.com/dropDatabas3/genuka-bridge/internal/http/helpers"
	svc "github.com/dropDatabas3/genuka-bridge/internal/http/services/company"
	"github.com/dropDatabas3/genuka-bridge/internal/observability/logger"
	"github.com/dropDatabas3/genuka-bridge/internal/session"
)

// Controller agrupa las lecturas públicas del directorio.
type Controller struct {
	service *svc.Service
}

// NewController creates a new company controller.
func NewController(service *svc.Service) *Controller {
	return &Controller{service: service}
}

// List handles GET /api/companies.
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CompanyController.List"))

	out, err := c.service.List(ctx)
	if err != nil {
		log.Error("company list failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithMessage("Failed to list companies.").WithCause(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// Get handles GET /api/companies/{id}.
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("CompanyController.Get"))

	id := chi.URLParam(r, "id")
	if id == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithMessage("Company id is required."))
		return
	}

	pub, err := c.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, svc.ErrNotFound) {
			httperrors.WriteError(w, httperrors.ErrNotFound.WithMessage("Company not found."))
			return
		}
		log.Error("company lookup failed", logger.CompanyID(id), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithMessage("Failed to load company.").WithCause(err))
		return
	}
	helpers.WriteJSON(w, http.StatusOK, pub)
}

// Current handles GET /api/company/current. Siempre 200; el veredicto de
// autenticación viaja en el body.
func (c *Controller) Current(w http.ResponseWriter, r *http.Request) {
	var cookie string
	if ck, err := r.Cookie(session.SessionCookieName); err == nil {
		cookie = ck.Value
	}
	helpers.WriteJSON(w, http.StatusOK, c.service.Current(r.Context(), cookie))
}
