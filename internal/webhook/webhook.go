// Package webhook procesa eventos push de Genuka hacia la app.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dropDatabas3/genuka-bridge/internal/genuka"
	"github.com/dropDatabas3/genuka-bridge/internal/observability/logger"
	"github.com/dropDatabas3/genuka-bridge/internal/store/core"
)

// Kind identifica el tipo de evento.
type Kind string

// Eventos conocidos. Cualquier otro valor se reconoce (200) pero solo se
// loguea, para que Genuka pueda agregar eventos sin romper instalaciones
// viejas.
const (
	CompanyUpdated Kind = "company.updated"
	CompanyDeleted Kind = "company.deleted"
	OrderCreated   Kind = "order.created"
	OrderUpdated   Kind = "order.updated"
	ProductCreated Kind = "product.created"
	ProductUpdated Kind = "product.updated"
)

// Event es el payload crudo del webhook.
type Event struct {
	Type      Kind            `json:"type"`
	CompanyID string          `json:"company_id"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ErrInvalidPayload indica un body sin los campos mínimos.
var ErrInvalidPayload = errors.New("webhook: type and company_id are required")

// Parse decodifica y valida el payload mínimo.
func Parse(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if ev.Type == "" || ev.CompanyID == "" {
		return nil, ErrInvalidPayload
	}
	return &ev, nil
}

// companyPatch es lo que company.updated puede traer en data. Campos
// ausentes quedan intactos en el directorio.
type companyPatch struct {
	Name        *string `json:"name,omitempty"`
	Handle      *string `json:"handle,omitempty"`
	Description *string `json:"description,omitempty"`
	LogoURL     *string `json:"logoUrl,omitempty"`
	Phone       *string `json:"phone,omitempty"`
}

// Invalidator desacopla la invalidación de cache del dispatcher.
type Invalidator interface {
	InvalidateCompany(id string)
}

// ProfileFetcher es la porción del cliente Genuka que usa company.updated
// para re-sincronizar el perfil.
type ProfileFetcher interface {
	GetCompany(ctx context.Context, accessToken, companyID string) (*genuka.CompanyInfo, error)
}

// Dispatcher rutea eventos a sus handlers.
type Dispatcher struct {
	companies core.CompanyRepository
	profiles  ProfileFetcher
	inval     Invalidator
}

// NewDispatcher crea el dispatcher. profiles e inval pueden ser nil.
func NewDispatcher(companies core.CompanyRepository, profiles ProfileFetcher, inval Invalidator) *Dispatcher {
	return &Dispatcher{companies: companies, profiles: profiles, inval: inval}
}

// Dispatch procesa un evento ya validado. Eventos para companies que no
// existen localmente se loguean y se descartan: el webhook llegó antes (o
// después) de la instalación y reintentarlo no va a ayudar.
func (d *Dispatcher) Dispatch(ctx context.Context, ev *Event) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Op("WebhookDispatcher.Dispatch"),
		logger.EventType(string(ev.Type)),
		logger.CompanyID(ev.CompanyID),
	)

	switch ev.Type {
	case CompanyUpdated:
		return d.companyUpdated(ctx, log, ev)

	case CompanyDeleted:
		return d.companyDeleted(ctx, log, ev)

	case OrderCreated, OrderUpdated:
		// Sin storage de órdenes acá; el evento queda registrado para los
		// consumers downstream que tailen los logs.
		log.Info("order event acknowledged")
		return nil

	case ProductCreated, ProductUpdated:
		log.Info("product event acknowledged")
		return nil

	default:
		log.Warn("unknown webhook event type")
		return nil
	}
}

func (d *Dispatcher) companyUpdated(ctx context.Context, log *zap.Logger, ev *Event) error {
	var patch companyPatch
	if len(ev.Data) > 0 {
		if err := json.Unmarshal(ev.Data, &patch); err != nil {
			return fmt.Errorf("%w: company.updated data: %v", ErrInvalidPayload, err)
		}
	}

	// Con access token almacenado, la fuente de verdad es el perfil fresco
	// del provider; el data del evento queda de fallback.
	if d.profiles != nil {
		if synced := d.resync(ctx, log, ev.CompanyID); synced {
			return nil
		}
	}

	_, err := d.companies.Update(ctx, ev.CompanyID, core.UpdateCompanyInput{
		Name:        patch.Name,
		Handle:      patch.Handle,
		Description: patch.Description,
		LogoURL:     patch.LogoURL,
		Phone:       patch.Phone,
	})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Warn("company.updated for unknown company, dropped")
			return nil
		}
		return fmt.Errorf("company update: %w", err)
	}

	if d.inval != nil {
		d.inval.InvalidateCompany(ev.CompanyID)
	}
	log.Info("company profile updated from webhook")
	return nil
}

// resync trae el perfil fresco del provider y lo pisa en el directorio.
// Retorna false si no pudo (sin token, fetch fallido) para que el caller
// caiga al patch del evento.
func (d *Dispatcher) resync(ctx context.Context, log *zap.Logger, companyID string) bool {
	c, err := d.companies.FindByID(ctx, companyID)
	if err != nil || c.AccessToken == nil || *c.AccessToken == "" {
		return false
	}

	info, err := d.profiles.GetCompany(ctx, *c.AccessToken, companyID)
	if err != nil {
		log.Warn("profile resync failed, falling back to event data", zap.Error(err))
		return false
	}

	patch := core.UpdateCompanyInput{Name: core.StrPtr(info.Name)}
	if info.Handle != "" {
		patch.Handle = core.StrPtr(info.Handle)
	}
	if info.Description != "" {
		patch.Description = core.StrPtr(info.Description)
	}
	if info.LogoURL != "" {
		patch.LogoURL = core.StrPtr(info.LogoURL)
	}
	if contact := info.Contact(); contact != "" {
		patch.Phone = core.StrPtr(contact)
	}

	if _, err := d.companies.Update(ctx, companyID, patch); err != nil {
		log.Warn("profile resync write failed", zap.Error(err))
		return false
	}

	if d.inval != nil {
		d.inval.InvalidateCompany(companyID)
	}
	log.Info("company profile resynced from provider")
	return true
}

func (d *Dispatcher) companyDeleted(ctx context.Context, log *zap.Logger, ev *Event) error {
	if err := d.companies.Delete(ctx, ev.CompanyID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			log.Warn("company.deleted for unknown company, dropped")
			return nil
		}
		return fmt.Errorf("company delete: %w", err)
	}

	if d.inval != nil {
		d.inval.InvalidateCompany(ev.CompanyID)
	}
	log.Info("company removed from directory")
	return nil
}
