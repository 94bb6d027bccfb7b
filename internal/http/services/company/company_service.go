// Package company expone las vistas públicas del directorio de companies.
package company

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/genuka-bridge/internal/cache"
	dto "github.com/dropDatabas3/genuka-bridge/internal/http/dto/company"
	"github.com/dropDatabas3/genuka-bridge/internal/observability/logger"
	"github.com/dropDatabas3/genuka-bridge/internal/session"
	"github.com/dropDatabas3/genuka-bridge/internal/store/core"
)

// ErrNotFound se propaga cuando la company pedida no existe.
var ErrNotFound = errors.New("company: not found")

const (
	listCacheKey   = "companies:list"
	cacheKeyByID   = "companies:id:"
	profileListTTL = time.Minute
	profileTTL     = 5 * time.Minute
)

// Service sirve lecturas del directorio, con cache write-around.
type Service struct {
	companies core.CompanyRepository
	cache     cache.Cache
	sessions  *session.Manager
}

// NewService crea el service. c puede ser nil (sin cache).
func NewService(companies core.CompanyRepository, c cache.Cache, sessions *session.Manager) *Service {
	return &Service{companies: companies, cache: c, sessions: sessions}
}

// List retorna los summaries de todas las companies registradas.
func (s *Service) List(ctx context.Context) ([]dto.Summary, error) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(listCacheKey); ok {
			var out []dto.Summary
			if err := json.Unmarshal(raw, &out); err == nil {
				return out, nil
			}
			// Entrada corrupta: se descarta y se va al store.
			s.cache.Delete(listCacheKey)
		}
	}

	companies, err := s.companies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("company list: %w", err)
	}

	out := make([]dto.Summary, 0, len(companies))
	for i := range companies {
		out = append(out, dto.SummaryFrom(&companies[i]))
	}

	if s.cache != nil {
		if raw, err := json.Marshal(out); err == nil {
			s.cache.Set(listCacheKey, raw, profileListTTL)
		}
	}
	return out, nil
}

// Get retorna el perfil público de una company por id.
func (s *Service) Get(ctx context.Context, id string) (*dto.Public, error) {
	if s.cache != nil {
		if raw, ok := s.cache.Get(cacheKeyByID + id); ok {
			var out dto.Public
			if err := json.Unmarshal(raw, &out); err == nil {
				return &out, nil
			}
			s.cache.Delete(cacheKeyByID + id)
		}
	}

	c, err := s.companies.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("company lookup: %w", err)
	}

	out := dto.PublicFrom(c)
	if s.cache != nil {
		if raw, err := json.Marshal(out); err == nil {
			s.cache.Set(cacheKeyByID+id, raw, profileTTL)
		}
	}
	return &out, nil
}

// Current resuelve la company de la sesión activa. Soft-fail: una cookie
// ausente o inválida no es un error sino "no autenticado".
func (s *Service) Current(ctx context.Context, sessionCookie string) dto.CurrentResponse {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("CompanyService.Current"))

	if sessionCookie == "" {
		return dto.CurrentResponse{Success: true, Authenticated: false, Message: "No active session"}
	}

	companyID, err := s.sessions.VerifySession(sessionCookie)
	if err != nil {
		log.Debug("session cookie rejected", logger.Err(err))
		return dto.CurrentResponse{Success: true, Authenticated: false, Message: "Session expired or invalid"}
	}

	pub, err := s.Get(ctx, companyID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Sesión firmada para una company que ya no existe (borrada por
			// webhook, por ejemplo).
			return dto.CurrentResponse{Success: true, Authenticated: false, Message: "Company no longer registered"}
		}
		log.Error("company lookup failed", logger.CompanyID(companyID), logger.Err(err))
		return dto.CurrentResponse{Success: false, Authenticated: false, Message: "Failed to load company"}
	}

	return dto.CurrentResponse{Success: true, Authenticated: true, Company: pub}
}

// InvalidateCompany tira las entradas de cache de una company. Implementa
// webhook.Invalidator.
func (s *Service) InvalidateCompany(id string) {
	if s.cache == nil {
		return
	}
	s.cache.Delete(cacheKeyByID + id)
	s.cache.Delete(listCacheKey)
}
