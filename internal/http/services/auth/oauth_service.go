// Package auth implementa la orquestación del flujo OAuth con Genuka:
// el callback inicial de instalación y el refresh de sesión.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/genuka-bridge/internal/genuka"
	companydto "github.com/dropDatabas3/genuka-bridge/internal/http/dto/company"
	"github.com/dropDatabas3/genuka-bridge/internal/observability/logger"
	"github.com/dropDatabas3/genuka-bridge/internal/session"
	"github.com/dropDatabas3/genuka-bridge/internal/signature"
	"github.com/dropDatabas3/genuka-bridge/internal/store/core"

	dto "github.com/dropDatabas3/genuka-bridge/internal/http/dto/auth"
)

// Service errors. El controller los mapea al contrato de error HTTP.
var (
	ErrMissingParams    = errors.New("auth: missing required callback parameters")
	ErrRequestExpired   = errors.New("auth: callback timestamp outside freshness window")
	ErrSignatureInvalid = errors.New("auth: callback signature mismatch")

	// ErrReinstallRequired es terminal: no hay refresh válido posible y el
	// merchant debe rehacer la instalación OAuth.
	ErrReinstallRequired = errors.New("auth: re-authorization required")
)

// TokenClient es la porción del cliente Genuka que consume este service.
type TokenClient interface {
	ExchangeCode(ctx context.Context, code string) (*genuka.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*genuka.TokenResponse, error)
	GetCompany(ctx context.Context, accessToken, companyID string) (*genuka.CompanyInfo, error)
}

// CallbackResult es el resultado de un callback exitoso.
type CallbackResult struct {
	CompanyID   string
	RedirectURL string
	Cookies     []*http.Cookie
}

// RefreshResult es el resultado de un refresh exitoso.
type RefreshResult struct {
	Company companydto.Summary
	Cookies []*http.Cookie
}

// Config del orquestador.
type Config struct {
	// CallbackMaxAge es la ventana de frescura del timestamp firmado.
	CallbackMaxAge time.Duration

	// DefaultRedirect es el destino cuando redirect_to no pasa el allow-list.
	DefaultRedirect string

	// RedirectAllowedHosts son los hosts externos permitidos como destino
	// post-auth. Paths relativos siempre pasan.
	RedirectAllowedHosts []string
}

// Deps del orquestador.
type Deps struct {
	Validator *signature.Validator
	Tokens    TokenClient
	Companies core.CompanyRepository
	Sessions  *session.Manager
	Config    Config
}

// Service orquesta callback y refresh.
type Service struct {
	validator *signature.Validator
	tokens    TokenClient
	companies core.CompanyRepository
	sessions  *session.Manager
	cfg       Config

	// refreshes coalesce refreshes concurrentes del mismo company id; bajo
	// last-writer-wins una sola rotación contra el provider alcanza.
	refreshes singleflight.Group
}

// NewService crea el orquestador.
func NewService(d Deps) *Service {
	cfg := d.Config
	if cfg.CallbackMaxAge <= 0 {
		cfg.CallbackMaxAge = signature.DefaultMaxAge
	}
	if cfg.DefaultRedirect == "" {
		cfg.DefaultRedirect = "/dashboard"
	}
	return &Service{
		validator: d.Validator,
		tokens:    d.Tokens,
		companies: d.Companies,
		sessions:  d.Sessions,
		cfg:       cfg,
	}
}

// HandleCallback procesa el callback inicial de instalación.
//
// El orden importa: presencia → frescura → HMAC → exchange → perfil → upsert
// → sesión. Ningún efecto secundario (exchange o escritura) ocurre antes de
// que el request pruebe su autenticidad.
func (s *Service) HandleCallback(ctx context.Context, p dto.CallbackParams) (*CallbackResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("OAuthService.HandleCallback"))

	if missing := p.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingParams, strings.Join(missing, ", "))
	}

	if !s.validator.IsFresh(p.Timestamp, s.cfg.CallbackMaxAge) {
		log.Warn("callback timestamp rejected", logger.CompanyID(p.CompanyID))
		return nil, ErrRequestExpired
	}
	if !s.validator.Verify(p.SignedFields(), p.HMAC) {
		log.Warn("callback signature rejected", logger.CompanyID(p.CompanyID))
		return nil, ErrSignatureInvalid
	}

	tr, err := s.tokens.ExchangeCode(ctx, p.Code)
	if err != nil {
		return nil, fmt.Errorf("code exchange: %w", err)
	}

	info, err := s.tokens.GetCompany(ctx, tr.AccessToken, p.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("company profile fetch: %w", err)
	}

	expiresAt := tr.ExpiresAt(time.Now())
	if _, err := s.companies.Upsert(ctx, core.UpsertCompanyInput{
		ID:                p.CompanyID,
		Handle:            optStr(info.Handle),
		Name:              info.Name,
		Description:       optStr(info.Description),
		LogoURL:           optStr(info.LogoURL),
		Phone:             optStr(info.Contact()),
		AccessToken:       core.StrPtr(tr.AccessToken),
		RefreshToken:      optStr(tr.RefreshToken),
		TokenExpiresAt:    core.TimePtr(expiresAt),
		AuthorizationCode: core.StrPtr(p.Code),
	}); err != nil {
		return nil, fmt.Errorf("company upsert: %w", err)
	}

	st, rt, err := s.sessions.Issue(p.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("session mint: %w", err)
	}

	redirect := s.resolveRedirect(p.RedirectTo)
	log.Info("oauth callback successful",
		logger.CompanyID(p.CompanyID),
		logger.Any("redirect", redirect),
	)

	return &CallbackResult{
		CompanyID:   p.CompanyID,
		RedirectURL: redirect,
		Cookies:     s.sessions.Cookies(st, rt),
	}, nil
}

// Refresh rota los tokens del provider y ambas cookies first-party.
//
// Cualquier señal de que la conexión está muerta (cookie inválida, registro
// ausente, refresh token del provider revocado) colapsa en
// ErrReinstallRequired; el resto queda como error transitorio para que el
// caller reintente.
func (s *Service) Refresh(ctx context.Context, refreshCookie string) (*RefreshResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("OAuthService.Refresh"))

	companyID, err := s.sessions.VerifyRefresh(refreshCookie)
	if err != nil {
		log.Debug("refresh cookie rejected", logger.Err(err))
		return nil, ErrReinstallRequired
	}

	// El resultado del vuelo se comparte entre requests coalescidas, así que
	// no puede morir con el ctx de la primera: se desacopla la cancelación
	// pero se conservan los values (request id para logging).
	flightCtx := context.WithoutCancel(ctx)
	v, err, _ := s.refreshes.Do(companyID, func() (any, error) {
		return s.refreshCompany(flightCtx, companyID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*RefreshResult), nil
}

func (s *Service) refreshCompany(ctx context.Context, companyID string) (*RefreshResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Op("OAuthService.refreshCompany"),
		logger.CompanyID(companyID),
	)

	company, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrReinstallRequired
		}
		return nil, fmt.Errorf("company lookup: %w", err)
	}
	if company.RefreshToken == nil || *company.RefreshToken == "" {
		return nil, ErrReinstallRequired
	}

	tr, err := s.tokens.RefreshToken(ctx, *company.RefreshToken)
	if err != nil {
		if errors.Is(err, genuka.ErrRefreshRevoked) {
			// Deliberado: los tokens almacenados quedan como están. Un token
			// revocado ya no sirve, y anularlo aquí solo destruiría evidencia
			// de debugging.
			log.Warn("provider refresh token revoked")
			return nil, ErrReinstallRequired
		}
		return nil, fmt.Errorf("provider refresh: %w", err)
	}

	expiresAt := tr.ExpiresAt(time.Now())
	updated, err := s.companies.Update(ctx, companyID, core.UpdateCompanyInput{
		AccessToken:    core.StrPtr(tr.AccessToken),
		RefreshToken:   optStr(tr.RefreshToken),
		TokenExpiresAt: core.TimePtr(expiresAt),
	})
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrReinstallRequired
		}
		return nil, fmt.Errorf("company update: %w", err)
	}

	// Rotar ambas cookies aunque solo el token del provider disparó este
	// path mantiene las vidas first-party y provider vagamente sincronizadas.
	st, rt, err := s.sessions.Issue(companyID)
	if err != nil {
		return nil, fmt.Errorf("session mint: %w", err)
	}

	log.Info("session refreshed")
	return &RefreshResult{
		Company: companydto.SummaryFrom(updated),
		Cookies: s.sessions.Cookies(st, rt),
	}, nil
}

// ClearCookies emite las cookies de expiración de ambos lanes.
func (s *Service) ClearCookies() []*http.Cookie {
	return s.sessions.ClearCookies()
}

// CheckSession reporta si el token de sesión es válido y su companyId.
func (s *Service) CheckSession(token string) (string, bool) {
	id, err := s.sessions.VerifySession(token)
	if err != nil {
		return "", false
	}
	return id, true
}

// resolveRedirect decodifica redirect_to y lo valida contra el allow-list.
// Paths relativos (que no empiecen con "//") siempre pasan; URLs absolutas
// solo si su host está permitido. Todo lo demás cae al default configurado.
func (s *Service) resolveRedirect(raw string) string {
	decoded, err := url.QueryUnescape(raw)
	if err != nil || decoded == "" {
		return s.cfg.DefaultRedirect
	}

	if strings.HasPrefix(decoded, "/") && !strings.HasPrefix(decoded, "//") {
		return decoded
	}

	u, err := url.Parse(decoded)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return s.cfg.DefaultRedirect
	}
	for _, h := range s.cfg.RedirectAllowedHosts {
		if strings.EqualFold(u.Host, h) {
			return decoded
		}
	}
	return s.cfg.DefaultRedirect
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
