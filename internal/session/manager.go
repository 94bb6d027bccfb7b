// Package session mints and verifies the first-party credentials of the
// bridge: two independently signed HS256 JWTs carried as cookies.
//
// The session token is the operational credential, short-lived to bound the
// blast radius of leakage. The refresh token is only ever checked on the
// refresh path and lives long enough to avoid re-running the OAuth install.
// Both are self-contained: verification is stateless, nothing is persisted
// server-side, and revocation before natural expiry is therefore not possible
// from this package alone.
package session

import (
	"errors"
	"net/http"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Cookie names, fixed by the integration contract with the frontend.
const (
	SessionCookieName = "session"
	RefreshCookieName = "refresh_session"
)

// Token types embedded in the payload. The type is checked after signature
// verification, never inferred from which cookie slot the token arrived in,
// so a swapped cookie can not cross lanes.
const (
	TypeSession = "session"
	TypeRefresh = "refresh"
)

// Verification outcomes. Handlers treat both as "not authenticated"; the
// distinction matters for logging and for the refresh-lane state machine
// (expired-but-well-signed means "was previously authenticated").
var (
	// ErrTokenInvalid covers bad signatures, malformed tokens and type
	// mismatches.
	ErrTokenInvalid = errors.New("session: token invalid")

	// ErrTokenExpired covers well-signed tokens past their expiry.
	ErrTokenExpired = errors.New("session: token expired")
)

// Config tunes the Manager. Zero values fall back to the contract defaults.
type Config struct {
	SessionTTL   time.Duration // default 7h
	RefreshTTL   time.Duration // default 30d
	CookieDomain string
	Secure       bool // set Secure attribute (production)
}

// Manager mints and verifies session/refresh tokens.
type Manager struct {
	secret     []byte
	sessionTTL time.Duration
	refreshTTL time.Duration
	domain     string
	secure     bool

	now func() time.Time
}

// NewManager creates a Manager signing with the shared client secret.
func NewManager(clientSecret string, cfg Config) *Manager {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	return &Manager{
		secret:     []byte(clientSecret),
		sessionTTL: cfg.SessionTTL,
		refreshTTL: cfg.RefreshTTL,
		domain:     cfg.CookieDomain,
		secure:     cfg.Secure,
		now:        time.Now,
	}
}

// Claims is the payload of both token lanes.
type Claims struct {
	CompanyID string `json:"companyId"`
	Type      string `json:"type"`
	jwtv5.RegisteredClaims
}

// Issue mints a session and a refresh token for companyID. The two tokens are
// independent artifacts: losing one does not invalidate the other.
func (m *Manager) Issue(companyID string) (sessionToken, refreshToken string, err error) {
	sessionToken, err = m.sign(companyID, TypeSession, m.sessionTTL)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = m.sign(companyID, TypeRefresh, m.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return sessionToken, refreshToken, nil
}

func (m *Manager) sign(companyID, typ string, ttl time.Duration) (string, error) {
	now := m.now().UTC()
	claims := Claims{
		CompanyID: companyID,
		Type:      typ,
		RegisteredClaims: jwtv5.RegisteredClaims{
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return tk.SignedString(m.secret)
}

// VerifySession verifies a session-lane token and returns its companyId.
func (m *Manager) VerifySession(token string) (string, error) {
	return m.verify(token, TypeSession)
}

// VerifyRefresh verifies a refresh-lane token and returns its companyId.
func (m *Manager) VerifyRefresh(token string) (string, error) {
	return m.verify(token, TypeRefresh)
}

func (m *Manager) verify(token, wantType string) (string, error) {
	if token == "" {
		return "", ErrTokenInvalid
	}

	var claims Claims
	_, err := jwtv5.ParseWithClaims(token, &claims, func(t *jwtv5.Token) (any, error) {
		return m.secret, nil
	},
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithTimeFunc(m.now),
	)

	switch {
	case err == nil:
		// signature and expiry ok; type is still pending
	case errors.Is(err, jwtv5.ErrTokenExpired):
		// well-signed but stale; a wrong type still dominates
		if claims.Type != wantType {
			return "", ErrTokenInvalid
		}
		return "", ErrTokenExpired
	default:
		return "", ErrTokenInvalid
	}

	if claims.Type != wantType || claims.CompanyID == "" {
		return "", ErrTokenInvalid
	}
	return claims.CompanyID, nil
}

// Cookies returns the two Set-Cookie artifacts for a freshly issued pair.
func (m *Manager) Cookies(sessionToken, refreshToken string) []*http.Cookie {
	return []*http.Cookie{
		m.cookie(SessionCookieName, sessionToken, m.sessionTTL),
		m.cookie(RefreshCookieName, refreshToken, m.refreshTTL),
	}
}

// ClearCookies returns expired cookies that delete both lanes. Clearing an
// already-absent session is a no-op for the browser, so this is idempotent.
func (m *Manager) ClearCookies() []*http.Cookie {
	return []*http.Cookie{
		m.expiredCookie(SessionCookieName),
		m.expiredCookie(RefreshCookieName),
	}
}

func (m *Manager) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   int(ttl.Seconds()),
		Expires:  m.now().Add(ttl),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) expiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   m.domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
