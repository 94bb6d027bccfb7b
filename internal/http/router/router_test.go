package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/genuka-bridge/internal/genuka"
	authsvc "github.com/dropDatabas3/genuka-bridge/internal/http/services/auth"
	companysvc "github.com/dropDatabas3/genuka-bridge/internal/http/services/company"
	"github.com/dropDatabas3/genuka-bridge/internal/session"
	"github.com/dropDatabas3/genuka-bridge/internal/signature"
	"github.com/dropDatabas3/genuka-bridge/internal/store/core"
	"github.com/dropDatabas3/genuka-bridge/internal/store/memory"
	"github.com/dropDatabas3/genuka-bridge/internal/webhook"
)

const testSecret = "bridge-test-secret"

// fakeGenuka es un provider Genuka de mentira sobre httptest.
type fakeGenuka struct {
	srv *httptest.Server

	exchangeCalls int
	refreshCalls  int
	revokeRefresh bool
}

func newFakeGenuka(t *testing.T) *fakeGenuka {
	t.Helper()
	f := &fakeGenuka{}
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")

		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			f.exchangeCalls++
			fmt.Fprintf(w, `{"access_token":"at-%d","refresh_token":"rt-%d","token_type":"Bearer","expires_in_minutes":60}`, f.exchangeCalls, f.exchangeCalls)
		case "refresh_token":
			if f.revokeRefresh {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error":"invalid_grant","error_description":"refresh token revoked"}`)
				return
			}
			f.refreshCalls++
			fmt.Fprintf(w, `{"access_token":"at-rotated-%d","refresh_token":"rt-rotated-%d","token_type":"Bearer","expires_in_minutes":60}`, f.refreshCalls, f.refreshCalls)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	mux.HandleFunc("/api/companies/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/companies/")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":%q,"name":"Tienda Centro","handle":"tienda-centro","metadata":{"contact":"+237 655 000 111"}}`, id)
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

type testEnv struct {
	handler  http.Handler
	repo     core.CompanyRepository
	provider *fakeGenuka
	sessions *session.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	provider := newFakeGenuka(t)
	repo := memory.New()
	validator := signature.NewValidator(testSecret)
	sessions := session.NewManager(testSecret, session.Config{})
	client := genuka.New(provider.srv.URL, "client-id", testSecret, "https://bridge.test/api/auth/callback")

	companies := companysvc.NewService(repo, nil, sessions)
	auth := authsvc.NewService(authsvc.Deps{
		Validator: validator,
		Tokens:    client,
		Companies: repo,
		Sessions:  sessions,
		Config: authsvc.Config{
			DefaultRedirect:      "/dashboard",
			RedirectAllowedHosts: []string{"app.genuka.com"},
		},
	})

	handler := New(Deps{
		Auth:               auth,
		Companies:          companies,
		Validator:          validator,
		Webhooks:           webhook.NewDispatcher(repo, client, companies),
		Store:              nil,
		CORSAllowedOrigins: []string{"https://app.genuka.test"},
		MetricsRegisterer:  prometheus.NewRegistry(),
	})

	return &testEnv{handler: handler, repo: repo, provider: provider, sessions: sessions}
}

// signedCallbackURL arma /api/auth/callback con firma válida.
func signedCallbackURL(code, companyID, redirectTo string, ts time.Time) string {
	params := map[string]string{
		"code":        code,
		"company_id":  companyID,
		"redirect_to": redirectTo,
		"timestamp":   strconv.FormatInt(ts.Unix(), 10),
	}
	mac := signature.NewValidator(testSecret).Compute(params)

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("hmac", mac)
	return "/api/auth/callback?" + q.Encode()
}

func cookieByName(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCallback_ValidSignatureInstalls(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, signedCallbackURL("code-1", "comp-1", "%2Fdashboard%2Fsettings", time.Now()), nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	res := rec.Result()
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/dashboard/settings", res.Header.Get("Location"))

	sess := cookieByName(res, session.SessionCookieName)
	refresh := cookieByName(res, session.RefreshCookieName)
	require.NotNil(t, sess)
	require.NotNil(t, refresh)
	assert.True(t, sess.HttpOnly)
	assert.True(t, refresh.HttpOnly)

	// El registro quedó con perfil y tokens.
	c, err := env.repo.FindByID(req.Context(), "comp-1")
	require.NoError(t, err)
	assert.Equal(t, "Tienda Centro", c.Name)
	require.NotNil(t, c.AccessToken)
	assert.Equal(t, "at-1", *c.AccessToken)
	require.NotNil(t, c.Phone)
	assert.Equal(t, "+237 655 000 111", *c.Phone)
	assert.Equal(t, 1, env.provider.exchangeCalls)
}

func TestCallback_MissingHMACRejectedWithoutSideEffects(t *testing.T) {
	env := newTestEnv(t)

	q := url.Values{}
	q.Set("code", "code-1")
	q.Set("company_id", "comp-1")
	q.Set("redirect_to", "%2Fdashboard")
	q.Set("timestamp", strconv.FormatInt(time.Now().Unix(), 10))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	res := rec.Result()
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Empty(t, res.Cookies())
	assert.Zero(t, env.provider.exchangeCalls)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, float64(http.StatusBadRequest), body["statusCode"])
	assert.Contains(t, body["message"], "hmac")

	list, err := env.repo.List(req.Context())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCallback_TamperedSignatureRejected(t *testing.T) {
	env := newTestEnv(t)

	u := signedCallbackURL("code-1", "comp-1", "%2Fdashboard", time.Now())
	u = strings.Replace(u, "comp-1", "comp-2", 1) // firma ya no matchea

	req := httptest.NewRequest(http.MethodGet, u, nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, env.provider.exchangeCalls)
}

func TestCallback_StaleTimestampRejected(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, signedCallbackURL("code-1", "comp-1", "%2Fdashboard", time.Now().Add(-6*time.Minute)), nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, env.provider.exchangeCalls)
}

func TestCallback_ForeignRedirectFallsBackToDefault(t *testing.T) {
	env := newTestEnv(t)

	evil := url.QueryEscape("https://evil.test/phish")
	req := httptest.NewRequest(http.MethodGet, signedCallbackURL("code-1", "comp-1", evil, time.Now()), nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	res := rec.Result()
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/dashboard", res.Header.Get("Location"))
}

// install corre un callback válido y devuelve las cookies emitidas.
func install(t *testing.T, env *testEnv, companyID string) (sessCookie, refreshCookie *http.Cookie) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, signedCallbackURL("code-1", companyID, "%2Fdashboard", time.Now()), nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	res := rec.Result()
	require.Equal(t, http.StatusFound, res.StatusCode)

	sessCookie = cookieByName(res, session.SessionCookieName)
	refreshCookie = cookieByName(res, session.RefreshCookieName)
	require.NotNil(t, sessCookie)
	require.NotNil(t, refreshCookie)
	return sessCookie, refreshCookie
}

func TestRefresh_HappyPathRotatesTokensAndCookies(t *testing.T) {
	env := newTestEnv(t)
	_, refresh := install(t, env, "comp-1")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(refresh)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	res := rec.Result()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotNil(t, cookieByName(res, session.SessionCookieName))
	assert.NotNil(t, cookieByName(res, session.RefreshCookieName))

	var body struct {
		Success bool `json:"success"`
		Company struct {
			ID string `json:"id"`
		} `json:"company"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "comp-1", body.Company.ID)

	c, err := env.repo.FindByID(req.Context(), "comp-1")
	require.NoError(t, err)
	require.NotNil(t, c.AccessToken)
	assert.Equal(t, "at-rotated-1", *c.AccessToken)
}

func TestRefresh_WithoutCookieIs401Reinstall(t *testing.T) {
	env := newTestEnv(t)
	install(t, env, "comp-1")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	res := rec.Result()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Contains(t, body["message"], "reinstall")

	// El directorio no se tocó.
	c, err := env.repo.FindByID(req.Context(), "comp-1")
	require.NoError(t, err)
	require.NotNil(t, c.AccessToken)
	assert.Equal(t, "at-1", *c.AccessToken)
}

func TestRefresh_RevokedUpstreamIs401AndKeepsStoredTokens(t *testing.T) {
	env := newTestEnv(t)
	_, refresh := install(t, env, "comp-1")

	env.provider.revokeRefresh = true

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", nil)
	req.AddCookie(refresh)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	res := rec.Result()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Contains(t, body["message"], "reinstall")

	c, err := env.repo.FindByID(req.Context(), "comp-1")
	require.NoError(t, err)
	require.NotNil(t, c.AccessToken)
	assert.Equal(t, "at-1", *c.AccessToken)
}

func TestLogoutAndCheck(t *testing.T) {
	env := newTestEnv(t)
	sess, _ := install(t, env, "comp-1")

	// check con sesión válida
	req := httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
	req.AddCookie(sess)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":true}`, rec.Body.String())

	// logout expira ambas cookies
	req = httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.AddCookie(sess)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	res := rec.Result()
	require.Equal(t, http.StatusOK, res.StatusCode)
	for _, name := range []string{session.SessionCookieName, session.RefreshCookieName} {
		c := cookieByName(res, name)
		require.NotNil(t, c, name)
		assert.Negative(t, c.MaxAge, name)
	}

	// check sin cookie
	req = httptest.NewRequest(http.MethodGet, "/api/auth/check", nil)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	sess, _ := install(t, env, "comp-1")

	t.Run("with session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.AddCookie(sess)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "comp-1", body.ID)
		assert.Equal(t, "Tienda Centro", body.Name)
	})

	t.Run("without session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCompanyEndpoints(t *testing.T) {
	env := newTestEnv(t)
	sess, _ := install(t, env, "comp-1")

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/companies", nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var list []map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
		require.Len(t, list, 1)
		assert.Equal(t, "comp-1", list[0]["id"])
	})

	t.Run("get by id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/companies/comp-1", nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("get miss is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/companies/nope", nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("current with session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/company/current", nil)
		req.AddCookie(sess)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, true, body["authenticated"])
	})

	t.Run("current without session soft-fails", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/company/current", nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, false, body["authenticated"])
	})
}

func TestWebhook(t *testing.T) {
	env := newTestEnv(t)
	install(t, env, "comp-1")

	sign := func(body string) string {
		return signature.NewValidator(testSecret).ComputeRaw([]byte(body))
	}

	t.Run("signed company.deleted removes record", func(t *testing.T) {
		body := `{"type":"company.deleted","company_id":"comp-1","timestamp":"2026-08-30T10:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/webhook", strings.NewReader(body))
		req.Header.Set("X-Genuka-Signature", sign(body))
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		_, err := env.repo.FindByID(req.Context(), "comp-1")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("unsigned is 401", func(t *testing.T) {
		body := `{"type":"order.created","company_id":"comp-1"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/webhook", strings.NewReader(body))
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tampered body is 401", func(t *testing.T) {
		body := `{"type":"order.created","company_id":"comp-1"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/webhook", strings.NewReader(`{"type":"order.created","company_id":"comp-2"}`))
		req.Header.Set("X-Genuka-Signature", sign(body))
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("signed but incomplete payload is 400", func(t *testing.T) {
		body := `{"type":"order.created"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/webhook", strings.NewReader(body))
		req.Header.Set("X-Genuka-Signature", sign(body))
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown kind acknowledged", func(t *testing.T) {
		body := `{"type":"invoice.paid","company_id":"comp-1"}`
		req := httptest.NewRequest(http.MethodPost, "/api/auth/webhook", strings.NewReader(body))
		req.Header.Set("X-Genuka-Signature", sign(body))
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
