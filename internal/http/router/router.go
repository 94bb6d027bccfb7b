// Package router arma el árbol de rutas HTTP del bridge.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	bridgehttp "github.com/dropDatabas3/genuka-bridge/internal/http"
	authctrl "github.com/dropDatabas3/genuka-bridge/internal/http/controllers/auth"
	companyctrl "github.com/dropDatabas3/genuka-bridge/internal/http/controllers/company"
	"github.com/dropDatabas3/genuka-bridge/internal/http/middlewares"
	authsvc "github.com/dropDatabas3/genuka-bridge/internal/http/services/auth"
	companysvc "github.com/dropDatabas3/genuka-bridge/internal/http/services/company"
	"github.com/dropDatabas3/genuka-bridge/internal/signature"
	"github.com/dropDatabas3/genuka-bridge/internal/webhook"
)

// Pinger es lo que /readyz consulta (el store, normalmente).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps son las dependencias ya construidas que el router cablea.
type Deps struct {
	Auth      *authsvc.Service
	Companies *companysvc.Service
	Validator *signature.Validator
	Webhooks  *webhook.Dispatcher
	Store     Pinger

	// CORSAllowedOrigins para el frontend embebido.
	CORSAllowedOrigins []string

	// MetricsRegisterer; nil usa el registry default de prometheus.
	MetricsRegisterer prometheus.Registerer
}

// New construye el handler raíz con todas las rutas y middlewares.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	metricsHandler := bridgehttp.RegisterMetrics(d.MetricsRegisterer)

	// Orden: request id primero (el logger del request lo necesita), recover
	// lo más afuera posible después de eso.
	r.Use(middlewares.WithRequestID())
	r.Use(middlewares.WithRecover())
	r.Use(middlewares.WithRequestLogging())
	r.Use(middlewares.WithSecurityHeaders())
	r.Use(middlewares.WithCORS(d.CORSAllowedOrigins))
	r.Use(bridgehttp.WithMetrics(routePattern))

	callback := authctrl.NewCallbackController(d.Auth)
	refresh := authctrl.NewRefreshController(d.Auth)
	logout := authctrl.NewLogoutController(d.Auth)
	check := authctrl.NewCheckController(d.Auth)
	me := authctrl.NewMeController(d.Auth, d.Companies)
	hook := authctrl.NewWebhookController(d.Validator, d.Webhooks)
	companies := companyctrl.NewController(d.Companies)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			// Las respuestas de auth llevan cookies; nunca se cachean.
			auth.Use(middlewares.WithNoStore())

			auth.Get("/callback", callback.Callback)
			auth.Post("/refresh", refresh.Refresh)
			auth.Post("/logout", logout.Logout)
			auth.Get("/check", check.Check)
			auth.Get("/me", me.Me)
			auth.Post("/webhook", hook.Receive)
		})

		api.Get("/companies", companies.List)
		api.Get("/companies/{id}", companies.Get)
		api.Get("/company/current", companies.Current)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if d.Store != nil {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			if err := d.Store.Ping(ctx); err != nil {
				http.Error(w, "store unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Method(http.MethodGet, "/metrics", metricsHandler)

	return r
}

// routePattern devuelve el pattern de chi para labels de métricas, evitando
// cardinalidad por ids en el path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
