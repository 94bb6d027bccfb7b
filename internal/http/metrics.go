// Package http agrupa la capa HTTP del bridge. Este archivo expone las
// métricas Prometheus del servicio y el middleware que las alimenta.
package http

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge

	authCallbacksTotal *prometheus.CounterVec
	authRefreshesTotal *prometheus.CounterVec
)

// RegisterMetrics inicializa las métricas en el registry dado (o el default)
// y devuelve el handler para /metrics.
func RegisterMetrics(reg prometheus.Registerer) http.Handler {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duración de requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Requests en curso",
		})

		authCallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_callbacks_total",
			Help: "Callbacks OAuth procesados, por resultado",
		}, []string{"outcome"})

		authRefreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_refreshes_total",
			Help: "Session refreshes procesados, por resultado",
		}, []string{"outcome"})
	})

	// Los collectors se crean una sola vez, pero cada registry que nos pasen debe
	// poder servirlos: registramos en cada llamada y toleramos duplicados.
	for _, c := range []prometheus.Collector{
		httpRequestsTotal,
		httpRequestDuration,
		httpInflight,
		authCallbacksTotal,
		authRefreshesTotal,
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}

// ObserveCallback registra el resultado de un callback OAuth
// ("success" | "missing_params" | "expired" | "bad_signature" | "error").
func ObserveCallback(outcome string) {
	if authCallbacksTotal != nil {
		authCallbacksTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveRefresh registra el resultado de un session refresh.
func ObserveRefresh(outcome string) {
	if authRefreshesTotal != nil {
		authRefreshesTotal.WithLabelValues(outcome).Inc()
	}
}

type metricsWriter struct {
	http.ResponseWriter
	status int
}

func (w *metricsWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *metricsWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// WithMetrics instrumenta cada request. routePattern normaliza el path para
// evitar cardinalidad explosiva (usa el pattern de chi, no el path crudo).
func WithMetrics(routePattern func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpRequestsTotal == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			httpInflight.Inc()
			defer httpInflight.Dec()

			mw := &metricsWriter{ResponseWriter: w}
			next.ServeHTTP(mw, r)

			status := mw.status
			if status == 0 {
				status = http.StatusOK
			}
			path := routePattern(r)
			httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}
