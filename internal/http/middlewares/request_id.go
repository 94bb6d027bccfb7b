package middlewares

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/dropDatabas3/genuka-bridge/internal/observability/logger"
)

type ctxKey string

const ctxRequestIDKey ctxKey = "request_id"

// WithRequestID asigna un request id (o respeta el del header entrante),
// lo expone en la respuesta y deja un logger scoped en el contexto.
func WithRequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := r.Header.Get("X-Request-ID")
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)

			ctx := context.WithValue(r.Context(), ctxRequestIDKey, rid)
			ctx = logger.ToContext(ctx, logger.With(logger.RequestID(rid)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID obtiene el request ID del contexto, o cadena vacía.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
