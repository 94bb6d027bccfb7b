// Package middlewares contiene los middlewares HTTP del bridge.
package middlewares

import "net/http"

// Middleware es la firma estándar de middleware.
type Middleware func(http.Handler) http.Handler

// Chain aplica middlewares en orden: el primero de la lista es el más externo.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
