// Package errors define el AppError de la aplicación y su serialización HTTP.
package errors

import (
	"encoding/json"
	"net/http"
)

// WriteError escribe la respuesta JSON de error.
// Acepta cualquier error; los que no son *AppError se mapean a 500 genérico
// (la causa queda disponible para el logging del caller, nunca se expone).
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.StatusCode)
	_ = json.NewEncoder(w).Encode(appErr)
}
