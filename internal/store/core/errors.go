package core

import "errors"

// ErrNotFound se retorna cuando el registro no existe. FindByID lo usa para
// distinguir "ausente" de errores de infraestructura, y Update lo usa para
// garantizar que nunca inserta sobre un id inexistente.
var ErrNotFound = errors.New("store: company not found")
