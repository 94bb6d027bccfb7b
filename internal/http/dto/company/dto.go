// Package company contiene los DTOs públicos de companies. Nunca incluyen
// secrets (tokens, authorization code).
package company

import (
	"time"

	"github.com/dropDatabas3/genuka-bridge/internal/store/core"
)

// Summary es la vista mínima usada en respuestas de auth.
type Summary struct {
	ID     string  `json:"id"`
	Handle *string `json:"handle"`
	Name   string  `json:"name"`
}

// Public es el perfil completo sin datos sensibles.
type Public struct {
	ID          string    `json:"id"`
	Handle      *string   `json:"handle"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	LogoURL     *string   `json:"logoUrl"`
	Phone       *string   `json:"phone"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CurrentResponse es la respuesta de GET /api/company/current. Soft-fail:
// sin sesión válida responde 200 con authenticated=false.
type CurrentResponse struct {
	Success       bool    `json:"success"`
	Authenticated bool    `json:"authenticated"`
	Company       *Public `json:"company"`
	Message       string  `json:"message,omitempty"`
}

// SummaryFrom proyecta el registro durable a la vista mínima.
func SummaryFrom(c *core.Company) Summary {
	return Summary{ID: c.ID, Handle: c.Handle, Name: c.Name}
}

// PublicFrom proyecta el registro durable al perfil público.
func PublicFrom(c *core.Company) Public {
	return Public{
		ID:          c.ID,
		Handle:      c.Handle,
		Name:        c.Name,
		Description: c.Description,
		LogoURL:     c.LogoURL,
		Phone:       c.Phone,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
