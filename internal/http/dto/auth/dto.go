// Package auth contiene los DTOs de las rutas de autenticación.
package auth

import companydto "github.com/dropDatabas3/genuka-bridge/internal/http/dto/company"

// CallbackParams son los cinco query params del callback OAuth de Genuka.
// Todos son requeridos; la validación de presencia ocurre antes de cualquier
// efecto secundario.
type CallbackParams struct {
	Code       string
	CompanyID  string
	Timestamp  string
	HMAC       string
	RedirectTo string
}

// Missing lista los campos ausentes, en orden estable para mensajes.
func (p CallbackParams) Missing() []string {
	var out []string
	if p.Code == "" {
		out = append(out, "code")
	}
	if p.CompanyID == "" {
		out = append(out, "company_id")
	}
	if p.Timestamp == "" {
		out = append(out, "timestamp")
	}
	if p.HMAC == "" {
		out = append(out, "hmac")
	}
	if p.RedirectTo == "" {
		out = append(out, "redirect_to")
	}
	return out
}

// SignedFields devuelve el subset canónico que cubre la firma HMAC.
func (p CallbackParams) SignedFields() map[string]string {
	return map[string]string{
		"code":        p.Code,
		"company_id":  p.CompanyID,
		"redirect_to": p.RedirectTo,
		"timestamp":   p.Timestamp,
	}
}

// RefreshResponse es la respuesta de POST /api/auth/refresh.
type RefreshResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Company companydto.Summary `json:"company"`
}

// LogoutResponse es la respuesta de POST /api/auth/logout.
type LogoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CheckResponse es la respuesta de GET /api/auth/check.
type CheckResponse struct {
	Authenticated bool `json:"authenticated"`
}

// WebhookAck es la respuesta de POST /api/auth/webhook.
type WebhookAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
