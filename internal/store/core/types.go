package core

import "time"

// Company es el registro durable de un merchant conectado, key'd por el
// company id que emite Genuka. Secrets y metadata de perfil son nullable.
type Company struct {
	ID          string
	Handle      *string
	Name        string
	Description *string
	LogoURL     *string
	Phone       *string

	AccessToken       *string
	RefreshToken      *string
	TokenExpiresAt    *time.Time
	AuthorizationCode *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpsertCompanyInput son los campos escritos en cada callback exitoso.
type UpsertCompanyInput struct {
	ID                string
	Handle            *string
	Name              string
	Description       *string
	LogoURL           *string
	Phone             *string
	AccessToken       *string
	RefreshToken      *string
	TokenExpiresAt    *time.Time
	AuthorizationCode *string
}

// UpdateCompanyInput es un patch parcial: solo los campos no-nil se escriben
// (más updated_at). Nunca inserta.
type UpdateCompanyInput struct {
	Handle         *string
	Name           *string
	Description    *string
	LogoURL        *string
	Phone          *string
	AccessToken    *string
	RefreshToken   *string
	TokenExpiresAt *time.Time
}

// StrPtr es un helper para literales en inputs.
func StrPtr(s string) *string { return &s }

// TimePtr es un helper para literales en inputs.
func TimePtr(t time.Time) *time.Time { return &t }
