package core

import "context"

// CompanyRepository es la interfaz consumida por los services. El core trata
// la persistencia como colaborador externo: una implementación por backend
// (pg para producción, memory para dev/tests).
//
// Garantías del contrato:
//   - Upsert es atómico por id (ninguna escritura parcial visible).
//   - Update solo modifica los campos no-nil del patch más updated_at, y
//     retorna ErrNotFound si el registro no existe (nunca inserta).
//   - Concurrencia entre callbacks/refreshes del mismo id es last-writer-wins;
//     la atomicidad por key la provee el backend.
type CompanyRepository interface {
	FindByID(ctx context.Context, id string) (*Company, error)
	FindByHandle(ctx context.Context, handle string) (*Company, error)
	List(ctx context.Context) ([]Company, error)
	Upsert(ctx context.Context, in UpsertCompanyInput) (*Company, error)
	Update(ctx context.Context, id string, patch UpdateCompanyInput) (*Company, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
