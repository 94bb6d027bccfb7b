package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/dropDatabas3/genuka-bridge/internal/store/core"
)

const companyColumns = `
	id, handle, name, description, logo_url, phone,
	access_token, refresh_token, token_expires_at, authorization_code,
	created_at, updated_at`

func scanCompany(row pgx.Row) (*core.Company, error) {
	var c core.Company
	err := row.Scan(
		&c.ID, &c.Handle, &c.Name, &c.Description, &c.LogoURL, &c.Phone,
		&c.AccessToken, &c.RefreshToken, &c.TokenExpiresAt, &c.AuthorizationCode,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*core.Company, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+companyColumns+` FROM companies WHERE id = $1`, id)
	return scanCompany(row)
}

func (s *Store) FindByHandle(ctx context.Context, handle string) (*core.Company, error) {
	row := s.pool.QueryRow(ctx, `SELECT`+companyColumns+` FROM companies WHERE handle = $1`, handle)
	return scanCompany(row)
}

func (s *Store) List(ctx context.Context) ([]core.Company, error) {
	rows, err := s.pool.Query(ctx, `SELECT`+companyColumns+` FROM companies ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// Upsert inserta o sobreescribe el registro completo del merchant. Atómico por
// id vía ON CONFLICT; carreras entre callbacks del mismo id resuelven
// last-writer-wins.
func (s *Store) Upsert(ctx context.Context, in core.UpsertCompanyInput) (*core.Company, error) {
	const q = `
		INSERT INTO companies (
			id, handle, name, description, logo_url, phone,
			access_token, refresh_token, token_expires_at, authorization_code,
			created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
		ON CONFLICT (id) DO UPDATE SET
			handle             = EXCLUDED.handle,
			name               = EXCLUDED.name,
			description        = EXCLUDED.description,
			logo_url           = EXCLUDED.logo_url,
			phone              = EXCLUDED.phone,
			access_token       = EXCLUDED.access_token,
			refresh_token      = EXCLUDED.refresh_token,
			token_expires_at   = EXCLUDED.token_expires_at,
			authorization_code = EXCLUDED.authorization_code,
			updated_at         = NOW()
		RETURNING` + companyColumns

	row := s.pool.QueryRow(ctx, q,
		in.ID, in.Handle, in.Name, in.Description, in.LogoURL, in.Phone,
		in.AccessToken, in.RefreshToken, in.TokenExpiresAt, in.AuthorizationCode,
	)
	return scanCompany(row)
}

// Update aplica un patch parcial: los campos nil del patch conservan su valor
// actual (COALESCE). Retorna ErrNotFound si el id no existe; nunca inserta.
func (s *Store) Update(ctx context.Context, id string, patch core.UpdateCompanyInput) (*core.Company, error) {
	const q = `
		UPDATE companies SET
			handle           = COALESCE($2, handle),
			name             = COALESCE($3, name),
			description      = COALESCE($4, description),
			logo_url         = COALESCE($5, logo_url),
			phone            = COALESCE($6, phone),
			access_token     = COALESCE($7, access_token),
			refresh_token    = COALESCE($8, refresh_token),
			token_expires_at = COALESCE($9, token_expires_at),
			updated_at       = NOW()
		WHERE id = $1
		RETURNING` + companyColumns

	row := s.pool.QueryRow(ctx, q,
		id, patch.Handle, patch.Name, patch.Description, patch.LogoURL, patch.Phone,
		patch.AccessToken, patch.RefreshToken, patch.TokenExpiresAt,
	)
	return scanCompany(row)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
