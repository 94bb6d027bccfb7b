// Package memory implementa CompanyRepository en memoria, para desarrollo
// local y tests. Mismo contrato que pg: upsert atómico por id (un mutex
// global alcanza), update parcial que nunca inserta.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dropDatabas3/genuka-bridge/internal/store/core"
)

type Store struct {
	mu        sync.Mutex
	companies map[string]core.Company

	// now es inyectable en tests.
	now func() time.Time
}

func New() *Store {
	return &Store{
		companies: make(map[string]core.Company),
		now:       time.Now,
	}
}

func (s *Store) FindByID(_ context.Context, id string) (*core.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	out := c
	return &out, nil
}

func (s *Store) FindByHandle(_ context.Context, handle string) (*core.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.companies {
		if c.Handle != nil && *c.Handle == handle {
			out := c
			return &out, nil
		}
	}
	return nil, core.ErrNotFound
}

func (s *Store) List(_ context.Context) ([]core.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Upsert(_ context.Context, in core.UpsertCompanyInput) (*core.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c, exists := s.companies[in.ID]
	if !exists {
		c = core.Company{ID: in.ID, CreatedAt: now}
	}
	c.Handle = in.Handle
	c.Name = in.Name
	c.Description = in.Description
	c.LogoURL = in.LogoURL
	c.Phone = in.Phone
	c.AccessToken = in.AccessToken
	c.RefreshToken = in.RefreshToken
	c.TokenExpiresAt = in.TokenExpiresAt
	c.AuthorizationCode = in.AuthorizationCode
	c.UpdatedAt = now

	s.companies[in.ID] = c
	out := c
	return &out, nil
}

func (s *Store) Update(_ context.Context, id string, patch core.UpdateCompanyInput) (*core.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.companies[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if patch.Handle != nil {
		c.Handle = patch.Handle
	}
	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Description != nil {
		c.Description = patch.Description
	}
	if patch.LogoURL != nil {
		c.LogoURL = patch.LogoURL
	}
	if patch.Phone != nil {
		c.Phone = patch.Phone
	}
	if patch.AccessToken != nil {
		c.AccessToken = patch.AccessToken
	}
	if patch.RefreshToken != nil {
		c.RefreshToken = patch.RefreshToken
	}
	if patch.TokenExpiresAt != nil {
		c.TokenExpiresAt = patch.TokenExpiresAt
	}
	c.UpdatedAt = s.now()

	s.companies[id] = c
	out := c
	return &out, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.companies, id)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
