package company

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cachemem "github.com/dropDatabas3/genuka-bridge/internal/cache/memory"
	"github.com/dropDatabas3/genuka-bridge/internal/session"
	"github.com/dropDatabas3/genuka-bridge/internal/store/core"
	"github.com/dropDatabas3/genuka-bridge/internal/store/memory"
)

func seed(t *testing.T, repo core.CompanyRepository, id, name string) {
	t.Helper()
	_, err := repo.Upsert(context.Background(), core.UpsertCompanyInput{
		ID:     id,
		Name:   name,
		Handle: core.StrPtr(id + "-handle"),
	})
	require.NoError(t, err)
}

func TestList(t *testing.T) {
	repo := memory.New()
	seed(t, repo, "c1", "Alpha")
	seed(t, repo, "c2", "Beta")
	svc := NewService(repo, cachemem.New(time.Minute), nil)

	out, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Segunda lectura sale del cache: un alta posterior no aparece hasta
	// invalidar.
	seed(t, repo, "c3", "Gamma")
	out, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 2)

	svc.InvalidateCompany("c3")
	out, err = svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestGet(t *testing.T) {
	repo := memory.New()
	seed(t, repo, "c1", "Alpha")
	svc := NewService(repo, cachemem.New(time.Minute), nil)

	got, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Name)

	_, err = svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGet_CacheInvalidation(t *testing.T) {
	repo := memory.New()
	seed(t, repo, "c1", "Alpha")
	svc := NewService(repo, cachemem.New(time.Minute), nil)

	_, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)

	_, err = repo.Update(context.Background(), "c1", core.UpdateCompanyInput{Name: core.StrPtr("Renamed")})
	require.NoError(t, err)

	// Stale hasta la invalidación.
	got, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Name)

	svc.InvalidateCompany("c1")
	got, err = svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
}

func TestGet_NoCacheConfigured(t *testing.T) {
	repo := memory.New()
	seed(t, repo, "c1", "Alpha")
	svc := NewService(repo, nil, nil)

	got, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", got.Name)
	svc.InvalidateCompany("c1") // no-op, no debe panickear
}

func TestCurrent(t *testing.T) {
	repo := memory.New()
	seed(t, repo, "c1", "Alpha")
	mgr := session.NewManager("secret", session.Config{})
	svc := NewService(repo, nil, mgr)

	st, _, err := mgr.Issue("c1")
	require.NoError(t, err)

	t.Run("authenticated", func(t *testing.T) {
		res := svc.Current(context.Background(), st)
		assert.True(t, res.Success)
		assert.True(t, res.Authenticated)
		require.NotNil(t, res.Company)
		assert.Equal(t, "Alpha", res.Company.Name)
	})

	t.Run("no cookie is soft-fail", func(t *testing.T) {
		res := svc.Current(context.Background(), "")
		assert.True(t, res.Success)
		assert.False(t, res.Authenticated)
		assert.Nil(t, res.Company)
	})

	t.Run("garbage cookie is soft-fail", func(t *testing.T) {
		res := svc.Current(context.Background(), "not-a-jwt")
		assert.True(t, res.Success)
		assert.False(t, res.Authenticated)
	})

	t.Run("refresh cookie rejected in session lane", func(t *testing.T) {
		_, rt, err := mgr.Issue("c1")
		require.NoError(t, err)
		res := svc.Current(context.Background(), rt)
		assert.False(t, res.Authenticated)
	})

	t.Run("session for deleted company", func(t *testing.T) {
		st2, _, err := mgr.Issue("gone")
		require.NoError(t, err)
		res := svc.Current(context.Background(), st2)
		assert.True(t, res.Success)
		assert.False(t, res.Authenticated)
	})
}
