package genuka

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "client-id", "client-secret", "https://bridge.example.com/api/auth/callback")
}

func TestExchangeCode_OK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if got := r.PostForm.Get("grant_type"); got != "authorization_code" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostForm.Get("code"); got != "the-code" {
			t.Errorf("code = %q", got)
		}
		if got := r.PostForm.Get("redirect_uri"); got == "" {
			t.Errorf("redirect_uri missing")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","token_type":"Bearer","expires_in_minutes":60}`))
	})

	tr, err := c.ExchangeCode(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}
	if tr.AccessToken != "at-1" || tr.RefreshToken != "rt-1" || tr.ExpiresInMinutes != 60 {
		t.Fatalf("unexpected token response: %+v", tr)
	}

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if want := now.Add(time.Hour); !tr.ExpiresAt(now).Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", tr.ExpiresAt(now), want)
	}
}

func TestExchangeCode_Non2xx(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	})

	_, err := c.ExchangeCode(context.Background(), "the-code")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway || apiErr.Body != "upstream down" {
		t.Fatalf("unexpected APIError: %+v", apiErr)
	}
	if apiErr.Operation != "exchange_code" {
		t.Fatalf("operation = %q", apiErr.Operation)
	}
}

func TestExchangeCode_MissingAccessToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token_type":"Bearer"}`))
	})
	if _, err := c.ExchangeCode(context.Background(), "x"); err == nil {
		t.Fatal("expected error for response without access_token")
	}
}

func TestRefreshToken_OK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostForm.Get("refresh_token"); got != "rt-old" {
			t.Errorf("refresh_token = %q", got)
		}
		w.Write([]byte(`{"access_token":"at-2","refresh_token":"rt-2","token_type":"Bearer","expires_in_minutes":30}`))
	})

	tr, err := c.RefreshToken(context.Background(), "rt-old")
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if tr.AccessToken != "at-2" {
		t.Fatalf("access_token = %q", tr.AccessToken)
	}
}

func TestRefreshToken_Revoked(t *testing.T) {
	bodies := []string{
		`{"error":"invalid_grant","error_description":"refresh token revoked"}`,
		`{"error":"invalid_request","message":"invalid refresh token"}`,
	}
	for _, body := range bodies {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(body))
		})
		_, err := c.RefreshToken(context.Background(), "rt-dead")
		if !errors.Is(err, ErrRefreshRevoked) {
			t.Fatalf("body %q: expected ErrRefreshRevoked, got %v", body, err)
		}
	}
}

func TestRefreshToken_TransientFailureIsNotRevoked(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	})
	_, err := c.RefreshToken(context.Background(), "rt-old")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrRefreshRevoked) {
		t.Fatalf("transient 500 misclassified as revoked: %v", err)
	}
}

func TestGetCompany(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/companies/cmp_42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer at-1" {
			t.Errorf("authorization = %q", got)
		}
		w.Write([]byte(`{"id":"cmp_42","handle":"acme","name":"Acme","description":"d","logoUrl":"https://cdn/x.png","metadata":{"contact":"+237 600000000"}}`))
	})

	info, err := c.GetCompany(context.Background(), "at-1", "cmp_42")
	if err != nil {
		t.Fatalf("GetCompany: %v", err)
	}
	if info.Name != "Acme" || info.Handle != "acme" {
		t.Fatalf("unexpected profile: %+v", info)
	}
	if got := info.Contact(); got != "+237 600000000" {
		t.Fatalf("Contact() = %q", got)
	}
}

func TestGetCompany_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("no such company"))
	})
	_, err := c.GetCompany(context.Background(), "at-1", "cmp_zz")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
}
