package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/szaher/credprops/internal/testutil"
)

func kvResponse(data map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"data": map[string]interface{}{
			"data":     data,
			"metadata": map[string]interface{}{"version": 1},
		},
	}
}

func TestNewVaultDecrypter_Defaults(t *testing.T) {
	v, err := NewVaultDecrypter("https://vault.example.com/", "test-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.MountPath != "secret" {
		t.Errorf("MountPath = %q, want %q", v.MountPath, "secret")
	}
	if v.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v, want %v", v.CacheTTL, 5*time.Minute)
	}
	if got := v.client.Address(); got != "https://vault.example.com" {
		t.Errorf("Address = %q, want trailing slash trimmed", got)
	}
	if got := v.client.Token(); got != "test-token" {
		t.Errorf("Token = %q, want %q", got, "test-token")
	}
}

func TestVaultDecrypter_WithKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want := "/v1/secret/data/ci/deploy"; r.URL.Path != want {
			t.Errorf("request path = %q, want %q", r.URL.Path, want)
		}
		if got := r.Header.Get("X-Vault-Token"); got != "test-token" {
			t.Errorf("X-Vault-Token = %q, want %q", got, "test-token")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(kvResponse(map[string]interface{}{"password": "s3cr3t"}))
	}))
	defer srv.Close()

	v, err := NewVaultDecrypter(srv.URL, "test-token")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := v.Decrypt(context.Background(), "{vault:ci/deploy#password}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "s3cr3t" {
		t.Errorf("got %q, want %q", got, "s3cr3t")
	}
}

func TestVaultDecrypter_DefaultKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(kvResponse(map[string]interface{}{"value": "default-key-value"}))
	}))
	defer srv.Close()

	v, _ := NewVaultDecrypter(srv.URL, "tok")
	got, err := v.Decrypt(context.Background(), "{vault:app/secret}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "default-key-value" {
		t.Errorf("got %q, want %q", got, "default-key-value")
	}
}

func TestVaultDecrypter_CacheHit(t *testing.T) {
	var requestCount atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(kvResponse(map[string]interface{}{"apikey": "cached-secret"}))
	}))
	defer srv.Close()

	v, _ := NewVaultDecrypter(srv.URL, "tok")
	v.CacheTTL = time.Minute

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		got, err := v.Decrypt(ctx, "{vault:app/keys#apikey}")
		if err != nil {
			t.Fatalf("resolve %d: unexpected error: %v", i, err)
		}
		if got != "cached-secret" {
			t.Errorf("resolve %d: got %q, want %q", i, got, "cached-secret")
		}
	}
	if count := requestCount.Load(); count != 1 {
		t.Errorf("expected 1 HTTP request, got %d", count)
	}
}

func TestVaultDecrypter_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errors":[]}`))
	}))
	defer srv.Close()

	v, _ := NewVaultDecrypter(srv.URL, "tok")
	_, err := v.Decrypt(context.Background(), "{vault:nonexistent/path#key}")
	testutil.AssertErrorContains(t, err, "not found")
}

func TestVaultDecrypter_MissingKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(kvResponse(map[string]interface{}{"other": "x"}))
	}))
	defer srv.Close()

	v, _ := NewVaultDecrypter(srv.URL, "tok")
	_, err := v.Decrypt(context.Background(), "{vault:app#missing}")
	testutil.AssertErrorContains(t, err, `key "missing" not found`)
}

func TestVaultDecrypter_MalformedToken(t *testing.T) {
	v, _ := NewVaultDecrypter("https://vault.example.com", "tok")

	_, err := v.Decrypt(context.Background(), "{env:HOME}")
	if !errors.Is(err, ErrUnsupportedToken) {
		t.Errorf("err = %v, want ErrUnsupportedToken", err)
	}
	_, err = v.Decrypt(context.Background(), "{vault:#key}")
	testutil.AssertErrorContains(t, err, "invalid vault reference")
}
