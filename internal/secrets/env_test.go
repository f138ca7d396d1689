package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/szaher/credprops/internal/testutil"
)

func TestEnvDecrypter_VarSet(t *testing.T) {
	t.Setenv("CREDPROPS_TEST_TOKEN", "secret-value-123")

	r := NewEnvDecrypter()
	got, err := r.Decrypt(context.Background(), "{env:CREDPROPS_TEST_TOKEN}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "secret-value-123" {
		t.Errorf("got %q, want %q", got, "secret-value-123")
	}
}

func TestEnvDecrypter_VarNotSet(t *testing.T) {
	r := NewEnvDecrypter()
	_, err := r.Decrypt(context.Background(), "{env:CREDPROPS_TEST_UNSET_VAR}")
	if err == nil {
		t.Fatal("expected error for unset env var, got nil")
	}
	if want := `environment variable "CREDPROPS_TEST_UNSET_VAR" not set`; err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestEnvDecrypter_WrongScheme(t *testing.T) {
	r := NewEnvDecrypter()
	_, err := r.Decrypt(context.Background(), "{vault:a#b}")
	if !errors.Is(err, ErrUnsupportedToken) {
		t.Fatalf("err = %v, want ErrUnsupportedToken", err)
	}
}

func TestEnvDecrypter_EmptyName(t *testing.T) {
	r := NewEnvDecrypter()
	_, err := r.Decrypt(context.Background(), "{env:}")
	testutil.AssertErrorContains(t, err, "empty variable name")
}
