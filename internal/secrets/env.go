package secrets

import (
	"context"
	"fmt"
	"os"
)

// EnvDecrypter resolves tokens of the form "{env:VAR_NAME}" by reading from
// environment variables.
type EnvDecrypter struct {
	lookup func(string) (string, bool)
}

// NewEnvDecrypter creates an environment variable decrypter.
func NewEnvDecrypter() *EnvDecrypter {
	return &EnvDecrypter{lookup: os.LookupEnv}
}

// Decrypt looks up an {env:...} token and returns the variable's value.
func (r *EnvDecrypter) Decrypt(_ context.Context, token string) (string, error) {
	scheme, name, ok := schemeBody(token)
	if !ok || scheme != "env" {
		return "", fmt.Errorf("%w: %q (expected {env:VAR_NAME})", ErrUnsupportedToken, token)
	}
	if name == "" {
		return "", fmt.Errorf("empty variable name in %q", token)
	}

	value, ok := r.lookup(name)
	if !ok {
		return "", fmt.Errorf("environment variable %q not set", name)
	}
	return value, nil
}
