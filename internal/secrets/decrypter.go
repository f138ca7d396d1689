// Package secrets decrypts the encrypted tokens embedded in credential values.
//
// A token is a brace-delimited span such as {COQLCE6DU6GtcS5P=} or
// {vault:ci/deploy#password}. Decrypter implementations turn one token into
// its plaintext; InlineDecryptor finds the tokens inside a larger string.
package secrets

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNotEncrypted is returned for a value that is not a {...} token.
	ErrNotEncrypted = errors.New("value is not an encrypted token")
	// ErrUnsupportedToken is returned when no decrypter handles a token.
	ErrUnsupportedToken = errors.New("unsupported token")
)

// Decrypter turns one encrypted token, braces included, into plaintext.
type Decrypter interface {
	Decrypt(ctx context.Context, token string) (string, error)
}

// DecrypterFunc adapts a function to the Decrypter interface.
type DecrypterFunc func(ctx context.Context, token string) (string, error)

// Decrypt calls f.
func (f DecrypterFunc) Decrypt(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

// unwrap returns the text between the first '{' and the next '}'.
func unwrap(token string) (string, bool) {
	start := strings.IndexByte(token, '{')
	if start < 0 {
		return "", false
	}
	stop := strings.IndexByte(token[start+1:], '}')
	if stop < 0 {
		return "", false
	}
	return token[start+1 : start+1+stop], true
}

// schemeBody splits "{scheme:body}" into its parts.
func schemeBody(token string) (scheme, body string, ok bool) {
	inner, ok := unwrap(token)
	if !ok {
		return "", "", false
	}
	return strings.Cut(inner, ":")
}
