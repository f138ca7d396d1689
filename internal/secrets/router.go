package secrets

import (
	"context"
	"fmt"
)

// Router dispatches tokens by scheme: "{vault:...}" goes to the decrypter
// registered for "vault", and so on. Tokens without a registered scheme go to
// the fallback, normally a MasterDispatcher.
type Router struct {
	routes   map[string]Decrypter
	fallback Decrypter
}

// NewRouter creates a router with the given fallback, which may be nil.
func NewRouter(fallback Decrypter) *Router {
	return &Router{
		routes:   make(map[string]Decrypter),
		fallback: fallback,
	}
}

// Handle registers d for tokens of the given scheme.
func (r *Router) Handle(scheme string, d Decrypter) *Router {
	r.routes[scheme] = d
	return r
}

// Decrypt forwards token to the matching decrypter.
func (r *Router) Decrypt(ctx context.Context, token string) (string, error) {
	if scheme, _, ok := schemeBody(token); ok {
		if d, found := r.routes[scheme]; found {
			return d.Decrypt(ctx, token)
		}
	}
	if r.fallback == nil {
		return "", fmt.Errorf("%w: no decrypter for %q", ErrUnsupportedToken, token)
	}
	return r.fallback.Decrypt(ctx, token)
}
