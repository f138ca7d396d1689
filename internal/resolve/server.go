package resolve

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/szaher/credprops/internal/props"
	"github.com/szaher/credprops/internal/settings"
	"github.com/szaher/credprops/internal/telemetry"
)

// FieldResult is the outcome of resolving one server field.
type FieldResult struct {
	// Value is the final value, already written back onto the server.
	Value string
	// Resolved is false when the field was neither declared nor overridden;
	// nothing is published for such a field.
	Resolved bool
	// Aliases are the keys the value is published under.
	Aliases []string
}

// ResolveField resolves one field of srv. Precedence, highest first: a user
// override under any alias of the field, the stored value after inline
// decryption. The winner is then passed through eval.
func (r *Resolver) ResolveField(ctx context.Context, srv *settings.Server, field string, overrides map[string]string, eval Evaluator) (FieldResult, error) {
	f, err := lookupServerField(field)
	if err != nil {
		return FieldResult{}, err
	}
	return r.resolveField(ctx, srv, f, overrides, eval)
}

func (r *Resolver) resolveField(ctx context.Context, srv *settings.Server, f serverField, overrides map[string]string, eval Evaluator) (FieldResult, error) {
	aliases := props.Aliases(srv.ID, f.name)

	value := f.get(srv)
	resolved := value != "" || srv.Declared(f.name)
	if value != "" {
		value = r.decryptor.DecryptInline(ctx, value)
	}
	if v, ok := props.Lookup(overrides, aliases); ok {
		value, resolved = v, true
	}
	if resolved {
		evaluated, err := eval.Evaluate(value)
		if err != nil {
			return FieldResult{}, fmt.Errorf("evaluating %s: %w", aliases[0], err)
		}
		value = evaluated
	}

	f.set(srv, value)
	return FieldResult{Value: value, Resolved: resolved, Aliases: aliases}, nil
}

// ResolveServers resolves every server of the session and publishes its
// fields and derived auth token into out.
func (r *Resolver) ResolveServers(ctx context.Context, sess *settings.Session, eval Evaluator, out props.Properties) error {
	servers := sess.Settings.Servers
	_, span := r.tracer.StartSpan(ctx, "servers", telemetry.PhaseTags("servers", len(servers)))

	for i, srv := range servers {
		if srv == nil || srv.ID == "" {
			r.tracer.EndSpan(span, "error")
			return fmt.Errorf("servers[%d]: %w", i, settings.ErrNoServerID)
		}
		if err := r.resolveServer(ctx, srv, sess.UserProperties, eval, out); err != nil {
			r.tracer.EndSpan(span, "error")
			return fmt.Errorf("server %q: %w", srv.ID, err)
		}
		r.metrics.ServerProcessed()
	}

	r.tracer.EndSpan(span, "")
	return nil
}

func (r *Resolver) resolveServer(ctx context.Context, srv *settings.Server, overrides map[string]string, eval Evaluator, out props.Properties) error {
	credentials := false
	for _, f := range serverFields {
		res, err := r.resolveField(ctx, srv, f, overrides, eval)
		if err != nil {
			return err
		}
		if !res.Resolved {
			continue
		}
		out.SetAll(res.Aliases, res.Value)
		if f.secret {
			r.redact(res.Value)
		}
		if f.name == "username" || f.name == "password" {
			credentials = true
		}
	}

	if r.authGuard && !credentials {
		return nil
	}
	auth := BasicAuth(
		out.Get(props.CanonicalKey(srv.ID, "username"), ""),
		out.Get(props.CanonicalKey(srv.ID, "password"), ""),
	)
	out.SetAll(props.Aliases(srv.ID, AuthField), auth)
	r.redact(auth)
	return nil
}

// BasicAuth returns base64("username:password").
func BasicAuth(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
