// Package resolve turns settings, project repositories and user overrides into
// the flat property set published to every project of a session.
//
// A run publishes, for each server id:
//
//	settings.servers.<id>.<field>
//	settings.servers.server.<id>.<field>   (legacy alias, same value)
//
// and for each repository of the current project:
//
//	project.repositories.<id>.url
package resolve

import (
	"context"
	"log/slog"
	"time"

	"github.com/szaher/credprops/internal/mirror"
	"github.com/szaher/credprops/internal/props"
	"github.com/szaher/credprops/internal/settings"
	"github.com/szaher/credprops/internal/telemetry"
)

// Decryptor replaces the encrypted tokens embedded in a value. It never fails;
// tokens it cannot decrypt stay as written.
type Decryptor interface {
	DecryptInline(ctx context.Context, value string) string
}

// Evaluator resolves property references in a value.
type Evaluator interface {
	Evaluate(value string) (string, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(value string) (string, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(value string) (string, error) { return f(value) }

// Redactor is told about every resolved secret so it can be scrubbed from logs.
type Redactor interface {
	AddSecret(values ...string)
}

// Options configures a Resolver.
type Options struct {
	// Decryptor is required.
	Decryptor Decryptor
	// EvaluatorFor builds the evaluator of a session. Nil leaves values as they are.
	EvaluatorFor func(*settings.Session) Evaluator
	// Mirrors defaults to mirror.DefaultSelector.
	Mirrors  mirror.Selector
	Logger   *slog.Logger
	Metrics  *telemetry.Metrics
	Tracer   *telemetry.Tracer
	Redactor Redactor
	// AuthRequiresCredentials skips the auth token of servers where neither
	// username nor password resolved. Off by default: the token is always
	// published, "Og==" (base64 of ":") included.
	AuthRequiresCredentials bool
}

// Resolver runs credential and repository resolution. A Resolver may be
// reused, but runs over the same session must not overlap.
type Resolver struct {
	decryptor    Decryptor
	evaluatorFor func(*settings.Session) Evaluator
	mirrors      mirror.Selector
	log          *slog.Logger
	metrics      *telemetry.Metrics
	tracer       *telemetry.Tracer
	redactor     Redactor
	authGuard    bool
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	r := &Resolver{
		decryptor:    opts.Decryptor,
		evaluatorFor: opts.EvaluatorFor,
		mirrors:      opts.Mirrors,
		log:          opts.Logger,
		metrics:      opts.Metrics,
		tracer:       opts.Tracer,
		redactor:     opts.Redactor,
		authGuard:    opts.AuthRequiresCredentials,
	}
	if r.mirrors == nil {
		r.mirrors = mirror.DefaultSelector{}
	}
	if r.log == nil {
		r.log = slog.New(slog.DiscardHandler)
	}
	if r.tracer == nil {
		r.tracer = telemetry.NewTracer(nil)
	}
	return r
}

// Run resolves the session and merges the result into the properties of
// every project. On failure no project is modified and the returned error
// matches ErrResolution.
func (r *Resolver) Run(ctx context.Context, sess *settings.Session) (props.Properties, error) {
	if sess.Settings == nil {
		sess.Settings = &settings.Settings{}
	}
	ctx = telemetry.WithRunID(ctx, telemetry.RunID(ctx))
	log := telemetry.RunLogger(r.log, ctx)
	start := time.Now()

	ctx, span := r.tracer.StartSpan(ctx, "resolve", nil)
	r.checkOverrides(log, sess)
	out, err := r.collect(ctx, sess)
	if err != nil {
		r.tracer.EndSpan(span, "error")
		r.metrics.RecordRun("failure", time.Since(start), 0)
		log.Error("resolution failed", "err", err)
		return nil, &Error{Err: err}
	}

	for _, p := range sess.Projects {
		if p == nil {
			continue
		}
		if p.Properties == nil {
			p.Properties = make(map[string]string, len(out))
		}
		out.MergeInto(p.Properties)
	}

	r.tracer.EndSpan(span, "")
	r.metrics.RecordRun("success", time.Since(start), len(out))
	log.Info("resolution complete",
		slog.Int("properties", len(out)),
		slog.Int("projects", len(sess.Projects)),
		slog.Duration("duration", time.Since(start)))
	return out, nil
}

func (r *Resolver) collect(ctx context.Context, sess *settings.Session) (props.Properties, error) {
	out := props.New()
	if err := r.ResolveRepositories(ctx, sess, out); err != nil {
		return nil, err
	}
	if err := r.ResolveServers(ctx, sess, r.evaluator(sess), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) evaluator(sess *settings.Session) Evaluator {
	if r.evaluatorFor != nil {
		if e := r.evaluatorFor(sess); e != nil {
			return e
		}
	}
	return EvaluatorFunc(func(v string) (string, error) { return v, nil })
}

func (r *Resolver) redact(values ...string) {
	if r.redactor != nil {
		r.redactor.AddSecret(values...)
	}
}
