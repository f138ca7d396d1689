package secrets

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Redacted replaces secret values in log output.
const Redacted = "******"

// RedactFilter wraps a slog handler and scrubs registered secret values from
// messages and string attributes, including attributes nested in groups.
type RedactFilter struct {
	inner   slog.Handler
	mu      *sync.RWMutex
	secrets map[string]struct{}
}

// NewRedactFilter creates a log handler that redacts known secret values.
func NewRedactFilter(inner slog.Handler) *RedactFilter {
	return &RedactFilter{
		inner:   inner,
		mu:      &sync.RWMutex{},
		secrets: make(map[string]struct{}),
	}
}

// AddSecret registers values to be redacted. Empty values are ignored.
func (f *RedactFilter) AddSecret(values ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		if v != "" {
			f.secrets[v] = struct{}{}
		}
	}
}

// Enabled delegates to the inner handler.
func (f *RedactFilter) Enabled(ctx context.Context, level slog.Level) bool {
	return f.inner.Enabled(ctx, level)
}

// Handle redacts the record and passes it on.
func (f *RedactFilter) Handle(ctx context.Context, record slog.Record) error {
	r := f.replacer()
	if r == nil {
		return f.inner.Handle(ctx, record)
	}

	redacted := slog.NewRecord(record.Time, record.Level, r.Replace(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(redactAttr(a, r))
		return true
	})
	return f.inner.Handle(ctx, redacted)
}

// WithAttrs shares the parent's secrets so later AddSecret calls apply to children.
func (f *RedactFilter) WithAttrs(attrs []slog.Attr) slog.Handler {
	if r := f.replacer(); r != nil {
		scrubbed := make([]slog.Attr, len(attrs))
		for i, a := range attrs {
			scrubbed[i] = redactAttr(a, r)
		}
		attrs = scrubbed
	}
	return &RedactFilter{inner: f.inner.WithAttrs(attrs), mu: f.mu, secrets: f.secrets}
}

// WithGroup shares the parent's secrets so later AddSecret calls apply to children.
func (f *RedactFilter) WithGroup(name string) slog.Handler {
	return &RedactFilter{inner: f.inner.WithGroup(name), mu: f.mu, secrets: f.secrets}
}

// RedactString replaces any known secret values in s.
func (f *RedactFilter) RedactString(s string) string {
	if r := f.replacer(); r != nil {
		return r.Replace(s)
	}
	return s
}

func (f *RedactFilter) replacer() *strings.Replacer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.secrets) == 0 {
		return nil
	}
	pairs := make([]string, 0, 2*len(f.secrets))
	for s := range f.secrets {
		pairs = append(pairs, s, Redacted)
	}
	return strings.NewReplacer(pairs...)
}

func redactAttr(a slog.Attr, r *strings.Replacer) slog.Attr {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.Replace(v.String()))
	case slog.KindGroup:
		group := v.Group()
		out := make([]any, len(group))
		for i, ga := range group {
			out[i] = redactAttr(ga, r)
		}
		return slog.Group(a.Key, out...)
	default:
		return a
	}
}
