package resolve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/szaher/credprops/internal/props"
	"github.com/szaher/credprops/internal/settings"
	"github.com/szaher/credprops/internal/telemetry"
)

// ResolveRepositories publishes the fields of every repository of the current
// project, replacing the url with the selected mirror's when one applies.
// User overrides do not apply to repositories.
func (r *Resolver) ResolveRepositories(ctx context.Context, sess *settings.Session, out props.Properties) error {
	if sess.Current == nil {
		return nil
	}
	repos := sess.Current.Repositories
	_, span := r.tracer.StartSpan(ctx, "repositories", telemetry.PhaseTags("repositories", len(repos)))

	for i, repo := range repos {
		if repo == nil || repo.ID == "" {
			r.tracer.EndSpan(span, "error")
			return fmt.Errorf("repositories[%d]: %w", i, settings.ErrNoRepositoryID)
		}
		for _, f := range repositoryFields {
			out[props.RepositoryKey(repo.ID, f.name)] = f.get(repo)
		}

		if m := r.mirrors.Select(repo, sess.Settings.Mirrors); m != nil {
			out[props.RepositoryKey(repo.ID, "url")] = m.URL
			r.metrics.MirrorSelected()
			r.log.Debug("repository mirrored",
				slog.String("repository", repo.ID),
				slog.String("mirror", m.ID))
		}
	}

	r.tracer.EndSpan(span, "")
	return nil
}
