package resolve

import (
	"log/slog"

	"github.com/szaher/credprops/internal/props"
	"github.com/szaher/credprops/internal/settings"
)

// checkOverrides warns about user properties that look like published keys
// but can never take effect: overrides for servers that are not configured,
// for the derived auth token, for unknown fields, and for repositories.
// Only keys are logged.
func (r *Resolver) checkOverrides(log *slog.Logger, sess *settings.Session) {
	if len(sess.UserProperties) == 0 {
		return
	}
	known := make(map[string]bool, len(sess.Settings.Servers))
	for _, srv := range sess.Settings.Servers {
		if srv != nil {
			known[srv.ID] = true
		}
	}

	for _, key := range props.Properties(sess.UserProperties).Keys() {
		if id, _, ok := props.ParseRepository(key); ok {
			log.Warn("repository properties cannot be overridden", "key", key, "repository", id)
			continue
		}

		// settings.servers.server.x.f is the legacy key of server "x" or the
		// canonical key of server "server.x"; prefer whichever is configured.
		id, field, ok := props.ParseLegacy(key)
		if !ok || !known[id] {
			id, field, ok = props.ParseCanonical(key)
		}
		if !ok {
			continue
		}

		switch {
		case !known[id]:
			log.Warn("override for unknown server", "key", key, "server", id)
		case field == AuthField:
			log.Warn("auth is derived from username and password and cannot be overridden", "key", key)
		default:
			if _, err := lookupServerField(field); err != nil {
				log.Warn("override ignored", "key", key, "error", err)
			}
		}
	}
}
