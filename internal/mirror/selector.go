// Package mirror picks the mirror that serves a repository, following the
// mirrorOf matching rules of Maven settings.
package mirror

import (
	"net/url"
	"strings"

	"github.com/szaher/credprops/internal/settings"
)

const (
	wildcard         = "*"
	externalWildcard = "external:*"
	externalHTTP     = "external:http:*"
)

// Selector picks the mirror for a repository, or nil when none applies.
type Selector interface {
	Select(repo *settings.Repository, mirrors []settings.Mirror) *settings.Mirror
}

// DefaultSelector implements Maven's mirror selection. An exact id match wins
// over any pattern; otherwise the first mirror whose pattern matches is used.
type DefaultSelector struct{}

// Select implements Selector.
func (DefaultSelector) Select(repo *settings.Repository, mirrors []settings.Mirror) *settings.Mirror {
	if repo == nil || len(mirrors) == 0 {
		return nil
	}
	layout := repo.EffectiveLayout()

	for i := range mirrors {
		m := &mirrors[i]
		if m.MirrorOf == repo.ID && MatchesLayout(layout, m.MirrorOfLayouts) {
			return m
		}
	}
	for i := range mirrors {
		m := &mirrors[i]
		if MatchPattern(repo, m.MirrorOf) && MatchesLayout(layout, m.MirrorOfLayouts) {
			return m
		}
	}
	return nil
}

// MatchPattern reports whether a mirrorOf pattern covers repo. Patterns are
// comma separated; "!id" excludes a repository even if a later entry matches.
func MatchPattern(repo *settings.Repository, pattern string) bool {
	if pattern == wildcard || pattern == repo.ID {
		return true
	}

	result := false
	for _, p := range strings.Split(pattern, ",") {
		p = strings.TrimSpace(p)
		switch {
		case len(p) > 1 && strings.HasPrefix(p, "!"):
			if p[1:] == repo.ID {
				return false
			}
		case p == repo.ID:
			result = true
		case p == externalWildcard && isExternal(repo):
			result = true
		case p == externalHTTP && isExternalHTTP(repo):
			result = true
		case p == wildcard:
			result = true
		}
	}
	return result
}

// MatchesLayout reports whether a mirrorOfLayouts pattern covers layout. An
// empty pattern matches everything.
func MatchesLayout(layout, pattern string) bool {
	if pattern == "" || pattern == wildcard || pattern == layout {
		return true
	}

	result := false
	for _, p := range strings.Split(pattern, ",") {
		p = strings.TrimSpace(p)
		switch {
		case len(p) > 1 && strings.HasPrefix(p, "!"):
			if p[1:] == layout {
				return false
			}
		case p == layout, p == wildcard:
			result = true
		}
	}
	return result
}

// isExternal is true for repositories that are neither on this host nor on
// the file system.
func isExternal(repo *settings.Repository) bool {
	u, err := url.Parse(repo.URL)
	if err != nil {
		return false
	}
	if u.Scheme == "file" {
		return false
	}
	host := u.Hostname()
	return host != "localhost" && host != "127.0.0.1"
}

func isExternalHTTP(repo *settings.Repository) bool {
	u, err := url.Parse(repo.URL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" && isExternal(repo)
}
