package expr

import (
	"os"
	"os/user"
	"runtime"
	"strings"

	"github.com/szaher/credprops/internal/settings"
)

// Scope holds the values ${...} references resolve against.
type Scope struct {
	// UserProperties take precedence over everything else.
	UserProperties map[string]string
	// Builtins are well-known names such as project.basedir.
	Builtins map[string]string
	// Env backs ${env.NAME}.
	Env map[string]string
	// ProjectProperties are consulted last.
	ProjectProperties map[string]string
}

// ScopeFor builds the scope of a session from its settings, current project,
// user properties and the process environment (as returned by os.Environ).
func ScopeFor(sess *settings.Session, environ []string) *Scope {
	s := &Scope{
		UserProperties:    sess.UserProperties,
		Builtins:          map[string]string{"os.name": runtime.GOOS},
		Env:               ParseEnviron(environ),
		ProjectProperties: map[string]string{},
	}
	if sess.Settings != nil && sess.Settings.LocalRepository != "" {
		s.Builtins["settings.localRepository"] = sess.Settings.LocalRepository
	}
	if p := sess.Current; p != nil {
		s.Builtins["project.id"] = p.ID
		s.Builtins["project.name"] = p.Name
		s.Builtins["project.basedir"] = p.Basedir
		s.Builtins["basedir"] = p.Basedir
		for k, v := range p.Properties {
			s.ProjectProperties[k] = v
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		s.Builtins["user.home"] = home
	}
	if u, err := user.Current(); err == nil {
		s.Builtins["user.name"] = u.Username
	}
	return s
}

// ParseEnviron turns KEY=VALUE pairs into a map.
func ParseEnviron(environ []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}

// Lookup resolves a plain property name.
func (s *Scope) Lookup(name string) (string, bool) {
	if v, ok := s.UserProperties[name]; ok {
		return v, true
	}
	if v, ok := s.Builtins[name]; ok {
		return v, true
	}
	if rest, found := strings.CutPrefix(name, "env."); found {
		if v, ok := s.Env[rest]; ok {
			return v, true
		}
	}
	if v, ok := s.ProjectProperties[name]; ok {
		return v, true
	}
	return "", false
}

// exprEnv is the variable namespace expr-lang expressions run against.
func (s *Scope) exprEnv() map[string]any {
	project := map[string]any{"properties": toAny(s.ProjectProperties)}
	settingsNS := map[string]any{}
	userNS := map[string]any{}
	for k, v := range s.Builtins {
		switch {
		case strings.HasPrefix(k, "project."):
			project[strings.TrimPrefix(k, "project.")] = v
		case strings.HasPrefix(k, "settings."):
			settingsNS[strings.TrimPrefix(k, "settings.")] = v
		case strings.HasPrefix(k, "user."):
			userNS[strings.TrimPrefix(k, "user.")] = v
		}
	}
	return map[string]any{
		"env":        toAny(s.Env),
		"project":    project,
		"settings":   settingsNS,
		"user":       userNS,
		"properties": toAny(s.UserProperties),
	}
}

func toAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
