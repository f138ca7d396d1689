// Package settings holds the configuration records credential resolution reads
// and mutates: servers, mirrors, project repositories and the session tying
// them together.
package settings

import "gopkg.in/yaml.v3"

// Server is a credential entry. A field is set when it is non-empty or was
// declared, possibly as "", in the settings file.
type Server struct {
	ID                   string `yaml:"id"`
	Username             string `yaml:"username,omitempty"`
	Password             string `yaml:"password,omitempty"`
	Passphrase           string `yaml:"passphrase,omitempty"`
	PrivateKey           string `yaml:"privateKey,omitempty"`
	FilePermissions      string `yaml:"filePermissions,omitempty"`
	DirectoryPermissions string `yaml:"directoryPermissions,omitempty"`

	declared map[string]bool
}

// Declare marks field (by its settings key, e.g. "privateKey") as present
// even when its value is empty.
func (s *Server) Declare(field string) {
	if s.declared == nil {
		s.declared = make(map[string]bool)
	}
	s.declared[field] = true
}

// Declared reports whether field was present in the settings file or marked
// with Declare.
func (s *Server) Declared(field string) bool {
	return s.declared[field]
}

// UnmarshalYAML records which keys the entry declares. A key with a null
// value counts as absent.
func (s *Server) UnmarshalYAML(node *yaml.Node) error {
	type plain Server
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i+1].Tag == "!!null" {
			continue
		}
		s.Declare(node.Content[i].Value)
	}
	return nil
}

// Mirror redirects requests for matching repositories to another URL.
type Mirror struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name,omitempty"`
	URL             string `yaml:"url"`
	MirrorOf        string `yaml:"mirrorOf"`
	MirrorOfLayouts string `yaml:"mirrorOfLayouts,omitempty"`
	Blocked         bool   `yaml:"blocked,omitempty"`
}

// Repository is a remote repository declared by a project.
type Repository struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name,omitempty"`
	URL    string `yaml:"url"`
	Layout string `yaml:"layout,omitempty"`
}

// DefaultLayout is assumed for repositories that do not declare one.
const DefaultLayout = "default"

// EffectiveLayout returns the declared layout or DefaultLayout.
func (r *Repository) EffectiveLayout() string {
	if r.Layout == "" {
		return DefaultLayout
	}
	return r.Layout
}

// Settings is the user-level configuration.
type Settings struct {
	LocalRepository string    `yaml:"localRepository,omitempty"`
	Servers         []*Server `yaml:"servers,omitempty"`
	Mirrors         []Mirror  `yaml:"mirrors,omitempty"`
}

// Security holds the encrypted master password used to decrypt server secrets.
type Security struct {
	Master string `yaml:"master"`
}

// Project is one build unit. Properties receives the resolved mapping.
type Project struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name,omitempty"`
	Basedir      string            `yaml:"-"`
	Repositories []*Repository     `yaml:"repositories,omitempty"`
	Properties   map[string]string `yaml:"properties,omitempty"`
}

// Session groups everything one resolution run needs.
type Session struct {
	Settings       *Settings
	Projects       []*Project
	Current        *Project
	UserProperties map[string]string
}

// NewSession builds a session whose current project is the first one.
func NewSession(s *Settings, projects []*Project, userProps map[string]string) *Session {
	if s == nil {
		s = &Settings{}
	}
	if userProps == nil {
		userProps = map[string]string{}
	}
	sess := &Session{
		Settings:       s,
		Projects:       projects,
		UserProperties: userProps,
	}
	if len(projects) > 0 {
		sess.Current = projects[0]
	}
	return sess
}
