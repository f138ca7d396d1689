package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrNoServerID is returned when a server entry has no id.
	ErrNoServerID = errors.New("server without id")
	// ErrNoRepositoryID is returned when a repository entry has no id.
	ErrNoRepositoryID = errors.New("repository without id")
)

// LoadSettings reads a YAML settings file.
func LoadSettings(path string) (*Settings, error) {
	var s Settings
	if err := readYAML(path, &s); err != nil {
		return nil, err
	}
	for i, srv := range s.Servers {
		if srv == nil || srv.ID == "" {
			return nil, fmt.Errorf("%s: servers[%d]: %w", path, i, ErrNoServerID)
		}
	}
	for i, m := range s.Mirrors {
		if m.URL == "" {
			return nil, fmt.Errorf("%s: mirrors[%d] (%s): url is required", path, i, m.ID)
		}
	}
	return &s, nil
}

// LoadProject reads a YAML project descriptor. Basedir is set to the
// directory containing the file.
func LoadProject(path string) (*Project, error) {
	var p Project
	if err := readYAML(path, &p); err != nil {
		return nil, err
	}
	for i, r := range p.Repositories {
		if r == nil || r.ID == "" {
			return nil, fmt.Errorf("%s: repositories[%d]: %w", path, i, ErrNoRepositoryID)
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	p.Basedir = filepath.Dir(abs)
	if p.Properties == nil {
		p.Properties = map[string]string{}
	}
	return &p, nil
}

// LoadSecurity reads the security file holding the encrypted master password.
// A missing file yields an empty Security.
func LoadSecurity(path string) (*Security, error) {
	var s Security
	if err := readYAML(path, &s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Security{}, nil
		}
		return nil, err
	}
	return &s, nil
}

// LoadUserProperties reads a flat YAML map of user properties.
func LoadUserProperties(path string) (map[string]string, error) {
	props := map[string]string{}
	if err := readYAML(path, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// ParseUserProperties parses key=value pairs as given on the command line.
// A bare key is set to "true".
func ParseUserProperties(pairs []string) (map[string]string, error) {
	props := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid property %q: empty key", pair)
		}
		if !found {
			value = "true"
		}
		props[key] = value
	}
	return props, nil
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
