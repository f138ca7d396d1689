// Package output renders a resolved property set in the formats consumed by
// build and deployment pipelines.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf16"

	"gopkg.in/yaml.v3"

	"github.com/szaher/credprops/internal/props"
)

// Format names an output encoding.
type Format string

const (
	FormatProperties Format = "properties"
	FormatEnv        Format = "env"
	FormatJSON       Format = "json"
	FormatYAML       Format = "yaml"
	FormatSecret     Format = "secret"
	FormatConfigMap  Format = "configmap"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatProperties, FormatEnv, FormatJSON, FormatYAML, FormatSecret, FormatConfigMap}
}

// ParseFormat validates a format name. Empty selects properties.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatProperties, nil
	}
	for _, f := range Formats() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Options carries format-specific settings.
type Options struct {
	// Name and Namespace are used by the manifest formats.
	Name      string
	Namespace string
	Labels    map[string]string
}

// DefaultName is the manifest name when none is configured.
const DefaultName = "credprops"

// Render encodes p in the given format.
func Render(f Format, p props.Properties, opts Options) ([]byte, error) {
	switch f {
	case FormatProperties:
		return renderProperties(p), nil
	case FormatEnv:
		return renderEnv(p)
	case FormatJSON:
		data, err := json.MarshalIndent(map[string]string(p), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding json: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		return renderYAML(p)
	case FormatSecret:
		return renderSecret(p, opts)
	case FormatConfigMap:
		return renderConfigMap(p, opts)
	default:
		return nil, fmt.Errorf("unknown output format %q", f)
	}
}

// Write renders p and writes it to w.
func Write(w io.Writer, f Format, p props.Properties, opts Options) error {
	data, err := Render(f, p, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile renders p and replaces path atomically. Files holding secrets are
// created with mode 0600.
func WriteFile(path string, f Format, p props.Properties, opts Options) error {
	data, err := Render(f, p, opts)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func renderProperties(p props.Properties) []byte {
	var buf bytes.Buffer
	for _, k := range p.Keys() {
		buf.WriteString(escapeProperty(k, true))
		buf.WriteByte('=')
		buf.WriteString(escapeProperty(p[k], false))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// escapeProperty escapes s the way java.util.Properties.store does. Keys
// additionally escape every space and the separators.
func escapeProperty(s string, key bool) string {
	var b strings.Builder
	for i, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\f':
			b.WriteString(`\f`)
		case '=', ':', '#', '!':
			b.WriteByte('\\')
			b.WriteRune(r)
		case ' ':
			if key || i == 0 {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		default:
			if r > 0xffff {
				r1, r2 := utf16.EncodeRune(r)
				fmt.Fprintf(&b, `\u%04X\u%04X`, r1, r2)
				continue
			}
			if r < 0x20 || r > 0x7e {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EnvKey maps a property key to an environment variable name:
// settings.servers.repo-1.password becomes SETTINGS_SERVERS_REPO_1_PASSWORD.
func EnvKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func renderEnv(p props.Properties) ([]byte, error) {
	var buf bytes.Buffer
	seen := make(map[string]string, len(p))
	for _, k := range p.Keys() {
		name := EnvKey(k)
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("keys %q and %q both map to %s", prev, k, name)
		}
		seen[name] = k
		fmt.Fprintf(&buf, "%s=%s\n", name, quoteEnv(p[k]))
	}
	return buf.Bytes(), nil
}

// quoteEnv single-quotes values containing anything beyond a safe set.
func quoteEnv(v string) string {
	if v != "" && strings.IndexFunc(v, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' ||
			strings.ContainsRune("_-./:=+@", r))
	}) < 0 {
		return v
	}
	return "'" + strings.ReplaceAll(v, "'", `'\''`) + "'"
}

func renderYAML(p props.Properties) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]string(p)); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding yaml: %w", err)
	}
	return buf.Bytes(), nil
}
