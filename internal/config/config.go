// Package config holds the CLI configuration of credprops. Each value comes
// from, highest priority first:
//  1. An explicit command-line flag
//  2. Environment variable CREDPROPS_<FLAG> (uppercased, hyphens to underscores)
//  3. The flag default
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/szaher/credprops/internal/output"
	"github.com/szaher/credprops/internal/telemetry"
	"github.com/szaher/credprops/internal/watch"
)

// EnvPrefix prefixes every environment variable read by Resolver.
const EnvPrefix = "CREDPROPS_"

// Config is the resolved configuration of a resolve run.
type Config struct {
	Settings           string
	Security           string
	Projects           []string
	UserProperties     []string
	UserPropertiesFile string

	Format    string
	Output    string
	Name      string
	Namespace string

	MetricsFile string

	VaultAddr  string
	VaultToken string
	VaultMount string

	Watch    bool
	Debounce time.Duration

	AuthRequiresCredentials bool
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Settings:   filepath.Join(home, ".m2", "settings.yaml"),
		Security:   filepath.Join(home, ".m2", "settings-security.yaml"),
		Format:     string(output.FormatProperties),
		Name:       output.DefaultName,
		VaultMount: "secret",
		Debounce:   watch.DefaultDebounce,
	}
}

// BindFlags registers the configuration flags on fs with c's current values
// as defaults.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Settings, "settings", c.Settings, "Path to the settings file")
	fs.StringVar(&c.Security, "security", c.Security, "Path to the security file holding the encrypted master password")
	fs.StringArrayVar(&c.Projects, "project", c.Projects, "Path to a project descriptor (repeatable; the first is the current project)")
	fs.StringArrayVarP(&c.UserProperties, "define", "D", c.UserProperties, "User property key=value (repeatable)")
	fs.StringVar(&c.UserPropertiesFile, "properties-file", c.UserPropertiesFile, "YAML file of user properties")
	fs.StringVarP(&c.Format, "format", "f", c.Format, "Output format: "+formatList())
	fs.StringVarP(&c.Output, "output", "o", c.Output, "Output file (default stdout)")
	fs.StringVar(&c.Name, "name", c.Name, "Name of the generated Secret or ConfigMap")
	fs.StringVar(&c.Namespace, "namespace", c.Namespace, "Namespace of the generated Secret or ConfigMap")
	fs.StringVar(&c.MetricsFile, "metrics-file", c.MetricsFile, "Write Prometheus metrics to this textfile after each run")
	fs.StringVar(&c.VaultAddr, "vault-addr", c.VaultAddr, "Vault address for {vault:path#key} tokens")
	fs.StringVar(&c.VaultToken, "vault-token", c.VaultToken, "Vault token")
	fs.StringVar(&c.VaultMount, "vault-mount", c.VaultMount, "Vault KV v2 mount path")
	fs.BoolVarP(&c.Watch, "watch", "w", c.Watch, "Re-resolve when inputs change or on SIGHUP")
	fs.DurationVar(&c.Debounce, "debounce", c.Debounce, "Delay before re-resolving after a change")
	fs.BoolVar(&c.AuthRequiresCredentials, "auth-requires-credentials", c.AuthRequiresCredentials,
		"Only publish the auth token when a username or password resolved")
}

// Validate checks values that flag parsing cannot.
func (c *Config) Validate() error {
	var problems []string
	if c.Settings == "" {
		problems = append(problems, "settings path is empty")
	}
	if _, err := output.ParseFormat(c.Format); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Watch && c.Output == "" {
		problems = append(problems, "--watch requires --output")
	}
	if c.Debounce <= 0 {
		problems = append(problems, "debounce must be positive")
	}
	if c.VaultToken != "" && c.VaultAddr == "" {
		problems = append(problems, "--vault-token requires --vault-addr")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// WatchedFiles lists the input files the watcher follows.
func (c *Config) WatchedFiles() []string {
	files := []string{c.Settings, c.Security, c.UserPropertiesFile}
	return append(files, c.Projects...)
}

// Logging is the configuration shared by every command.
type Logging struct {
	Level  string
	Format string
}

// BindFlags registers the logging flags on fs.
func (l *Logging) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&l.Level, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&l.Format, "log-format", "json", "Log format: json or text")
}

// Validate parses the level and format.
func (l *Logging) Validate() error {
	if _, err := telemetry.ParseLevel(l.Level); err != nil {
		return err
	}
	switch l.Format {
	case "json", "text":
		return nil
	default:
		return fmt.Errorf("invalid log format %q", l.Format)
	}
}

func formatList() string {
	names := make([]string, 0, len(output.Formats()))
	for _, f := range output.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
