package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func newFlagSet(c *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.BindFlags(fs)
	return fs
}

func envResolver(env map[string]string) *Resolver {
	return &Resolver{lookup: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}
}

func TestEnvKey(t *testing.T) {
	if got := EnvKey("vault-addr"); got != "CREDPROPS_VAULT_ADDR" {
		t.Errorf("got %q, want CREDPROPS_VAULT_ADDR", got)
	}
}

func TestResolver_Precedence(t *testing.T) {
	c := Default()
	fs := newFlagSet(c)
	if err := fs.Parse([]string{"--format", "json"}); err != nil {
		t.Fatal(err)
	}

	r := envResolver(map[string]string{
		"CREDPROPS_FORMAT":     "yaml",
		"CREDPROPS_VAULT_ADDR": "http://vault:8200",
		"CREDPROPS_WATCH":      "true",
		"CREDPROPS_DEBOUNCE":   "2s",
		"CREDPROPS_PROJECT":    "a.yaml, b.yaml",
	})
	if err := r.Apply(fs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Format != "json" {
		t.Errorf("Format = %q, want json (flag wins)", c.Format)
	}
	if c.VaultAddr != "http://vault:8200" {
		t.Errorf("VaultAddr = %q", c.VaultAddr)
	}
	if !c.Watch {
		t.Error("Watch not set from env")
	}
	if c.Debounce != 2*time.Second {
		t.Errorf("Debounce = %v, want 2s", c.Debounce)
	}
	if strings.Join(c.Projects, "|") != "a.yaml|b.yaml" {
		t.Errorf("Projects = %v", c.Projects)
	}
	if c.VaultMount != "secret" {
		t.Errorf("VaultMount = %q, want default secret", c.VaultMount)
	}
}

func TestResolver_InvalidValue(t *testing.T) {
	c := Default()
	fs := newFlagSet(c)
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}
	err := envResolver(map[string]string{"CREDPROPS_WATCH": "maybe"}).Apply(fs)
	if err == nil || !strings.Contains(err.Error(), "CREDPROPS_WATCH") {
		t.Errorf("err = %v, want it to name CREDPROPS_WATCH", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "bad format", mutate: func(c *Config) { c.Format = "toml" }, wantErr: "unknown output format"},
		{name: "watch without output", mutate: func(c *Config) { c.Watch = true }, wantErr: "--watch requires --output"},
		{name: "empty settings", mutate: func(c *Config) { c.Settings = "" }, wantErr: "settings path is empty"},
		{name: "token without address", mutate: func(c *Config) { c.VaultToken = "t" }, wantErr: "--vault-token requires --vault-addr"},
		{name: "zero debounce", mutate: func(c *Config) { c.Debounce = 0 }, wantErr: "debounce must be positive"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			err := c.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("err = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestConfig_WatchedFiles(t *testing.T) {
	c := &Config{Settings: "s.yaml", Security: "sec.yaml", Projects: []string{"p.yaml"}}
	got := c.WatchedFiles()
	want := []string{"s.yaml", "sec.yaml", "", "p.yaml"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLogging_Validate(t *testing.T) {
	if err := (&Logging{Level: "debug", Format: "text"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := (&Logging{Level: "loud", Format: "json"}).Validate(); err == nil {
		t.Error("expected error for bad level")
	}
	if err := (&Logging{Level: "info", Format: "xml"}).Validate(); err == nil {
		t.Error("expected error for bad format")
	}
}
