package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

// Resolver fills flags that were not set on the command line from the
// environment.
type Resolver struct {
	lookup func(string) (string, bool)
}

// NewResolver creates a Resolver reading the process environment.
func NewResolver() *Resolver {
	return &Resolver{lookup: os.LookupEnv}
}

// Apply sets every flag of fs that was not given explicitly and has a
// matching environment variable. Array flags take a comma-separated list.
func (r *Resolver) Apply(fs *pflag.FlagSet) error {
	var errs []string
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		key := EnvKey(f.Name)
		val, ok := r.lookup(key)
		if !ok {
			return
		}
		for _, v := range splitValue(f, val) {
			if err := fs.Set(f.Name, v); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", key, err))
				return
			}
		}
	})
	if len(errs) > 0 {
		return fmt.Errorf("invalid environment configuration: %s", strings.Join(errs, ", "))
	}
	return nil
}

// EnvKey returns the environment variable consulted for a flag.
func EnvKey(flag string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func splitValue(f *pflag.Flag, val string) []string {
	if f.Value.Type() != "stringArray" {
		return []string{val}
	}
	var out []string
	for _, v := range strings.Split(val, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
