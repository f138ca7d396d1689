// Package props defines the property key grammar produced by credential and
// repository resolution and the flat mapping the keys are collected into.
package props

import "strings"

const (
	serversPrefix      = "settings.servers."
	legacyPrefix       = "settings.servers.server."
	repositoriesPrefix = "project.repositories."
)

// Aliases returns the equivalent keys a server field is published under:
// the canonical key first, then the legacy one.
//
// The legacy syntax is kept for consumers that still read
// settings.servers.server.<id>.<field>; both keys always carry the same value.
func Aliases(id, field string) []string {
	return []string{
		serversPrefix + id + "." + field,
		legacyPrefix + id + "." + field,
	}
}

// CanonicalKey returns the canonical server key for (id, field).
func CanonicalKey(id, field string) string {
	return serversPrefix + id + "." + field
}

// RepositoryKey returns the single key a repository field is published under.
func RepositoryKey(id, field string) string {
	return repositoriesPrefix + id + "." + field
}

// ParseCanonical decodes a canonical server key into its id and field.
// Server ids may contain dots; the field is always the last segment.
func ParseCanonical(key string) (id, field string, ok bool) {
	return splitIDField(key, serversPrefix)
}

// ParseLegacy decodes a legacy server key into its id and field.
func ParseLegacy(key string) (id, field string, ok bool) {
	return splitIDField(key, legacyPrefix)
}

// ParseRepository decodes a repository key into its id and field.
func ParseRepository(key string) (id, field string, ok bool) {
	return splitIDField(key, repositoriesPrefix)
}

func splitIDField(key, prefix string) (string, string, bool) {
	rest, found := strings.CutPrefix(key, prefix)
	if !found {
		return "", "", false
	}
	i := strings.LastIndexByte(rest, '.')
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}
