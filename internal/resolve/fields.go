package resolve

import (
	"fmt"
	"strings"

	"github.com/szaher/credprops/internal/settings"
)

// AuthField is the derived field holding the Basic-Auth token of a server.
const AuthField = "auth"

// serverField binds a field name to typed accessors on settings.Server.
type serverField struct {
	name   string
	secret bool
	get    func(*settings.Server) string
	set    func(*settings.Server, string)
}

// serverFields lists the credential fields in resolution order. Username and
// password come first so the auth token can be derived after the loop.
var serverFields = []serverField{
	{
		name: "username",
		get:  func(s *settings.Server) string { return s.Username },
		set:  func(s *settings.Server, v string) { s.Username = v },
	},
	{
		name:   "password",
		secret: true,
		get:    func(s *settings.Server) string { return s.Password },
		set:    func(s *settings.Server, v string) { s.Password = v },
	},
	{
		name:   "passphrase",
		secret: true,
		get:    func(s *settings.Server) string { return s.Passphrase },
		set:    func(s *settings.Server, v string) { s.Passphrase = v },
	},
	{
		name:   "privateKey",
		secret: true,
		get:    func(s *settings.Server) string { return s.PrivateKey },
		set:    func(s *settings.Server, v string) { s.PrivateKey = v },
	},
	{
		name: "filePermissions",
		get:  func(s *settings.Server) string { return s.FilePermissions },
		set:  func(s *settings.Server, v string) { s.FilePermissions = v },
	},
	{
		name: "directoryPermissions",
		get:  func(s *settings.Server) string { return s.DirectoryPermissions },
		set:  func(s *settings.Server, v string) { s.DirectoryPermissions = v },
	},
}

// repositoryField binds a field name to a getter on settings.Repository.
type repositoryField struct {
	name string
	get  func(*settings.Repository) string
}

var repositoryFields = []repositoryField{
	{name: "url", get: func(r *settings.Repository) string { return r.URL }},
}

// serverFieldNames returns the credential field names in resolution order.
func serverFieldNames() []string {
	names := make([]string, len(serverFields))
	for i, f := range serverFields {
		names[i] = f.name
	}
	return names
}

func lookupServerField(name string) (serverField, error) {
	for _, f := range serverFields {
		if f.name == name {
			return f, nil
		}
	}
	return serverField{}, fmt.Errorf("unknown server field %q (known: %s)", name, strings.Join(serverFieldNames(), ", "))
}
