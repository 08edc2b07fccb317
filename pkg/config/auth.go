package config

import (
	"os"

	"github.com/cperrin88/mvnindex/pkg/auth"
)

// AuthConfig holds the credentials of a repository or catalog. Exactly one
// scheme is expected; basic wins over bearer, bearer over header.
// Values may reference environment variables as $NAME or ${NAME}.
type AuthConfig struct {
	BasicAuth  *BasicAuth  `yaml:"basic,omitempty"`
	HeaderAuth *HeaderAuth `yaml:"header,omitempty"`
	BearerAuth *BearerAuth `yaml:"bearer,omitempty"`
}

// BasicAuth holds configuration for HTTP Basic Authentication.
type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// HeaderAuth holds configuration for custom header-based authentication.
type HeaderAuth struct {
	Headers map[string]string `yaml:"headers"`
}

// BearerAuth holds configuration for Bearer token authentication.
type BearerAuth struct {
	Token string `yaml:"token"`
}

// ToAuthenticator converts the configuration, or returns nil when no scheme
// is set.
func (a *AuthConfig) ToAuthenticator() auth.Authenticator {
	switch {
	case a == nil:
		return nil
	case a.BasicAuth != nil:
		return auth.BasicAuth{
			Username: os.ExpandEnv(a.BasicAuth.Username),
			Password: os.ExpandEnv(a.BasicAuth.Password),
		}
	case a.BearerAuth != nil:
		return auth.BearerAuth{Token: os.ExpandEnv(a.BearerAuth.Token)}
	case a.HeaderAuth != nil:
		headers := make(map[string]string, len(a.HeaderAuth.Headers))
		for k, v := range a.HeaderAuth.Headers {
			headers[k] = os.ExpandEnv(v)
		}
		return auth.HeaderAuth{Headers: headers}
	default:
		return nil
	}
}

// AuthTable collects the credentials of every repository and remote catalog,
// keyed by their URL.
func (c *Config) AuthTable() *auth.Table {
	table := &auth.Table{}
	for _, repo := range c.Repositories {
		if a := repo.Auth.ToAuthenticator(); a != nil {
			table.Add(repo.URL, a)
		}
	}
	for _, catalog := range c.ArchetypeCatalogs {
		if a := catalog.Auth.ToAuthenticator(); a != nil {
			table.Add(catalog.Location, a)
		}
	}
	return table
}
