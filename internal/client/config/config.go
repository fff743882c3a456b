// Package config holds runtime settings for the auth client.
package config

import (
	"os"
	"time"
)

// Provider kinds selectable via configuration.
const (
	ProviderREST   = "rest"
	ProviderMemory = "memory"
)

// Config carries the provider-connection parameters. The values are opaque
// to the rest of the client: only the composition root reads them, and only
// to decide which provider to construct.
//
// Missing credentials are not an error. The application must still start and
// render, so availability is a query (ProviderAvailable), not a validation
// failure.
type Config struct {
	Provider         string        `env:"AUTHFLOW_PROVIDER"`
	APIKey           string        `env:"AUTHFLOW_API_KEY"`
	ProjectID        string        `env:"AUTHFLOW_PROJECT_ID"`
	TenantID         string        `env:"AUTHFLOW_TENANT_ID"`
	AccountsEndpoint string        `env:"AUTHFLOW_ACCOUNTS_ENDPOINT"`
	TokenEndpoint    string        `env:"AUTHFLOW_TOKEN_ENDPOINT"`
	CallTimeout      time.Duration `env:"AUTHFLOW_CALL_TIMEOUT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Provider = ProviderREST
	c.CallTimeout = 30 * time.Second
}

// ProviderAvailable reports whether enough configuration is present to reach
// the identity provider. The in-memory provider needs nothing; the REST
// provider needs an API key and a project id.
func (c *Config) ProviderAvailable() bool {
	if c.Provider == ProviderMemory {
		return true
	}
	return c.APIKey != "" && c.ProjectID != ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment and command-line flags. Later sources take precedence over
// earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	parseFlags(cfg, os.Args[1:])
	return cfg, nil
}
