package config

import (
	"flag"

	"github.com/akarpovs/authflow/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-provider string   identity provider kind ("rest" or "memory")
//	-key string        API key for the hosted provider
//	-project string    project identifier
//	-endpoint string   accounts endpoint override
//
// The function filters args to only include the flags it knows about, using
// flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-provider", "-key", "-project", "-endpoint"})

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&cfg.Provider, "provider", cfg.Provider, "identity provider kind")
	fs.StringVar(&cfg.APIKey, "key", cfg.APIKey, "identity provider API key")
	fs.StringVar(&cfg.ProjectID, "project", cfg.ProjectID, "identity provider project id")
	fs.StringVar(&cfg.AccountsEndpoint, "endpoint", cfg.AccountsEndpoint, "accounts endpoint override")

	_ = fs.Parse(args)
}
