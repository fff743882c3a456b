package cli

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"

	"github.com/akarpovs/authflow/internal/client/cache"
	"github.com/akarpovs/authflow/internal/client/config"
	"github.com/akarpovs/authflow/internal/client/gateway"
	"github.com/akarpovs/authflow/internal/client/provider"
	"github.com/akarpovs/authflow/internal/client/services"
	"github.com/akarpovs/authflow/internal/client/session"
	"github.com/akarpovs/authflow/internal/logging"
)

// App is the composition root: it builds the provider from configuration,
// wires gateway, store, cache and coordinator, and drives the REPL.
type App struct {
	config      *config.Config
	store       *session.Store
	coordinator *services.Coordinator
	provider    provider.Provider
	log         logging.Logger
	reader      *bufio.Reader
	out         io.Writer
}

func NewApp(cfg *config.Config, log logging.Logger) *App {
	p := buildProvider(cfg, log)
	store := session.NewStore()
	derived := cache.New()
	gw := gateway.New(p, log)
	coordinator := services.NewCoordinator(gw, store, derived, log)

	return &App{
		config:      cfg,
		store:       store,
		coordinator: coordinator,
		provider:    p,
		log:         log,
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}
}

// buildProvider selects the identity backend. Incomplete configuration falls
// back to the unavailable provider so the app still starts and can explain.
func buildProvider(cfg *config.Config, log logging.Logger) provider.Provider {
	if !cfg.ProviderAvailable() {
		log.Warn(context.Background(), "identity provider not configured, auth operations will be unavailable")
		return provider.NewUnavailable()
	}
	if cfg.Provider == config.ProviderMemory {
		return provider.NewMemory()
	}
	return provider.NewREST(provider.RESTConfig{
		APIKey:           cfg.APIKey,
		TenantID:         cfg.TenantID,
		AccountsEndpoint: cfg.AccountsEndpoint,
		TokenEndpoint:    cfg.TokenEndpoint,
		HTTPClient:       &http.Client{Timeout: cfg.CallTimeout},
		Logger:           log.With("component", "provider"),
	})
}

// Close releases the coordinator's subscription and the provider's timers.
func (a *App) Close() {
	a.coordinator.Close()
	_ = a.provider.Close()
}
