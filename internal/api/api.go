// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/accordhq/accord/internal/config"
	"github.com/accordhq/accord/internal/infrastructure"
	"github.com/accordhq/accord/pkg/middleware"
	"github.com/accordhq/accord/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg, runtime); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))

	if cfg.API.Auth.Enabled {
		verifier, err := middleware.NewOIDCVerifier(context.Background(), cfg.API.Auth)
		if err != nil {
			return nil, fmt.Errorf("configure auth: %w", err)
		}
		m.Use(middleware.Auth(verifier, runtime.Infrastructure.Logger))
	}

	return m, nil
}
