package api

import (
	"github.com/accordhq/accord/internal/config"
	"github.com/accordhq/accord/internal/documents"
	"github.com/accordhq/accord/internal/invoices"
	"github.com/accordhq/accord/internal/resolutions"
	"github.com/accordhq/accord/internal/rules"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Documents   documents.System
	Invoices    invoices.System
	Resolutions resolutions.System
}

// NewDomain creates all domain systems from the API runtime. Rule extraction
// always runs hierarchy verification; the language model collaborator is
// attached only when configured.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	docsSystem := documents.New(
		db,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	invoicesSystem := invoices.New(
		db,
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	var completer rules.Completer
	if cfg.Rules.Enabled {
		completer = rules.NewOpenAIClient(cfg.Rules.APIKey, cfg.Rules.Model, cfg.Rules.BaseURL)
	}
	extractor := rules.NewExtractor(completer, runtime.Logger)

	resolutionsSystem := resolutions.New(
		db,
		docsSystem,
		invoicesSystem,
		extractor,
		runtime.Logger,
		runtime.Pagination,
		cfg.Engine.Workers,
	)

	return &Domain{
		Documents:   docsSystem,
		Invoices:    invoicesSystem,
		Resolutions: resolutionsSystem,
	}
}
