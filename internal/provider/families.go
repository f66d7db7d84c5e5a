// Package provider wires provider families into the model registry.
// Each family initializes independently: a missing credential or a hard
// failure in one family never aborts its siblings.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/davidbz/ensemble/internal/config"
	"github.com/davidbz/ensemble/internal/domain"
	"github.com/davidbz/ensemble/internal/model"
	"github.com/davidbz/ensemble/internal/observability"
	"github.com/davidbz/ensemble/internal/provider/anthropic"
	"github.com/davidbz/ensemble/internal/provider/cohere"
	"github.com/davidbz/ensemble/internal/provider/echo"
	"github.com/davidbz/ensemble/internal/provider/gemini"
	"github.com/davidbz/ensemble/internal/provider/openai"
)

// ErrNotConfigured indicates a family has no credentials and should be
// skipped. It is expected for optional providers.
var ErrNotConfigured = errors.New("provider family not configured")

// Registration is one model contributed by a family.
type Registration struct {
	ID      string
	Tier    model.Tier
	Backend domain.Backend
}

// InitFunc constructs a family's backends from configuration.
type InitFunc func(ctx context.Context, cfg *config.Config) ([]Registration, error)

// Family is an independently guarded provider initializer.
type Family struct {
	Name string
	Init InitFunc
}

// Families returns the provider initializers in registration order.
// Chain priority within a tier follows this order.
func Families() []Family {
	return []Family{
		{Name: "openai", Init: initOpenAI},
		{Name: "anthropic", Init: initAnthropic},
		{Name: "cohere", Init: initCohere},
		{Name: "gemini", Init: initGemini},
		{Name: "echo", Init: initEcho},
	}
}

// RegisterAll runs the default family initializers and registers the
// backends each one contributes.
func RegisterAll(ctx context.Context, cfg *config.Config, mgr *model.Manager) int {
	return RegisterFamilies(ctx, cfg, mgr, Families())
}

// RegisterFamilies runs the given family initializers. Failures are
// contained per family: missing credentials are logged and skipped, hard
// errors are logged as configuration errors, and siblings always
// proceed. Returns the number of models registered.
func RegisterFamilies(ctx context.Context, cfg *config.Config, mgr *model.Manager, families []Family) int {
	logger := observability.FromContext(ctx)
	registered := 0

	for _, family := range families {
		registrations, err := runGuarded(ctx, family, cfg)

		switch {
		case errors.Is(err, ErrNotConfigured):
			logger.Info("provider family skipped, not configured",
				observability.String("family", family.Name))
			continue
		case err != nil:
			logger.Error("provider family failed to initialize",
				observability.String("family", family.Name),
				observability.Error(err))
			continue
		}

		for _, r := range registrations {
			mgr.Register(ctx, r.ID, r.Backend, r.Tier)
			registered++
		}

		logger.Info("provider family registered",
			observability.String("family", family.Name),
			observability.Int("models", len(registrations)))
	}

	if registered == 0 {
		logger.Warn("no models registered; requests will fail until a provider is configured")
	}

	return registered
}

// runGuarded invokes a family initializer, converting panics into
// configuration errors so one family can't take down startup.
func runGuarded(ctx context.Context, family Family, cfg *config.Config) (regs []Registration, err error) {
	defer func() {
		if r := recover(); r != nil {
			regs = nil
			err = fmt.Errorf("%w: family %s panicked: %v", domain.ErrModelConfig, family.Name, r)
		}
	}()

	regs, err = family.Init(ctx, cfg)
	if err != nil && !errors.Is(err, ErrNotConfigured) {
		err = fmt.Errorf("%w: %v", domain.ErrModelConfig, err)
	}
	return regs, err
}

// DefaultChains declares the per-tier fallback priority across all
// families. Ids that end up never registered (family skipped) are
// tolerated and skipped during resolution.
func DefaultChains() map[model.Tier][]string {
	return map[model.Tier][]string{
		model.TierPremium:  {"gpt-4", "claude-2", "gemini-pro"},
		model.TierAdvanced: {"gpt-4-turbo", "claude-instant-1", "command-nightly"},
		model.TierStandard: {"gpt-3.5-turbo", "command-light-nightly"},
		model.TierBasic:    {"gpt-3.5-turbo-16k", "echo"},
	}
}

func initOpenAI(_ context.Context, cfg *config.Config) ([]Registration, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, ErrNotConfigured
	}

	backend, err := openai.NewBackend(cfg.OpenAI)
	if err != nil {
		return nil, err
	}

	return fromCatalog(backend, openai.Catalog()), nil
}

func initAnthropic(_ context.Context, cfg *config.Config) ([]Registration, error) {
	if cfg.Anthropic.APIKey == "" {
		return nil, ErrNotConfigured
	}

	backend, err := anthropic.NewBackend(cfg.Anthropic)
	if err != nil {
		return nil, err
	}

	return fromCatalog(backend, anthropic.Catalog()), nil
}

func initCohere(_ context.Context, cfg *config.Config) ([]Registration, error) {
	if cfg.Cohere.APIKey == "" {
		return nil, ErrNotConfigured
	}

	backend, err := cohere.NewBackend(cfg.Cohere)
	if err != nil {
		return nil, err
	}

	return fromCatalog(backend, cohere.Catalog()), nil
}

func initGemini(ctx context.Context, cfg *config.Config) ([]Registration, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, ErrNotConfigured
	}

	backend, err := gemini.NewBackend(ctx, cfg.Gemini)
	if err != nil {
		return nil, err
	}

	return fromCatalog(backend, gemini.Catalog()), nil
}

func initEcho(_ context.Context, cfg *config.Config) ([]Registration, error) {
	if !cfg.Echo.Enabled {
		return nil, ErrNotConfigured
	}

	return fromCatalog(echo.NewBackend(), echo.Catalog()), nil
}

// fromCatalog binds one family backend to each of its catalog models.
func fromCatalog(backend domain.Backend, catalog []model.CatalogEntry) []Registration {
	regs := make([]Registration, 0, len(catalog))
	for _, entry := range catalog {
		regs = append(regs, Registration{
			ID:      entry.ID,
			Tier:    entry.Tier,
			Backend: backend,
		})
	}
	return regs
}
