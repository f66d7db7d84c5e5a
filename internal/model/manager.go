package model

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/davidbz/ensemble/internal/domain"
	"github.com/davidbz/ensemble/internal/observability"
)

const defaultMaxErrors = 3

// Config controls registry behaviour.
type Config struct {
	// MaxErrors is the consecutive error count after which a model is
	// marked unavailable until explicitly reset.
	MaxErrors int `env:"MODEL_MAX_ERRORS" envDefault:"3"`

	// DefaultModels are the ids dispatched to when a caller names none.
	DefaultModels []string `env:"DEFAULT_MODELS" envSeparator:"," envDefault:"gpt-4,claude-2,command-nightly"`
}

// CatalogEntry pairs a model id with its capability tier. Provider
// families expose catalogs of these for registration.
type CatalogEntry struct {
	ID   string
	Tier Tier
}

// record is the per-model registry entry. Mutated only under Manager.mu.
type record struct {
	backend    domain.Backend
	tier       Tier
	available  bool
	errorCount int
}

// Manager owns the model registry and the per-tier fallback chains.
// It is safe for concurrent use; registration is expected to complete
// before concurrent access begins but is guarded regardless.
type Manager struct {
	mu            sync.RWMutex
	records       map[string]*record
	chains        map[Tier][]string
	defaultModels []string
	maxErrors     int
}

// NewManager creates a registry with the given fallback chains.
// Chains may reference ids that are never registered; those entries are
// skipped during fallback resolution.
func NewManager(cfg Config, chains map[Tier][]string) *Manager {
	maxErrors := cfg.MaxErrors
	if maxErrors <= 0 {
		maxErrors = defaultMaxErrors
	}

	copied := make(map[Tier][]string, len(chains))
	for tier, ids := range chains {
		copied[tier] = append([]string(nil), ids...)
	}

	return &Manager{
		mu:            sync.RWMutex{},
		records:       make(map[string]*record),
		chains:        copied,
		defaultModels: append([]string(nil), cfg.DefaultModels...),
		maxErrors:     maxErrors,
	}
}

// Register inserts or overwrites a model record. Overwriting resets the
// record's health state.
func (m *Manager) Register(ctx context.Context, id string, backend domain.Backend, tier Tier) {
	m.mu.Lock()
	m.records[id] = &record{
		backend:    backend,
		tier:       tier,
		available:  true,
		errorCount: 0,
	}
	m.mu.Unlock()

	observability.FromContext(ctx).Info("model registered",
		observability.String("model", id),
		observability.String("tier", tier.String()),
	)
}

// Get resolves a model id to a backend. When the id is registered and
// available it is returned directly. Otherwise, with useFallback enabled,
// the fallback chain of the record's tier is scanned in priority order,
// then every lower tier's chain, never upward. An id that was never
// registered has no tier to anchor the walk and resolves via
// BestAvailable. Returns the resolved id so callers can disclose
// substitutions.
func (m *Manager) Get(ctx context.Context, id string, useFallback bool) (string, domain.Backend, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, registered := m.records[id]
	if registered && rec.available {
		return id, rec.backend, nil
	}

	if !useFallback {
		return "", nil, fmt.Errorf("model %q: %w", id, domain.ErrModelNotFound)
	}

	logger := observability.FromContext(ctx)

	if !registered {
		logger.Warn("requested model not registered, resolving best available",
			observability.String("model", id))
		return m.bestAvailableLocked(id)
	}

	logger.Warn("requested model unavailable, searching fallback chains",
		observability.String("model", id),
		observability.String("tier", rec.tier.String()),
	)

	for _, tier := range append([]Tier{rec.tier}, rec.tier.Below()...) {
		if resolved, backend, ok := m.scanChainLocked(tier); ok {
			logger.Info("fallback model resolved",
				observability.String("requested", id),
				observability.String("resolved", resolved),
				observability.String("tier", tier.String()),
			)
			return resolved, backend, nil
		}
	}

	return "", nil, fmt.Errorf("no fallback models available for %q: %w", id, domain.ErrModelNotFound)
}

// BestAvailable returns the most capable available model, scanning tiers
// from premium downward and each tier's chain in priority order.
func (m *Manager) BestAvailable(ctx context.Context) (string, domain.Backend, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bestAvailableLocked("")
}

// bestAvailableLocked walks every tier's chain top-down. Callers hold m.mu.
func (m *Manager) bestAvailableLocked(requested string) (string, domain.Backend, error) {
	for _, tier := range tiersDescending {
		if resolved, backend, ok := m.scanChainLocked(tier); ok {
			return resolved, backend, nil
		}
	}

	if requested != "" {
		return "", nil, fmt.Errorf("no fallback models available for %q: %w", requested, domain.ErrModelNotFound)
	}
	return "", nil, fmt.Errorf("no models available: %w", domain.ErrModelNotFound)
}

// scanChainLocked returns the first registered, available candidate in the
// tier's chain. Callers hold m.mu.
func (m *Manager) scanChainLocked(tier Tier) (string, domain.Backend, bool) {
	for _, candidate := range m.chains[tier] {
		if rec, ok := m.records[candidate]; ok && rec.available {
			return candidate, rec.backend, true
		}
	}
	return "", nil, false
}

// MarkError records a failed invocation for a model. Once the error count
// reaches the configured maximum the model becomes unavailable until
// ResetStatus is called. Unknown ids are ignored.
func (m *Manager) MarkError(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return
	}

	rec.errorCount++
	if rec.errorCount >= m.maxErrors && rec.available {
		rec.available = false
		observability.FromContext(ctx).Warn("model marked unavailable",
			observability.String("model", id),
			observability.Int("error_count", rec.errorCount),
		)
	}
}

// ResetStatus clears a model's error count and restores availability.
// This is the only path back to availability. Unknown ids are ignored.
func (m *Manager) ResetStatus(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return
	}

	restored := !rec.available
	rec.errorCount = 0
	rec.available = true

	if restored {
		observability.FromContext(ctx).Info("model availability restored",
			observability.String("model", id))
	}
}

// Remove deletes a model from the registry. Unknown ids are ignored.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
}

// ListAvailable returns the ids of all available models, sorted.
func (m *Manager) ListAvailable() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.records))
	for id, rec := range m.records {
		if rec.available {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// ListAvailableInTier returns the ids of available models in the given
// tier, sorted.
func (m *Manager) ListAvailableInTier(tier Tier) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.records))
	for id, rec := range m.records {
		if rec.available && rec.tier == tier {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// TierOf returns the tier supplied at registration.
func (m *Manager) TierOf(id string) (Tier, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return 0, false
	}
	return rec.tier, true
}

// ErrorCount returns a model's accumulated error count.
func (m *Manager) ErrorCount(id string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return 0, false
	}
	return rec.errorCount, true
}

// DefaultModels returns the configured default dispatch ids.
func (m *Manager) DefaultModels() []string {
	return append([]string(nil), m.defaultModels...)
}
