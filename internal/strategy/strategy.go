// Package strategy defines the decision contract the engine drives and the
// registry that maps configured names to implementations.
package strategy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"polytrader/internal/model"
)

// Strategy turns one market snapshot into one trade decision. Implementations
// must be pure with respect to persisted state: they may read the portfolio
// summary and existing position but never write the ledger or the database.
type Strategy interface {
	Name() string
	Analyze(ctx context.Context, snap model.MarketSnapshot, portfolio model.PortfolioSummary, existing *model.Position) (model.Decision, error)
}

// Factory builds a strategy instance from run configuration.
type Factory func() (Strategy, error)

// Registry is an explicitly validated name-to-factory map. The engine holds
// exactly one active strategy per run, selected here at startup.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named factory. Duplicate names are a wiring bug.
func (r *Registry) Register(name string, f Factory) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("strategy name cannot be empty")
	}
	if f == nil {
		return fmt.Errorf("strategy factory for %q cannot be nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("strategy %q registered twice", name)
	}
	r.factories[name] = f
	return nil
}

// Build instantiates the named strategy or fails with the known names.
func (r *Registry) Build(name string) (Strategy, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (registered: %s)", name, strings.Join(r.Names(), ", "))
	}
	return f()
}

// Names lists registered strategies in stable order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
