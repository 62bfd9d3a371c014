package provider

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Registry maps provider names to implementations. The first registered
// provider is the default. Registration happens at startup; lookups after
// that are read-only and safe for concurrent use.
type Registry struct {
	providers map[string]Provider
	order     []string
	def       string
}

func NewRegistry(ps ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range ps {
		r.Register(p)
	}
	return r
}

func (r *Registry) Register(p Provider) {
	key := registryKey(p.Identity().Name)
	if _, exists := r.providers[key]; !exists {
		r.order = append(r.order, key)
	}
	r.providers[key] = p
	if r.def == "" {
		r.def = key
	}
}

// Get returns the provider registered under name (case-insensitive).
// An empty name selects the default provider.
func (r *Registry) Get(name string) (Provider, error) {
	key := registryKey(name)
	if key == "" {
		key = r.def
	}
	p, ok := r.providers[key]
	if !ok {
		return nil, fmt.Errorf("provider %q not found (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return p, nil
}

func (r *Registry) Names() []string {
	return lo.Map(r.order, func(key string, _ int) string {
		return r.providers[key].Identity().Name
	})
}

func registryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
