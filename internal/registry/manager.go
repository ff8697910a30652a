package registry

import (
	"context"
	"fmt"

	"github.com/toolprint/vibekit/pkg/agentkind"
)

// Manager holds a map of registry providers and routes operations to
// whichever is selected as default.
type Manager struct {
	providers       map[agentkind.RegistryKind]Provider
	defaultRegistry agentkind.RegistryKind
}

// NewManager constructs a Manager with the given provider set and initial
// default registry.
func NewManager(providers map[agentkind.RegistryKind]Provider, defaultRegistry agentkind.RegistryKind) (*Manager, error) {
	if _, ok := providers[defaultRegistry]; !ok {
		return nil, fmt.Errorf("registry: no provider registered for default registry %q", defaultRegistry)
	}
	return &Manager{providers: providers, defaultRegistry: defaultRegistry}, nil
}

// SetDefault switches the default registry the Manager routes to.
func (m *Manager) SetDefault(kind agentkind.RegistryKind) error {
	if _, ok := m.providers[kind]; !ok {
		return fmt.Errorf("registry: no provider registered for %q", kind)
	}
	m.defaultRegistry = kind
	return nil
}

// Default returns the provider currently selected as default.
func (m *Manager) Default() Provider {
	return m.providers[m.defaultRegistry]
}

// Provider returns the provider for an explicit registry kind.
func (m *Manager) Provider(kind agentkind.RegistryKind) (Provider, error) {
	p, ok := m.providers[kind]
	if !ok {
		return nil, fmt.Errorf("registry: no provider registered for %q", kind)
	}
	return p, nil
}

// ImageNameFor routes to the default provider.
func (m *Manager) ImageNameFor(kind agentkind.Kind, user string) (agentkind.ImageRef, bool) {
	return m.Default().ImageNameFor(kind, user)
}

// setupper is implemented by providers that need a bespoke setup sequence
// beyond "check login, then upload". None of the three current providers
// implement it; it exists so a future provider can opt in without
// changing Manager.SetupRegistry's call site.
type setupper interface {
	Setup(ctx context.Context, user string, kinds []agentkind.Kind) error
}

// SetupRegistry delegates to the default provider's own setup if it
// implements one; otherwise it checks login and uploads the given agent
// kinds.
func (m *Manager) SetupRegistry(ctx context.Context, user string, kinds []agentkind.Kind) (UploadReport, error) {
	p := m.Default()
	if sp, ok := p.(setupper); ok {
		if err := sp.Setup(ctx, user, kinds); err != nil {
			return UploadReport{}, err
		}
		return UploadReport{OverallSuccess: true}, nil
	}

	status, err := p.CheckLogin(ctx)
	if err != nil {
		return UploadReport{}, err
	}
	if !status.LoggedIn {
		if err := p.Login(ctx, user); err != nil {
			return UploadReport{}, fmt.Errorf("registry: setup: %w", err)
		}
	}
	return p.UploadImages(ctx, user, kinds)
}
