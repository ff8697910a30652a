package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/toolprint/vibekit/internal/config"
	"github.com/toolprint/vibekit/internal/container"
	"github.com/toolprint/vibekit/internal/oauth"
	"github.com/toolprint/vibekit/internal/registry"
	"github.com/toolprint/vibekit/internal/resolver"
	"github.com/toolprint/vibekit/internal/sandbox"
)

type correlationIDKey struct{}

// contextWithCorrelation returns a context.Context carrying cctx's
// per-invocation correlation id under a key private to this package.
// Nothing in the module reads the value back; the id reaches the log
// through main's startup line.
func contextWithCorrelation(cctx *Context) context.Context {
	return context.WithValue(context.Background(), correlationIDKey{}, cctx.CorrelationID)
}

// Context is the dependency bundle every subcommand's Run method
// receives, mirroring the teacher's own Context{AppBaseDir, sber, ...}
// shape in cmd/sand/main.go.
type Context struct {
	AppBaseDir    string
	CorrelationID string

	client   container.Client
	store    *config.Store
	manager  *registry.Manager
	resolver *resolver.Resolver
	boxer    *sandbox.Boxer
}

// newContext wires up every component package into one Context, rooted
// at appBaseDir ($HOME/.vibekit by default).
func newContext(appBaseDir, correlationID string) (*Context, error) {
	client := container.New("")

	store, err := config.NewStore(filepath.Join(appBaseDir, "config.json"))
	if err != nil {
		return nil, fmt.Errorf("vibekit: opening config store: %w", err)
	}
	rec, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("vibekit: loading config: %w", err)
	}

	manager, err := buildRegistryManager(client, rec)
	if err != nil {
		return nil, err
	}

	res, err := resolver.New(client, manager, store, filepath.Join(appBaseDir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("vibekit: constructing resolver: %w", err)
	}

	return &Context{
		AppBaseDir:    appBaseDir,
		CorrelationID: correlationID,
		client:        client,
		store:         store,
		manager:       manager,
		resolver:      res,
		boxer:         sandbox.New(client, res),
	}, nil
}

// tokenManager builds an oauth.Manager for provider, storing its token
// under AppBaseDir/tokens/<provider>.json.
func (c *Context) tokenManager(provider string) (*oauth.Manager, error) {
	path := filepath.Join(c.AppBaseDir, "tokens", provider+".json")
	return oauth.New(oauth.NewFileStorage(path), endpointFor(provider), nil), nil
}
