package main

import (
	"os"
	"strings"

	"github.com/toolprint/vibekit/internal/config"
	"github.com/toolprint/vibekit/internal/container"
	"github.com/toolprint/vibekit/internal/oauth"
	"github.com/toolprint/vibekit/internal/registry"
	"github.com/toolprint/vibekit/pkg/agentkind"
)

// buildRegistryManager constructs the three registry providers and a
// Manager routed to rec's configured default, matching the Manager/Provider
// wiring spec §4.3 describes. The cloud provider's account/region are read
// from the config record's PrivateRegistry field in "account:region" form;
// an empty value leaves the cloud provider constructible but unusable
// until configured, which surfaces as a registry error rather than a
// startup failure.
func buildRegistryManager(client container.Client, rec config.Record) (*registry.Manager, error) {
	accountID, region := splitCloudTarget(rec.PrivateRegistry)

	providers := map[agentkind.RegistryKind]registry.Provider{
		agentkind.Hub:   registry.NewHubProvider(client),
		agentkind.Forge: registry.NewForgeProvider(client),
		agentkind.Cloud: registry.NewCloudProvider(client, accountID, region),
	}
	return registry.NewManager(providers, rec.RegistryKind)
}

func splitCloudTarget(privateRegistry string) (accountID, region string) {
	for i := 0; i < len(privateRegistry); i++ {
		if privateRegistry[i] == ':' {
			return privateRegistry[:i], privateRegistry[i+1:]
		}
	}
	return privateRegistry, ""
}

// endpointFor resolves the OAuth endpoint configuration for provider from
// environment variables named VIBEKIT_OAUTH_<PROVIDER>_{AUTH_URL,TOKEN_URL,
// CLIENT_ID,REDIRECT_URI,SCOPE}, matching the env-var-as-configuration
// convention internal/registry's forgeProvider already uses for
// VIBEKIT_FORGE_TOKEN.
func endpointFor(provider string) oauth.Endpoint {
	prefix := "VIBEKIT_OAUTH_" + strings.ToUpper(provider) + "_"
	return oauth.Endpoint{
		AuthorizationURL: os.Getenv(prefix + "AUTH_URL"),
		TokenURL:         os.Getenv(prefix + "TOKEN_URL"),
		ClientID:         os.Getenv(prefix + "CLIENT_ID"),
		RedirectURI:      os.Getenv(prefix + "REDIRECT_URI"),
		Scope:            os.Getenv(prefix + "SCOPE"),
	}
}
